package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/member-gov/src/govd/engine"
)

type Delegations struct {
	eng *engine.Engine
}

func NewDelegations(eng *engine.Engine) Delegations { return Delegations{eng: eng} }

func (d Delegations) Set(c *gin.Context) {
	var req struct {
		Delegate string `json:"delegate" binding:"required,min=32,max=128"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := d.eng.SetDelegation(c.GetString("addr"), req.Delegate); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (d Delegations) Remove(c *gin.Context) {
	if err := d.eng.RemoveDelegation(c.GetString("addr")); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
