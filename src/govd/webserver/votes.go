package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/member-gov/src/govd/engine"
	"github.com/stake-plus/member-gov/src/govd/types"
)

type Votes struct {
	eng *engine.Engine
}

func NewVotes(eng *engine.Engine) Votes { return Votes{eng: eng} }

func (v Votes) Cast(c *gin.Context) {
	var req struct {
		ProposalID uint64 `json:"proposalId" binding:"required"`
		Choice     string `json:"choice" binding:"required,oneof=for against abstain"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	choiceMap := map[string]int16{
		"for":     types.ChoiceFor,
		"against": types.ChoiceAgainst,
		"abstain": types.ChoiceAbstain,
	}

	vote, err := v.eng.CastVote(c.GetString("addr"), req.ProposalID, choiceMap[req.Choice])
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"power": vote.Power, "castAt": vote.CastAt})
}
