package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stake-plus/member-gov/src/govd/engine"
	"github.com/stake-plus/member-gov/src/govd/types"
)

// Admin owns the membership registry surface. The engine only ever queries
// membership; these handlers are the writers.
type Admin struct {
	eng *engine.Engine
	db  *gorm.DB
}

func NewAdmin(eng *engine.Engine, db *gorm.DB) Admin { return Admin{eng: eng, db: db} }

func (a Admin) UpsertMember(c *gin.Context) {
	var req struct {
		Address   string `json:"address" binding:"required,min=32,max=128"`
		Role      string `json:"role" binding:"required,oneof=patient provider admin"`
		Status    string `json:"status" binding:"required,oneof=pending active inactive rejected"`
		ExpiresAt uint64 `json:"expiresAt"`
		IsAdmin   bool   `json:"isAdmin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	m := types.Member{
		Address:   req.Address,
		Role:      req.Role,
		Status:    req.Status,
		JoinedAt:  a.eng.Height(),
		ExpiresAt: req.ExpiresAt,
		IsAdmin:   req.IsAdmin,
	}
	err := a.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "status", "expires_at", "is_admin"}),
	}).Create(&m).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a Admin) SetCredits(c *gin.Context) {
	var req struct {
		Credits uint64 `json:"credits"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	res := a.db.Model(&types.Member{}).
		Where("address = ?", c.Param("addr")).
		Update("credits", req.Credits)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"err": "member not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a Admin) Deactivate(c *gin.Context) {
	res := a.db.Model(&types.Member{}).
		Where("address = ?", c.Param("addr")).
		Update("status", types.MemberStatusInactive)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"err": "member not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a Admin) SetRoleWeight(c *gin.Context) {
	var req struct {
		Role   string `json:"role" binding:"required,oneof=patient provider admin"`
		Weight uint64 `json:"weight"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := a.eng.SetGlobalRoleWeight(c.GetString("addr"), req.Role, req.Weight); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
