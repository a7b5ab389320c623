package webserver

import (
	"context"
	"html"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"

	"github.com/stake-plus/member-gov/src/govd/data"
	"github.com/stake-plus/member-gov/src/govd/engine"
	"github.com/stake-plus/member-gov/src/govd/types"
)

type Proposals struct {
	eng       *engine.Engine
	rdb       *redis.Client
	sanitizer *bluemonday.Policy
}

func NewProposals(eng *engine.Engine, rdb *redis.Client) Proposals {
	sanitizer := bluemonday.StrictPolicy()
	sanitizer.AllowElements("p", "br", "strong", "em", "code", "pre", "blockquote")
	sanitizer.AllowElements("ul", "ol", "li")
	sanitizer.AllowAttrs("href").OnElements("a")
	sanitizer.RequireParseableURLs(true)
	sanitizer.RequireNoFollowOnLinks(true)

	return Proposals{eng: eng, rdb: rdb, sanitizer: sanitizer}
}

func proposalID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad proposal id"})
		return 0, false
	}
	return id, true
}

func (h Proposals) Create(c *gin.Context) {
	var req struct {
		Title         string            `json:"title" binding:"required,max=255"`
		Description   string            `json:"description" binding:"max=10000"`
		Link          string            `json:"link" binding:"max=512"`
		Category      string            `json:"category" binding:"required"`
		Sensitive     bool              `json:"sensitive"`
		Mechanism     string            `json:"mechanism" binding:"required"`
		VoteStart     uint64            `json:"voteStart"`
		VoteEnd       uint64            `json:"voteEnd"`
		Quorum        uint64            `json:"quorum"`
		ExecRecipient string            `json:"execRecipient" binding:"max=128"`
		ExecAmount    uint64            `json:"execAmount"`
		ExecNote      string            `json:"execNote" binding:"max=512"`
		RoleWeights   map[string]uint64 `json:"roleWeights" binding:"max=10"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	p, err := h.eng.CreateProposal(c.GetString("addr"), engine.ProposalInput{
		Title:         html.EscapeString(req.Title),
		Description:   h.sanitizer.Sanitize(req.Description),
		Link:          req.Link,
		Category:      req.Category,
		Sensitive:     req.Sensitive,
		Mechanism:     req.Mechanism,
		VoteStart:     req.VoteStart,
		VoteEnd:       req.VoteEnd,
		Quorum:        req.Quorum,
		ExecRecipient: req.ExecRecipient,
		ExecAmount:    req.ExecAmount,
		ExecNote:      req.ExecNote,
		RoleWeights:   req.RoleWeights,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID, "status": p.Status})
}

func (h Proposals) Update(c *gin.Context) {
	id, ok := proposalID(c)
	if !ok {
		return
	}
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Link        *string `json:"link"`
		Category    *string `json:"category"`
		Sensitive   *bool   `json:"sensitive"`
		Mechanism   *string `json:"mechanism"`
		VoteStart   *uint64 `json:"voteStart"`
		VoteEnd     *uint64 `json:"voteEnd"`
		Quorum      *uint64 `json:"quorum"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if req.Title != nil {
		t := html.EscapeString(*req.Title)
		req.Title = &t
	}
	if req.Description != nil {
		d := h.sanitizer.Sanitize(*req.Description)
		req.Description = &d
	}

	err := h.eng.UpdateProposal(c.GetString("addr"), id, engine.ProposalUpdate{
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
		Category:    req.Category,
		Sensitive:   req.Sensitive,
		Mechanism:   req.Mechanism,
		VoteStart:   req.VoteStart,
		VoteEnd:     req.VoteEnd,
		Quorum:      req.Quorum,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Proposals) AuthorizeViewer(c *gin.Context) {
	id, ok := proposalID(c)
	if !ok {
		return
	}
	var req struct {
		Address string `json:"address" binding:"required,min=32,max=128"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := h.eng.AuthorizeViewer(c.GetString("addr"), id, req.Address); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Proposals) Get(c *gin.Context) {
	id, ok := proposalID(c)
	if !ok {
		return
	}
	p, err := h.eng.GetProposal(c.GetString("addr"), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h Proposals) List(c *gin.Context) {
	list, err := h.eng.ListProposals(c.GetString("addr"), c.Query("status"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Proposals) Submit(c *gin.Context) {
	h.transition(c, h.eng.SubmitProposal)
}

func (h Proposals) Sponsor(c *gin.Context) {
	h.transition(c, h.eng.SponsorProposal)
}

func (h Proposals) Cancel(c *gin.Context) {
	h.transition(c, h.eng.CancelProposal)
}

func (h Proposals) Execute(c *gin.Context) {
	h.transition(c, h.eng.Execute)
}

func (h Proposals) transition(c *gin.Context, op func(actor string, id uint64) error) {
	id, ok := proposalID(c)
	if !ok {
		return
	}
	if err := op(c.GetString("addr"), id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Proposals) Finalize(c *gin.Context) {
	id, ok := proposalID(c)
	if !ok {
		return
	}
	out, err := h.eng.Finalize(c.GetString("addr"), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if out.Status == types.StatusPassed {
		PublishPassed(c.Request.Context(), h.rdb, h.eng, id)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        out.Status,
		"participation": out.Participation,
		"quorumMet":     out.QuorumMet,
	})
}

// PublishPassed pushes the registered treasury action for a passed proposal
// onto the treasury stream. Publishing is best-effort; the action row remains
// the source of truth for pollers.
func PublishPassed(ctx context.Context, rdb *redis.Client, eng *engine.Engine, id uint64) {
	if rdb == nil {
		return
	}
	action, err := eng.TreasuryAction(id)
	if err != nil || action == nil {
		return
	}
	err = data.PublishTreasuryAction(ctx, rdb, map[string]interface{}{
		"event_id":    uuid.NewString(),
		"proposal_id": action.ProposalID,
		"recipient":   action.Recipient,
		"amount":      action.Amount,
		"description": action.Note,
	})
	if err != nil {
		log.Printf("Failed to publish treasury action for proposal %d: %v", id, err)
	}
}

func (h Proposals) Tally(c *gin.Context) {
	id, ok := proposalID(c)
	if !ok {
		return
	}
	t, err := h.eng.Tally(id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h Proposals) Audit(c *gin.Context) {
	id, ok := proposalID(c)
	if !ok {
		return
	}
	trail, err := h.eng.AuditTrail(id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, trail)
}

func (h Proposals) SponsorList(c *gin.Context) {
	id, ok := proposalID(c)
	if !ok {
		return
	}
	sponsors, err := h.eng.Sponsors(id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sponsors)
}
