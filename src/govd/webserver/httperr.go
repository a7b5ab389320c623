package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/member-gov/src/govd/engine"
)

// respondErr maps engine sentinels onto HTTP statuses.
func respondErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrNotAuthorized),
		errors.Is(err, engine.ErrNotAMember),
		errors.Is(err, engine.ErrNoVotingPower):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrInvalidParameter),
		errors.Is(err, engine.ErrInvalidMechanism),
		errors.Is(err, engine.ErrDelegationCycle):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrInvalidStateTransition),
		errors.Is(err, engine.ErrProposalNotActive),
		errors.Is(err, engine.ErrVotingClosed),
		errors.Is(err, engine.ErrAlreadyVoted),
		errors.Is(err, engine.ErrAlreadySponsored),
		errors.Is(err, engine.ErrAlreadyExists),
		errors.Is(err, engine.ErrDelegated):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"err": err.Error()})
}
