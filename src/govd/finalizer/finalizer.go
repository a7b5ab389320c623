// Package finalizer closes out proposals whose voting window has elapsed.
// Finalization is open to any caller; the sweep is just a caller that never
// forgets.
package finalizer

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stake-plus/member-gov/src/govd/engine"
	"github.com/stake-plus/member-gov/src/govd/types"
	"github.com/stake-plus/member-gov/src/govd/webserver"
)

const actor = "system:finalizer"

// Service periodically finalizes every Active proposal past its end height.
func Service(ctx context.Context, eng *engine.Engine, rdb *redis.Client, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep(ctx, eng, rdb)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx, eng, rdb)
		}
	}
}

func sweep(ctx context.Context, eng *engine.Engine, rdb *redis.Client) {
	due, err := eng.ActiveDue(eng.Height())
	if err != nil {
		log.Printf("finalizer: list due proposals: %v", err)
		return
	}

	for _, p := range due {
		out, err := eng.Finalize(actor, p.ID)
		if err != nil {
			// Someone else may have finalized between the list and this call.
			if errors.Is(err, engine.ErrProposalNotActive) {
				continue
			}
			log.Printf("finalizer: proposal %d: %v", p.ID, err)
			continue
		}
		log.Printf("finalizer: proposal %d finalized as %s (participation %d)", p.ID, out.Status, out.Participation)
		if out.Status == types.StatusPassed {
			webserver.PublishPassed(ctx, rdb, eng, p.ID)
		}
	}
}
