package worker

import (
	"context"
	"fmt"

	"github.com/elroy-bot/elroy-sub001/memory"
	"github.com/elroy-bot/elroy-sub001/queue"
)

// StoreConsolidator applies basic maintenance directly against the memory
// store: exact-duplicate memories are deactivated. Richer clustering plugs in
// as an alternative Consolidator.
type StoreConsolidator struct {
	Store *memory.Store
}

func (c *StoreConsolidator) Consolidate(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeConsolidate:
		_, err := c.Store.DeduplicateMemories(ctx, job.UserID)
		return err
	default:
		return fmt.Errorf("unsupported job type: %s", job.Type)
	}
}
