package main

import (
	"context"
	"fmt"

	"github.com/elroy-bot/elroy-sub001/config"
	"github.com/elroy-bot/elroy-sub001/queue"
)

// buildQueue constructs the job queue the config asks for. Kinds this build
// cannot honor are an error, not a silent substitution.
func buildQueue(ctx context.Context, cfg *config.Config) (queue.Queue, error) {
	switch cfg.Queue.Kind {
	case "", "inmemory":
		return queue.NewInMemoryQueue(), nil
	case "sqs":
		return newSQSQueue(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown queue kind %q", cfg.Queue.Kind)
	}
}
