//go:build adapters_sqs
// +build adapters_sqs

package main

import (
	"context"

	sqsqueue "github.com/elroy-bot/elroy-sub001/adapters/sqs"
	"github.com/elroy-bot/elroy-sub001/config"
	"github.com/elroy-bot/elroy-sub001/queue"
)

func newSQSQueue(ctx context.Context, cfg *config.Config) (queue.Queue, error) {
	return sqsqueue.New(ctx, sqsqueue.Config{
		QueueURL: cfg.Queue.SQSQueueURL,
		Region:   cfg.Queue.Region,
	})
}
