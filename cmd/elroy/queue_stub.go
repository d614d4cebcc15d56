//go:build !adapters_sqs
// +build !adapters_sqs

package main

import (
	"context"
	"errors"

	"github.com/elroy-bot/elroy-sub001/config"
	"github.com/elroy-bot/elroy-sub001/queue"
)

func newSQSQueue(ctx context.Context, cfg *config.Config) (queue.Queue, error) {
	return nil, errors.New("queue kind \"sqs\" requires a build with -tags adapters_sqs")
}
