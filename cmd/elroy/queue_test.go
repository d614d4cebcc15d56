//go:build !adapters_sqs
// +build !adapters_sqs

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elroy-bot/elroy-sub001/config"
	"github.com/elroy-bot/elroy-sub001/queue"
)

func TestBuildQueueInMemory(t *testing.T) {
	cfg := config.Default()

	q, err := buildQueue(context.Background(), cfg)
	require.NoError(t, err)
	defer q.Close()
	assert.IsType(t, &queue.InMemoryQueue{}, q)
}

func TestBuildQueueSQSNotCompiledIn(t *testing.T) {
	cfg := config.Default()
	cfg.Queue.Kind = "sqs"
	cfg.Queue.SQSQueueURL = "https://sqs.us-east-1.amazonaws.com/1/q"

	_, err := buildQueue(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adapters_sqs")
}

func TestBuildQueueUnknownKind(t *testing.T) {
	cfg := config.Default()
	cfg.Queue.Kind = "rabbitmq"

	_, err := buildQueue(context.Background(), cfg)
	require.Error(t, err)
}
