//go:build redis
// +build redis

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue is a LIST-based job queue using Redis.
// Producer: LPUSH; Consumer: BRPOP with timeout; Ack/Nack are best-effort via
// an inflight side list.
type RedisQueue struct {
	rdb   *redis.Client
	ns    string
	popTO time.Duration
}

// RedisConfig configures the RedisQueue.
type RedisConfig struct {
	Addr       string
	Username   string
	Password   string
	DB         int
	Namespace  string
	PopTimeout time.Duration
}

// NewRedisQueue creates a Redis-backed queue.
func NewRedisQueue(cfg RedisConfig) (*RedisQueue, error) {
	if cfg.PopTimeout == 0 {
		cfg.PopTimeout = 5 * time.Second
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "elroy"
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Username: cfg.Username, Password: cfg.Password, DB: cfg.DB})
	return &RedisQueue{rdb: rdb, ns: cfg.Namespace, popTO: cfg.PopTimeout}, nil
}

func (q *RedisQueue) keyJobs(queueName string) string {
	return fmt.Sprintf("%s:queue:%s", q.ns, queueName)
}
func (q *RedisQueue) keyInFlight(queueName string) string {
	return fmt.Sprintf("%s:inflight:%s", q.ns, queueName)
}

// Enqueue adds a job to the queue.
func (q *RedisQueue) Enqueue(ctx context.Context, queueName string, job *Job) error {
	if job == nil {
		return fmt.Errorf("nil job")
	}
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.keyJobs(queueName), string(b)).Err()
}

// Dequeue pops a job using the configured pop timeout.
func (q *RedisQueue) Dequeue(ctx context.Context, queueName string) (*Job, error) {
	return q.DequeueWithTimeout(ctx, queueName, 0)
}

// DequeueWithTimeout pops a job, moving it to the inflight list.
func (q *RedisQueue) DequeueWithTimeout(ctx context.Context, queueName string, timeout time.Duration) (*Job, error) {
	if timeout <= 0 {
		timeout = q.popTO
	}
	res, err := q.rdb.BRPop(ctx, timeout, q.keyJobs(queueName)).Result()
	if err != nil {
		return nil, err
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP result")
	}
	payload := res[1]
	_ = q.rdb.LPush(ctx, q.keyInFlight(queueName), payload).Err()
	var j Job
	if err := json.Unmarshal([]byte(payload), &j); err != nil {
		return nil, err
	}
	j.Attempts++
	return &j, nil
}

// Ack removes the job from the inflight list.
func (q *RedisQueue) Ack(ctx context.Context, queueName string, jobID string) error {
	return q.removeInflight(ctx, queueName, jobID, false)
}

// Nack removes the job from inflight and requeues it when asked.
func (q *RedisQueue) Nack(ctx context.Context, queueName string, jobID string, requeue bool) error {
	return q.removeInflight(ctx, queueName, jobID, requeue)
}

func (q *RedisQueue) removeInflight(ctx context.Context, queueName, jobID string, requeue bool) error {
	vals, err := q.rdb.LRange(ctx, q.keyInFlight(queueName), 0, -1).Result()
	if err != nil {
		return err
	}
	for _, v := range vals {
		var j Job
		if json.Unmarshal([]byte(v), &j) != nil || j.ID != jobID {
			continue
		}
		if err := q.rdb.LRem(ctx, q.keyInFlight(queueName), 1, v).Err(); err != nil {
			return err
		}
		if requeue {
			return q.rdb.LPush(ctx, q.keyJobs(queueName), v).Err()
		}
		return nil
	}
	return fmt.Errorf("job %s not found in inflight", jobID)
}

// Len returns the number of ready jobs.
func (q *RedisQueue) Len(ctx context.Context, queueName string) (int, error) {
	n, err := q.rdb.LLen(ctx, q.keyJobs(queueName)).Result()
	return int(n), err
}

// Close closes the Redis connection.
func (q *RedisQueue) Close() error { return q.rdb.Close() }
