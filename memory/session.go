package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/elroy-bot/elroy-sub001/llm"
)

// SessionStore keeps the short-term conversation window for a session.
type SessionStore interface {
	Append(ctx context.Context, sessionID string, msg llm.Message) error
	Recent(ctx context.Context, sessionID string, n int) ([]llm.Message, error)
	Clear(ctx context.Context, sessionID string) error
}

// RedisSessionStore stores session messages in Redis LISTs, one per session.
type RedisSessionStore struct {
	rdb *redis.Client
	ns  string
	// MaxMessages bounds history length per session; 0 disables trimming
	MaxMessages int
}

type SessionConfig struct {
	Addr        string
	Username    string
	Password    string
	DB          int
	Namespace   string
	MaxMessages int
}

func NewRedisSessionStore(cfg SessionConfig) (*RedisSessionStore, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = "elroy"
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Username: cfg.Username, Password: cfg.Password, DB: cfg.DB})
	return &RedisSessionStore{rdb: rdb, ns: cfg.Namespace, MaxMessages: cfg.MaxMessages}, nil
}

func (m *RedisSessionStore) key(sessionID string) string {
	return fmt.Sprintf("%s:chat:%s", m.ns, sessionID)
}

// Append appends a message to a session's history.
func (m *RedisSessionStore) Append(ctx context.Context, sessionID string, msg llm.Message) error {
	wrapper := struct {
		llm.Message
		Timestamp time.Time `json:"timestamp"`
	}{Message: msg, Timestamp: time.Now().UTC()}
	b, err := json.Marshal(wrapper)
	if err != nil {
		return err
	}
	if err := m.rdb.RPush(ctx, m.key(sessionID), string(b)).Err(); err != nil {
		return err
	}
	if m.MaxMessages > 0 {
		_ = m.rdb.LTrim(ctx, m.key(sessionID), -int64(m.MaxMessages), -1).Err()
	}
	return nil
}

// Recent returns the last n messages (or all if n<=0) for a session.
func (m *RedisSessionStore) Recent(ctx context.Context, sessionID string, n int) ([]llm.Message, error) {
	start := int64(0)
	end := int64(-1)
	if n > 0 {
		start = -int64(n)
	}
	vals, err := m.rdb.LRange(ctx, m.key(sessionID), start, end).Result()
	if err != nil {
		return nil, err
	}
	out := make([]llm.Message, 0, len(vals))
	for _, v := range vals {
		var wrapper struct {
			llm.Message
			Timestamp time.Time `json:"timestamp"`
		}
		if json.Unmarshal([]byte(v), &wrapper) == nil {
			out = append(out, wrapper.Message)
		}
	}
	return out, nil
}

// Clear drops a session's history.
func (m *RedisSessionStore) Clear(ctx context.Context, sessionID string) error {
	return m.rdb.Del(ctx, m.key(sessionID)).Err()
}

// InMemorySessionStore is a process-local SessionStore for tests and the CLI.
type InMemorySessionStore struct {
	MaxMessages int

	mu       sync.RWMutex
	sessions map[string][]llm.Message
}

func NewInMemorySessionStore(maxMessages int) *InMemorySessionStore {
	return &InMemorySessionStore{MaxMessages: maxMessages, sessions: make(map[string][]llm.Message)}
}

func (m *InMemorySessionStore) Append(ctx context.Context, sessionID string, msg llm.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := append(m.sessions[sessionID], msg)
	if m.MaxMessages > 0 && len(msgs) > m.MaxMessages {
		msgs = msgs[len(msgs)-m.MaxMessages:]
	}
	m.sessions[sessionID] = msgs
	return nil
}

func (m *InMemorySessionStore) Recent(ctx context.Context, sessionID string, n int) ([]llm.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.sessions[sessionID]
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]llm.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (m *InMemorySessionStore) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
