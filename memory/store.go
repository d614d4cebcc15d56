package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrGoalNotFound is returned when a goal name does not match an active goal.
var ErrGoalNotFound = errors.New("memory: goal not found")

// Store persists memories, goals, transcripts and preferences in SQLite.
type Store struct {
	db *gorm.DB
}

// NewStore opens (or creates) the SQLite database at path and migrates the
// schema.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=1"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open memory database: %w", err)
	}
	if err := db.AutoMigrate(&Memory{}, &Goal{}, &TranscriptMessage{}, &UserPreference{}); err != nil {
		return nil, fmt.Errorf("migrate memory database: %w", err)
	}
	return &Store{db: db}, nil
}

// CreateMemory stores a new named memory for a user.
func (s *Store) CreateMemory(ctx context.Context, userID, name, text string) (*Memory, error) {
	now := time.Now().UTC()
	m := &Memory{CreatedAt: now, UpdatedAt: now, UserID: userID, Name: name, Text: text, IsActive: true}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("create memory: %w", err)
	}
	return m, nil
}

// SearchMemories returns active memories whose name or text matches any
// keyword of the query, newest first. An empty query returns the most recent
// memories.
func (s *Store) SearchMemories(ctx context.Context, userID, query string, limit int) ([]Memory, error) {
	if limit <= 0 {
		limit = 10
	}
	q := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Limit(limit)
	if words := searchTerms(query); len(words) > 0 {
		match := s.db.Where("1 = 0")
		for _, w := range words {
			pattern := "%" + w + "%"
			match = match.Or("LOWER(name) LIKE ? OR LOWER(text) LIKE ?", pattern, pattern)
		}
		q = q.Where(match)
	}
	var out []Memory
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}
	return out, nil
}

// searchTerms lowercases and tokenizes a query, dropping short stop-ish words.
func searchTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= 3 {
			out = append(out, f)
		}
	}
	return out
}

// CreateGoal records a new active goal.
func (s *Store) CreateGoal(ctx context.Context, userID string, g Goal) (*Goal, error) {
	now := time.Now().UTC()
	g.UserID = userID
	g.CreatedAt = now
	g.UpdatedAt = now
	g.IsActive = true
	if g.Priority == 0 {
		g.Priority = 4
	}
	if g.StatusUpdates == "" {
		g.StatusUpdates = "[]"
	}
	if err := s.db.WithContext(ctx).Create(&g).Error; err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return &g, nil
}

// AddGoalStatusUpdate appends a progress note to an active goal.
func (s *Store) AddGoalStatusUpdate(ctx context.Context, userID, name, update string) error {
	g, err := s.activeGoal(ctx, userID, name)
	if err != nil {
		return err
	}
	var updates []string
	_ = json.Unmarshal([]byte(g.StatusUpdates), &updates)
	updates = append(updates, update)
	b, err := json.Marshal(updates)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(g).
		Updates(map[string]any{"status_updates": string(b), "updated_at": time.Now().UTC()}).Error
}

// MarkGoalCompleted deactivates a goal and stores a closing memory so the
// outcome remains recallable.
func (s *Store) MarkGoalCompleted(ctx context.Context, userID, name, closingComment string) error {
	g, err := s.activeGoal(ctx, userID, name)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(g).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("complete goal: %w", err)
	}
	text := "Goal completed: " + g.Description
	if closingComment != "" {
		text += "\n" + closingComment
	}
	_, err = s.CreateMemory(ctx, userID, "Completed goal: "+name, text)
	return err
}

// ActiveGoals returns the user's active goals ordered by priority.
func (s *Store) ActiveGoals(ctx context.Context, userID string) ([]Goal, error) {
	var out []Goal
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("priority ASC, created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return out, nil
}

func (s *Store) activeGoal(ctx context.Context, userID, name string) (*Goal, error) {
	var g Goal
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND is_active = ?", userID, name, true).
		First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrGoalNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// DeduplicateMemories deactivates older copies of memories with identical
// name and text, keeping the newest. Returns how many were deactivated.
func (s *Store) DeduplicateMemories(ctx context.Context, userID string) (int, error) {
	var memories []Memory
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&memories).Error
	if err != nil {
		return 0, fmt.Errorf("load memories: %w", err)
	}
	seen := make(map[string]bool, len(memories))
	var stale []uint
	for _, m := range memories {
		key := m.Name + "\x00" + m.Text
		if seen[key] {
			stale = append(stale, m.ID)
			continue
		}
		seen[key] = true
	}
	if len(stale) == 0 {
		return 0, nil
	}
	err = s.db.WithContext(ctx).Model(&Memory{}).
		Where("id IN ?", stale).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return 0, fmt.Errorf("deactivate duplicates: %w", err)
	}
	return len(stale), nil
}

// UserIDs returns every user with at least one active memory.
func (s *Store) UserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&Memory{}).
		Where("is_active = ?", true).
		Distinct("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

// AppendTranscript persists one conversation entry.
func (s *Store) AppendTranscript(ctx context.Context, msg TranscriptMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return nil
}

// RecentTranscript returns the last n transcript entries for a session in
// chronological order.
func (s *Store) RecentTranscript(ctx context.Context, userID, sessionID string, n int) ([]TranscriptMessage, error) {
	if n <= 0 {
		n = 20
	}
	var out []TranscriptMessage
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("id DESC").
		Limit(n).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("recent transcript: %w", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Preference returns the user's preference row, creating defaults on first use.
func (s *Store) Preference(ctx context.Context, userID string) (*UserPreference, error) {
	var p UserPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		now := time.Now().UTC()
		p = UserPreference{CreatedAt: now, UpdatedAt: now, UserID: userID}
		if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
			return nil, fmt.Errorf("create preference: %w", err)
		}
		return &p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load preference: %w", err)
	}
	return &p, nil
}

// SetDisplayInternalMonologue toggles whether reasoning text is shown.
func (s *Store) SetDisplayInternalMonologue(ctx context.Context, userID string, show bool) error {
	p, err := s.Preference(ctx, userID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(p).
		Updates(map[string]any{"display_internal_monologue": show, "updated_at": time.Now().UTC()}).Error
}
