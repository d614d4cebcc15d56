// Package memory persists long-term memories, goals, transcript history and
// user preferences in SQLite, and keeps per-session conversation context in
// Redis.
package memory

import "time"

// Memory is the GORM model for a stored long-term memory.
type Memory struct {
	ID        uint      `gorm:"primaryKey;autoIncrement;column:id"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
	UserID    string    `gorm:"column:user_id;index:idx_memory_user;not null"`
	Name      string    `gorm:"column:name;index:idx_memory_user;not null"`
	Text      string    `gorm:"column:text;not null"`
	IsActive  bool      `gorm:"column:is_active;default:1"`
}

func (Memory) TableName() string { return "memories" }

// Fact renders the memory as a titled fact block for prompt assembly.
func (m Memory) Fact() string { return "#" + m.Name + "\n" + m.Text }

// Goal is the GORM model for a tracked user goal.
type Goal struct {
	ID            uint       `gorm:"primaryKey;autoIncrement;column:id"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;not null"`
	UserID        string     `gorm:"column:user_id;index:idx_goal_user_name;not null"`
	Name          string     `gorm:"column:name;index:idx_goal_user_name;not null"`
	Description   string     `gorm:"column:description"`
	Strategy      string     `gorm:"column:strategy"`
	EndCondition  string     `gorm:"column:end_condition"`
	StatusUpdates string     `gorm:"column:status_updates"` // JSON array of strings
	Priority      int        `gorm:"column:priority;default:4"`
	TargetTime    *time.Time `gorm:"column:target_completion_time"`
	IsActive      bool       `gorm:"column:is_active;index;default:1"`
}

func (Goal) TableName() string { return "goals" }

// TranscriptMessage is the GORM model for one persisted conversation entry.
type TranscriptMessage struct {
	ID         uint      `gorm:"primaryKey;autoIncrement;column:id"`
	CreatedAt  time.Time `gorm:"column:created_at;index;not null"`
	UserID     string    `gorm:"column:user_id;index:idx_transcript_user;not null"`
	SessionID  string    `gorm:"column:session_id;index:idx_transcript_session"`
	Role       string    `gorm:"column:role;not null"`
	Content    string    `gorm:"column:content"`
	ToolCallID string    `gorm:"column:tool_call_id"`
}

func (TranscriptMessage) TableName() string { return "transcript_messages" }

// UserPreference is the GORM model for per-user assistant settings.
type UserPreference struct {
	ID            uint      `gorm:"primaryKey;autoIncrement;column:id"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null"`
	UserID        string    `gorm:"column:user_id;uniqueIndex;not null"`
	PreferredName string    `gorm:"column:preferred_name"`
	FullName      string    `gorm:"column:full_name"`
	AssistantName string    `gorm:"column:assistant_name"`
	SystemPersona string    `gorm:"column:system_persona"`
	// DisplayInternalMonologue controls whether reasoning text produced
	// between internal-thought markers is surfaced to the user.
	DisplayInternalMonologue bool `gorm:"column:display_internal_monologue;default:0"`
}

func (UserPreference) TableName() string { return "user_preferences" }
