// Package llm defines the provider-neutral model interface used by the
// assistant, the delta stream consumed by the interpreter, and the retrying
// completion driver that sits between the two.
package llm

import (
	"context"
	"time"
)

// Message roles used throughout the conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Client is the provider-agnostic LLM interface implemented by the adapters
// under llm/openai and llm/anthropic.
type Client interface {
	Chat(ctx context.Context, req *ChatRequest) (*Response, error)
	// ChatStream issues a streaming completion and returns a pull-based
	// delta stream. The caller owns the stream and must Close it.
	ChatStream(ctx context.Context, req *ChatRequest) (Stream, error)
	Model() string
}

// ChatModel describes one configured backend model and its quirks.
type ChatModel struct {
	Name    string `json:"name" yaml:"name"`
	APIKey  string `json:"-" yaml:"api_key"`
	APIBase string `json:"api_base,omitempty" yaml:"api_base"`
	// EnsureAlternatingRoles marks backends that require the first message to
	// be a system message and strictly alternating user/assistant thereafter.
	// Non-leading system messages are rewritten before sending.
	EnsureAlternatingRoles bool `json:"ensure_alternating_roles" yaml:"ensure_alternating_roles"`
	// InlineToolCalls marks models that emit tool calls as <tool_call> markers
	// inside content text rather than structured tool-call deltas.
	InlineToolCalls bool `json:"inline_tool_calls" yaml:"inline_tool_calls"`
}

// Message represents a single role/content entry in a chat.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// ToolCalls is set on assistant messages that requested tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID links a tool-role result message back to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// Tool defines a callable function made available to the model.
type Tool struct {
	Type     string       `json:"type"` // typically "function"
	Function ToolFunction `json:"function"`
}

// ToolFunction describes a function signature exposed to the model.
type ToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// ToolCall is a completed model-initiated function call.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON string
}

// Usage contains token usage accounting when provided by the model.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ChatRequest is the normalized chat request sent to providers.
type ChatRequest struct {
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
	Model    string    `json:"model,omitempty"`
}

// Response is the normalized non-streaming provider response.
type Response struct {
	Content      string     `json:"content"`
	Provider     string     `json:"provider,omitempty"`
	Model        string     `json:"model,omitempty"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

// RetryConfig controls retry behavior for network-level provider errors
// inside a single provider adapter. The turn-level fallback policy lives in
// RetryingCompletionDriver instead.
type RetryConfig struct {
	MaxRetries    int           `json:"max_retries"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
}

// DefaultRetryConfig returns sane defaults for provider retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}
