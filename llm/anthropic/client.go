// Package anthropic adapts the official Anthropic SDK to the
// provider-neutral llm.Client interface.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	anth "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	base "github.com/elroy-bot/elroy-sub001/llm"
	"github.com/elroy-bot/elroy-sub001/observability"
)

// Client implements llm.Client for the Anthropic Messages API.
type Client struct {
	client  anth.Client
	cfg     Config
	retrier *base.Retrier
}

// Config configures the Anthropic client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Retry       base.RetryConfig
	Hooks       *observability.Hooks
}

// NewClient creates an Anthropic client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry = base.DefaultRetryConfig()
	}

	opts := []option.RequestOption{option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout})}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	c := anth.NewClient(opts...)
	return &Client{client: c, cfg: cfg, retrier: base.NewRetrier(cfg.Retry)}, nil
}

func (c *Client) Model() string { return c.cfg.Model }

// Chat issues a single Messages API call.
func (c *Client) Chat(ctx context.Context, req *base.ChatRequest) (*base.Response, error) {
	model := pickModel(req, c.cfg.Model)
	c.cfg.Hooks.SafeLLMRequest(ctx, "anthropic", model, map[string]any{"operation": "chat"})
	start := time.Now()
	var out *anth.Message
	err := c.retrier.Do(ctx, func() error {
		resp, err := c.client.Messages.New(ctx, toAnthParams(req, c.cfg, model))
		if err != nil {
			return classify(err)
		}
		out = resp
		return nil
	})
	c.cfg.Hooks.SafeLLMResponse(ctx, "anthropic", model, time.Since(start), map[string]any{"operation": "chat", "error": err != nil})
	if err != nil {
		return nil, err
	}
	return fromAnthMessage(out), nil
}

// ChatStream completes the turn in one request and replays the result as
// deltas. Content arrives as a single text delta and each tool call as one
// fully-formed fragment, so downstream consumers behave exactly as they do
// with incremental providers.
func (c *Client) ChatStream(ctx context.Context, req *base.ChatRequest) (base.Stream, error) {
	resp, err := c.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	return newStaticStream(resp), nil
}

type staticStream struct {
	deltas []base.Delta
	pos    int
	closed bool
}

func newStaticStream(resp *base.Response) *staticStream {
	s := &staticStream{}
	if resp == nil {
		return s
	}
	if resp.Content != "" {
		s.deltas = append(s.deltas, base.Delta{Content: resp.Content, Provider: resp.Provider, Model: resp.Model})
	}
	for i, tc := range resp.ToolCalls {
		s.deltas = append(s.deltas, base.Delta{
			Provider: resp.Provider,
			Model:    resp.Model,
			ToolCalls: []base.ToolCallDelta{{
				Index:    i,
				ID:       tc.ID,
				Function: base.FunctionDelta{Name: tc.Name, Arguments: tc.Arguments},
			}},
		})
	}
	return s
}

func (s *staticStream) Recv(ctx context.Context) (base.Delta, error) {
	if s.closed {
		return base.Delta{}, base.ErrStreamClosed
	}
	if s.pos < len(s.deltas) {
		d := s.deltas[s.pos]
		s.pos++
		return d, nil
	}
	s.closed = true
	return base.Delta{}, io.EOF
}

func (s *staticStream) Close() error { s.closed = true; return nil }

func toAnthParams(req *base.ChatRequest, cfg Config, model string) anth.MessageNewParams {
	var system []anth.TextBlockParam
	msgs := make([]anth.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case base.RoleSystem:
			system = append(system, anth.TextBlockParam{Text: m.Content})
		case base.RoleAssistant:
			var blocks []anth.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anth.ContentBlockParamUnion{
					OfText: &anth.TextBlockParam{Text: m.Content},
				})
			}
			// Each tool call becomes a tool_use block so the following
			// tool_result messages have a matching tool_use_id.
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anth.ContentBlockParamUnion{
					OfToolUse: &anth.ToolUseBlockParam{
						ID:    tc.ID,
						Name:  tc.Name,
						Input: toolInput(tc.Arguments),
					},
				})
			}
			if len(blocks) == 0 {
				blocks = append(blocks, anth.ContentBlockParamUnion{
					OfText: &anth.TextBlockParam{Text: m.Content},
				})
			}
			msgs = append(msgs, anth.MessageParam{
				Role:    anth.MessageParamRoleAssistant,
				Content: blocks,
			})
		case base.RoleTool:
			msgs = append(msgs, anth.MessageParam{
				Role: anth.MessageParamRoleUser,
				Content: []anth.ContentBlockParamUnion{{
					OfToolResult: &anth.ToolResultBlockParam{
						ToolUseID: m.ToolCallID,
						Content: []anth.ToolResultBlockParamContentUnion{{
							OfText: &anth.TextBlockParam{Text: m.Content},
						}},
					},
				}},
			})
		default:
			msgs = append(msgs, anth.MessageParam{
				Role: anth.MessageParamRoleUser,
				Content: []anth.ContentBlockParamUnion{{
					OfText: &anth.TextBlockParam{Text: m.Content},
				}},
			})
		}
	}
	params := anth.MessageNewParams{
		Messages:  msgs,
		MaxTokens: int64(cfg.MaxTokens),
		Model:     anth.Model(model),
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(req.Tools) > 0 {
		params.Tools = toAnthTools(req.Tools)
	}
	if cfg.Temperature > 0 {
		params.Temperature = anth.Float(cfg.Temperature)
	}
	return params
}

// toolInput decodes recorded call arguments back into a JSON value for the
// tool_use block. Arguments that do not parse are sent as an empty object.
func toolInput(args string) interface{} {
	var input interface{}
	if err := json.Unmarshal([]byte(args), &input); err != nil || input == nil {
		return map[string]interface{}{}
	}
	return input
}

func toAnthTools(tools []base.Tool) []anth.ToolUnionParam {
	out := make([]anth.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		if t.Type != "function" {
			continue
		}
		tp := &anth.ToolParam{Name: t.Function.Name}
		if t.Function.Description != "" {
			tp.Description = anth.String(t.Function.Description)
		}
		schema := anth.ToolInputSchemaParam{Type: "object"}
		if props, ok := t.Function.Parameters["properties"]; ok {
			schema.Properties = props
		}
		tp.InputSchema = schema
		out = append(out, anth.ToolUnionParam{OfTool: tp})
	}
	return out
}

func fromAnthMessage(m *anth.Message) *base.Response {
	if m == nil {
		return &base.Response{Provider: "anthropic"}
	}
	var content string
	var toolCalls []base.ToolCall
	for _, c := range m.Content {
		if c.Text != "" {
			content += c.Text
			continue
		}
		if c.Type == "tool_use" {
			var argsJSON string
			if c.Input != nil {
				if b, err := json.Marshal(c.Input); err == nil {
					argsJSON = string(b)
				}
			}
			toolCalls = append(toolCalls, base.ToolCall{ID: c.ID, Name: c.Name, Arguments: argsJSON})
		}
	}
	resp := &base.Response{
		Content:      content,
		Provider:     "anthropic",
		Model:        string(m.Model),
		ToolCalls:    toolCalls,
		FinishReason: string(m.StopReason),
	}
	resp.Usage = &base.Usage{
		InputTokens:  int(m.Usage.InputTokens),
		OutputTokens: int(m.Usage.OutputTokens),
		TotalTokens:  int(m.Usage.InputTokens + m.Usage.OutputTokens),
	}
	return resp
}

// classify wraps rate-limit and backend-side errors so the completion driver
// can tell transient failures from everything else.
func classify(err error) error {
	var apiErr *anth.Error
	if errors.As(err, &apiErr) && base.TransientStatusCode(apiErr.StatusCode) {
		return &base.TransientError{Err: err}
	}
	return err
}

func pickModel(req *base.ChatRequest, fallback string) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	return fallback
}
