// Package openai adapts the official OpenAI SDK to the provider-neutral
// llm.Client interface, including delta streaming with tool-call fragments.
package openai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	oa "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	base "github.com/elroy-bot/elroy-sub001/llm"
	"github.com/elroy-bot/elroy-sub001/observability"
)

// Client implements llm.Client for the OpenAI chat completions API.
type Client struct {
	client  oa.Client
	cfg     Config
	retrier *base.Retrier
}

// Config configures the OpenAI client.
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	Retry        base.RetryConfig
	Organization string
	Hooks        *observability.Hooks
}

// NewClient creates an OpenAI client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry = base.DefaultRetryConfig()
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	opts := []option.RequestOption{option.WithHTTPClient(httpClient)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Organization != "" {
		opts = append(opts, option.WithOrganization(cfg.Organization))
	}
	c := oa.NewClient(opts...)
	return &Client{client: c, cfg: cfg, retrier: base.NewRetrier(cfg.Retry)}, nil
}

func (c *Client) Model() string { return c.cfg.Model }

// Chat issues a non-streaming completion.
func (c *Client) Chat(ctx context.Context, req *base.ChatRequest) (*base.Response, error) {
	start := time.Now()
	model := pickModel(req, c.cfg.Model)
	c.cfg.Hooks.SafeLLMRequest(ctx, "openai", model, map[string]any{"operation": "chat"})
	var resp *oa.ChatCompletion
	err := c.retrier.Do(ctx, func() error {
		r, err := c.client.Chat.Completions.New(ctx, c.buildParams(req, model))
		if err != nil {
			return classify(err)
		}
		resp = r
		return nil
	})
	c.cfg.Hooks.SafeLLMResponse(ctx, "openai", model, time.Since(start), map[string]any{"operation": "chat", "error": err != nil})
	if err != nil {
		return nil, err
	}
	return fromOAResponse(resp), nil
}

// ChatStream issues a streaming completion and returns a pull-based stream of
// provider-neutral deltas, including tool-call fragments.
func (c *Client) ChatStream(ctx context.Context, req *base.ChatRequest) (base.Stream, error) {
	model := pickModel(req, c.cfg.Model)
	c.cfg.Hooks.SafeLLMRequest(ctx, "openai", model, map[string]any{"operation": "chat_stream"})
	s := c.client.Chat.Completions.NewStreaming(ctx, c.buildParams(req, model))
	// The SDK surfaces connection errors on the first Next; probe here so the
	// driver can classify the failure before any deltas flow.
	if s.Err() != nil {
		return nil, classify(s.Err())
	}
	return &streamWrapper{inner: s, model: model}, nil
}

func (c *Client) buildParams(req *base.ChatRequest, model string) oa.ChatCompletionNewParams {
	params := oa.ChatCompletionNewParams{Messages: toOAMessages(req.Messages)}
	if model != "" {
		params.Model = shared.ChatModel(model)
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxTokens = oa.Int(int64(c.cfg.MaxTokens))
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = oa.Float(c.cfg.Temperature)
	}
	if len(req.Tools) > 0 {
		params.Tools = toOATools(req.Tools)
	}
	return params
}

// streamCore matches the subset of the OpenAI stream API we use.
type streamCore interface {
	Next() bool
	Current() oa.ChatCompletionChunk
	Err() error
	Close() error
}

type streamWrapper struct {
	inner  streamCore
	model  string
	closed bool
}

func (w *streamWrapper) Recv(ctx context.Context) (base.Delta, error) {
	if w.closed {
		return base.Delta{}, base.ErrStreamClosed
	}
	for w.inner.Next() {
		ev := w.inner.Current()
		if len(ev.Choices) == 0 {
			continue
		}
		delta := base.Delta{Provider: "openai", Model: w.model}
		ch := ev.Choices[0]
		delta.Content = ch.Delta.Content
		for _, tc := range ch.Delta.ToolCalls {
			delta.ToolCalls = append(delta.ToolCalls, base.ToolCallDelta{
				Index: int(tc.Index),
				ID:    tc.ID,
				Function: base.FunctionDelta{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		if delta.Content == "" && len(delta.ToolCalls) == 0 {
			continue
		}
		return delta, nil
	}
	if err := w.inner.Err(); err != nil {
		return base.Delta{}, classify(err)
	}
	w.closed = true
	return base.Delta{}, io.EOF
}

func (w *streamWrapper) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.inner.Close()
}

func toOAMessages(messages []base.Message) []oa.ChatCompletionMessageParamUnion {
	msgs := make([]oa.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case base.RoleSystem:
			msgs = append(msgs, oa.SystemMessage(m.Content))
		case base.RoleAssistant:
			assistant := oa.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				assistant.Content = oa.ChatCompletionAssistantMessageParamContentUnion{OfString: oa.String(m.Content)}
			}
			for _, tc := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, oa.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &oa.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: oa.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: tc.Arguments,
						},
					},
				})
			}
			msgs = append(msgs, oa.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case base.RoleTool:
			msgs = append(msgs, oa.ToolMessage(m.Content, m.ToolCallID))
		default:
			msgs = append(msgs, oa.UserMessage(m.Content))
		}
	}
	return msgs
}

// toOATools converts tool definitions to OpenAI function tools.
func toOATools(tools []base.Tool) []oa.ChatCompletionToolUnionParam {
	out := make([]oa.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		if t.Type != "function" {
			continue
		}
		fn := shared.FunctionDefinitionParam{Name: t.Function.Name}
		if t.Function.Description != "" {
			fn.Description = oa.String(t.Function.Description)
		}
		if t.Function.Parameters != nil {
			fn.Parameters = t.Function.Parameters
		}
		out = append(out, oa.ChatCompletionFunctionTool(fn))
	}
	return out
}

func fromOAResponse(r *oa.ChatCompletion) *base.Response {
	if r == nil || len(r.Choices) == 0 {
		return &base.Response{Provider: "openai"}
	}
	choice := r.Choices[0]
	resp := &base.Response{
		Content:      choice.Message.Content,
		Provider:     "openai",
		Model:        string(r.Model),
		FinishReason: string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, base.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	resp.Usage = &base.Usage{
		InputTokens:  int(r.Usage.PromptTokens),
		OutputTokens: int(r.Usage.CompletionTokens),
		TotalTokens:  int(r.Usage.TotalTokens),
	}
	return resp
}

// classify wraps rate-limit and backend-side errors as transient so the
// completion driver can fall back; everything else passes through.
func classify(err error) error {
	var apiErr *oa.Error
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
