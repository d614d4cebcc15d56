package llm

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyStream struct{}

func (emptyStream) Recv(ctx context.Context) (Delta, error) { return Delta{}, io.EOF }
func (emptyStream) Close() error                            { return nil }

// scriptedClient returns one scripted error per ChatStream call, then succeeds.
type scriptedClient struct {
	errs   []error
	calls  int
	models []string
}

func (c *scriptedClient) Chat(ctx context.Context, req *ChatRequest) (*Response, error) {
	return &Response{}, nil
}

func (c *scriptedClient) ChatStream(ctx context.Context, req *ChatRequest) (Stream, error) {
	c.models = append(c.models, req.Model)
	defer func() { c.calls++ }()
	if c.calls < len(c.errs) && c.errs[c.calls] != nil {
		return nil, c.errs[c.calls]
	}
	return emptyStream{}, nil
}

func (c *scriptedClient) Model() string { return "scripted" }

func transient() error { return &TransientError{Err: errors.New("rate limited")} }

var (
	primary  = ChatModel{Name: "primary-model"}
	fallback = ChatModel{Name: "fallback-model"}
	history  = []Message{{Role: RoleSystem, Content: "persona"}, {Role: RoleUser, Content: "hi"}}
)

func TestDriverSuccessFirstTry(t *testing.T) {
	client := &scriptedClient{}
	d := NewDriver(client, primary)
	s, err := d.Complete(context.Background(), history, nil)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, []string{"primary-model"}, client.models)
}

func TestDriverSwitchesToFallbackOnTransient(t *testing.T) {
	client := &scriptedClient{errs: []error{transient()}}
	d := NewDriver(client, primary, WithFallbackModel(fallback))
	_, err := d.Complete(context.Background(), history, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"primary-model", "fallback-model"}, client.models)
}

func TestDriverExhaustsAfterRetryBound(t *testing.T) {
	// Retry maximum 2 and no fallback: the third consecutive transient
	// failure surfaces as retries-exhausted.
	client := &scriptedClient{errs: []error{transient(), transient(), transient()}}
	d := NewDriver(client, primary)
	_, err := d.Complete(context.Background(), history, nil)
	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, 3, client.calls)
}

func TestDriverFallbackSurvivesOneMoreFailure(t *testing.T) {
	client := &scriptedClient{errs: []error{transient(), transient()}}
	d := NewDriver(client, primary, WithFallbackModel(fallback))
	_, err := d.Complete(context.Background(), history, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"primary-model", "fallback-model", "fallback-model"}, client.models)
}

func TestDriverStructuralErrorNeverRetried(t *testing.T) {
	client := &scriptedClient{errs: []error{errors.New("an assistant message with 'tool_calls' must be followed by tool messages")}}
	d := NewDriver(client, primary, WithFallbackModel(fallback))
	_, err := d.Complete(context.Background(), history, nil)
	var structural *StructuralConversationError
	require.ErrorAs(t, err, &structural)
	assert.Equal(t, 1, client.calls)
}

func TestDriverUnclassifiedErrorPropagatesUnwrapped(t *testing.T) {
	boom := errors.New("boom")
	client := &scriptedClient{errs: []error{boom}}
	d := NewDriver(client, primary, WithFallbackModel(fallback))
	_, err := d.Complete(context.Background(), history, nil)
	assert.Same(t, boom, err)
	assert.Equal(t, 1, client.calls)
}

func TestDriverRejectsHistoryNotStartingWithSystem(t *testing.T) {
	client := &scriptedClient{}
	strict := primary
	strict.EnsureAlternatingRoles = true
	d := NewDriver(client, strict)
	_, err := d.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	var structural *StructuralConversationError
	require.ErrorAs(t, err, &structural)
	assert.Zero(t, client.calls, "no provider call on a structural precondition violation")
}

func TestNormalizeRolesRewritesLaterSystemMessages(t *testing.T) {
	strict := ChatModel{Name: "m", EnsureAlternatingRoles: true}
	in := []Message{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleSystem, Content: "remember the user's name"},
	}
	out, err := NormalizeRoles(in, strict)
	require.NoError(t, err)
	assert.Equal(t, RoleSystem, out[0].Role)
	assert.Equal(t, RoleUser, out[2].Role)
	assert.Contains(t, out[2].Content, SystemInstructionLabel)
	assert.Contains(t, out[2].Content, "remember the user's name")
	assert.Contains(t, out[2].Content, SystemInstructionLabelEnd)
	// Input history is untouched.
	assert.Equal(t, RoleSystem, in[2].Role)
}

func TestNormalizeRolesPassthroughForLenientModels(t *testing.T) {
	in := []Message{{Role: RoleUser, Content: "hi"}}
	out, err := NormalizeRoles(in, ChatModel{Name: "m"})
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
