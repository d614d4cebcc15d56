package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedClient struct {
	name   string
	models []string
}

func (c *namedClient) Chat(ctx context.Context, req *ChatRequest) (*Response, error) {
	c.models = append(c.models, req.Model)
	return &Response{Provider: c.name}, nil
}

func (c *namedClient) ChatStream(ctx context.Context, req *ChatRequest) (Stream, error) {
	c.models = append(c.models, req.Model)
	return emptyStream{}, nil
}

func (c *namedClient) Model() string { return c.name }

func TestRouterRoutesByModel(t *testing.T) {
	primary := &namedClient{name: "primary"}
	other := &namedClient{name: "other"}
	router := NewRouterClient(StaticPolicy{
		Default: primary,
		ByModel: map[string]Client{"claude-sonnet": other},
	})

	resp, err := router.Chat(context.Background(), &ChatRequest{Model: "claude-sonnet"})
	require.NoError(t, err)
	assert.Equal(t, "other", resp.Provider)
	assert.Equal(t, []string{"claude-sonnet"}, other.models)
	assert.Empty(t, primary.models)
}

func TestRouterFallsBackToDefaultForUnknownModel(t *testing.T) {
	primary := &namedClient{name: "primary"}
	router := NewRouterClient(StaticPolicy{Default: primary})

	resp, err := router.Chat(context.Background(), &ChatRequest{Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "primary", resp.Provider)
	assert.Equal(t, []string{"gpt-4o"}, primary.models)
}

func TestRouterErrorsWithoutDefault(t *testing.T) {
	router := NewRouterClient(StaticPolicy{})
	_, err := router.ChatStream(context.Background(), &ChatRequest{})
	require.Error(t, err)
}

func TestRouterStreamDelegates(t *testing.T) {
	primary := &namedClient{name: "primary"}
	router := NewRouterClient(StaticPolicy{Default: primary})

	stream, err := router.ChatStream(context.Background(), &ChatRequest{Model: "gpt-4o"})
	require.NoError(t, err)
	require.NotNil(t, stream)
	assert.Equal(t, "router", router.Model())
}
