// Package tools defines the function-calling surface exposed to the model:
// a registry of named tools plus the built-in memory and goal tools.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/elroy-bot/elroy-sub001/observability"
)

// Tool is a callable function the assistant can invoke. Args is the raw JSON
// arguments string produced by the model.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args string) (string, error)
	Schema() map[string]interface{}
}

// Registry manages the set of tools available to the assistant.
type Registry interface {
	Register(tool Tool) error
	Get(name string) (Tool, bool)
	List() []string
	Execute(ctx context.Context, name string, args string) (string, error)
}

// DefaultRegistry is an in-memory implementation of Registry.
type DefaultRegistry struct {
	hooks *observability.Hooks

	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry constructs an empty registry.
func NewRegistry(hooks *observability.Hooks) *DefaultRegistry {
	return &DefaultRegistry{hooks: hooks, tools: make(map[string]Tool)}
}

// Register adds a tool by its Name().
func (r *DefaultRegistry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// Get retrieves a tool by name.
func (r *DefaultRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tool names, sorted.
func (r *DefaultRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Execute runs a tool by name with the given JSON arguments.
func (r *DefaultRegistry) Execute(ctx context.Context, name string, args string) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("tool %s not found", name)
	}
	start := time.Now()
	out, err := t.Execute(ctx, args)
	r.hooks.SafeToolExecute(ctx, name, time.Since(start), err)
	return out, err
}
