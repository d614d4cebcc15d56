package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/elroy-bot/elroy-sub001/memory"
)

type userKey struct{}

// WithUser attaches the acting user to the context for tool execution.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the acting user set by WithUser.
func UserFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok && id != ""
}

func requireUser(ctx context.Context) (string, error) {
	id, ok := UserFromContext(ctx)
	if !ok {
		return "", fmt.Errorf("no user bound to tool execution context")
	}
	return id, nil
}

func stringArg(args, name string) (string, error) {
	v := gjson.Get(args, name)
	if !v.Exists() {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	s := strings.TrimSpace(v.String())
	if s == "" {
		return "", fmt.Errorf("argument %q is empty", name)
	}
	return s, nil
}

func stringSchema(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func objectSchema(required []string, props map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// RegisterMemoryTools registers all memory and goal tools against a store.
func RegisterMemoryTools(reg Registry, store *memory.Store) error {
	for _, t := range []Tool{
		&CreateMemoryTool{Store: store},
		&SearchMemoriesTool{Store: store},
		&CreateGoalTool{Store: store},
		&AddGoalStatusUpdateTool{Store: store},
		&MarkGoalCompletedTool{Store: store},
		&SetDisplayInternalMonologueTool{Store: store},
	} {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// CreateMemoryTool stores a new long-term memory.
type CreateMemoryTool struct {
	Store *memory.Store
}

func (t *CreateMemoryTool) Name() string { return "create_memory" }
func (t *CreateMemoryTool) Description() string {
	return "Create a new long-term memory with a short descriptive name and the text to remember."
}
func (t *CreateMemoryTool) Schema() map[string]interface{} {
	return objectSchema([]string{"name", "text"}, map[string]interface{}{
		"name": stringSchema("Short descriptive title for the memory."),
		"text": stringSchema("The information to remember."),
	})
}

func (t *CreateMemoryTool) Execute(ctx context.Context, args string) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	name, err := stringArg(args, "name")
	if err != nil {
		return "", err
	}
	text, err := stringArg(args, "text")
	if err != nil {
		return "", err
	}
	if _, err := t.Store.CreateMemory(ctx, userID, name, text); err != nil {
		return "", err
	}
	return fmt.Sprintf("New memory created: %s", name), nil
}

// SearchMemoriesTool looks up stored memories by keyword.
type SearchMemoriesTool struct {
	Store *memory.Store
}

func (t *SearchMemoriesTool) Name() string { return "search_memories" }
func (t *SearchMemoriesTool) Description() string {
	return "Search long-term memories for information relevant to a query."
}
func (t *SearchMemoriesTool) Schema() map[string]interface{} {
	return objectSchema([]string{"query"}, map[string]interface{}{
		"query": stringSchema("Keywords to search memories for."),
	})
}

func (t *SearchMemoriesTool) Execute(ctx context.Context, args string) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}
	memories, err := t.Store.SearchMemories(ctx, userID, query, 5)
	if err != nil {
		return "", err
	}
	if len(memories) == 0 {
		return "No relevant memories found.", nil
	}
	facts := make([]string, 0, len(memories))
	for _, m := range memories {
		facts = append(facts, m.Fact())
	}
	return strings.Join(facts, "\n\n"), nil
}

// CreateGoalTool records a new goal for the user.
type CreateGoalTool struct {
	Store *memory.Store
}

func (t *CreateGoalTool) Name() string { return "create_goal" }
func (t *CreateGoalTool) Description() string {
	return "Create a new goal with a name, description, strategy, and end condition."
}
func (t *CreateGoalTool) Schema() map[string]interface{} {
	return objectSchema([]string{"goal_name", "description"}, map[string]interface{}{
		"goal_name":     stringSchema("Short name for the goal."),
		"description":   stringSchema("What the goal is."),
		"strategy":      stringSchema("How the goal will be achieved. Limit to 100 words."),
		"end_condition": stringSchema("The condition under which the goal is complete."),
	})
}

func (t *CreateGoalTool) Execute(ctx context.Context, args string) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	name, err := stringArg(args, "goal_name")
	if err != nil {
		return "", err
	}
	description, err := stringArg(args, "description")
	if err != nil {
		return "", err
	}
	g := memory.Goal{
		Name:         name,
		Description:  description,
		Strategy:     gjson.Get(args, "strategy").String(),
		EndCondition: gjson.Get(args, "end_condition").String(),
	}
	if _, err := t.Store.CreateGoal(ctx, userID, g); err != nil {
		return "", err
	}
	return fmt.Sprintf("Goal created: %s", name), nil
}

// AddGoalStatusUpdateTool appends a progress note to an existing goal.
type AddGoalStatusUpdateTool struct {
	Store *memory.Store
}

func (t *AddGoalStatusUpdateTool) Name() string { return "add_goal_status_update" }
func (t *AddGoalStatusUpdateTool) Description() string {
	return "Record a progress update or note against an active goal."
}
func (t *AddGoalStatusUpdateTool) Schema() map[string]interface{} {
	return objectSchema([]string{"goal_name", "status_update_or_note"}, map[string]interface{}{
		"goal_name":             stringSchema("Name of the goal to update."),
		"status_update_or_note": stringSchema("The progress update or note."),
	})
}

func (t *AddGoalStatusUpdateTool) Execute(ctx context.Context, args string) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	name, err := stringArg(args, "goal_name")
	if err != nil {
		return "", err
	}
	update, err := stringArg(args, "status_update_or_note")
	if err != nil {
		return "", err
	}
	if err := t.Store.AddGoalStatusUpdate(ctx, userID, name, update); err != nil {
		return "", err
	}
	return fmt.Sprintf("Status update added to goal %s.", name), nil
}

// MarkGoalCompletedTool closes out an active goal.
type MarkGoalCompletedTool struct {
	Store *memory.Store
}

func (t *MarkGoalCompletedTool) Name() string { return "mark_goal_completed" }
func (t *MarkGoalCompletedTool) Description() string {
	return "Mark a goal as completed, with optional closing comments on the outcome."
}
func (t *MarkGoalCompletedTool) Schema() map[string]interface{} {
	return objectSchema([]string{"goal_name"}, map[string]interface{}{
		"goal_name":        stringSchema("Name of the goal to complete."),
		"closing_comments": stringSchema("Observations about the goal's outcome."),
	})
}

func (t *MarkGoalCompletedTool) Execute(ctx context.Context, args string) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	name, err := stringArg(args, "goal_name")
	if err != nil {
		return "", err
	}
	closing := gjson.Get(args, "closing_comments").String()
	if err := t.Store.MarkGoalCompleted(ctx, userID, name, closing); err != nil {
		return "", err
	}
	return fmt.Sprintf("Goal %s marked completed.", name), nil
}

// SetDisplayInternalMonologueTool toggles whether reasoning text is shown to
// the user.
type SetDisplayInternalMonologueTool struct {
	Store *memory.Store
}

func (t *SetDisplayInternalMonologueTool) Name() string { return "set_display_internal_monologue" }
func (t *SetDisplayInternalMonologueTool) Description() string {
	return "Set whether the assistant's internal thought process is displayed to the user."
}
func (t *SetDisplayInternalMonologueTool) Schema() map[string]interface{} {
	return objectSchema([]string{"should_display"}, map[string]interface{}{
		"should_display": map[string]interface{}{"type": "boolean", "description": "True to display internal thoughts."},
	})
}

func (t *SetDisplayInternalMonologueTool) Execute(ctx context.Context, args string) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	v := gjson.Get(args, "should_display")
	if !v.Exists() {
		return "", fmt.Errorf("missing required argument %q", "should_display")
	}
	show := v.Bool()
	if err := t.Store.SetDisplayInternalMonologue(ctx, userID, show); err != nil {
		return "", err
	}
	if show {
		return "Internal monologue will now be displayed.", nil
	}
	return "Internal monologue will now be hidden.", nil
}
