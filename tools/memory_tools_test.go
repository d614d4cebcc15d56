package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elroy-bot/elroy-sub001/memory"
)

func newTestRegistry(t *testing.T) (Registry, *memory.Store) {
	t.Helper()
	store, err := memory.NewStore(filepath.Join(t.TempDir(), "elroy.db"))
	require.NoError(t, err)
	reg := NewRegistry(nil)
	require.NoError(t, RegisterMemoryTools(reg, store))
	return reg, store
}

func TestRegistryListsAllMemoryTools(t *testing.T) {
	reg, _ := newTestRegistry(t)
	assert.Equal(t, []string{
		"add_goal_status_update",
		"create_goal",
		"create_memory",
		"mark_goal_completed",
		"search_memories",
		"set_display_internal_monologue",
	}, reg.List())

	defs := FromRegistry(reg)
	require.Len(t, defs, 6)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "add_goal_status_update", defs[0].Function.Name)
	assert.NotEmpty(t, defs[0].Function.Description)
}

func TestCreateAndSearchMemoryTools(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := WithUser(context.Background(), "u1")

	out, err := reg.Execute(ctx, "create_memory", `{"name":"Favorite tea","text":"User prefers sencha."}`)
	require.NoError(t, err)
	assert.Equal(t, "New memory created: Favorite tea", out)

	out, err = reg.Execute(ctx, "search_memories", `{"query":"tea"}`)
	require.NoError(t, err)
	assert.Equal(t, "#Favorite tea\nUser prefers sencha.", out)

	out, err = reg.Execute(ctx, "search_memories", `{"query":"coffee"}`)
	require.NoError(t, err)
	assert.Equal(t, "No relevant memories found.", out)
}

func TestGoalTools(t *testing.T) {
	reg, store := newTestRegistry(t)
	ctx := WithUser(context.Background(), "u1")

	_, err := reg.Execute(ctx, "create_goal", `{"goal_name":"Run a 10k","description":"Finish a 10k race","strategy":"Run three times a week","end_condition":"Race completed"}`)
	require.NoError(t, err)

	_, err = reg.Execute(ctx, "add_goal_status_update", `{"goal_name":"Run a 10k","status_update_or_note":"Ran 5k without stopping"}`)
	require.NoError(t, err)

	goals, err := store.ActiveGoals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Contains(t, goals[0].StatusUpdates, "Ran 5k without stopping")

	_, err = reg.Execute(ctx, "mark_goal_completed", `{"goal_name":"Run a 10k","closing_comments":"Finished in under an hour"}`)
	require.NoError(t, err)

	goals, err = store.ActiveGoals(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestSetDisplayInternalMonologue(t *testing.T) {
	reg, store := newTestRegistry(t)
	ctx := WithUser(context.Background(), "u1")

	out, err := reg.Execute(ctx, "set_display_internal_monologue", `{"should_display":true}`)
	require.NoError(t, err)
	assert.Equal(t, "Internal monologue will now be displayed.", out)

	p, err := store.Preference(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, p.DisplayInternalMonologue)
}

func TestToolErrors(t *testing.T) {
	reg, _ := newTestRegistry(t)

	// Unknown tool.
	_, err := reg.Execute(context.Background(), "no_such_tool", `{}`)
	assert.Error(t, err)

	// Missing user binding.
	_, err = reg.Execute(context.Background(), "create_memory", `{"name":"a","text":"b"}`)
	assert.Error(t, err)

	// Missing required argument.
	_, err = reg.Execute(WithUser(context.Background(), "u1"), "create_memory", `{"name":"a"}`)
	assert.ErrorContains(t, err, "text")
}
