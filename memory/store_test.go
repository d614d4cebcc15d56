package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elroy-bot/elroy-sub001/llm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "elroy.db"))
	require.NoError(t, err)
	return s
}

func TestCreateAndSearchMemories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateMemory(ctx, "u1", "Favorite color", "The user's favorite color is teal.")
	require.NoError(t, err)
	_, err = s.CreateMemory(ctx, "u1", "Hometown", "The user grew up in Lisbon.")
	require.NoError(t, err)
	_, err = s.CreateMemory(ctx, "u2", "Favorite color", "Someone else likes red.")
	require.NoError(t, err)

	got, err := s.SearchMemories(ctx, "u1", "color", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Favorite color", got[0].Name)
	assert.Equal(t, "#Favorite color\nThe user's favorite color is teal.", got[0].Fact())

	// Case-insensitive and matches body text too.
	got, err = s.SearchMemories(ctx, "u1", "LISBON", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Hometown", got[0].Name)

	// Empty query returns recent memories for the user only.
	got, err = s.SearchMemories(ctx, "u1", "", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUserIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateMemory(ctx, "u1", "A", "alpha")
	require.NoError(t, err)
	_, err = s.CreateMemory(ctx, "u1", "B", "beta")
	require.NoError(t, err)
	_, err = s.CreateMemory(ctx, "u2", "C", "gamma")
	require.NoError(t, err)

	ids, err := s.UserIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, ids)
}

func TestGoalLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateGoal(ctx, "u1", Goal{
		Name:         "Learn Go",
		Description:  "Work through an intermediate Go book.",
		Strategy:     "One chapter per week.",
		EndCondition: "Book finished.",
	})
	require.NoError(t, err)

	require.NoError(t, s.AddGoalStatusUpdate(ctx, "u1", "Learn Go", "Finished chapter 3."))

	goals, err := s.ActiveGoals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Contains(t, goals[0].StatusUpdates, "Finished chapter 3.")

	require.NoError(t, s.MarkGoalCompleted(ctx, "u1", "Learn Go", "Done ahead of schedule."))

	goals, err = s.ActiveGoals(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, goals)

	// Completion leaves a recallable memory behind.
	memories, err := s.SearchMemories(ctx, "u1", "Learn Go", 10)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Contains(t, memories[0].Text, "Done ahead of schedule.")
}

func TestMarkGoalCompletedUnknownGoal(t *testing.T) {
	s := newTestStore(t)
	err := s.MarkGoalCompleted(context.Background(), "u1", "nope", "")
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestTranscriptRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, m := range []TranscriptMessage{
		{UserID: "u1", SessionID: "s1", Role: llm.RoleUser, Content: "hello"},
		{UserID: "u1", SessionID: "s1", Role: llm.RoleAssistant, Content: "hi there"},
		{UserID: "u1", SessionID: "s2", Role: llm.RoleUser, Content: "other session"},
	} {
		require.NoError(t, s.AppendTranscript(ctx, m))
	}

	got, err := s.RecentTranscript(ctx, "u1", "s1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "hello", got[0].Content)
	assert.Equal(t, "hi there", got[1].Content)

	// Limit keeps the newest entries, still in chronological order.
	got, err = s.RecentTranscript(ctx, "u1", "s1", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hi there", got[0].Content)
}

func TestPreferenceDefaultsAndToggle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Preference(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, p.DisplayInternalMonologue)

	require.NoError(t, s.SetDisplayInternalMonologue(ctx, "u1", true))

	p, err = s.Preference(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, p.DisplayInternalMonologue)
}

func TestInMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	st := NewInMemorySessionStore(3)

	for _, text := range []string{"one", "two", "three", "four"} {
		require.NoError(t, st.Append(ctx, "s1", llm.Message{Role: llm.RoleUser, Content: text}))
	}

	got, err := st.Recent(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "two", got[0].Content)
	assert.Equal(t, "four", got[2].Content)

	require.NoError(t, st.Clear(ctx, "s1"))
	got, err = st.Recent(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
