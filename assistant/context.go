package assistant

import (
	"context"
	"strings"

	"github.com/elroy-bot/elroy-sub001/llm"
	"github.com/elroy-bot/elroy-sub001/memory"
)

// buildContext assembles the message window for one turn: system instruction,
// recent session history, then the user input.
func (a *Assistant) buildContext(ctx context.Context, userID, sessionID string, pref *memory.UserPreference, input string) ([]llm.Message, error) {
	system, err := a.systemInstruction(ctx, userID, pref, input)
	if err != nil {
		return nil, err
	}
	messages := []llm.Message{{Role: llm.RoleSystem, Content: system}}

	history, err := a.sessions.Recent(ctx, sessionID, a.cfg.HistoryWindow)
	if err != nil {
		return nil, err
	}
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: input})
	return messages, nil
}

// systemInstruction renders the persona plus whatever stored context is
// relevant to this turn: active goals and memories matching the input.
func (a *Assistant) systemInstruction(ctx context.Context, userID string, pref *memory.UserPreference, input string) (string, error) {
	persona := a.cfg.Persona
	if pref.SystemPersona != "" {
		persona = pref.SystemPersona
	}
	if persona == "" {
		persona = DefaultPersona
	}

	var b strings.Builder
	b.WriteString(persona)

	if pref.PreferredName != "" {
		b.WriteString("\n\nThe user's preferred name is ")
		b.WriteString(pref.PreferredName)
		b.WriteString(".")
	}

	goals, err := a.store.ActiveGoals(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(goals) > 0 {
		b.WriteString("\n\n## Active goals\n")
		for _, g := range goals {
			b.WriteString("- ")
			b.WriteString(g.Name)
			if g.Description != "" {
				b.WriteString(": ")
				b.WriteString(g.Description)
			}
			b.WriteString("\n")
		}
	}

	memories, err := a.store.SearchMemories(ctx, userID, input, 5)
	if err != nil {
		return "", err
	}
	if len(memories) > 0 {
		b.WriteString("\n## Relevant memories\n")
		for _, m := range memories {
			b.WriteString(m.Fact())
			b.WriteString("\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
