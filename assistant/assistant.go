// Package assistant orchestrates one conversational turn: it assembles the
// context window, drives the model through the retrying completion driver,
// interprets the response stream, dispatches tool calls, and persists the
// exchange.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/elroy-bot/elroy-sub001/llm"
	"github.com/elroy-bot/elroy-sub001/llm/interpret"
	"github.com/elroy-bot/elroy-sub001/memory"
	"github.com/elroy-bot/elroy-sub001/observability"
	"github.com/elroy-bot/elroy-sub001/tools"
)

// DefaultPersona is the system persona used when the user has not set one.
const DefaultPersona = "You are Elroy, a helpful personal assistant with a persistent memory. " +
	"Use your tools to remember important facts about the user and to track their goals. " +
	"You can think privately between <internal_thought> markers before answering."

// Config controls turn assembly.
type Config struct {
	// Persona overrides DefaultPersona when set; a per-user persona stored in
	// preferences wins over both.
	Persona string
	// HistoryWindow is how many recent session messages are replayed.
	HistoryWindow int
	// MaxToolRounds bounds tool-call follow-up completions per turn.
	MaxToolRounds int
}

// Assistant runs conversational turns against a model with memory and tools.
type Assistant struct {
	driver   *llm.RetryingCompletionDriver
	registry tools.Registry
	store    *memory.Store
	sessions memory.SessionStore
	hooks    *observability.Hooks
	cfg      Config
}

// New constructs an Assistant.
func New(driver *llm.RetryingCompletionDriver, reg tools.Registry, store *memory.Store, sessions memory.SessionStore, hooks *observability.Hooks, cfg Config) *Assistant {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 20
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 4
	}
	return &Assistant{driver: driver, registry: reg, store: store, sessions: sessions, hooks: hooks, cfg: cfg}
}

// Respond runs one turn for the given user input. Every event of the turn is
// passed to emit as it is produced: reply text always, reasoning only when the
// user's display preference is on, and tool invocations after their dispatch.
// It returns the coalesced reply text.
func (a *Assistant) Respond(ctx context.Context, userID, sessionID, input string, emit func(interpret.Event)) (string, error) {
	if emit == nil {
		emit = func(interpret.Event) {}
	}
	ctx = tools.WithUser(ctx, userID)

	pref, err := a.store.Preference(ctx, userID)
	if err != nil {
		return "", err
	}

	messages, err := a.buildContext(ctx, userID, sessionID, pref, input)
	if err != nil {
		return "", err
	}
	toolDefs := tools.FromRegistry(a.registry)

	userMsg := llm.Message{Role: llm.RoleUser, Content: input}
	var replyText strings.Builder

	for round := 0; ; round++ {
		events, err := a.completeOnce(ctx, messages, toolDefs)
		if err != nil {
			return "", err
		}

		var invocations []interpret.ToolInvocation
		var roundText strings.Builder
		for _, ev := range events {
			switch e := ev.(type) {
			case interpret.Reply:
				roundText.WriteString(e.Text)
				emit(e)
			case interpret.Reasoning:
				if pref.DisplayInternalMonologue {
					emit(e)
				}
			case interpret.ToolInvocation:
				invocations = append(invocations, e)
			}
		}
		if roundText.Len() > 0 {
			if replyText.Len() > 0 {
				replyText.WriteString("\n")
			}
			replyText.WriteString(roundText.String())
		}

		if len(invocations) == 0 {
			break
		}
		if round >= a.cfg.MaxToolRounds {
			a.hooks.SafeLog(ctx, "warn", "tool round limit reached", map[string]any{"session": sessionID})
			break
		}

		assistantMsg := llm.Message{Role: llm.RoleAssistant, Content: roundText.String()}
		for _, inv := range invocations {
			assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, llm.ToolCall{ID: inv.ID, Name: inv.Name, Arguments: inv.Arguments})
		}
		messages = append(messages, assistantMsg)
		for _, inv := range invocations {
			emit(inv)
			result, execErr := a.registry.Execute(ctx, inv.Name, inv.Arguments)
			if execErr != nil {
				result = fmt.Sprintf("error: %v", execErr)
			}
			messages = append(messages, llm.Message{Role: llm.RoleTool, Content: result, ToolCallID: inv.ID})
		}
	}

	final := replyText.String()
	a.persistTurn(ctx, userID, sessionID, userMsg, final)
	return final, nil
}

// completeOnce issues a single completion and interprets its stream fully.
func (a *Assistant) completeOnce(ctx context.Context, messages []llm.Message, toolDefs []llm.Tool) ([]interpret.Event, error) {
	stream, err := a.driver.Complete(ctx, messages, toolDefs)
	if err != nil {
		return nil, err
	}
	defer stream.Close()
	return interpret.NewInterpreter(stream).Collect(ctx)
}

// persistTurn records the exchange in the session window and the durable
// transcript. Persistence failures are logged, not surfaced; the reply itself
// already succeeded.
func (a *Assistant) persistTurn(ctx context.Context, userID, sessionID string, userMsg llm.Message, reply string) {
	assistantMsg := llm.Message{Role: llm.RoleAssistant, Content: reply}
	for _, msg := range []llm.Message{userMsg, assistantMsg} {
		if err := a.sessions.Append(ctx, sessionID, msg); err != nil {
			a.hooks.SafeLog(ctx, "error", "session append failed", map[string]any{"error": err.Error()})
		}
		err := a.store.AppendTranscript(ctx, memory.TranscriptMessage{
			UserID:    userID,
			SessionID: sessionID,
			Role:      msg.Role,
			Content:   msg.Content,
		})
		if err != nil {
			a.hooks.SafeLog(ctx, "error", "transcript append failed", map[string]any{"error": err.Error()})
		}
	}
}
