package llm

// Labels wrapped around rewritten system instructions so the model can still
// distinguish hidden context from genuine user input.
const (
	SystemInstructionLabel    = "<system_instruction>"
	SystemInstructionLabelEnd = "</system_instruction>"
)

// NormalizeRoles prepares a message history for a backend. For models that
// require strictly alternating roles, every non-first system message is
// rewritten to the user role with its content wrapped in system-instruction
// labels. The first message must be a system message; anything else is a
// structural precondition violation.
func NormalizeRoles(messages []Message, model ChatModel) ([]Message, error) {
	if !model.EnsureAlternatingRoles {
		return messages, nil
	}
	if len(messages) == 0 || messages[0].Role != RoleSystem {
		return nil, &StructuralConversationError{Reason: "first message must be a system message"}
	}
	out := make([]Message, len(messages))
	copy(out, messages)
	for i := 1; i < len(out); i++ {
		if out[i].Role != RoleSystem {
			continue
		}
		out[i].Role = RoleUser
		out[i].Content = SystemInstructionLabel + "\n" + out[i].Content + "\n" + SystemInstructionLabelEnd
	}
	return out, nil
}
