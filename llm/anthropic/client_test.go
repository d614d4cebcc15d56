package anthropic

import (
	"testing"

	anth "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	base "github.com/elroy-bot/elroy-sub001/llm"
)

func TestParamsCarryToolUseForToolResults(t *testing.T) {
	req := &base.ChatRequest{Messages: []base.Message{
		{Role: base.RoleSystem, Content: "persona"},
		{Role: base.RoleUser, Content: "remember my tea"},
		{Role: base.RoleAssistant, ToolCalls: []base.ToolCall{
			{ID: "call-1", Name: "create_memory", Arguments: `{"name":"Tea","text":"Likes sencha."}`},
		}},
		{Role: base.RoleTool, ToolCallID: "call-1", Content: "New memory created: Tea"},
		{Role: base.RoleAssistant, Content: "Noted!"},
	}}

	params := toAnthParams(req, Config{MaxTokens: 1024}, "claude-3-5-haiku-latest")

	require.Len(t, params.System, 1)
	require.Len(t, params.Messages, 4)

	// Assistant turn with only tool calls: a single tool_use block, no empty
	// text block.
	call := params.Messages[1]
	assert.Equal(t, anth.MessageParamRoleAssistant, call.Role)
	require.Len(t, call.Content, 1)
	use := call.Content[0].OfToolUse
	require.NotNil(t, use)
	assert.Equal(t, "call-1", use.ID)
	assert.Equal(t, "create_memory", use.Name)
	input, ok := use.Input.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Tea", input["name"])

	// The following tool result must reference the same ID.
	result := params.Messages[2]
	assert.Equal(t, anth.MessageParamRoleUser, result.Role)
	require.Len(t, result.Content, 1)
	require.NotNil(t, result.Content[0].OfToolResult)
	assert.Equal(t, "call-1", result.Content[0].OfToolResult.ToolUseID)

	// Plain assistant reply stays a text block.
	reply := params.Messages[3]
	require.Len(t, reply.Content, 1)
	require.NotNil(t, reply.Content[0].OfText)
	assert.Equal(t, "Noted!", reply.Content[0].OfText.Text)
}

func TestParamsMixedTextAndToolCalls(t *testing.T) {
	req := &base.ChatRequest{Messages: []base.Message{
		{Role: base.RoleSystem, Content: "persona"},
		{Role: base.RoleAssistant, Content: "Saving that now.", ToolCalls: []base.ToolCall{
			{ID: "call-2", Name: "create_goal", Arguments: `{"goal_name":"Run"}`},
		}},
	}}

	params := toAnthParams(req, Config{MaxTokens: 1024}, "claude-3-5-haiku-latest")

	require.Len(t, params.Messages, 1)
	content := params.Messages[0].Content
	require.Len(t, content, 2)
	require.NotNil(t, content[0].OfText)
	assert.Equal(t, "Saving that now.", content[0].OfText.Text)
	require.NotNil(t, content[1].OfToolUse)
	assert.Equal(t, "call-2", content[1].OfToolUse.ID)
}

func TestToolInputFallsBackToEmptyObject(t *testing.T) {
	assert.Equal(t, map[string]interface{}{}, toolInput("not json"))
	assert.Equal(t, map[string]interface{}{}, toolInput(""))
	assert.Equal(t, map[string]interface{}{"x": 1.0}, toolInput(`{"x":1}`))
}
