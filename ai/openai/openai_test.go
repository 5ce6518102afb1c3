package openai

import (
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokedex-pro/dexagent/ai"
)

func TestFromChatResponseText(t *testing.T) {
	resp := &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "Hello there!"}},
		},
	}

	msg := fromChatResponse(resp)

	assert.Equal(t, ai.AssistantRole, msg.Role)
	assert.Equal(t, "Hello there!", msg.Content)
	assert.Nil(t, msg.ToolCalls, "absent tool_calls stays nil")
}

func TestFromChatResponseToolCalls(t *testing.T) {
	resp := &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{
				ToolCalls: []openai.ChatCompletionMessageToolCallUnion{
					{
						ID:   "call_1",
						Type: "function",
						Function: openai.ChatCompletionMessageFunctionToolCallFunction{
							Name:      "run_query",
							Arguments: `{"sql": "SELECT 1"}`,
						},
					},
				},
			}},
		},
	}

	msg := fromChatResponse(resp)

	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "run_query", msg.ToolCalls[0].Name)
	assert.Equal(t, `{"sql": "SELECT 1"}`, msg.ToolCalls[0].Args)
}

// An explicit empty tool_calls array must come through as a non-nil empty
// slice so the agent loop sees the malformed batch instead of treating the
// message as a plain text answer.
func TestFromChatResponseEmptyToolCallBatch(t *testing.T) {
	resp := &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{
				Content:   "thinking...",
				ToolCalls: []openai.ChatCompletionMessageToolCallUnion{},
			}},
		},
	}

	msg := fromChatResponse(resp)

	require.NotNil(t, msg.ToolCalls)
	assert.Empty(t, msg.ToolCalls)
}

func TestFromChatResponseNoChoices(t *testing.T) {
	msg := fromChatResponse(&openai.ChatCompletion{})

	assert.Equal(t, ai.AssistantRole, msg.Role)
	assert.Empty(t, msg.Content)
	assert.Nil(t, msg.ToolCalls)
}
