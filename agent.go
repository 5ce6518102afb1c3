// Package dexagent drives the conversational loop between a user, an LLM,
// and the registered data tools: the model is asked for either a final
// answer or a batch of tool calls, requested calls are executed in order,
// their results are appended to the conversation, and the cycle repeats
// until the model answers in text or the iteration cap is reached.
package dexagent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pokedex-pro/dexagent/ai"
	"github.com/pokedex-pro/dexagent/tools"
)

const DefaultMaxIterations = 10

const iterationLimitMessage = "I reached the maximum number of iterations. Please try rephrasing your question."

// Agent holds the injected model client and the immutable tool registry.
// It carries no per-conversation state, so one Agent may serve many
// independent conversations concurrently.
type Agent struct {
	Model    *ai.Model
	Registry *tools.Registry
	Logger   *slog.Logger
}

func New(model *ai.Model, registry *tools.Registry) *Agent {
	return &Agent{Model: model, Registry: registry}
}

// Chat runs one user turn to completion and returns the assistant's final
// text. It never returns a Go error: every failure mode comes back as a
// user-facing string prefixed with "Sorry, ...", and the iteration cap as
// its own fixed message. maxIterations bounds the number of model round
// trips; zero or negative yields the limit message without contacting the
// model at all.
//
// The conversation is mutated in place: one assistant message recording
// each tool-call batch, one tool message per call in the order the model
// emitted them, and finally the assistant's answer.
func (a *Agent) Chat(ctx context.Context, conv *Conversation, maxIterations int) string {
	specs := a.Registry.Specs()

	for iteration := 0; iteration < maxIterations; iteration++ {
		respMsg, err := a.Model.Call(ctx, conv.Messages(), specs)
		if err != nil {
			a.logger().Error("model call failed", "error", err)
			return fmt.Sprintf("Sorry, I encountered an error: %v", err)
		}

		if respMsg.ToolCalls == nil {
			if respMsg.Content != "" {
				conv.AddAssistantMessage(respMsg.Content)
				return respMsg.Content
			}
			return "Sorry, I encountered an error: the model returned an empty response"
		}

		// An explicitly empty batch is a degenerate signal, not "no tools
		// requested"; it ends the turn even if text came with it.
		if len(respMsg.ToolCalls) == 0 {
			return "Sorry, I encountered an error: the model returned an empty tool call batch"
		}
		for _, call := range respMsg.ToolCalls {
			if call.Name == "" {
				return "Sorry, I encountered an error: the model requested a tool call without a function name"
			}
		}

		// Record the batch verbatim before executing any of it.
		conv.append(ai.AIMessage{
			Role:      ai.AssistantRole,
			Content:   respMsg.Content,
			ToolCalls: respMsg.ToolCalls,
		})

		for _, call := range respMsg.ToolCalls {
			content := a.executeToolCall(ctx, call)
			conv.append(ai.ToolMessage{
				Role:       ai.ToolRole,
				Content:    content,
				ToolCallID: call.ID,
			})
		}
	}

	return iterationLimitMessage
}

// executeToolCall resolves one tool call to its result payload. Failures at
// any step — undecodable arguments, an unknown tool, a handler error — are
// contained here and encoded as an error payload so the model can see what
// went wrong; they never abort the rest of the batch.
func (a *Agent) executeToolCall(ctx context.Context, call ai.ToolCall) string {
	args := make(map[string]any)
	if call.Args != "" {
		if err := json.Unmarshal([]byte(call.Args), &args); err != nil {
			a.logger().Error("invalid tool arguments", "tool", call.Name, "error", err)
			return errorPayload(fmt.Sprintf("invalid JSON arguments: %v", err))
		}
	}

	a.logger().Info("tool call", "tool", call.Name, "args", call.Args)

	result, err := a.Registry.Dispatch(ctx, call.Name, args)
	if err != nil {
		a.logger().Error("tool execution failed", "tool", call.Name, "error", err)
		return errorPayload(err.Error())
	}
	return result.Text()
}

func (a *Agent) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func errorPayload(msg string) string {
	payload, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return `{"error": "internal error"}`
	}
	return string(payload)
}
