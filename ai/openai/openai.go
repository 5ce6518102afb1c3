// Package openai provides a chat-completions driver for ai.Model backed by
// the official OpenAI Go SDK. Any OpenAI-compatible endpoint works through
// the BaseURL override.
package openai

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/pokedex-pro/dexagent/ai"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// NewModel builds an ai.Model bound to the chat completions API.
// An empty apiKey falls back to the OPENAI_API_KEY environment variable.
func NewModel(modelName string, apiKey string, baseURLs ...string) *ai.Model {
	url := DefaultBaseURL
	if len(baseURLs) > 0 && baseURLs[0] != "" {
		url = baseURLs[0]
	}

	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			slog.Error("OPENAI_API_KEY is not set")
		}
	}

	model := &ai.Model{
		ModelName: modelName,
		APIKey:    apiKey,
		BaseURL:   url,
	}
	model.SetCallFunc(generate)
	return model
}

func generate(ctx context.Context, model *ai.Model, messages []ai.Message, tools []ai.Tool) (ai.AIMessage, error) {
	client := createClient(model)

	chatMsgs, err := toChatMessages(messages)
	if err != nil {
		return ai.AIMessage{}, fmt.Errorf("failed to convert messages: %w", err)
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model.ModelName),
		Messages: chatMsgs,
	}
	if len(tools) > 0 {
		params.Tools = toChatTools(tools)
	}
	if model.Temperature != nil {
		params.Temperature = openai.Opt(*model.Temperature)
	}
	if model.MaxTokens != nil {
		params.MaxTokens = openai.Opt(int64(*model.MaxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ai.AIMessage{}, err
	}

	return fromChatResponse(resp), nil
}

func createClient(model *ai.Model) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(model.APIKey),
	}
	if model.BaseURL != "" && model.BaseURL != DefaultBaseURL {
		opts = append(opts, option.WithBaseURL(model.BaseURL))
	}
	return openai.NewClient(opts...)
}

func toChatMessages(msgs []ai.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch m := msg.(type) {
		case ai.SystemMessage:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.Opt(m.Content),
					},
				},
			})
		case ai.UserMessage:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.Opt(m.Content),
					},
				},
			})
		case ai.AIMessage:
			result = append(result, toChatAssistantMessage(m))
		case ai.ToolMessage:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.Opt(m.Content),
					},
					ToolCallID: m.ToolCallID,
				},
			})
		default:
			return nil, fmt.Errorf("unsupported message type: %T", msg)
		}
	}
	return result, nil
}

func toChatAssistantMessage(msg ai.AIMessage) openai.ChatCompletionMessageParamUnion {
	assistantMsg := &openai.ChatCompletionAssistantMessageParam{
		Content: openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.Opt(msg.Content),
		},
	}
	if len(msg.ToolCalls) > 0 {
		toolCalls := make([]openai.ChatCompletionMessageToolCallUnionParam, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			toolCalls[i] = openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Args,
					},
				},
			}
		}
		assistantMsg.ToolCalls = toolCalls
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: assistantMsg}
}

func toChatTools(tools []ai.Tool) []openai.ChatCompletionToolUnionParam {
	result := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, tool := range tools {
		result[i] = openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        tool.Name,
					Description: openai.Opt(tool.Description),
					Parameters:  tool.InputSchema,
				},
			},
		}
	}
	return result
}

func fromChatResponse(resp *openai.ChatCompletion) ai.AIMessage {
	if len(resp.Choices) == 0 {
		return ai.AIMessage{Role: ai.AssistantRole}
	}
	msg := resp.Choices[0].Message

	aiMsg := ai.AIMessage{
		Role:    ai.AssistantRole,
		Content: msg.Content,
	}
	// Preserve empty-vs-absent: an explicit empty tool_calls array maps to
	// an empty slice, which the agent loop rejects as malformed.
	if msg.ToolCalls != nil {
		aiMsg.ToolCalls = make([]ai.ToolCall, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			aiMsg.ToolCalls[i] = ai.ToolCall{
				ID:   tc.ID,
				Type: string(tc.Type),
				Name: tc.Function.Name,
				Args: tc.Function.Arguments,
			}
		}
	}
	return aiMsg
}
