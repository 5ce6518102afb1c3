package ai

import (
	"context"
)

// NewDummyModel is useful for testing purposes. It allows you to script the
// model's responses without any network access.
func NewDummyModel(responseFunc func(ctx context.Context, messages []Message, tools []Tool) (AIMessage, error)) *Model {
	return &Model{
		ModelName: "dummy",
		callFunc: func(ctx context.Context, model *Model, messages []Message, tools []Tool) (AIMessage, error) {
			return responseFunc(ctx, messages, tools)
		},
	}
}
