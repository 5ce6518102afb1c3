package ai

import (
	"context"
	"errors"
)

var ErrNoCallFunc = errors.New("model has no call function")

// Model is a provider-agnostic handle on a chat completion endpoint.
// Provider packages (and test doubles) supply callFunc; the struct itself
// never talks to the network. Models are constructed and injected by the
// caller rather than held in package-level state, so independent
// configurations can coexist in one process.
type Model struct {
	ModelName string
	APIKey    string
	BaseURL   string

	// Option pointers; nil means provider default.
	Temperature *float64
	MaxTokens   *int

	callFunc func(ctx context.Context, model *Model, messages []Message, tools []Tool) (AIMessage, error)
}

// Call makes a single request to the model. It does not execute tool calls;
// any requested ToolCalls are returned on the AIMessage for the caller's
// loop to dispatch.
func (m *Model) Call(ctx context.Context, messages []Message, tools []Tool) (AIMessage, error) {
	if m.callFunc == nil {
		return AIMessage{}, ErrNoCallFunc
	}
	return m.callFunc(ctx, m, messages, tools)
}

// WithTemperature sets the sampling temperature and returns the model for chaining.
func (m *Model) WithTemperature(temperature float64) *Model {
	m.Temperature = &temperature
	return m
}

// WithMaxTokens sets the completion token cap and returns the model for chaining.
func (m *Model) WithMaxTokens(maxTokens int) *Model {
	m.MaxTokens = &maxTokens
	return m
}

// SetCallFunc installs the provider implementation.
func (m *Model) SetCallFunc(callFunc func(ctx context.Context, model *Model, messages []Message, tools []Tool) (AIMessage, error)) {
	m.callFunc = callFunc
}
