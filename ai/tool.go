package ai

import (
	"context"
	"fmt"
)

// Tool mimics a standard function-calling tool definition: a name and JSON
// schema advertised to the model, plus the bound handler.
type Tool struct {
	Name        string                                                                      `json:"name"`
	Description string                                                                      `json:"description"`
	InputSchema map[string]interface{}                                                      `json:"inputSchema,omitempty"`
	Execute     func(ctx context.Context, args map[string]interface{}) (*ToolResult, error) `json:"-"`
}

// Call executes the tool with the given decoded arguments.
func (t *Tool) Call(ctx context.Context, args map[string]interface{}) (*ToolResult, error) {
	if t.Execute == nil {
		return nil, fmt.Errorf("tool %s has no execute function", t.Name)
	}
	return t.Execute(ctx, args)
}
