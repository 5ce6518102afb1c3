// Package tools defines the fixed tool set advertised to the model and the
// registry that dispatches its invocations.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/pokedex-pro/dexagent/ai"
)

var ErrUnknownTool = errors.New("unknown tool")

// Registry is an immutable name-to-tool table. All tools are registered at
// construction; there is no runtime registration.
type Registry struct {
	order []string
	tools map[string]*ai.Tool
}

func NewRegistry(toolList ...*ai.Tool) *Registry {
	r := &Registry{tools: make(map[string]*ai.Tool, len(toolList))}
	for _, t := range toolList {
		if _, exists := r.tools[t.Name]; exists {
			panic(fmt.Sprintf("duplicate tool name %q", t.Name))
		}
		r.order = append(r.order, t.Name)
		r.tools[t.Name] = t
	}
	return r
}

// Specs returns the tool declarations in registration order, for
// advertising to the model.
func (r *Registry) Specs() []ai.Tool {
	specs := make([]ai.Tool, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, *r.tools[name])
	}
	return specs
}

// Dispatch looks up the named tool and invokes it with the decoded
// arguments. Unknown names fail with ErrUnknownTool.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (*ai.ToolResult, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool.Call(ctx, args)
}
