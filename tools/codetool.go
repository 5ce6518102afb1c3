package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pokedex-pro/dexagent/ai"
	"github.com/pokedex-pro/dexagent/sandbox"
)

const RunPythonToolName = "run_python"

// NewCodeTool exposes the sandboxed evaluator to the model. The snippet
// language is Starlark, a Python dialect, executed with no filesystem,
// network, or process access.
//
// A SecurityError from the pre-check is returned as a Go error so the
// violation is visible on the call path. Ordinary runtime failures in the
// snippet are part of the normal result payload.
func NewCodeTool(sb *sandbox.Sandbox) *ai.Tool {
	type CodeInput struct {
		Code string `json:"code" description:"Python code to execute for data analysis or post-processing"`
	}

	return ai.NewTool(
		RunPythonToolName,
		"Execute Python code for data analysis, calculations, or post-processing of query results.",
		func(ctx context.Context, input CodeInput) (string, error) {
			result, err := sb.Evaluate(ctx, input.Code, nil)
			if err != nil {
				return "", err
			}
			if result.Err != "" {
				payload, merr := json.Marshal(map[string]string{"error": result.Err})
				if merr != nil {
					return "", fmt.Errorf("failed to serialize error: %w", merr)
				}
				return string(payload), nil
			}
			payload, err := json.Marshal(result.Bindings)
			if err != nil {
				return "", fmt.Errorf("failed to serialize bindings: %w", err)
			}
			return string(payload), nil
		},
	)
}
