package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pokedex-pro/dexagent/ai"
	"github.com/pokedex-pro/dexagent/store"
)

const RunQueryToolName = "run_query"

// NewQueryTool exposes the read-only query gateway to the model. Gateway
// failures come back as errors; the agent loop folds them into the
// tool-result payload so the model can correct itself on the next turn.
func NewQueryTool(st *store.Store) *ai.Tool {
	type QueryInput struct {
		SQL string `json:"sql" description:"SQL SELECT query to execute"`
	}

	return ai.NewTool(
		RunQueryToolName,
		"Execute a read-only SQL SELECT on the Pokémon database to retrieve data.",
		func(ctx context.Context, input QueryInput) (string, error) {
			rows, err := st.RunQuery(ctx, input.SQL)
			if err != nil {
				return "", err
			}
			payload, err := json.Marshal(rows)
			if err != nil {
				return "", fmt.Errorf("failed to serialize rows: %w", err)
			}
			return string(payload), nil
		},
	)
}
