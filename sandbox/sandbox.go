// Package sandbox executes short model-generated snippets in an isolated
// Starlark interpreter. The snippet text is adversarial input: it is scanned
// against a deny-list before execution, and the interpreter's symbol table
// is limited to safe builtins plus pre-seeded json/math/stats helpers. The
// language itself has no filesystem, network, environment, or process
// access, so the allow-list environment is the primary control and the
// textual scan only a fast-reject layer.
package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	starlarkjson "go.starlark.net/lib/json"
	starlarkmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxSteps = 10_000_000
)

// Result is the outcome of an accepted snippet. Exactly one of Bindings or
// Err is meaningful: runtime failures (division by zero, unbound names, a
// tripped step or time limit) populate Err and never surface as a Go error.
type Result struct {
	Bindings map[string]any `json:"bindings,omitempty"`
	Err      string         `json:"error,omitempty"`
}

// Sandbox evaluates snippets. The zero value is unusable; use New.
type Sandbox struct {
	timeout  time.Duration
	maxSteps uint64
}

func New() *Sandbox {
	return &Sandbox{timeout: defaultTimeout, maxSteps: defaultMaxSteps}
}

// WithTimeout overrides the wall-clock bound for a single evaluation.
func (s *Sandbox) WithTimeout(d time.Duration) *Sandbox {
	s.timeout = d
	return s
}

// Evaluate runs one snippet and captures its top-level bindings.
//
// The returned error is non-nil only for a SecurityError from the static
// pre-check; in that case the snippet was never executed. Any failure during
// execution is contained and reported through Result.Err. Bindings whose
// names start with "_" and the pre-seeded environment names are excluded
// from the result. An empty or whitespace-only snippet succeeds with no
// bindings.
func (s *Sandbox) Evaluate(ctx context.Context, code string, extra map[string]any) (*Result, error) {
	if err := checkCode(code); err != nil {
		return nil, err
	}

	if strings.TrimSpace(code) == "" {
		return &Result{Bindings: map[string]any{}}, nil
	}

	predeclared := starlark.StringDict{
		"json":   starlarkjson.Module,
		"math":   starlarkmath.Module,
		"stats":  statsModule,
		"sum":    starlark.NewBuiltin("sum", builtinSum),
		"round":  starlark.NewBuiltin("round", builtinRound),
		"map":    starlark.NewBuiltin("map", builtinMap),
		"filter": starlark.NewBuiltin("filter", builtinFilter),
	}
	reserved := make(map[string]bool, len(predeclared))
	for name := range predeclared {
		reserved[name] = true
	}
	for name, value := range extra {
		sv, err := goToStarlark(value)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
		predeclared[name] = sv
		reserved[name] = true
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	thread := &starlark.Thread{
		Name: "sandbox",
		Print: func(_ *starlark.Thread, msg string) {
			slog.Debug("sandbox print", "msg", msg)
		},
	}
	thread.SetMaxExecutionSteps(s.maxSteps)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel("execution deadline exceeded")
		case <-done:
		}
	}()

	opts := &syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
		Recursion:       true,
	}

	globals, err := starlark.ExecFileOptions(opts, thread, "snippet.star", code, predeclared)
	if err != nil {
		return &Result{Err: evalErrorMessage(err)}, nil
	}

	bindings := make(map[string]any)
	for name, value := range globals {
		if strings.HasPrefix(name, "_") || reserved[name] {
			continue
		}
		bindings[name] = starlarkToGo(value)
	}
	return &Result{Bindings: bindings}, nil
}

func evalErrorMessage(err error) string {
	if evalErr, ok := err.(*starlark.EvalError); ok {
		return evalErr.Msg
	}
	return err.Error()
}
