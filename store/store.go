// Package store is a thin read-only gateway over the local SQLite mirror.
// Every call opens its own short-lived connection; nothing is pooled or
// shared across calls.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

var (
	// ErrValidation rejects anything that is not a single SELECT statement.
	ErrValidation = errors.New("only SELECT statements are permitted")
	// ErrNotFound reports a missing database file; run the importer first.
	ErrNotFound = errors.New("database not found")
	// ErrExecution wraps the engine diagnostic for an accepted statement
	// that failed to run (unknown table, syntax error past the prefix, ...).
	ErrExecution = errors.New("SQL execution failed")
)

// Store locates the database file. The zero value is unusable; use New.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Exists reports whether the database file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// RunQuery executes a read-only SELECT and materializes every row as a
// column-name to value map before the connection is released. No implicit
// LIMIT or timeout is applied; callers needing bounds add their own LIMIT.
func (s *Store) RunQuery(ctx context.Context, query string) ([]map[string]any, error) {
	if err := validateSelect(query); err != nil {
		return nil, err
	}
	if !s.Exists() {
		return nil, fmt.Errorf("%w at %s, run the importer first", ErrNotFound, s.path)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		slog.Error("SQL error", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	defer rows.Close()

	result, err := materialize(rows)
	if err != nil {
		slog.Error("SQL error", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	slog.Debug("SQL query returned", "rows", len(result))
	return result, nil
}

// ListTables returns the names of all user tables.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.RunQuery(ctx, "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	tables := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["name"].(string); ok {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

// TableInfo returns column name/type pairs for one table, expressed as a
// SELECT over the pragma table-valued function so it passes validation.
func (s *Store) TableInfo(ctx context.Context, table string) ([]map[string]any, error) {
	query := fmt.Sprintf("SELECT name, type FROM pragma_table_info(%s) ORDER BY cid", quoteLiteral(table))
	return s.RunQuery(ctx, query)
}

// validateSelect accepts a single statement whose first token, after
// trimming and case-folding, is "select". A semicolon anywhere before the
// end means a possible chained statement and is rejected outright; a
// semicolon inside a string literal is a tolerated false positive.
func validateSelect(query string) error {
	trimmed := strings.ToLower(strings.TrimSpace(query))
	if !strings.HasPrefix(trimmed, "select") {
		return ErrValidation
	}
	body := strings.TrimRight(trimmed, "; \t\r\n")
	if strings.Contains(body, ";") {
		return fmt.Errorf("%w: multiple statements are not allowed", ErrValidation)
	}
	return nil
}

func materialize(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]map[string]any, 0)
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
