package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestDB builds a throwaway database with a small pokemon table.
func createTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pokedex.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE pokemon (id INTEGER PRIMARY KEY, name TEXT, weight INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO pokemon (id, name, weight) VALUES (25, 'pikachu', 60), (143, 'snorlax', 4600)`)
	require.NoError(t, err)

	return path
}

func TestRunQueryRejectsNonSelect(t *testing.T) {
	// Deliberately points at a missing file: validation must trip before
	// the store is ever touched, so the error is ErrValidation, not
	// ErrNotFound.
	st := New(filepath.Join(t.TempDir(), "missing.db"))

	statements := []string{
		"DROP TABLE pokemon",
		"INSERT INTO pokemon VALUES (1, 'mew', 40)",
		"UPDATE pokemon SET name = 'mewtwo'",
		"DELETE FROM pokemon",
		"PRAGMA table_info(pokemon)",
		"",
		"   ",
	}

	for _, stmt := range statements {
		rows, err := st.RunQuery(context.Background(), stmt)
		assert.Nil(t, rows)
		assert.ErrorIs(t, err, ErrValidation, "statement %q", stmt)
	}
}

func TestRunQueryRejectsChainedStatements(t *testing.T) {
	st := New(createTestDB(t))

	rows, err := st.RunQuery(context.Background(), "SELECT 1; DROP TABLE pokemon")

	assert.Nil(t, rows)
	assert.ErrorIs(t, err, ErrValidation)

	// The table must still exist afterwards.
	rows, err = st.RunQuery(context.Background(), "SELECT count(*) AS n FROM pokemon")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows[0]["n"])
}

func TestRunQueryAllowsTrailingSemicolon(t *testing.T) {
	st := New(createTestDB(t))

	rows, err := st.RunQuery(context.Background(), "SELECT name FROM pokemon ORDER BY id;")

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "pikachu", rows[0]["name"])
}

func TestRunQueryCaseInsensitivePrefix(t *testing.T) {
	st := New(createTestDB(t))

	rows, err := st.RunQuery(context.Background(), "  sElEcT name FROM pokemon WHERE id = 25")

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "pikachu", rows[0]["name"])
}

func TestRunQueryMissingDatabase(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "missing.db"))

	rows, err := st.RunQuery(context.Background(), "SELECT 1")

	assert.Nil(t, rows)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunQueryEmptyResultIsNotError(t *testing.T) {
	st := New(createTestDB(t))

	rows, err := st.RunQuery(context.Background(), "SELECT * FROM pokemon WHERE name = 'missingno'")

	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestRunQueryExecutionError(t *testing.T) {
	st := New(createTestDB(t))

	rows, err := st.RunQuery(context.Background(), "SELECT * FROM no_such_table")

	assert.Nil(t, rows)
	assert.ErrorIs(t, err, ErrExecution)
	assert.Contains(t, err.Error(), "no_such_table")
}

func TestRunQueryMaterializesRows(t *testing.T) {
	st := New(createTestDB(t))

	rows, err := st.RunQuery(context.Background(), "SELECT id, name, weight FROM pokemon ORDER BY id")

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(25), rows[0]["id"])
	assert.Equal(t, "pikachu", rows[0]["name"])
	assert.Equal(t, int64(4600), rows[1]["weight"])
}

func TestListTables(t *testing.T) {
	st := New(createTestDB(t))

	tables, err := st.ListTables(context.Background())

	require.NoError(t, err)
	assert.Contains(t, tables, "pokemon")
}

func TestTableInfo(t *testing.T) {
	st := New(createTestDB(t))

	cols, err := st.TableInfo(context.Background(), "pokemon")

	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, "id", cols[0]["name"])
	assert.Equal(t, "INTEGER", cols[0]["type"])
}

func TestExists(t *testing.T) {
	st := New(createTestDB(t))
	assert.True(t, st.Exists())

	missing := New(filepath.Join(t.TempDir(), "missing.db"))
	assert.False(t, missing.Exists())
}

func TestValidateSelectWrapping(t *testing.T) {
	err := validateSelect("SELECT 1; SELECT 2")
	assert.True(t, errors.Is(err, ErrValidation))
}
