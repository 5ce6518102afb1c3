package etl

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFixtureServer serves a tiny slice of the upstream API: one paginated
// pokemon list, its detail documents, and one type. Everything else is 404
// so the remaining import steps exercise the skip path.
func newFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("/pokemon", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, map[string]any{
				"count": 2,
				"next":  nil,
				"results": []map[string]string{
					{"name": "snorlax", "url": server.URL + "/pokemon/143/"},
				},
			})
			return
		}
		writeJSON(w, map[string]any{
			"count": 2,
			"next":  server.URL + "/pokemon?page=2",
			"results": []map[string]string{
				{"name": "pikachu", "url": server.URL + "/pokemon/25/"},
			},
		})
	})

	pokemonDetail := func(id int, name string, speed int) map[string]any {
		return map[string]any{
			"id":              id,
			"name":            name,
			"species":         map[string]string{"name": name, "url": fmt.Sprintf("%s/pokemon-species/%d/", server.URL, id)},
			"base_experience": 100,
			"is_default":      true,
			"height":          4,
			"weight":          60,
			"types": []map[string]any{
				{"slot": 1, "type": map[string]string{"name": "electric", "url": server.URL + "/type/13/"}},
			},
			"stats": []map[string]any{
				{"base_stat": speed, "effort": 0, "stat": map[string]string{"name": "speed", "url": server.URL + "/stat/6/"}},
			},
			"abilities": []map[string]any{
				{"is_hidden": false, "slot": 1, "ability": map[string]string{"name": "static", "url": server.URL + "/ability/9/"}},
			},
		}
	}
	mux.HandleFunc("/pokemon/25/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, pokemonDetail(25, "pikachu", 90))
	})
	mux.HandleFunc("/pokemon/143/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, pokemonDetail(143, "snorlax", 30))
	})

	mux.HandleFunc("/type", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"count": 1,
			"next":  nil,
			"results": []map[string]string{
				{"name": "electric", "url": server.URL + "/type/13/"},
			},
		})
	})
	mux.HandleFunc("/type/13/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"id":   13,
			"name": "electric",
			"damage_relations": map[string]any{
				"double_damage_to": []map[string]string{
					{"name": "water", "url": server.URL + "/type/11/"},
				},
				"half_damage_to": []map[string]string{
					{"name": "grass", "url": server.URL + "/type/12/"},
				},
				"no_damage_to": []map[string]string{
					{"name": "ground", "url": server.URL + "/type/5/"},
				},
			},
		})
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestImporter(t *testing.T, baseURL string) *Importer {
	t.Helper()
	im := New(filepath.Join(t.TempDir(), "pokedex.db"))
	im.BaseURL = baseURL
	return im
}

func TestRunImportsFixture(t *testing.T) {
	server := newFixtureServer(t)
	im := newTestImporter(t, server.URL)

	require.NoError(t, im.Run(context.Background(), false))

	db, err := sql.Open("sqlite", im.DBPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM pokemon").Scan(&count))
	assert.Equal(t, 2, count, "both pages of the pokemon list are imported")

	var speed int
	require.NoError(t, db.QueryRow(
		"SELECT base_stat FROM pokemon_stats WHERE pokemon_id = 25 AND stat_name = 'speed'").Scan(&speed))
	assert.Equal(t, 90, speed)

	var factor int
	require.NoError(t, db.QueryRow(
		"SELECT damage_factor FROM type_relations WHERE type_id = 13 AND target_type = 'water'").Scan(&factor))
	assert.Equal(t, 200, factor)

	// Endpoints the fixture does not serve were skipped, not fatal.
	var natures int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM nature").Scan(&natures))
	assert.Equal(t, 0, natures)
}

func TestRunSkipsExistingDatabase(t *testing.T) {
	server := newFixtureServer(t)
	im := newTestImporter(t, server.URL)

	require.NoError(t, im.Run(context.Background(), false))

	// Second run without force must not refetch; point at a dead URL to
	// prove nothing is contacted.
	im.BaseURL = "http://127.0.0.1:1"
	require.NoError(t, im.Run(context.Background(), false))
}

func TestIDFromURL(t *testing.T) {
	assert.Equal(t, 25, idFromURL("https://pokeapi.co/api/v2/pokemon/25/"))
	assert.Equal(t, 143, idFromURL("https://pokeapi.co/api/v2/pokemon/143"))
	assert.Equal(t, 0, idFromURL("not-a-url"))
}

func TestFetchJSONRetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	im := newTestImporter(t, server.URL)

	var out map[string]bool
	require.NoError(t, im.fetchJSON(context.Background(), server.URL, &out))
	assert.True(t, out["ok"])
	assert.Equal(t, 3, attempts)
}
