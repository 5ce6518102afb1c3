package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dexagent "github.com/pokedex-pro/dexagent"
	"github.com/pokedex-pro/dexagent/ai"
	"github.com/pokedex-pro/dexagent/sandbox"
	"github.com/pokedex-pro/dexagent/store"
	"github.com/pokedex-pro/dexagent/tools"
	_ "modernc.org/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWithModel(t, func(ctx context.Context, messages []ai.Message, toolSpecs []ai.Tool) (ai.AIMessage, error) {
		return ai.AIMessage{Role: ai.AssistantRole, Content: "Hello there!"}, nil
	})
}

func newTestServerWithModel(t *testing.T, responseFunc func(context.Context, []ai.Message, []ai.Tool) (ai.AIMessage, error)) *httptest.Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pokedex.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE pokemon (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	st := store.New(path)
	model := ai.NewDummyModel(responseFunc)
	registry := tools.NewRegistry(tools.NewQueryTool(st), tools.NewCodeTool(sandbox.New()))
	agent := dexagent.New(model, registry)

	srv := httptest.NewServer(New(agent, st, 0, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.SessionID)
	return out.SessionID
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	resp, err := http.Get(srv.URL + "/api/sessions/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, id, got.SessionID)
	assert.Equal(t, 1, got.Messages, "a new session holds only the system prompt")

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions/"+id, nil)
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp2.StatusCode)

	resp3, err := http.Get(srv.URL + "/api/sessions/" + id)
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)
}

func TestPostMessage(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	resp, err := http.Post(srv.URL+"/api/sessions/"+id+"/messages", "application/json",
		strings.NewReader(`{"content": "hi"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out messageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Hello there!", out.Reply)
}

func TestPostMessageValidation(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	resp, err := http.Post(srv.URL+"/api/sessions/"+id+"/messages", "application/json",
		strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2, err := http.Post(srv.URL+"/api/sessions/nope/messages", "application/json",
		strings.NewReader(`{"content": "hi"}`))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

// Concurrent posts to the same session must be serialized: a conversation
// is append-only from a single loop at a time, so every request contributes
// exactly one user and one assistant message. Run with -race.
func TestConcurrentMessagesSameSession(t *testing.T) {
	srv := newTestServerWithModel(t, func(ctx context.Context, messages []ai.Message, toolSpecs []ai.Tool) (ai.AIMessage, error) {
		time.Sleep(10 * time.Millisecond)
		return ai.AIMessage{Role: ai.AssistantRole, Content: "ok"}, nil
	})
	id := createSession(t, srv)

	const posts = 8
	var wg sync.WaitGroup
	for i := 0; i < posts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(srv.URL+"/api/sessions/"+id+"/messages", "application/json",
				strings.NewReader(`{"content": "hi"}`))
			assert.NoError(t, err)
			if err == nil {
				resp.Body.Close()
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	resp, err := http.Get(srv.URL + "/api/sessions/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()

	var got sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 1+2*posts, got.Messages, "system prompt plus a user/assistant pair per post")
}

func TestClearSession(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	_, err := http.Post(srv.URL+"/api/sessions/"+id+"/messages", "application/json",
		strings.NewReader(`{"content": "hi"}`))
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/sessions/"+id+"/clear", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 1, out.Messages)
}

func TestSchemaEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/schema")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var schema map[string][]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&schema))
	require.Contains(t, schema, "pokemon")
	assert.Equal(t, "id", schema["pokemon"][0]["name"])
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out["status"])
}
