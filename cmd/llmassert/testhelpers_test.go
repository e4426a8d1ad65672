package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/llmassert/internal/config"
	"github.com/at-ishikawa/llmassert/internal/testutil"
)

// setConfigFile sets the global configFile variable and registers a cleanup to restore it.
func setConfigFile(t *testing.T, cfgPath string) {
	t.Helper()
	oldConfigFile := configFile
	configFile = cfgPath
	t.Cleanup(func() { configFile = oldConfigFile })
}

// setupBrokenConfigFile creates a config file with invalid YAML that causes Load() to fail.
func setupBrokenConfigFile(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{{invalid yaml content"), 0644))
	return cfgPath
}

// fakeProvider answers chat completions with verdict and embeds texts with embeddings[text]
type fakeProvider struct {
	verdict    string
	embeddings map[string][]float64
}

func (provider fakeProvider) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
				"id":    "chatcmpl-1",
				"model": "gpt-4-turbo",
				"choices": []map[string]any{
					{"index": 0, "message": map[string]any{"role": "assistant", "content": provider.verdict}, "finish_reason": "stop"},
				},
			}))
		case strings.HasSuffix(r.URL.Path, "/embeddings"):
			var request struct {
				Input string `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
			require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"model":  "text-embedding-3-small",
				"data": []map[string]any{
					{"object": "embedding", "index": 0, "embedding": provider.embeddings[request.Input]},
				},
			}))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

// setupProvider starts the fake provider and points a config file at it
func setupProvider(t *testing.T, provider fakeProvider, extraConfig string) string {
	t.Helper()
	testutil.ClearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	server := httptest.NewServer(provider.handler(t))
	t.Cleanup(server.Close)

	cfgPath := testutil.WriteConfigFile(t, "openai:\n  base_url: "+server.URL+"\n  max_retry_attempts: 0\n"+extraConfig)
	setConfigFile(t, cfgPath)
	return cfgPath
}

// setupMockDatabase configures a verdicts database and replaces openDatabase with sqlmock
func setupMockDatabase(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	testutil.ClearProviderEnv(t)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	oldOpenDatabase := openDatabase
	openDatabase = func(cfg config.DatabaseConfig) (*sqlx.DB, error) {
		require.Equal(t, "llmassert", cfg.Database)
		return sqlx.NewDb(db, "mysql"), nil
	}
	t.Cleanup(func() { openDatabase = oldOpenDatabase })

	setConfigFile(t, testutil.WriteConfigFile(t,
		"verdicts:\n  database:\n    host: localhost\n    database: llmassert\n    username: llmassert\n"))
	return mock
}
