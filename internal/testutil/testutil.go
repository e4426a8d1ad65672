// Package testutil provides shared test helpers for configuration files and provider environment variables.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ProviderEnvVars are read by the configuration loader
var ProviderEnvVars = []string{
	"OPENAI_API_KEY",
	"OPENAI_BASE_URL",
	"OPENAI_ORG_ID",
	"OPENAI_MODEL",
	"OPENAI_EMBEDDINGS_MODEL",
	"AZURE_OPENAI_API_KEY",
	"AZURE_OPENAI_API_VERSION",
	"AZURE_OPENAI_API_INSTANCE_NAME",
	"AZURE_OPENAI_API_DEPLOYMENT_NAME",
	"AZURE_OPENAI_API_EMBEDDINGS_DEPLOYMENT_NAME",
	"LLMASSERT_DATABASE_PASSWORD",
}

// ClearProviderEnv empties every variable the configuration loader reads for the rest of the test.
// Empty variables are treated as unset.
func ClearProviderEnv(t *testing.T) {
	t.Helper()
	for _, env := range ProviderEnvVars {
		t.Setenv(env, "")
	}
}

// WriteConfigFile writes contents to llmassert.yml in a new temporary directory.
// Returns the path to the generated config file.
func WriteConfigFile(t *testing.T, contents string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "llmassert.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(contents), 0644))
	return cfgPath
}
