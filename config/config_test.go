// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, file decoding, env precedence and .env files
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AGENTCRM_BACKEND", "AGENTCRM_DB_PATH", "GEMINI_API_KEY", "VITE_GEMINI_API_KEY",
		"AGENTCRM_GEMINI_MODEL", "AGENTCRM_GEMINI_BASE_URL", "AGENTCRM_CHARM_HOST",
		"AGENTCRM_AUTO_SYNC", "AGENTCRM_DEBUG",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, BackendCharm, cfg.Backend)
	assert.Equal(t, DefaultGeminiModel, cfg.GeminiModel)
	assert.False(t, cfg.GatewayConfigured())
	assert.ErrorIs(t, cfg.RequireAPIKey(), ErrMissingAPIKey)
	assert.Nil(t, cfg.AutoSync)
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"backend":"sqlite","gemini_api_key":"file-key"}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.NotEmpty(t, cfg.DBPath)
	assert.True(t, cfg.GatewayConfigured())
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"backend":"sqlite","gemini_api_key":"file-key"}`), 0600))

	t.Setenv("AGENTCRM_BACKEND", "MEMORY")
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("AGENTCRM_GEMINI_MODEL", "gemini-1.5-pro")
	t.Setenv("AGENTCRM_AUTO_SYNC", "false")
	t.Setenv("AGENTCRM_DEBUG", "1")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "env-key", cfg.GeminiAPIKey)
	assert.Equal(t, "gemini-1.5-pro", cfg.GeminiModel)
	require.NotNil(t, cfg.AutoSync)
	assert.False(t, *cfg.AutoSync)
	assert.True(t, cfg.Debug)
}

func TestEnvBooleans(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"1", true},
		{"true", true},
		{"T", true},
		{"0", false},
		{"FALSE", false},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("AGENTCRM_AUTO_SYNC", tc.raw)
			t.Setenv("AGENTCRM_DEBUG", tc.raw)

			cfg, err := Load(filepath.Join(t.TempDir(), "none.json"))
			require.NoError(t, err)
			require.NotNil(t, cfg.AutoSync)
			assert.Equal(t, tc.want, *cfg.AutoSync)
			assert.Equal(t, tc.want, cfg.Debug)
		})
	}
}

func TestEnvBooleansUnsetKeepFileValues(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"auto_sync":false,"debug":true}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.AutoSync)
	assert.False(t, *cfg.AutoSync)
	assert.True(t, cfg.Debug)
}

func TestEnvBooleansRejectGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv("AGENTCRM_DEBUG", "sometimes")

	_, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse environment")
}

func TestViteKeyIsFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("VITE_GEMINI_API_KEY", "vite-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, "vite-key", cfg.GeminiAPIKey)

	t.Setenv("GEMINI_API_KEY", "primary")
	cfg, err = Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.GeminiAPIKey)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("AGENTCRM_BACKEND", "postgres")

	_, err := Load(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvFiles(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GEMINI_API_KEY=from-dotenv\n"), 0600))

	n, err := LoadEnv(envFile, filepath.Join(dir, ".env.local"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	t.Cleanup(func() { _ = os.Unsetenv("GEMINI_API_KEY") })

	cfg, err := Load(filepath.Join(dir, "none.json"))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.GeminiAPIKey)

	n, err = LoadEnv(filepath.Join(dir, "absent"))
	require.NoError(t, err)
	assert.Zero(t, n)
}
