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
	for _, key := range []string{
		EnvGeminiAPIKey, EnvGeminiModel, EnvGoogleAPIKey, EnvSearchEngineID,
		EnvSlackBotToken, EnvSlackChannelID, EnvGoogleClientID, EnvGoogleClientSecret,
		EnvDBPath, EnvMaxResults, EnvTimezone, EnvFallbackName,
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()

	assert.Equal(t, DefaultGeminiModel, cfg.GeminiModel)
	assert.Equal(t, int64(DefaultMaxResults), cfg.MaxResults)
	assert.Equal(t, DefaultTimezone, cfg.Timezone)
	assert.Equal(t, DefaultFallbackName, cfg.FallbackName)
	assert.Equal(t, DefaultDBPath(), cfg.DBPath)
	assert.True(t, cfg.Search().IsNone())
	assert.True(t, cfg.Slack().IsNone())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvGeminiAPIKey, "gem-key")
	t.Setenv(EnvGeminiModel, "gemini-2.5-pro")
	t.Setenv(EnvMaxResults, "5")
	t.Setenv(EnvTimezone, "Europe/Berlin")
	t.Setenv(EnvGoogleAPIKey, "g-key")
	t.Setenv(EnvSearchEngineID, "cx")
	t.Setenv(EnvSlackBotToken, "xoxb-1")
	t.Setenv(EnvSlackChannelID, "C123")

	cfg := FromEnv()

	assert.Equal(t, "gem-key", cfg.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.GeminiModel)
	assert.Equal(t, int64(5), cfg.MaxResults)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)

	search := cfg.Search().UnwrapOr(SearchConfig{})
	assert.Equal(t, SearchConfig{APIKey: "g-key", EngineID: "cx"}, search)

	slack := cfg.Slack().UnwrapOr(SlackConfig{})
	assert.Equal(t, SlackConfig{Token: "xoxb-1", ChannelID: "C123"}, slack)
}

func TestFromEnv_InvalidMaxResultsFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMaxResults, "many")

	assert.Equal(t, int64(DefaultMaxResults), FromEnv().MaxResults)
}

func TestSearch_RequiresBothValues(t *testing.T) {
	cfg := &Config{GoogleAPIKey: "key"}
	assert.True(t, cfg.Search().IsNone())

	cfg = &Config{SearchEngineID: "cx"}
	assert.True(t, cfg.Search().IsNone())
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"GEMINI_API_KEY=from-file\nINBOXTRIAGE_MAX_RESULTS=3\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv(EnvGeminiAPIKey)
		_ = os.Unsetenv(EnvMaxResults)
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.GeminiAPIKey)
	assert.Equal(t, int64(3), cfg.MaxResults)
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvGeminiAPIKey, "from-env")

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("GEMINI_API_KEY=from-file\n"), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GeminiAPIKey)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	require.Error(t, err)
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg:  Config{GeminiAPIKey: "k", MaxResults: 1, DBPath: "x.db"},
		},
		{
			name:    "missing gemini key",
			cfg:     Config{MaxResults: 1, DBPath: "x.db"},
			wantErr: EnvGeminiAPIKey,
		},
		{
			name:    "non-positive max results",
			cfg:     Config{GeminiAPIKey: "k", MaxResults: 0, DBPath: "x.db"},
			wantErr: "max results",
		},
		{
			name:    "missing db path",
			cfg:     Config{GeminiAPIKey: "k", MaxResults: 1},
			wantErr: "database path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
