package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "HealthyLife", cfg.App.Name)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.AI.Cooldown)
	assert.Equal(t, 20*time.Second, cfg.AI.ProviderTimeout)
	assert.Equal(t, "sonar-pro", cfg.AI.Perplexity.Model)
	assert.Equal(t, "gemini-1.5-flash", cfg.AI.Gemini.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.OpenAI.Model)
	assert.Equal(t, int64(5*1024*1024), cfg.Storage.MaxFileSize)
	assert.Contains(t, cfg.Storage.AllowedTypes, "image/heic")
	assert.False(t, cfg.AI.Gemini.Enabled())
	assert.False(t, cfg.Features.StrictFoodValidation)
	assert.Equal(t, 5*time.Second, cfg.Monitoring.HealthCacheTTL)
	assert.False(t, cfg.Server.EnableH2C)
}

func TestLoadLegacyEnvironment(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("PERPLEXITY_API_KEY", "p-key")
	t.Setenv("STRICT_FOOD_VALIDATION", "true")
	t.Setenv("PORT", "7070")
	t.Setenv("CORS_ORIGIN", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.AI.Gemini.Enabled())
	assert.Equal(t, "p-key", cfg.AI.Perplexity.APIKey)
	assert.True(t, cfg.Features.StrictFoodValidation)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Contains(t, cfg.Server.AllowedOrigins, "https://a.example")
	assert.Contains(t, cfg.Server.AllowedOrigins, "https://b.example")
}

func TestLoadPrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("HEALTHYLIFE_AI_OPENAI_API_KEY", "prefixed")
	t.Setenv("OPENAI_API_KEY", "bare")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.AI.OpenAI.APIKey)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  log_level: debug
ai:
  cooldown: 45s
  gemini:
    api_key: from-file
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.AI.Cooldown)
	assert.Equal(t, "from-file", cfg.AI.Gemini.APIKey)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bad := *cfg
	bad.Server.Port = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Database.Driver = "mongo"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.App.Environment = "production"
	bad.Auth.JWTSecret = ""
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Storage.Provider = "s3"
	bad.Storage.S3Bucket = ""
	assert.Error(t, bad.Validate())

	assert.NoError(t, cfg.Validate())
}
