package container

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	assistantApp "github.com/healthylife/server/internal/application/assistant"
	"github.com/healthylife/server/internal/infrastructure/config"
	"github.com/healthylife/server/internal/infrastructure/http/apiserver"
	"github.com/healthylife/server/internal/infrastructure/storage"
	"github.com/healthylife/server/pkg/healthcheck"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App:      config.AppConfig{Name: "HealthyLife", Version: "test", Environment: "test", LogLevel: "error"},
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", AutoMigrate: true},
		Auth:     config.AuthConfig{JWTSecret: "test-secret", JWTExpiration: time.Hour, BCryptCost: 4},
		Storage: config.StorageConfig{
			Provider:    "local",
			LocalPath:   t.TempDir(),
			PublicPath:  "/uploads",
			MaxFileSize: 1 << 20,
		},
		RateLimit: config.RateLimitConfig{Enable: true, RequestsPerMin: 30, BurstSize: 5},
	}
}

func TestModuleGraphIsComplete(t *testing.T) {
	require.NoError(t, fx.ValidateApp(fx.Supply(testConfig(t)), Module))
}

func TestAppStartsAndStops(t *testing.T) {
	var srv *apiserver.APIServer
	app := fxtest.New(t,
		fx.Supply(testConfig(t)),
		Module,
		fx.Populate(&srv),
	)
	app.RequireStart()
	require.NotNil(t, srv)
	app.RequireStop()
}

func TestHealthCheckCachesForConfiguredTTL(t *testing.T) {
	for _, tt := range []struct {
		name  string
		ttl   time.Duration
		calls int
	}{
		{"cached", time.Minute, 1},
		{"uncached", 0, 3},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Monitoring.HealthCacheTTL = tt.ttl

			var hc *healthcheck.HealthCheck
			app := fxtest.New(t, fx.Supply(cfg), Module, fx.Populate(&hc))
			app.RequireStart()
			defer app.RequireStop()

			calls := 0
			hc.Register("probe_count", healthcheck.NewCustomChecker("probe_count",
				func(context.Context) (healthcheck.Status, string, interface{}) {
					calls++
					return healthcheck.StatusHealthy, "", nil
				}))
			for i := 0; i < 3; i++ {
				hc.Check(context.Background())
			}
			assert.Equal(t, tt.calls, calls)
		})
	}
}

func TestAIProvidersOnlyRegistersConfiguredClients(t *testing.T) {
	logger := zaptest.NewLogger(t)

	none := NewAIProviders(testConfig(t), logger)
	assert.Nil(t, none.Perplexity)
	assert.Nil(t, none.Gemini)
	assert.Nil(t, none.OpenAI)
	assert.Empty(t, none.Analyzers())

	o := assistantApp.New(assistantApp.Config{}, logger, none.OrchestratorOptions()...)
	assert.False(t, o.VisionEnabled())

	cfg := testConfig(t)
	cfg.AI.Gemini = config.ProviderConfig{APIKey: "g", Model: "gemini-1.5-flash"}
	cfg.AI.OpenAI = config.ProviderConfig{APIKey: "o", Model: "gpt-4o-mini"}
	both := NewAIProviders(cfg, logger)

	analyzers := both.Analyzers()
	require.Len(t, analyzers, 2)
	assert.Equal(t, "gemini", analyzers[0].Name())
	assert.Equal(t, "openai", analyzers[1].Name())

	o = assistantApp.New(assistantApp.Config{}, logger, both.OrchestratorOptions()...)
	assert.True(t, o.VisionEnabled())
}

func TestNewSummaryStoreWithoutRedis(t *testing.T) {
	store := NewSummaryStore(testConfig(t), nil, zaptest.NewLogger(t))
	require.NoError(t, store.Set(context.Background(), "u1", "likes dosa"))

	got, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "likes dosa", got)
}

func TestNewStorage(t *testing.T) {
	logger := zaptest.NewLogger(t)

	cfg := testConfig(t)
	s, err := NewStorage(cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStorage{}, s)

	cfg.Storage.Provider = "ftp"
	_, err = NewStorage(cfg, logger)
	assert.Error(t, err)
}
