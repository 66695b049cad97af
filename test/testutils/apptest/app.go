// Package apptest boots the full dependency graph against an in-memory
// database for end-to-end HTTP tests
package apptest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/healthylife/server/internal/infrastructure/config"
	"github.com/healthylife/server/internal/infrastructure/container"
	"github.com/healthylife/server/internal/infrastructure/http/apiserver"
)

// JWTSecret signs every token issued by the test app
const JWTSecret = "integration-secret"

// App is a started HealthyLife API
type App struct {
	t      *testing.T
	Config *config.Config
	Server *apiserver.APIServer
}

// Config returns settings for a self-contained app: SQLite in memory, no
// Redis, no AI credentials and uploads under a temp dir
func Config(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App:      config.AppConfig{Name: "HealthyLife", Version: "test", Environment: "test", LogLevel: "error"},
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second, AllowedOrigins: []string{"http://localhost:5173"}},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", AutoMigrate: true},
		Auth:     config.AuthConfig{JWTSecret: JWTSecret, JWTExpiration: time.Hour, BCryptCost: 4},
		Storage: config.StorageConfig{
			Provider:     "local",
			LocalPath:    t.TempDir(),
			PublicPath:   "/uploads",
			MaxFileSize:  1 << 20,
			AllowedTypes: []string{"image/jpeg", "image/png"},
		},
		Monitoring: config.MonitoringConfig{EnableMetrics: true, MetricsPath: "/metrics"},
		RateLimit:  config.RateLimitConfig{Enable: true, RequestsPerMin: 600, BurstSize: 100},
	}
}

// Start builds and starts the app, stopping it when the test ends
func Start(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := Config(t)
	if mutate != nil {
		mutate(cfg)
	}

	var srv *apiserver.APIServer
	app := fxtest.New(t, fx.Supply(cfg), container.Module, fx.Populate(&srv))
	app.RequireStart()
	t.Cleanup(app.RequireStop)

	return &App{t: t, Config: cfg, Server: srv}
}

// Do serves req in process
func (a *App) Do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Server.Router().ServeHTTP(rec, req)
	return rec
}

// JSON sends body as JSON with an optional bearer token
func (a *App) JSON(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.Do(req)
}

// Decode unmarshals a recorded JSON body
func Decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// Signup registers a user with the given calorie goal and returns the token
// and user id
func (a *App) Signup(email string, calorieGoal int) (token, userID string) {
	a.t.Helper()
	rec := a.JSON(http.MethodPost, "/api/auth/signup", "", map[string]interface{}{
		"name":           "Asha",
		"email":          email,
		"password":       "correct-horse-battery",
		"age":            "31",
		"weight":         62,
		"height":         "165",
		"activity":       "Lightly Active",
		"dietPreference": "veg",
		"calorieGoal":    calorieGoal,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	Decode(a.t, rec, &resp)
	return resp.Token, resp.User.ID
}
