package container

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	assistantApp "github.com/healthylife/server/internal/application/assistant"
	"github.com/healthylife/server/internal/infrastructure/ai"
	"github.com/healthylife/server/internal/infrastructure/cache"
	"github.com/healthylife/server/internal/infrastructure/config"
	"github.com/healthylife/server/internal/infrastructure/http/apiserver"
	"github.com/healthylife/server/internal/infrastructure/http/handlers"
	"github.com/healthylife/server/internal/infrastructure/monitoring"
	"github.com/healthylife/server/internal/infrastructure/security"
	"github.com/healthylife/server/internal/ports/inbound"
	"github.com/healthylife/server/pkg/healthcheck"
)

// HTTPModule provides the handlers, health checks and the API server
var HTTPModule = fx.Provide(
	NewHandlers,
	NewHealthCheck,
	NewAPIServer,
)

// HandlerParams are the services behind the route handlers
type HandlerParams struct {
	fx.In

	Config    *config.Config
	Logger    *zap.Logger
	Users     inbound.UserService
	Meals     inbound.MealService
	Calories  inbound.CalorieService
	Grocery   inbound.GroceryService
	Assistant inbound.AssistantService
	Validator *security.ValidationService
	Metrics   *monitoring.MetricsCollector
	Providers *AIProviders
}

// NewHandlers builds every route handler
func NewHandlers(p HandlerParams) apiserver.Handlers {
	limits := handlers.UploadLimits{
		MaxFileSize:  p.Config.Storage.MaxFileSize,
		AllowedTypes: p.Config.Storage.AllowedTypes,
	}
	status := handlers.HealthResponse{
		Vision: handlers.VisionStatus{
			Google: p.Providers.Gemini != nil,
			OpenAI: p.Providers.OpenAI != nil,
		},
		StrictFoodValidation: p.Config.Features.StrictFoodValidation,
	}

	return apiserver.Handlers{
		Auth:     handlers.NewAuthAPIHandlers(p.Users, p.Validator, p.Metrics, p.Logger),
		Meals:    handlers.NewMealAPIHandlers(p.Meals, p.Validator, limits, p.Metrics, p.Logger),
		Calories: handlers.NewCalorieAPIHandlers(p.Calories, p.Logger),
		Grocery:  handlers.NewGroceryAPIHandlers(p.Grocery, p.Validator, p.Logger),
		Chat:     handlers.NewChatAPIHandlers(p.Assistant, p.Users, limits, p.Logger),
		Health: handlers.NewHealthAPIHandlers(func() handlers.HealthResponse {
			return status
		}, p.Logger),
	}
}

// HealthCheckParams are the dependencies probed by readiness
type HealthCheckParams struct {
	fx.In

	Config       *config.Config
	Logger       *zap.Logger
	DB           *gorm.DB
	Redis        *cache.RedisClient
	Providers    *AIProviders
	Orchestrator *assistantApp.Orchestrator
}

// NewHealthCheck registers readiness checks for the database, Redis when
// enabled, the upload directory and the AI providers
func NewHealthCheck(p HealthCheckParams) (*healthcheck.HealthCheck, error) {
	cfg, db, redis := p.Config, p.DB, p.Redis
	hc := healthcheck.New(cfg.App.Version, p.Logger)
	hc.SetCacheTTL(cfg.Monitoring.HealthCacheTTL)

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	hc.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
	if redis != nil {
		hc.Register("redis", healthcheck.NewRedisChecker(redis))
	}
	if cfg.Storage.LocalPath != "" {
		hc.Register("uploads", healthcheck.NewDiskChecker(cfg.Storage.LocalPath))
	}
	hc.Register("ai_providers", ai.NewProviderChecker(map[string]bool{
		"perplexity": p.Providers.Perplexity != nil,
		"gemini":     p.Providers.Gemini != nil,
		"openai":     p.Providers.OpenAI != nil,
	}, p.Orchestrator.Cooldowns()))
	return hc, nil
}

// ServerParams are the server's non-handler dependencies
type ServerParams struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Handlers apiserver.Handlers
	Auth     *security.AuthService
	Limiter  *security.RateLimitService
	Metrics  *monitoring.MetricsCollector
	Tracing  *monitoring.TracingProvider
	Checks   *healthcheck.HealthCheck
}

// NewAPIServer assembles the API server
func NewAPIServer(p ServerParams) *apiserver.APIServer {
	return apiserver.NewAPIServer(apiserver.Dependencies{
		Config:  p.Config,
		Logger:  p.Logger,
		Tokens:  p.Auth,
		Limiter: p.Limiter,
		Metrics: p.Metrics,
		Tracing: p.Tracing,
		Checks:  p.Checks,
	}, p.Handlers)
}
