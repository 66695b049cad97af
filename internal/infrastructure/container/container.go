// Package container provides dependency injection using Uber FX
package container

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	assistantApp "github.com/healthylife/server/internal/application/assistant"
	"github.com/healthylife/server/internal/application/calorie"
	"github.com/healthylife/server/internal/application/grocery"
	"github.com/healthylife/server/internal/application/meal"
	"github.com/healthylife/server/internal/application/user"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/infrastructure/cache"
	"github.com/healthylife/server/internal/infrastructure/config"
	"github.com/healthylife/server/internal/infrastructure/monitoring"
	"github.com/healthylife/server/internal/infrastructure/persistence/database"
	gormRepo "github.com/healthylife/server/internal/infrastructure/persistence/gorm"
	redisStore "github.com/healthylife/server/internal/infrastructure/persistence/redis"
	"github.com/healthylife/server/internal/infrastructure/security"
	"github.com/healthylife/server/internal/infrastructure/storage"
	"github.com/healthylife/server/internal/ports/inbound"
	"github.com/healthylife/server/internal/ports/outbound"
	"github.com/healthylife/server/pkg/logger"
)

// Module provides every dependency of the API process. The *config.Config
// is supplied by the caller.
var Module = fx.Options(
	// Infrastructure modules
	LoggerModule,
	DatabaseModule,
	CacheModule,
	StorageModule,
	MonitoringModule,

	// Repository modules
	RepositoryModule,

	// Provider and service modules
	ProviderModule,
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// LoggerModule provides logging. The atomic level lets a config reload
// change verbosity without rebuilding the logger.
var LoggerModule = fx.Provide(
	func() zap.AtomicLevel {
		return zap.NewAtomicLevel()
	},
	func(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			AtomicLevel: &level,
		})
	},
)

// DatabaseModule provides the GORM connection
var DatabaseModule = fx.Provide(
	database.Open,
)

// CacheModule provides Redis when enabled and the conversation summary store
var CacheModule = fx.Provide(
	NewRedisClient,
	NewSummaryStore,
)

// StorageModule provides meal image storage
var StorageModule = fx.Provide(
	NewStorage,
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(monitoring.TracingConfig{
			ServiceName:    cfg.Monitoring.ServiceName,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			Insecure:       cfg.Monitoring.OTLPInsecure,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(
		gormRepo.NewUserRepository,
		fx.As(new(outbound.UserRepository)),
	),
	fx.Annotate(
		gormRepo.NewMealRepository,
		fx.As(new(outbound.MealRepository)),
	),
	fx.Annotate(
		gormRepo.NewCalorieHistoryRepository,
		fx.As(new(outbound.CalorieHistoryRepository)),
	),
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	// Security services
	func(cfg *config.Config, log *zap.Logger) *security.AuthService {
		return security.NewAuthService(cfg.Auth, log)
	},
	security.NewValidationService,
	func(cfg *config.Config, log *zap.Logger) *security.RateLimitService {
		return security.NewRateLimitService(cfg.RateLimit, log)
	},

	// Domain events
	fx.Annotate(
		shared.NewSyncDispatcher,
		fx.As(new(shared.EventDispatcher)),
	),

	// User service
	fx.Annotate(
		func(users outbound.UserRepository, auth *security.AuthService, log *zap.Logger) *user.UserService {
			return user.NewUserService(users, auth, log)
		},
		fx.As(new(inbound.UserService)),
	),

	// Meal service
	fx.Annotate(
		func(
			meals outbound.MealRepository,
			providers *AIProviders,
			store outbound.StorageService,
			events shared.EventDispatcher,
			cfg *config.Config,
			log *zap.Logger,
		) *meal.MealService {
			return meal.NewMealService(meals, providers.Analyzers(), providers.Nutrition, store, events,
				meal.Config{StrictFoodValidation: cfg.Features.StrictFoodValidation}, log)
		},
		fx.As(new(inbound.MealService)),
	),

	// Calorie service, also subscribed to meal events below
	calorie.NewCalorieService,
	func(s *calorie.CalorieService) inbound.CalorieService { return s },

	// Assistant and grocery services
	func(o *assistantApp.Orchestrator) inbound.AssistantService { return o },
	fx.Annotate(
		grocery.NewGroceryService,
		fx.As(new(inbound.GroceryService)),
	),
)

// NewRedisClient connects to Redis when it is enabled. A nil client means
// summaries stay in process memory.
func NewRedisClient(cfg *config.Config, log *zap.Logger) (*cache.RedisClient, error) {
	if !cfg.Redis.Enabled {
		log.Info("Redis disabled, conversation summaries stay in memory")
		return nil, nil
	}
	client, err := cache.NewRedisClient(&cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewSummaryStore picks the Redis store when a client is available
func NewSummaryStore(cfg *config.Config, client *cache.RedisClient, log *zap.Logger) outbound.SummaryStore {
	if client == nil {
		return assistantApp.NewMemorySummaryStore()
	}
	return redisStore.NewSummaryStore(client, cfg.Redis.KeyPrefix, 0, log)
}

// NewStorage returns local disk storage, wrapped by S3 when configured
func NewStorage(cfg *config.Config, log *zap.Logger) (outbound.StorageService, error) {
	local, err := storage.NewLocalStorage(cfg.Storage.LocalPath, cfg.Storage.PublicPath, log)
	if err != nil {
		return nil, err
	}

	switch cfg.Storage.Provider {
	case "", "local":
		return local, nil
	case "s3":
		s3, err := storage.NewS3Storage(cfg.Storage, local, log)
		if err != nil {
			return nil, err
		}
		return s3, nil
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Storage.Provider)
	}
}

func closeDB(db *gorm.DB, log *zap.Logger) {
	if err := database.Close(db); err != nil {
		log.Error("Failed to close database connection", zap.Error(err))
	}
}
