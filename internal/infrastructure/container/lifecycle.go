package container

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	assistantApp "github.com/healthylife/server/internal/application/assistant"
	"github.com/healthylife/server/internal/application/calorie"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/infrastructure/cache"
	"github.com/healthylife/server/internal/infrastructure/config"
	"github.com/healthylife/server/internal/infrastructure/http/apiserver"
	"github.com/healthylife/server/internal/infrastructure/monitoring"
	"github.com/healthylife/server/internal/infrastructure/persistence/migrations"
	"github.com/healthylife/server/internal/infrastructure/security"
	"github.com/healthylife/server/pkg/logger"
)

// LifecycleModule subscribes event handlers and registers lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterEventHandlers,
	RegisterLifecycleHooks,
)

// RegisterEventHandlers subscribes services to domain events
func RegisterEventHandlers(d shared.EventDispatcher, calories *calorie.CalorieService) {
	calories.Register(d)
}

// LifecycleParams are the resources started and stopped with the app
type LifecycleParams struct {
	fx.In

	Lifecycle    fx.Lifecycle
	Shutdowner   fx.Shutdowner
	Config       *config.Config
	Logger       *zap.Logger
	Level        zap.AtomicLevel
	DB           *gorm.DB
	Redis        *cache.RedisClient
	Server       *apiserver.APIServer
	Limiter      *security.RateLimitService
	Orchestrator *assistantApp.Orchestrator
	Tracing      *monitoring.TracingProvider
	Metrics      *monitoring.MetricsCollector
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(p LifecycleParams) {
	log := p.Logger
	cfg := p.Config
	bgCtx, cancel := context.WithCancel(context.Background())

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting HealthyLife API",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			if cfg.Database.AutoMigrate {
				if err := migrations.New(p.DB, log).Up(); err != nil {
					return err
				}
			}

			if cfg.RateLimit.Enable {
				go p.Limiter.Run(bgCtx)
			}

			if cfg.Watch(func(next *config.Config) {
				p.Level.SetLevel(logger.ParseLevel(next.App.LogLevel))
				log.Info("Configuration reloaded", zap.String("log_level", next.App.LogLevel))
			}, func(err error) {
				log.Warn("Ignoring invalid configuration change", zap.Error(err))
			}) {
				log.Info("Watching configuration file for changes")
			}

			go func() {
				if err := p.Server.Start(); err != nil {
					log.Error("API server stopped", zap.Error(err))
					_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down HealthyLife API")
			cancel()

			shutdownCtx, stop := context.WithTimeout(ctx, p.Server.ShutdownTimeout())
			defer stop()
			if err := p.Server.Shutdown(shutdownCtx); err != nil {
				log.Error("Failed to shutdown API server", zap.Error(err))
			}

			// in-flight conversation summaries finish before their stores close
			p.Orchestrator.Wait()

			if err := p.Tracing.Shutdown(ctx); err != nil {
				log.Error("Failed to flush traces", zap.Error(err))
			}
			if err := p.Metrics.Shutdown(ctx); err != nil {
				log.Error("Failed to stop meter provider", zap.Error(err))
			}
			if p.Redis != nil {
				if err := p.Redis.Close(); err != nil {
					log.Error("Failed to close redis client", zap.Error(err))
				}
			}
			closeDB(p.DB, log)

			_ = log.Sync()
			return nil
		},
	})
}
