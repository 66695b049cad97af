package container

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	assistantApp "github.com/healthylife/server/internal/application/assistant"
	"github.com/healthylife/server/internal/infrastructure/ai/gemini"
	"github.com/healthylife/server/internal/infrastructure/ai/mealvision"
	"github.com/healthylife/server/internal/infrastructure/ai/openai"
	"github.com/healthylife/server/internal/infrastructure/config"
	"github.com/healthylife/server/internal/infrastructure/monitoring"
	"github.com/healthylife/server/internal/infrastructure/nutrition"
	"github.com/healthylife/server/internal/ports/outbound"
)

// perplexityName is the reply source for the Perplexity client
const perplexityName = "perplexity"

// providerHTTPTimeout is the transport ceiling; callers bound each attempt
// more tightly through their context
const providerHTTPTimeout = 60 * time.Second

// ProviderModule provides the remote AI clients and the orchestrator
var ProviderModule = fx.Provide(
	NewAIProviders,
	NewOrchestrator,
)

// AIProviders holds the clients that have credentials. Missing providers
// are nil and never registered with a consumer.
type AIProviders struct {
	Perplexity *openai.Client
	Gemini     *gemini.Client
	OpenAI     *openai.Client
	Nutrition  *nutrition.NutritionixClient
}

// NewAIProviders builds a client for every configured provider
func NewAIProviders(cfg *config.Config, log *zap.Logger) *AIProviders {
	httpClient := &http.Client{
		Timeout:   providerHTTPTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	p := &AIProviders{
		Nutrition: nutrition.NewNutritionixClient(cfg.Nutrition, log),
	}
	if cfg.AI.Perplexity.Enabled() {
		p.Perplexity = openai.NewClient(perplexityName, cfg.AI.Perplexity, httpClient, log)
	}
	if cfg.AI.Gemini.Enabled() {
		p.Gemini = gemini.NewClient(cfg.AI.Gemini, httpClient, log)
	}
	if cfg.AI.OpenAI.Enabled() {
		p.OpenAI = openai.NewClient("openai", cfg.AI.OpenAI, httpClient, log)
	}

	log.Info("AI providers configured",
		zap.Bool("perplexity", p.Perplexity != nil),
		zap.Bool("gemini", p.Gemini != nil),
		zap.Bool("openai", p.OpenAI != nil),
		zap.Bool("nutritionix", p.Nutrition.Enabled()),
	)
	return p
}

// Analyzers returns the meal photo analyzers in priority order: Gemini with
// the detailed prompt, then OpenAI with the basic one
func (p *AIProviders) Analyzers() []outbound.MealAnalyzer {
	var out []outbound.MealAnalyzer
	if p.Gemini != nil {
		out = append(out, mealvision.NewDetailed(p.Gemini))
	}
	if p.OpenAI != nil {
		out = append(out, mealvision.NewBasic(p.OpenAI))
	}
	return out
}

// OrchestratorOptions registers each configured client for the capabilities
// it serves. Chat runs Perplexity, Gemini, OpenAI in that order and only
// Gemini summarizes. Vision is Gemini only.
func (p *AIProviders) OrchestratorOptions() []assistantApp.Option {
	var opts []assistantApp.Option
	var primary, secondary outbound.TextGenerator

	if p.Perplexity != nil {
		opts = append(opts, assistantApp.WithChatProvider(p.Perplexity, false))
		primary = p.Perplexity
	}
	if p.Gemini != nil {
		opts = append(opts,
			assistantApp.WithChatProvider(p.Gemini, true),
			assistantApp.WithVisionProvider(p.Gemini),
		)
		secondary = p.Gemini
	}
	if p.OpenAI != nil {
		opts = append(opts, assistantApp.WithChatProvider(p.OpenAI, false))
	}

	return append(opts, assistantApp.WithRecipeProviders(primary, secondary))
}

// NewOrchestrator builds the nutrition coach
func NewOrchestrator(
	cfg *config.Config,
	providers *AIProviders,
	summaries outbound.SummaryStore,
	metrics *monitoring.MetricsCollector,
	log *zap.Logger,
) *assistantApp.Orchestrator {
	opts := append(providers.OrchestratorOptions(),
		assistantApp.WithSummaryStore(summaries),
		assistantApp.WithMetrics(metrics),
	)
	return assistantApp.New(assistantApp.Config{
		Cooldown:        cfg.AI.Cooldown,
		ProviderTimeout: cfg.AI.ProviderTimeout,
		SummaryTimeout:  cfg.AI.SummaryTimeout,
	}, log, opts...)
}
