// Package assistant provides the application layer for the nutrition coach.
// The Orchestrator tries remote AI providers in a fixed order, applies a
// cooldown when a provider signals rate limiting, and degrades to local
// deterministic answers when nothing remote succeeds.
package assistant

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/ports/outbound"
)

var tracer = otel.Tracer("github.com/healthylife/server/internal/application/assistant")

// Metrics receives orchestrator events
type Metrics interface {
	RecordProviderAttempt(capability, provider, outcome string, duration time.Duration)
	RecordCooldown(capability string)
	RecordFallback(capability, source string)
}

type nopMetrics struct{}

func (nopMetrics) RecordProviderAttempt(string, string, string, time.Duration) {}
func (nopMetrics) RecordCooldown(string)                                       {}
func (nopMetrics) RecordFallback(string, string)                               {}

// Config bounds provider calls
type Config struct {
	Cooldown        time.Duration
	ProviderTimeout time.Duration
	SummaryTimeout  time.Duration
}

type chatEntry struct {
	provider  outbound.ChatProvider
	summarize bool
}

// Orchestrator resolves chat replies, image replies and recipe recommendations
type Orchestrator struct {
	chat            []chatEntry
	vision          outbound.VisionProvider
	recipePrimary   outbound.TextGenerator
	recipeSecondary outbound.TextGenerator

	cooldown  *CooldownState
	summaries outbound.SummaryStore
	metrics   Metrics
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time
	pickTip   func() int

	background sync.WaitGroup
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithChatProvider appends a chat provider to the priority list. When
// summarize is set, a successful reply also refreshes the conversation summary
// through the same provider.
func WithChatProvider(p outbound.ChatProvider, summarize bool) Option {
	return func(o *Orchestrator) {
		o.chat = append(o.chat, chatEntry{provider: p, summarize: summarize})
	}
}

// WithVisionProvider sets the single vision provider
func WithVisionProvider(p outbound.VisionProvider) Option {
	return func(o *Orchestrator) { o.vision = p }
}

// WithRecipeProviders sets the strict-JSON provider and the retrying provider.
// Either may be nil.
func WithRecipeProviders(primary, secondary outbound.TextGenerator) Option {
	return func(o *Orchestrator) {
		o.recipePrimary = primary
		o.recipeSecondary = secondary
	}
}

// WithSummaryStore replaces the in-memory summary store
func WithSummaryStore(s outbound.SummaryStore) Option {
	return func(o *Orchestrator) { o.summaries = s }
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock sets the time source used for cooldowns
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithTipPicker sets how the canned tip is chosen
func WithTipPicker(pick func() int) Option {
	return func(o *Orchestrator) { o.pickTip = pick }
}

// New creates an orchestrator. Providers are tried in the order they are added.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		metrics: nopMetrics{},
		logger:  logger.Named("orchestrator"),
		cfg:     cfg,
		now:     time.Now,
		pickTip: func() int { return rand.Intn(len(assistant.Tips)) },
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.summaries == nil {
		o.summaries = NewMemorySummaryStore()
	}
	o.cooldown = NewCooldownState(cfg.Cooldown, o.now)

	names := make([]string, 0, len(o.chat))
	for _, e := range o.chat {
		names = append(names, e.provider.Name())
	}
	o.logger.Info("Assistant orchestrator initialized",
		zap.Strings("chat_providers", names),
		zap.Bool("vision", o.vision != nil),
		zap.Bool("recipe_primary", o.recipePrimary != nil),
		zap.Bool("recipe_secondary", o.recipeSecondary != nil),
	)
	return o
}

// Cooldowns exposes the cooldown state
func (o *Orchestrator) Cooldowns() *CooldownState {
	return o.cooldown
}

// VisionEnabled reports whether image replies can reach a provider
func (o *Orchestrator) VisionEnabled() bool {
	return o.vision != nil
}

// Wait blocks until background summarization finishes
func (o *Orchestrator) Wait() {
	o.background.Wait()
}

// Chat returns a reply for the conversation. It never fails: provider errors
// fall through to the next provider and finally to a local answer.
func (o *Orchestrator) Chat(ctx context.Context, req assistant.ChatRequest) (reply assistant.NormalizedReply) {
	diet := shared.ParseDiet(string(req.Diet))

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Chat panicked, using local reply", zap.Any("panic", r))
			reply = o.localReply(req.Messages, diet, assistant.ReplyMeta{Source: assistant.SourceLocal})
		}
	}()

	if len(o.chat) == 0 {
		o.metrics.RecordFallback(string(assistant.CapabilityText), string(assistant.SourceMock))
		return assistant.NewReply(o.tip(), assistant.ReplyMeta{Source: assistant.SourceMock})
	}

	if o.cooldown.Active(assistant.CapabilityText) {
		o.logger.Debug("Text chat cooling down, skipping providers",
			zap.Time("until", o.cooldown.Until(assistant.CapabilityText)))
		return o.localReply(req.Messages, diet, assistant.ReplyMeta{Source: assistant.SourceLocal, Cooled: true})
	}

	completion := outbound.ChatCompletion{
		System:   systemPrompt(diet),
		Context:  summaryContext(o.summary(ctx, req.ConversationKey)),
		Messages: req.Messages,
	}

	rateLimited := false
	for _, entry := range o.chat {
		provider := entry.provider
		content, err := o.call(ctx, assistant.CapabilityText, provider.Name(), func(ctx context.Context) (string, error) {
			return provider.Chat(ctx, completion)
		})
		if err != nil {
			if o.handleFailure(assistant.CapabilityText, provider.Name(), err) {
				rateLimited = true
			}
			continue
		}

		if strings.TrimSpace(content) == "" {
			content = o.tip()
		}
		meta := assistant.ReplyMeta{Source: assistant.Source(provider.Name())}
		if entry.summarize {
			meta.Summarized = o.summarizeAsync(ctx, provider, req.ConversationKey, req.Messages, content)
		}
		return assistant.NewReply(content, meta)
	}

	return o.localReply(req.Messages, diet, assistant.ReplyMeta{Source: assistant.SourceLocal, RateLimited: rateLimited})
}

// ChatImage analyzes a food photo with the vision provider. Rate limits and
// cooldowns produce canned replies; any other provider error is returned.
func (o *Orchestrator) ChatImage(ctx context.Context, req assistant.ImageRequest) (assistant.NormalizedReply, error) {
	if len(req.Data) == 0 {
		return assistant.NormalizedReply{}, assistant.NewProviderError("", assistant.KindInvalidInput, assistant.ErrEmptyImage)
	}
	if !req.IsImage() {
		return assistant.NormalizedReply{}, assistant.NewProviderError("", assistant.KindInvalidInput, assistant.ErrNotImage)
	}
	if o.vision == nil {
		return assistant.NormalizedReply{}, assistant.NewProviderError("", assistant.KindInvalidInput, assistant.ErrVisionNotConfigured)
	}

	if o.cooldown.Active(assistant.CapabilityVision) {
		o.metrics.RecordFallback(string(assistant.CapabilityVision), string(assistant.SourceLocal))
		return assistant.NewReply(assistant.VisionCooledReply, assistant.ReplyMeta{
			Source: assistant.SourceLocal, Vision: true, Cooled: true,
		}), nil
	}

	name := o.vision.Name()
	content, err := o.call(ctx, assistant.CapabilityVision, name, func(ctx context.Context) (string, error) {
		return o.vision.Vision(ctx, outbound.VisionRequest{Prompt: visionPrompt, Image: req})
	})
	if err != nil {
		if o.handleFailure(assistant.CapabilityVision, name, err) {
			o.metrics.RecordFallback(string(assistant.CapabilityVision), string(assistant.SourceLocal))
			return assistant.NewReply(assistant.VisionRateLimitedReply, assistant.ReplyMeta{
				Source: assistant.SourceLocal, Vision: true, RateLimited: true,
			}), nil
		}
		return assistant.NormalizedReply{}, assistant.NewProviderError(name, assistant.Classify(err), err)
	}

	if strings.TrimSpace(content) == "" {
		content = assistant.VisionEmptyReply
	}
	return assistant.NewReply(content, assistant.ReplyMeta{Source: assistant.Source(name), Vision: true}), nil
}

// call runs one bounded provider attempt and records it
func (o *Orchestrator) call(ctx context.Context, capability assistant.Capability, provider string, fn func(context.Context) (string, error)) (string, error) {
	if o.cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.ProviderTimeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "assistant.provider")
	span.SetAttributes(
		attribute.String("assistant.capability", string(capability)),
		attribute.String("assistant.provider", provider),
	)
	defer span.End()

	start := time.Now()
	out, err := fn(ctx)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = assistant.Classify(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	o.metrics.RecordProviderAttempt(string(capability), provider, outcome, elapsed)
	return out, err
}

// handleFailure logs a failed attempt and trips the cooldown on rate limits.
// It reports whether the failure was a rate limit.
func (o *Orchestrator) handleFailure(capability assistant.Capability, provider string, err error) bool {
	kind := assistant.Classify(err)
	if kind != assistant.KindRateLimited {
		o.logger.Warn("Provider failed, trying next",
			zap.String("capability", string(capability)),
			zap.String("provider", provider),
			zap.String("kind", kind.String()),
			zap.Error(err))
		return false
	}

	until := o.cooldown.Trip(capability)
	o.metrics.RecordCooldown(string(capability))
	o.logger.Warn("Provider rate limited, cooling down",
		zap.String("capability", string(capability)),
		zap.String("provider", provider),
		zap.Time("until", until),
		zap.Error(err))
	return true
}

func (o *Orchestrator) localReply(messages []assistant.ChatMessage, diet shared.DietPreference, meta assistant.ReplyMeta) assistant.NormalizedReply {
	o.metrics.RecordFallback(string(assistant.CapabilityText), string(meta.Source))
	return assistant.NewReply(assistant.LocalReply(messages, diet), meta)
}

func (o *Orchestrator) tip() string {
	return assistant.Tip(o.pickTip())
}

func (o *Orchestrator) summary(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	s, err := o.summaries.Get(ctx, key)
	if err != nil {
		o.logger.Debug("Summary lookup failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return s
}

// summarizeAsync refreshes the stored summary in the background and reports
// whether it was scheduled. Failures only log.
func (o *Orchestrator) summarizeAsync(ctx context.Context, provider outbound.ChatProvider, key string, messages []assistant.ChatMessage, reply string) bool {
	if key == "" {
		return false
	}

	start := 0
	if len(messages) > summaryTurns {
		start = len(messages) - summaryTurns
	}
	history := make([]assistant.ChatMessage, 0, summaryTurns+1)
	history = append(history, messages[start:]...)
	history = append(history, assistant.ChatMessage{Role: assistant.RoleAssistant, Content: reply})

	timeout := o.cfg.SummaryTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	o.background.Add(1)
	go func() {
		defer o.background.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				o.logger.Debug("Summarization panicked", zap.Any("panic", r))
			}
		}()

		summary, err := provider.Chat(bg, outbound.ChatCompletion{
			System:   summaryPrompt,
			Messages: history,
			Options:  outbound.GenerationOptions{Temperature: 0.2, MaxTokens: 120},
		})
		if err != nil {
			o.logger.Debug("Summarization failed", zap.String("provider", provider.Name()), zap.Error(err))
			return
		}
		if strings.TrimSpace(summary) == "" {
			return
		}
		if err := o.summaries.Set(bg, key, strings.TrimSpace(summary)); err != nil {
			o.logger.Debug("Summary store failed", zap.String("key", key), zap.Error(err))
		}
	}()
	return true
}

func (o *Orchestrator) String() string {
	return fmt.Sprintf("Orchestrator(chat=%d vision=%t)", len(o.chat), o.vision != nil)
}
