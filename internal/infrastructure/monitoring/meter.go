package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/healthylife/server/monitoring"

// ProviderMeter records AI provider call latency with an OpenTelemetry
// histogram. The meter provider reads into a Prometheus registry so the
// histogram is scraped next to the other metrics.
type ProviderMeter struct {
	provider *sdkmetric.MeterProvider
	duration metric.Float64Histogram
}

// NewProviderMeter registers an OpenTelemetry exporter on reg
func NewProviderMeter(reg prometheus.Registerer) (*ProviderMeter, error) {
	exporter, err := otelprom.New(
		otelprom.WithRegisterer(reg),
		otelprom.WithNamespace(namespace),
		otelprom.WithoutScopeInfo(),
		otelprom.WithoutTargetInfo(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	duration, err := provider.Meter(meterName).Float64Histogram(
		"provider_call_duration",
		metric.WithUnit("s"),
		metric.WithDescription("AI provider call duration"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 20, 30),
	)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create provider duration histogram: %w", err)
	}

	return &ProviderMeter{provider: provider, duration: duration}, nil
}

// Record observes one provider call
func (p *ProviderMeter) Record(ctx context.Context, capability, provider, outcome string, d time.Duration) {
	p.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}

// Shutdown stops the meter provider
func (p *ProviderMeter) Shutdown(ctx context.Context) error {
	return p.provider.Shutdown(ctx)
}
