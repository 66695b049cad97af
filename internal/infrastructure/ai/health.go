// Package ai reports the readiness of the remote AI providers
package ai

import (
	"context"
	"time"

	assistantApp "github.com/healthylife/server/internal/application/assistant"
	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/pkg/healthcheck"
)

// ProviderStatus is the metadata of the providers health check
type ProviderStatus struct {
	Providers map[string]bool      `json:"providers"`
	Cooldowns map[string]time.Time `json:"cooldowns,omitempty"`
}

// NewProviderChecker reports which providers have credentials and which
// capabilities are cooling down. The check never calls a provider. It is
// degraded while no provider is configured or a cooldown is active.
func NewProviderChecker(configured map[string]bool, cooldowns *assistantApp.CooldownState) *healthcheck.CustomChecker {
	return healthcheck.NewCustomChecker("ai_providers", func(ctx context.Context) (healthcheck.Status, string, interface{}) {
		status := ProviderStatus{Providers: configured}

		enabled := false
		for _, ok := range configured {
			enabled = enabled || ok
		}
		if !enabled {
			return healthcheck.StatusDegraded, "no AI provider configured, serving local replies", status
		}

		for _, c := range []assistant.Capability{assistant.CapabilityText, assistant.CapabilityVision} {
			if cooldowns.Active(c) {
				if status.Cooldowns == nil {
					status.Cooldowns = make(map[string]time.Time)
				}
				status.Cooldowns[string(c)] = cooldowns.Until(c)
			}
		}
		if len(status.Cooldowns) > 0 {
			return healthcheck.StatusDegraded, "rate limited, cooling down", status
		}
		return healthcheck.StatusHealthy, "", status
	})
}
