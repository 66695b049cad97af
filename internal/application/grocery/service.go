// Package grocery provides weekly grocery plans and cart recipe suggestions
package grocery

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/grocery"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/ports/inbound"
)

// WeekLayout is the date format of the week parameter
const WeekLayout = "2006-01-02"

// GroceryService implements inbound.GroceryService
type GroceryService struct {
	recommender inbound.AssistantService
	logger      *zap.Logger
}

// NewGroceryService creates a grocery service that delegates recommendations
// to the assistant
func NewGroceryService(recommender inbound.AssistantService, logger *zap.Logger) *GroceryService {
	return &GroceryService{
		recommender: recommender,
		logger:      logger.Named("grocery-service"),
	}
}

// WeeklyPlan returns the static plan for diet. An empty week means the week
// starting today.
func (s *GroceryService) WeeklyPlan(diet shared.DietPreference, week string, now time.Time) inbound.WeeklyPlan {
	diet = shared.ParseDiet(string(diet))
	week = strings.TrimSpace(week)
	if week == "" {
		week = now.Format(WeekLayout)
	}

	plan := grocery.StaticPlan(diet)
	return inbound.WeeklyPlan{
		Diet:    diet,
		Week:    week,
		Items:   plan.Items,
		Recipes: []assistant.RecipeSuggestion{},
		Meta:    assistant.RecommendationMeta{Source: assistant.SourceStatic},
	}
}

// Recommend suggests recipes for the cart
func (s *GroceryService) Recommend(ctx context.Context, req assistant.RecommendRequest) assistant.Recommendation {
	rec := s.recommender.Recommend(ctx, req)
	s.logger.Info("Recipes recommended",
		zap.String("source", string(rec.Meta.Source)),
		zap.String("model", rec.Meta.Model),
		zap.Int("cart", len(req.Cart)),
		zap.Int("recipes", len(rec.Recipes)))
	return rec
}
