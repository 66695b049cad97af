package assistant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/grocery"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/ports/outbound"
)

const recipeCapability = "recipes"

// Recommend suggests recipes for the cart. The first provider gets one
// attempt; the second gets one stricter retry on a parse failure. When neither
// is available the static recipes for the diet are returned, scored against
// the cart. It never fails.
func (o *Orchestrator) Recommend(ctx context.Context, req assistant.RecommendRequest) (rec assistant.Recommendation) {
	diet := shared.ParseDiet(string(req.Diet))

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Recommendation panicked, using static recipes", zap.Any("panic", r))
			rec = o.staticRecommendation(diet, req.Cart, assistant.RecommendationMeta{
				Source:  assistant.SourceErrorFallback,
				Message: fmt.Sprint(r),
			})
		}
	}()

	if p := o.recipePrimary; p != nil {
		recipes, err := o.generateRecipes(ctx, p, strictRecipePrompt(diet, req.Cart), outbound.GenerationOptions{
			Model: p.Model(), Temperature: 0.6, MaxTokens: 800,
		})
		if err == nil && len(recipes) > 0 {
			return assistant.Recommendation{
				Diet:    diet,
				Recipes: recipes,
				Meta:    assistant.RecommendationMeta{Source: assistant.RecipeSource(p.Name()), Model: p.Model()},
			}
		}
		if err == nil {
			err = assistant.ErrNoRecipes
		}
		o.logger.Warn("Primary recipe provider missed, trying next",
			zap.String("provider", p.Name()), zap.Error(err))
	}

	if p := o.recipeSecondary; p != nil {
		recipes, err := o.generateRecipes(ctx, p, rulesRecipePrompt(diet, req.Cart), outbound.GenerationOptions{
			Model: p.Model(), Temperature: 0.6, MaxTokens: 600,
		})
		if err != nil && assistant.Classify(err) == assistant.KindParseFailure {
			o.logger.Info("Recipe response unparsable, retrying with strict prompt",
				zap.String("provider", p.Name()), zap.Error(err))
			recipes, err = o.generateRecipes(ctx, p, retryRecipePrompt(diet, req.Cart), outbound.GenerationOptions{
				Model: p.Model(), Temperature: 0.2, MaxTokens: 400,
			})
			if err != nil && assistant.Classify(err) == assistant.KindParseFailure {
				o.metrics.RecordFallback(recipeCapability, string(assistant.SourceParseFailed))
				return assistant.Recommendation{
					Diet:    diet,
					Recipes: []assistant.RecipeSuggestion{},
					Meta: assistant.RecommendationMeta{
						Source:  assistant.SourceParseFailed,
						Model:   p.Model(),
						Message: "Could not parse recipe suggestions from provider response",
					},
				}
			}
		}
		if err == nil {
			return assistant.Recommendation{
				Diet:    diet,
				Recipes: recipes,
				Meta:    assistant.RecommendationMeta{Source: assistant.RecipeSource(p.Name()), Model: p.Model()},
			}
		}
		o.logger.Warn("Secondary recipe provider failed, using static recipes",
			zap.String("provider", p.Name()), zap.Error(err))
	}

	return o.staticRecommendation(diet, req.Cart, assistant.RecommendationMeta{Source: assistant.SourceStatic})
}

func (o *Orchestrator) generateRecipes(ctx context.Context, p outbound.TextGenerator, prompt string, opts outbound.GenerationOptions) ([]assistant.RecipeSuggestion, error) {
	var recipes []assistant.RecipeSuggestion
	_, err := o.call(ctx, recipeCapability, p.Name(), func(ctx context.Context) (string, error) {
		text, err := p.Generate(ctx, prompt, opts)
		if err != nil {
			return "", err
		}
		recipes, err = assistant.ParseRecipes(text)
		return text, err
	})
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

func (o *Orchestrator) staticRecommendation(diet shared.DietPreference, cart []assistant.CartItem, meta assistant.RecommendationMeta) assistant.Recommendation {
	o.metrics.RecordFallback(recipeCapability, string(meta.Source))
	plan := grocery.StaticPlan(diet)
	return assistant.Recommendation{
		Diet:    diet,
		Recipes: grocery.ScoreRecipes(plan.Recipes, cart),
		Meta:    meta,
	}
}
