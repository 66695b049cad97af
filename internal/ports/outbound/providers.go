package outbound

import (
	"context"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/meal"
)

// GenerationOptions tune one completion. Zero values use the provider defaults.
type GenerationOptions struct {
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// ChatCompletion is a multi-turn chat request
type ChatCompletion struct {
	System string
	// Context is optional background, such as an earlier conversation summary
	Context  string
	Messages []assistant.ChatMessage
	Options  GenerationOptions
}

// ChatProvider answers chat turns
type ChatProvider interface {
	Name() string
	Chat(ctx context.Context, req ChatCompletion) (string, error)
}

// TextGenerator answers a single prompt
type TextGenerator interface {
	Name() string
	Model() string
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
}

// VisionRequest asks a question about an image
type VisionRequest struct {
	System  string
	Prompt  string
	Image   assistant.ImageRequest
	Options GenerationOptions
}

// VisionProvider answers questions about images
type VisionProvider interface {
	Name() string
	Vision(ctx context.Context, req VisionRequest) (string, error)
}

// NutritionEstimator estimates nutrition from a text description
type NutritionEstimator interface {
	EstimateText(ctx context.Context, query string) (meal.Estimate, error)
}

// MealAnalyzer inspects meal photos through a vision model
type MealAnalyzer interface {
	Name() string
	// IsFood reports whether the photo shows edible food
	IsFood(ctx context.Context, img assistant.ImageRequest) (bool, error)
	// Estimate returns a nutrition estimate for one serving in the photo
	Estimate(ctx context.Context, img assistant.ImageRequest) (meal.Estimate, error)
}
