// Package mealvision classifies and estimates meal photos with a vision model
package mealvision

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/meal"
	"github.com/healthylife/server/internal/ports/outbound"
)

const classifyPrompt = `Classify if the image shows edible food or a prepared meal. Answer ONLY valid JSON: { "isFood": boolean, "confidence": number (0-1), "label": string }`

const detailedEstimatePrompt = `You are a nutrition analyst. Given a meal photo, estimate total calories, macros, and key vitamins/minerals.
Respond ONLY valid JSON with this exact shape:
{
  "name": string,
  "calories": number,
  "macros": { "protein": number, "carbs": number, "fat": number, "fiber": number, "sugar": number },
  "vitamins": { "vitaminA": string, "vitaminC": string, "iron": string, "calcium": string, "sodium": string }
}
Numbers are for a single serving; vitamins/minerals can be expressed in mg, mcg, IU, or %DV as strings.`

const basicEstimatePrompt = `You are a nutrition analyst. Given a meal photo, estimate total calories and macros. Respond ONLY in JSON with keys: name (string), calories (number), macros { protein, carbs, fat } (numbers). Keep numbers reasonable for a single serving.`

var (
	broadFoodLabels  = regexp.MustCompile(`food|meal|dish|curry|salad|pizza|burger|biryani|dosa|idli|sambar|rice|noodles|pasta|roti|chapati|naan|dal|paneer|pulao|poha|paratha|upma|vada|chole|bhature|samosa|pav|tikka|kebab|fish|mutton|egg|omelette|sandwich|soup|dessert|sweet|chai`)
	narrowFoodLabels = regexp.MustCompile(`food|meal|dish|curry|salad|pizza|burger|rice|noodles|pasta|roti|chapati|cake|bread`)
)

// Analyzer implements outbound.MealAnalyzer on top of a vision provider
type Analyzer struct {
	provider       outbound.VisionProvider
	minConfidence  float64
	labels         *regexp.Regexp
	estimatePrompt string
	classifyOpts   outbound.GenerationOptions
	estimateOpts   outbound.GenerationOptions
}

// NewDetailed builds the analyzer used with Gemini: a lower confidence bar,
// a wide label vocabulary and a vitamins-aware estimate
func NewDetailed(provider outbound.VisionProvider) *Analyzer {
	return &Analyzer{
		provider:       provider,
		minConfidence:  0.5,
		labels:         broadFoodLabels,
		estimatePrompt: detailedEstimatePrompt,
	}
}

// NewBasic builds the analyzer used with OpenAI
func NewBasic(provider outbound.VisionProvider) *Analyzer {
	return &Analyzer{
		provider:       provider,
		minConfidence:  0.6,
		labels:         narrowFoodLabels,
		estimatePrompt: basicEstimatePrompt,
		classifyOpts:   outbound.GenerationOptions{Temperature: 0.1, MaxTokens: 50},
		estimateOpts:   outbound.GenerationOptions{Temperature: 0.2, MaxTokens: 200},
	}
}

// Name returns the underlying provider name
func (a *Analyzer) Name() string {
	return a.provider.Name()
}

type classification struct {
	IsFood     *bool    `json:"isFood"`
	Confidence *float64 `json:"confidence"`
	Label      string   `json:"label"`
}

// IsFood accepts an explicit isFood, a confidence at or above the bar, or a
// label naming a food. An unparsable answer is a negative verdict.
func (a *Analyzer) IsFood(ctx context.Context, img assistant.ImageRequest) (bool, error) {
	if !img.IsImage() {
		return false, nil
	}

	text, err := a.provider.Vision(ctx, outbound.VisionRequest{
		Prompt:  classifyPrompt,
		Image:   img,
		Options: a.classifyOpts,
	})
	if err != nil {
		return false, err
	}

	var c classification
	if err := json.Unmarshal([]byte(assistant.ExtractJSON(text)), &c); err != nil {
		return false, nil
	}
	if c.IsFood != nil && *c.IsFood {
		return true, nil
	}
	if c.Confidence != nil && *c.Confidence >= a.minConfidence {
		return true, nil
	}
	return a.labels.MatchString(strings.ToLower(c.Label)), nil
}

// Estimate asks for calories and macros for one serving
func (a *Analyzer) Estimate(ctx context.Context, img assistant.ImageRequest) (meal.Estimate, error) {
	text, err := a.provider.Vision(ctx, outbound.VisionRequest{
		Prompt:  a.estimatePrompt,
		Image:   img,
		Options: a.estimateOpts,
	})
	if err != nil {
		return meal.Estimate{}, err
	}

	var details map[string]interface{}
	if err := json.Unmarshal([]byte(assistant.ExtractJSON(text)), &details); err != nil {
		return meal.Estimate{}, assistant.NewProviderError(a.Name(), assistant.KindParseFailure, fmt.Errorf("decode estimate: %w", err))
	}

	est := meal.Estimate{
		Name:     "meal",
		Calories: int(math.Round(number(details["calories"]))),
		Source:   a.Name(),
		Details:  details,
	}
	if name, ok := details["name"].(string); ok && strings.TrimSpace(name) != "" {
		est.Name = strings.TrimSpace(name)
	}
	if macros, ok := details["macros"].(map[string]interface{}); ok {
		est.Macros = meal.Macros{
			Protein: number(macros["protein"]),
			Carbs:   number(macros["carbs"]),
			Fat:     number(macros["fat"]),
		}
	}

	if !est.Valid() {
		return meal.Estimate{}, assistant.NewProviderError(a.Name(), assistant.KindParseFailure, meal.ErrInvalidEstimate)
	}
	return est, nil
}

// number reads JSON numbers and numeric strings such as "12g"
func number(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%g", &f); err == nil {
			return f
		}
	}
	return 0
}
