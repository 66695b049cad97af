// Package nutrition estimates calories from free text through Nutritionix
package nutrition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/meal"
	"github.com/healthylife/server/internal/infrastructure/config"
)

// Estimate sources
const (
	SourceNutritionix = "nutritionix"
	SourceMock        = "mock"
)

// NutritionixClient implements outbound.NutritionEstimator. Without
// credentials it returns a random mock estimate.
type NutritionixClient struct {
	appID   string
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	randInt func(n int) int
}

// NewNutritionixClient creates a nutrition estimator
func NewNutritionixClient(cfg config.NutritionConfig, logger *zap.Logger) *NutritionixClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &NutritionixClient{
		appID:   cfg.AppID,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("nutritionix"),
		randInt: rand.Intn,
	}
	if !c.Enabled() {
		c.logger.Info("Nutritionix credentials not set, using mock estimates")
	}
	return c
}

// Enabled reports whether the remote API is used
func (c *NutritionixClient) Enabled() bool {
	return c.appID != "" && c.apiKey != ""
}

type food struct {
	FoodName    string  `json:"food_name"`
	Calories    float64 `json:"nf_calories"`
	Protein     float64 `json:"nf_protein"`
	Carbs       float64 `json:"nf_total_carbohydrate"`
	Fat         float64 `json:"nf_total_fat"`
	ServingQty  float64 `json:"serving_qty"`
	ServingUnit string  `json:"serving_unit"`
}

// EstimateText estimates nutrition for a description like "2 idli with sambar"
func (c *NutritionixClient) EstimateText(ctx context.Context, query string) (meal.Estimate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		query = "meal"
	}

	if !c.Enabled() {
		return meal.Estimate{
			Name:     query,
			Calories: 200 + c.randInt(400),
			Source:   SourceMock,
		}, nil
	}

	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return meal.Estimate{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/natural/nutrients", bytes.NewReader(body))
	if err != nil {
		return meal.Estimate{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-app-id", c.appID)
	req.Header.Set("x-app-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return meal.Estimate{}, fmt.Errorf("nutritionix request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return meal.Estimate{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return meal.Estimate{}, &assistant.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var typed struct {
		Foods []food `json:"foods"`
	}
	var loose struct {
		Foods []map[string]interface{} `json:"foods"`
	}
	if err := json.Unmarshal(raw, &typed); err != nil {
		return meal.Estimate{}, fmt.Errorf("failed to decode response: %w", err)
	}
	_ = json.Unmarshal(raw, &loose)

	est := meal.Estimate{Name: query, Source: SourceNutritionix}
	if len(typed.Foods) == 0 {
		c.logger.Debug("No foods matched", zap.String("query", query))
		return est, nil
	}

	first := typed.Foods[0]
	if first.FoodName != "" {
		est.Name = first.FoodName
	}
	est.Calories = int(math.Round(first.Calories))
	est.Macros = meal.Macros{Protein: first.Protein, Carbs: first.Carbs, Fat: first.Fat}
	if len(loose.Foods) > 0 {
		est.Details = loose.Foods[0]
	}
	return est, nil
}
