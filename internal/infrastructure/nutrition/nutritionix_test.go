package nutrition

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/infrastructure/config"
)

func TestEstimateTextWithoutCredentialsIsMock(t *testing.T) {
	c := NewNutritionixClient(config.NutritionConfig{}, zaptest.NewLogger(t))
	c.randInt = func(n int) int {
		assert.Equal(t, 400, n)
		return 150
	}

	est, err := c.EstimateText(context.Background(), "  veg biryani ")
	require.NoError(t, err)
	assert.Equal(t, "veg biryani", est.Name)
	assert.Equal(t, 350, est.Calories)
	assert.Equal(t, SourceMock, est.Source)
	assert.False(t, c.Enabled())
}

func TestEstimateTextCallsNutritionix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/natural/nutrients", r.URL.Path)
		assert.Equal(t, "app", r.Header.Get("x-app-id"))
		assert.Equal(t, "key", r.Header.Get("x-app-key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2 idli", body["query"])

		_, _ = w.Write([]byte(`{"foods":[{"food_name":"idli","nf_calories":116.4,"nf_protein":4.1,"nf_total_carbohydrate":24,"nf_total_fat":0.4,"serving_qty":2}]}`))
	}))
	defer srv.Close()

	c := NewNutritionixClient(config.NutritionConfig{AppID: "app", APIKey: "key", BaseURL: srv.URL}, zaptest.NewLogger(t))
	est, err := c.EstimateText(context.Background(), "2 idli")
	require.NoError(t, err)
	assert.Equal(t, "idli", est.Name)
	assert.Equal(t, 116, est.Calories)
	assert.Equal(t, 24.0, est.Macros.Carbs)
	assert.Equal(t, SourceNutritionix, est.Source)
	assert.Equal(t, 2.0, est.Details["serving_qty"])
}

func TestEstimateTextNoMatchReturnsZeroCalories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"foods":[]}`))
	}))
	defer srv.Close()

	c := NewNutritionixClient(config.NutritionConfig{AppID: "app", APIKey: "key", BaseURL: srv.URL}, zaptest.NewLogger(t))
	est, err := c.EstimateText(context.Background(), "rock")
	require.NoError(t, err)
	assert.False(t, est.Valid())
}

func TestEstimateTextStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewNutritionixClient(config.NutritionConfig{AppID: "app", APIKey: "bad", BaseURL: srv.URL}, zaptest.NewLogger(t))
	_, err := c.EstimateText(context.Background(), "dal")

	var serr *assistant.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusUnauthorized, serr.StatusCode)
}
