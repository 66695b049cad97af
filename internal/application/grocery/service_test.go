package grocery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/test/testutils"
)

func TestWeeklyPlanDefaultsWeekToToday(t *testing.T) {
	svc := NewGroceryService(new(testutils.MockAssistantService), zaptest.NewLogger(t))
	now := time.Date(2026, 3, 9, 18, 30, 0, 0, time.UTC)

	plan := svc.WeeklyPlan("", "", now)
	assert.Equal(t, shared.DietVeg, plan.Diet)
	assert.Equal(t, "2026-03-09", plan.Week)
	assert.Equal(t, "Spinach", plan.Items[0].Name)
	assert.NotNil(t, plan.Recipes)
	assert.Empty(t, plan.Recipes)
	assert.Equal(t, assistant.SourceStatic, plan.Meta.Source)

	plan = svc.WeeklyPlan("NON-VEG", " 2026-03-16 ", now)
	assert.Equal(t, shared.DietNonVeg, plan.Diet)
	assert.Equal(t, "2026-03-16", plan.Week)
	assert.Equal(t, "Chicken Breast", plan.Items[0].Name)
}

func TestRecommendDelegates(t *testing.T) {
	recommender := new(testutils.MockAssistantService)
	svc := NewGroceryService(recommender, zaptest.NewLogger(t))
	req := assistant.RecommendRequest{Diet: shared.DietVeg, Cart: []assistant.CartItem{{Name: "Paneer"}}}
	want := assistant.Recommendation{Diet: shared.DietVeg, Meta: assistant.RecommendationMeta{Source: assistant.SourceStatic}}

	recommender.On("Recommend", context.Background(), req).Return(want).Once()

	got := svc.Recommend(context.Background(), req)
	require.Equal(t, want, got)
	recommender.AssertExpectations(t)
}
