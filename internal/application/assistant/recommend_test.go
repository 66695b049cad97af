package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/ports/outbound"
)

var cart = []assistant.CartItem{{Name: "Spinach"}, {Name: "Chickpeas"}}

const fencedRecipes = "Sure! Here you go:\n```json\n{\"recipes\":[{\"name\":\"Chana Salad\",\"items\":[\"Chickpeas\",\"Onion\"],\"instructions\":\"Mix.\"}]}\n```\nEnjoy."

func recommendReq(diet shared.DietPreference) assistant.RecommendRequest {
	return assistant.RecommendRequest{Diet: diet, Cart: cart}
}

func TestRecommendWithoutProvidersScoresStaticRecipes(t *testing.T) {
	o := newTestOrchestrator(t, newFakeClock())

	rec := o.Recommend(context.Background(), assistant.RecommendRequest{
		Diet: shared.DietVeg,
		Cart: []assistant.CartItem{{Name: "broccoli"}},
	})

	assert.Equal(t, assistant.SourceStatic, rec.Meta.Source)
	require.Len(t, rec.Recipes, 2)
	assert.Equal(t, "Paneer Stir-fry", rec.Recipes[0].Name)
	assert.Equal(t, "Quinoa Buddha Bowl", rec.Recipes[1].Name)
}

func TestRecommendPrimarySuccess(t *testing.T) {
	primary := &MockTextGenerator{name: "perplexity", model: "sonar"}
	secondary := &MockTextGenerator{name: "gemini", model: "gemini-1.5-flash"}
	primary.On("Generate", mock.Anything, strictRecipePrompt(shared.DietVeg, cart), outbound.GenerationOptions{Model: "sonar", Temperature: 0.6, MaxTokens: 800}).Return(fencedRecipes, nil).Once()

	o := newTestOrchestrator(t, newFakeClock(), WithRecipeProviders(primary, secondary))
	rec := o.Recommend(context.Background(), recommendReq(shared.DietVeg))

	assert.Equal(t, assistant.SourcePerplexity, rec.Meta.Source)
	assert.Equal(t, "sonar", rec.Meta.Model)
	require.Len(t, rec.Recipes, 1)
	assert.Equal(t, "Chana Salad", rec.Recipes[0].Name)
	assert.Equal(t, []string{"Chickpeas", "Onion"}, rec.Recipes[0].Items)
	primary.AssertExpectations(t)
	secondary.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecommendPrimaryFailureUsesSecondary(t *testing.T) {
	primary := &MockTextGenerator{name: "perplexity", model: "sonar"}
	secondary := &MockTextGenerator{name: "gemini", model: "gemini-1.5-flash"}
	primary.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", rateLimited).Once()
	secondary.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(fencedRecipes, nil).Once()

	o := newTestOrchestrator(t, newFakeClock(), WithRecipeProviders(primary, secondary))
	rec := o.Recommend(context.Background(), recommendReq(shared.DietVeg))

	assert.Equal(t, assistant.SourceGoogle, rec.Meta.Source)
	require.Len(t, rec.Recipes, 1)
	secondary.AssertNumberOfCalls(t, "Generate", 1)
}

func TestRecommendSecondaryRetriesOnceThenReportsParseFailure(t *testing.T) {
	secondary := &MockTextGenerator{name: "gemini", model: "gemini-1.5-flash"}
	secondary.On("Generate", mock.Anything, rulesRecipePrompt(shared.DietNonVeg, cart), mock.Anything).
		Return("I cannot do JSON today", nil).Once()
	secondary.On("Generate", mock.Anything, retryRecipePrompt(shared.DietNonVeg, cart),
		outbound.GenerationOptions{Model: "gemini-1.5-flash", Temperature: 0.2, MaxTokens: 400}).
		Return(`{"meals": []}`, nil).Once()

	o := newTestOrchestrator(t, newFakeClock(), WithRecipeProviders(nil, secondary))
	rec := o.Recommend(context.Background(), recommendReq(shared.DietNonVeg))

	assert.Equal(t, assistant.SourceParseFailed, rec.Meta.Source)
	assert.Equal(t, "google-parse-failed", string(rec.Meta.Source))
	assert.NotNil(t, rec.Recipes)
	assert.Empty(t, rec.Recipes)
	assert.Equal(t, shared.DietNonVeg, rec.Diet)
	secondary.AssertExpectations(t)
}

func TestRecommendSecondaryRetrySucceeds(t *testing.T) {
	secondary := &MockTextGenerator{name: "gemini", model: "gemini-1.5-flash"}
	secondary.On("Generate", mock.Anything, rulesRecipePrompt(shared.DietVeg, cart), mock.Anything).
		Return("not json", nil).Once()
	secondary.On("Generate", mock.Anything, retryRecipePrompt(shared.DietVeg, cart), mock.Anything).
		Return(fencedRecipes, nil).Once()

	o := newTestOrchestrator(t, newFakeClock(), WithRecipeProviders(nil, secondary))
	rec := o.Recommend(context.Background(), recommendReq(shared.DietVeg))

	assert.Equal(t, assistant.SourceGoogle, rec.Meta.Source)
	require.Len(t, rec.Recipes, 1)
}

func TestRecommendSecondaryTransportErrorUsesStatic(t *testing.T) {
	secondary := &MockTextGenerator{name: "gemini", model: "gemini-1.5-flash"}
	secondary.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("dial tcp: connection refused")).Once()

	o := newTestOrchestrator(t, newFakeClock(), WithRecipeProviders(nil, secondary))
	rec := o.Recommend(context.Background(), recommendReq(shared.DietVeg))

	assert.Equal(t, assistant.SourceStatic, rec.Meta.Source)
	require.Len(t, rec.Recipes, 2)
	assert.Equal(t, "Quinoa Buddha Bowl", rec.Recipes[0].Name)
	secondary.AssertNumberOfCalls(t, "Generate", 1)
}

func TestRecommendPanicReturnsErrorFallback(t *testing.T) {
	primary := &MockTextGenerator{name: "perplexity", model: "sonar"}
	primary.On("Generate", mock.Anything, mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("boom")
	}).Return("", nil)

	o := newTestOrchestrator(t, newFakeClock(), WithRecipeProviders(primary, nil))
	rec := o.Recommend(context.Background(), recommendReq(shared.DietVeg))

	assert.Equal(t, assistant.SourceErrorFallback, rec.Meta.Source)
	assert.Equal(t, "boom", rec.Meta.Message)
	require.Len(t, rec.Recipes, 2)
	assert.Equal(t, "Quinoa Buddha Bowl", rec.Recipes[0].Name)
}

func TestRecommendPrimaryEmptyListFallsThrough(t *testing.T) {
	primary := &MockTextGenerator{name: "perplexity", model: "sonar"}
	secondary := &MockTextGenerator{name: "gemini", model: "gemini-1.5-flash"}
	primary.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(`{"recipes":[]}`, nil).Once()
	secondary.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(fencedRecipes, nil).Once()

	o := newTestOrchestrator(t, newFakeClock(), WithRecipeProviders(primary, secondary))
	rec := o.Recommend(context.Background(), recommendReq(shared.DietVeg))

	assert.Equal(t, assistant.SourceGoogle, rec.Meta.Source)
	require.Len(t, rec.Recipes, 1)
	primary.AssertExpectations(t)
	secondary.AssertExpectations(t)
}
