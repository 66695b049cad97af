package mealvision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/ports/outbound"
)

type MockVisionProvider struct {
	mock.Mock
	name string
}

func (m *MockVisionProvider) Name() string { return m.name }

func (m *MockVisionProvider) Vision(ctx context.Context, req outbound.VisionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

var photo = assistant.ImageRequest{Data: []byte{0xff, 0xd8}, MimeType: "image/jpeg"}

func TestIsFoodVerdicts(t *testing.T) {
	tests := []struct {
		name     string
		analyzer func(outbound.VisionProvider) *Analyzer
		answer   string
		want     bool
	}{
		{"explicit yes", NewDetailed, `{"isFood": true, "confidence": 0.1, "label": "x"}`, true},
		{"confidence over bar", NewDetailed, `{"isFood": false, "confidence": 0.55, "label": "plate"}`, true},
		{"confidence under basic bar", NewBasic, `{"isFood": false, "confidence": 0.55, "label": "plate"}`, false},
		{"label match", NewDetailed, "```json\n{\"isFood\": false, \"confidence\": 0.2, \"label\": \"Masala Dosa\"}\n```", true},
		{"label only in wide list", NewBasic, `{"isFood": false, "confidence": 0.2, "label": "dosa"}`, false},
		{"confident despite isFood false", NewDetailed, `{"isFood": false, "confidence": 0.9}`, true},
		{"car", NewDetailed, `{"isFood": false, "confidence": 0.1, "label": "car"}`, false},
		{"garbage", NewDetailed, `I cannot tell`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &MockVisionProvider{name: "gemini"}
			p.On("Vision", mock.Anything, mock.MatchedBy(func(r outbound.VisionRequest) bool {
				return r.Prompt == classifyPrompt
			})).Return(tt.answer, nil).Once()

			ok, err := tt.analyzer(p).IsFood(context.Background(), photo)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestIsFoodRejectsNonImageWithoutCalling(t *testing.T) {
	p := &MockVisionProvider{name: "gemini"}

	ok, err := NewDetailed(p).IsFood(context.Background(), assistant.ImageRequest{Data: []byte("x"), MimeType: "text/plain"})
	require.NoError(t, err)
	assert.False(t, ok)
	p.AssertNotCalled(t, "Vision", mock.Anything, mock.Anything)
}

func TestIsFoodPropagatesProviderErrors(t *testing.T) {
	p := &MockVisionProvider{name: "openai"}
	p.On("Vision", mock.Anything, mock.Anything).Return("", errors.New("boom")).Once()

	_, err := NewBasic(p).IsFood(context.Background(), photo)
	assert.Error(t, err)
}

func TestEstimateParsesNameCaloriesAndMacros(t *testing.T) {
	p := &MockVisionProvider{name: "gemini"}
	p.On("Vision", mock.Anything, mock.Anything).Return(
		`{"name":"Paneer Tikka","calories":412.6,"macros":{"protein":"24g","carbs":12,"fat":28},"vitamins":{"iron":"2mg"}}`, nil).Once()

	est, err := NewDetailed(p).Estimate(context.Background(), photo)
	require.NoError(t, err)
	assert.Equal(t, "Paneer Tikka", est.Name)
	assert.Equal(t, 413, est.Calories)
	assert.Equal(t, 24.0, est.Macros.Protein)
	assert.Equal(t, 12.0, est.Macros.Carbs)
	assert.Equal(t, "gemini", est.Source)
	assert.Contains(t, est.Details, "vitamins")
}

func TestEstimateRejectsZeroCalories(t *testing.T) {
	p := &MockVisionProvider{name: "openai"}
	p.On("Vision", mock.Anything, mock.Anything).Return(`{"name":"mystery","calories":0}`, nil).Once()

	_, err := NewBasic(p).Estimate(context.Background(), photo)
	require.Error(t, err)
	assert.Equal(t, assistant.KindParseFailure, assistant.Classify(err))
}

func TestEstimateRejectsProse(t *testing.T) {
	p := &MockVisionProvider{name: "openai"}
	p.On("Vision", mock.Anything, mock.Anything).Return("It looks tasty!", nil).Once()

	_, err := NewBasic(p).Estimate(context.Background(), photo)
	assert.Error(t, err)
}
