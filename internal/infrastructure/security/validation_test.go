package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/healthylife/server/internal/infrastructure/config"
	apperrors "github.com/healthylife/server/pkg/errors"
)

type signupPayload struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Age      int     `json:"age" validate:"omitempty,gt=0"`
	Weight   float64 `json:"weight" validate:"omitempty,gt=0"`
	Diet     string  `json:"dietPreference" validate:"diet"`
	Activity string  `json:"activity" validate:"activity"`
	File     string  `json:"file" validate:"safe_filename"`
}

func TestValidateAcceptsGoodPayload(t *testing.T) {
	v := NewValidationService(zap.NewNop())

	err := v.Validate(signupPayload{
		Name: "Asha", Email: "asha@example.com", Password: "secret1",
		Age: 30, Diet: "non-veg", Activity: "Very Active", File: "lunch.jpg",
	})
	assert.NoError(t, err)
}

func TestValidateReportsEveryField(t *testing.T) {
	v := NewValidationService(zap.NewNop())

	err := v.Validate(signupPayload{
		Email: "nope", Password: "123", Age: -1, Diet: "vegan", Activity: "couch", File: "../etc/passwd",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.GetCode(err))

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	fields := map[string]string{}
	for _, fe := range appErr.Metadata["validation_errors"].(apperrors.ValidationErrors) {
		fields[fe.Field] = fe.Tag
	}
	assert.Equal(t, map[string]string{
		"name":           "required",
		"email":          "email",
		"password":       "min",
		"age":            "gt",
		"dietPreference": "diet",
		"activity":       "activity",
		"file":           "safe_filename",
	}, fields)
}

func TestSanitizeText(t *testing.T) {
	v := NewValidationService(zap.NewNop())

	assert.Equal(t, "dal and rice", v.SanitizeText("  <b>dal</b>\n\n and   rice ", 0))
	assert.Equal(t, "pane", v.SanitizeText("paneer", 4))
}

func TestRateLimitServiceBurstAndRefill(t *testing.T) {
	r := NewRateLimitService(config.RateLimitConfig{RequestsPerMin: 60, BurstSize: 2}, zap.NewNop())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	assert.True(t, r.Allow("1.2.3.4"))
	assert.True(t, r.Allow("1.2.3.4"))
	assert.False(t, r.Allow("1.2.3.4"))
	assert.True(t, r.Allow("5.6.7.8"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, r.Allow("1.2.3.4"))
	assert.Equal(t, time.Second, r.RetryAfter())
}

func TestRateLimitServiceCleanup(t *testing.T) {
	r := NewRateLimitService(config.RateLimitConfig{CleanupInterval: time.Minute}, zap.NewNop())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Allow("old")
	now = now.Add(2 * time.Minute)
	r.Allow("fresh")

	assert.Equal(t, 1, r.Cleanup())
	assert.Len(t, r.visitors, 1)
}
