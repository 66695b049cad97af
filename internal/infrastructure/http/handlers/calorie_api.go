package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/healthylife/server/internal/infrastructure/http/middleware"
	"github.com/healthylife/server/internal/ports/inbound"
	apperrors "github.com/healthylife/server/pkg/errors"
)

// CalorieAPIHandlers serves calorie budget requests
type CalorieAPIHandlers struct {
	calories inbound.CalorieService
	logger   *zap.Logger
}

// NewCalorieAPIHandlers creates calorie handlers
func NewCalorieAPIHandlers(calories inbound.CalorieService, logger *zap.Logger) *CalorieAPIHandlers {
	return &CalorieAPIHandlers{
		calories: calories,
		logger:   logger.Named("calorie-api"),
	}
}

// SmartBudget handles GET /api/calories/smart-budget
func (h *CalorieAPIHandlers) SmartBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperrors.NewUnauthorizedError(""))
		return
	}

	budget, err := h.calories.SmartBudget(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, budget)
}
