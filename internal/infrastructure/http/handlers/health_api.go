package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// VisionStatus reports which vision providers have credentials
type VisionStatus struct {
	Google bool `json:"google"`
	OpenAI bool `json:"openai"`
}

// HealthResponse is the public health summary
type HealthResponse struct {
	Status               string       `json:"status"`
	Vision               VisionStatus `json:"vision"`
	StrictFoodValidation bool         `json:"strictFoodValidation"`
}

// HealthAPIHandlers serves the capability summary
type HealthAPIHandlers struct {
	status func() HealthResponse
	logger *zap.Logger
}

// NewHealthAPIHandlers creates health handlers. status is called per request.
func NewHealthAPIHandlers(status func() HealthResponse, logger *zap.Logger) *HealthAPIHandlers {
	return &HealthAPIHandlers{status: status, logger: logger.Named("health-api")}
}

// Health handles GET /api/health
func (h *HealthAPIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := h.status()
	if resp.Status == "" {
		resp.Status = "ok"
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
