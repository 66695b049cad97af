package handlers

import (
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthylife/server/internal/domain/meal"
	"github.com/healthylife/server/internal/infrastructure/http/middleware"
	"github.com/healthylife/server/internal/infrastructure/security"
	"github.com/healthylife/server/internal/ports/inbound"
	apperrors "github.com/healthylife/server/pkg/errors"
)

const maxDescriptionLength = 500

// MealRecorder counts logged meals by estimate source
type MealRecorder interface {
	MealLogged(source string)
}

// MealAPIHandlers handles meal logging requests
type MealAPIHandlers struct {
	meals     inbound.MealService
	validator *security.ValidationService
	limits    UploadLimits
	metrics   MealRecorder
	logger    *zap.Logger
}

// NewMealAPIHandlers creates meal handlers
func NewMealAPIHandlers(
	meals inbound.MealService,
	validator *security.ValidationService,
	limits UploadLimits,
	metrics MealRecorder,
	logger *zap.Logger,
) *MealAPIHandlers {
	return &MealAPIHandlers{
		meals:     meals,
		validator: validator,
		limits:    limits,
		metrics:   metrics,
		logger:    logger.Named("meal-api"),
	}
}

// MealResponse is a logged meal
type MealResponse struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"userId"`
	ImageURL    string                 `json:"imageUrl,omitempty"`
	Description string                 `json:"description,omitempty"`
	Name        string                 `json:"name"`
	Calories    int                    `json:"calories"`
	Macros      meal.Macros            `json:"macros"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	CreatedAt   time.Time              `json:"createdAt"`
}

type describeRequest struct {
	Description string `json:"description"`
}

// List handles GET /api/meals
func (h *MealAPIHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperrors.NewUnauthorizedError(""))
		return
	}

	meals, err := h.meals.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := make([]MealResponse, len(meals))
	for i, m := range meals {
		out[i] = toMealResponse(m)
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

// Upload handles POST /api/meals/upload. It takes a multipart form with an
// optional "image" part and "description" field, or a JSON body with a
// description only.
func (h *MealAPIHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperrors.NewUnauthorizedError(""))
		return
	}

	upload, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	m, err := h.meals.Upload(r.Context(), userID, upload)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	source, _ := m.Meta()["source"].(string)
	h.metrics.MealLogged(source)
	writeJSON(w, h.logger, http.StatusCreated, toMealResponse(m))
}

// Delete handles DELETE /api/meals/{id}
func (h *MealAPIHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperrors.NewUnauthorizedError(""))
		return
	}

	rawID := chi.URLParam(r, "id")
	mealID, err := uuid.Parse(rawID)
	if err != nil {
		writeError(w, r, h.logger, apperrors.NewMealNotFoundError(rawID))
		return
	}

	if err := h.meals.Delete(r.Context(), userID, mealID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, MessageResponse{Success: true})
}

func (h *MealAPIHandlers) readUpload(w http.ResponseWriter, r *http.Request) (inbound.MealUpload, error) {
	var upload inbound.MealUpload

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req describeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return upload, err
		}
		upload.Description = h.validator.SanitizeText(req.Description, maxDescriptionLength)
		return upload, nil
	}

	if err := parseMultipart(w, r, h.limits); err != nil {
		return upload, err
	}
	upload.Description = h.validator.SanitizeText(r.FormValue("description"), maxDescriptionLength)

	img, err := formImage(r, "image", h.limits)
	if err != nil {
		return upload, err
	}
	if img == nil {
		return upload, nil
	}
	if !strings.HasPrefix(img.Image.MimeType, "image/") || !h.limits.allows(img.Image.MimeType) {
		return upload, apperrors.NewAppError(apperrors.CodeUnsupportedMedia, "Only image uploads are allowed", "").
			WithMetadata("mimetype", img.Image.MimeType)
	}

	upload.Image = &img.Image
	upload.Filename = img.Filename
	return upload, nil
}

func toMealResponse(m *meal.Meal) MealResponse {
	return MealResponse{
		ID:          m.ID().String(),
		UserID:      m.UserID().String(),
		ImageURL:    m.ImageURL(),
		Description: m.Description(),
		Name:        m.Name(),
		Calories:    m.Calories(),
		Macros:      m.Macros(),
		Meta:        m.Meta(),
		Timestamp:   m.LoggedAt(),
		CreatedAt:   m.CreatedAt(),
	}
}
