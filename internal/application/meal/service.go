// Package meal provides the application layer for logging meals
package meal

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthylife/server/internal/domain/meal"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/ports/inbound"
	"github.com/healthylife/server/internal/ports/outbound"
	apperrors "github.com/healthylife/server/pkg/errors"
)

// SourceTextFallback marks a text estimate made after vision estimation failed
const SourceTextFallback = "nutritionix-fallback"

// Config tunes meal logging
type Config struct {
	// StrictFoodValidation rejects photos when no vision model could check them
	StrictFoodValidation bool
}

// MealService implements meal logging use cases
type MealService struct {
	meals     outbound.MealRepository
	analyzers []outbound.MealAnalyzer
	nutrition outbound.NutritionEstimator
	storage   outbound.StorageService
	events    shared.EventDispatcher
	cfg       Config
	now       func() time.Time
	logger    *zap.Logger
}

// NewMealService creates a meal service. Analyzers are tried in order.
func NewMealService(
	meals outbound.MealRepository,
	analyzers []outbound.MealAnalyzer,
	nutrition outbound.NutritionEstimator,
	storage outbound.StorageService,
	events shared.EventDispatcher,
	cfg Config,
	logger *zap.Logger,
) *MealService {
	return &MealService{
		meals:     meals,
		analyzers: analyzers,
		nutrition: nutrition,
		storage:   storage,
		events:    events,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.Named("meal-service"),
	}
}

// List returns the user's meals, newest first
func (s *MealService) List(ctx context.Context, userID uuid.UUID) ([]*meal.Meal, error) {
	meals, err := s.meals.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list meals", err)
	}
	return meals, nil
}

// Upload logs a meal from a photo, a description or both
func (s *MealService) Upload(ctx context.Context, userID uuid.UUID, upload inbound.MealUpload) (*meal.Meal, error) {
	description := strings.TrimSpace(upload.Description)
	hasImage := upload.Image != nil && len(upload.Image.Data) > 0
	if !hasImage && description == "" {
		return nil, apperrors.NewAppError(apperrors.CodeImageRequired, "Image or description required", "")
	}

	if hasImage && !s.isFood(ctx, upload) {
		return nil, apperrors.NewAppError(apperrors.CodeNotFood,
			"The uploaded image does not appear to be food. Please upload a clear meal/food photo.", "").
			WithCause(meal.ErrNotFood)
	}

	est, err := s.estimate(ctx, upload, description, hasImage)
	if err != nil {
		return nil, err
	}
	if !est.Valid() {
		return nil, apperrors.NewAppError(apperrors.CodeEstimateFailed,
			"Invalid image. Please upload a valid food image.", "").WithCause(meal.ErrInvalidEstimate)
	}

	var imageURL string
	if hasImage {
		name := meal.UploadFileName(s.now(), upload.Filename)
		imageURL, err = s.storage.Store(ctx, name, upload.Image.MimeType, upload.Image.Data)
		if err != nil {
			return nil, apperrors.NewInternalError("Failed to store image").WithCause(err)
		}
	}

	m, err := meal.NewMeal(userID, est, imageURL, description)
	if err != nil {
		s.discard(ctx, imageURL)
		return nil, apperrors.NewAppError(apperrors.CodeEstimateFailed,
			"Invalid image. Please upload a valid food image.", "").WithCause(err)
	}

	if err := s.meals.Create(ctx, m); err != nil {
		s.discard(ctx, imageURL)
		return nil, apperrors.NewDatabaseError("save meal", err)
	}

	for _, event := range m.Events() {
		if err := s.events.Dispatch(ctx, event); err != nil {
			s.logger.Warn("Meal event handler failed",
				zap.String("event", event.EventName()),
				zap.String("meal_id", m.ID().String()),
				zap.Error(err))
		}
	}

	s.logger.Info("Meal logged",
		zap.String("user_id", userID.String()),
		zap.String("meal_id", m.ID().String()),
		zap.String("name", m.Name()),
		zap.Int("calories", m.Calories()),
		zap.Any("source", m.Meta()["source"]))
	return m, nil
}

// Delete removes a meal owned by the user along with its stored photo
func (s *MealService) Delete(ctx context.Context, userID, mealID uuid.UUID) error {
	m, err := s.meals.FindByID(ctx, mealID)
	if err != nil {
		if errors.Is(err, outbound.ErrNotFound) {
			return apperrors.NewMealNotFoundError(mealID.String())
		}
		return apperrors.NewDatabaseError("look up meal", err)
	}
	if !m.OwnedBy(userID) {
		return apperrors.NewMealNotFoundError(mealID.String())
	}

	if err := s.meals.Delete(ctx, mealID); err != nil {
		if errors.Is(err, outbound.ErrNotFound) {
			return apperrors.NewMealNotFoundError(mealID.String())
		}
		return apperrors.NewDatabaseError("delete meal", err)
	}

	s.discard(ctx, m.ImageURL())
	return nil
}

// isFood asks each analyzer in turn and any positive verdict accepts the
// photo. Negative verdicts and failures fall through to the next analyzer and
// finally to StrictFoodValidation.
func (s *MealService) isFood(ctx context.Context, upload inbound.MealUpload) bool {
	if !upload.Image.IsImage() {
		return false
	}

	for _, a := range s.analyzers {
		ok, err := a.IsFood(ctx, *upload.Image)
		if err != nil {
			s.logger.Debug("Food check failed", zap.String("analyzer", a.Name()), zap.Error(err))
			continue
		}
		if ok {
			return true
		}
		s.logger.Debug("Analyzer did not recognise food", zap.String("analyzer", a.Name()))
	}

	return !s.cfg.StrictFoodValidation
}

// estimate tries vision analyzers for photos, then the text estimator with the
// description or the photo's file name
func (s *MealService) estimate(ctx context.Context, upload inbound.MealUpload, description string, hasImage bool) (meal.Estimate, error) {
	visionTried := false
	if hasImage {
		for _, a := range s.analyzers {
			visionTried = true
			est, err := a.Estimate(ctx, *upload.Image)
			if err == nil && est.Valid() {
				return est, nil
			}
			s.logger.Info("Vision estimate failed, trying next",
				zap.String("analyzer", a.Name()), zap.Error(err))
		}
	}

	query := description
	if query == "" {
		query = meal.DescriptionFromFileName(upload.Filename)
	}

	est, err := s.nutrition.EstimateText(ctx, query)
	if err != nil {
		return meal.Estimate{}, apperrors.NewExternalServiceError("nutrition API", err)
	}
	if visionTried {
		est.Source = SourceTextFallback
	}
	return est, nil
}

func (s *MealService) discard(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.storage.Remove(ctx, url); err != nil {
		s.logger.Warn("Failed to remove meal image", zap.String("url", url), zap.Error(err))
	}
}
