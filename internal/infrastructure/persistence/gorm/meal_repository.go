package gorm

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/healthylife/server/internal/domain/meal"
	"github.com/healthylife/server/internal/ports/outbound"
)

// MealRepository implements the meal repository interface using GORM
type MealRepository struct {
	db *gorm.DB
}

// NewMealRepository creates a new meal repository
func NewMealRepository(db *gorm.DB) *MealRepository {
	return &MealRepository{db: db}
}

// Create saves a new meal
func (r *MealRepository) Create(ctx context.Context, m *meal.Meal) error {
	return r.db.WithContext(ctx).Create(MealToModel(m)).Error
}

// FindByID finds a meal by ID
func (r *MealRepository) FindByID(ctx context.Context, id uuid.UUID) (*meal.Meal, error) {
	var model MealModel

	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrNotFound
		}
		return nil, err
	}
	return ModelToMeal(&model), nil
}

// ListByUser returns the user's meals, newest first
func (r *MealRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*meal.Meal, error) {
	var models []MealModel

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("logged_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	meals := make([]*meal.Meal, len(models))
	for i := range models {
		meals[i] = ModelToMeal(&models[i])
	}
	return meals, nil
}

// Delete removes a meal by ID
func (r *MealRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&MealModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return outbound.ErrNotFound
	}
	return nil
}
