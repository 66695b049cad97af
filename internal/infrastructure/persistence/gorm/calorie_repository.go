package gorm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/healthylife/server/internal/domain/calorie"
)

// CalorieHistoryRepository implements daily intake storage using GORM
type CalorieHistoryRepository struct {
	db *gorm.DB
}

// NewCalorieHistoryRepository creates a new calorie history repository
func NewCalorieHistoryRepository(db *gorm.DB) *CalorieHistoryRepository {
	return &CalorieHistoryRepository{db: db}
}

// AddIntake adds calories to the record for the day containing at, creating
// the record with goal when the day has none yet
func (r *CalorieHistoryRepository) AddIntake(ctx context.Context, userID uuid.UUID, at time.Time, calories, goal int) error {
	start, _ := calorie.DayBounds(at)
	day := start.UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model CalorieHistoryModel
		err := tx.Where("user_id = ? AND date = ?", userID, day).First(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&CalorieHistoryModel{
				UserID:      userID,
				Date:        day,
				DailyIntake: calories,
				DailyGoal:   goal,
			}).Error
		}
		if err != nil {
			return err
		}

		return tx.Model(&CalorieHistoryModel{}).
			Where("id = ?", model.ID).
			Update("daily_intake", gorm.Expr("daily_intake + ?", calories)).Error
	})
}

// ListSince returns records dated on or after since, oldest first
func (r *CalorieHistoryRepository) ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]calorie.DailyRecord, error) {
	var models []CalorieHistoryModel

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, since.UTC()).
		Order("date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	records := make([]calorie.DailyRecord, len(models))
	for i := range models {
		records[i] = ModelToDailyRecord(&models[i])
	}
	return records, nil
}
