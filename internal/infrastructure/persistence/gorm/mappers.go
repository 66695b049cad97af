// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"github.com/healthylife/server/internal/domain/calorie"
	"github.com/healthylife/server/internal/domain/meal"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/domain/user"
)

// UserToModel converts a domain user to a GORM model
func UserToModel(u *user.User) *UserModel {
	p := u.Profile()
	return &UserModel{
		ID:             u.ID(),
		Email:          u.Email(),
		Name:           u.Name(),
		PasswordHash:   u.PasswordHash(),
		Age:            p.Age,
		Weight:         p.Weight,
		Height:         p.Height,
		Activity:       string(p.Activity),
		DietPreference: string(p.DietPreference),
		CalorieGoal:    p.CalorieGoal,
		CreatedAt:      u.CreatedAt(),
		UpdatedAt:      u.UpdatedAt(),
	}
}

// ModelToUser converts a GORM model to a domain user
func ModelToUser(m *UserModel) *user.User {
	profile := user.Profile{
		Age:            m.Age,
		Weight:         m.Weight,
		Height:         m.Height,
		Activity:       user.ActivityLevel(m.Activity),
		DietPreference: shared.ParseDiet(m.DietPreference),
		CalorieGoal:    m.CalorieGoal,
	}
	return user.Reconstruct(m.ID, m.Email, m.Name, m.PasswordHash, profile, m.CreatedAt, m.UpdatedAt)
}

// MealToModel converts a domain meal to a GORM model
func MealToModel(m *meal.Meal) *MealModel {
	macros := m.Macros()
	return &MealModel{
		ID:          m.ID(),
		UserID:      m.UserID(),
		ImageURL:    m.ImageURL(),
		Description: m.Description(),
		Name:        m.Name(),
		Calories:    m.Calories(),
		Protein:     macros.Protein,
		Carbs:       macros.Carbs,
		Fat:         macros.Fat,
		Meta:        JSONField(m.Meta()),
		LoggedAt:    m.LoggedAt(),
		CreatedAt:   m.CreatedAt(),
	}
}

// ModelToMeal converts a GORM model to a domain meal
func ModelToMeal(m *MealModel) *meal.Meal {
	return meal.Reconstruct(
		m.ID,
		m.UserID,
		m.ImageURL,
		m.Description,
		m.Name,
		m.Calories,
		meal.Macros{Protein: m.Protein, Carbs: m.Carbs, Fat: m.Fat},
		map[string]interface{}(m.Meta),
		m.LoggedAt,
		m.CreatedAt,
	)
}

// ModelToDailyRecord converts a history row to a domain record
func ModelToDailyRecord(m *CalorieHistoryModel) calorie.DailyRecord {
	return calorie.DailyRecord{
		ID:          m.ID,
		UserID:      m.UserID,
		Date:        m.Date,
		DailyIntake: m.DailyIntake,
		DailyGoal:   m.DailyGoal,
	}
}
