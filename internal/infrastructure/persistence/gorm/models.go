// Package gorm provides GORM model definitions for the application
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel represents the GORM model for users
type UserModel struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name           string    `gorm:"type:varchar(255);not null"`
	PasswordHash   string    `gorm:"type:varchar(255);not null"`
	Age            int
	Weight         float64
	Height         float64
	Activity       string `gorm:"type:varchar(50);default:'Sedentary'"`
	DietPreference string `gorm:"type:varchar(20);default:'veg'"`
	CalorieGoal    int    `gorm:"default:2000"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Relationships
	Meals []MealModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for UserModel
func (UserModel) TableName() string {
	return "users"
}

// MealModel represents the GORM model for logged meals
type MealModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID      uuid.UUID `gorm:"type:char(36);not null;index:idx_meals_user_logged,priority:1"`
	ImageURL    string    `gorm:"type:text"`
	Description string    `gorm:"type:text"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Calories    int       `gorm:"not null"`
	Protein     float64
	Carbs       float64
	Fat         float64
	Meta        JSONField `gorm:"type:json"`
	LoggedAt    time.Time `gorm:"index:idx_meals_user_logged,priority:2"`
	CreatedAt   time.Time
}

// TableName specifies the table name for MealModel
func (MealModel) TableName() string {
	return "meals"
}

// CalorieHistoryModel is one user's intake total for one day
type CalorieHistoryModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID      uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_calorie_user_date,priority:1"`
	Date        time.Time `gorm:"not null;uniqueIndex:idx_calorie_user_date,priority:2"`
	DailyIntake int       `gorm:"not null;default:0"`
	DailyGoal   int       `gorm:"not null;default:2000"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for CalorieHistoryModel
func (CalorieHistoryModel) TableName() string {
	return "calorie_history"
}

// AllModels lists every model managed by migrations
func AllModels() []interface{} {
	return []interface{}{
		&UserModel{},
		&MealModel{},
		&CalorieHistoryModel{},
	}
}

// JSONField stores a JSON object column
type JSONField map[string]interface{}

// Scan implements the sql.Scanner interface
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = JSONField{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("cannot scan %T into JSONField", value)
	}
}

// Value implements the driver.Valuer interface
func (j JSONField) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// BeforeCreate hook for UserModel
func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for MealModel
func (m *MealModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for CalorieHistoryModel
func (c *CalorieHistoryModel) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
