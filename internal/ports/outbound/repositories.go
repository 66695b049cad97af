// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/healthylife/server/internal/domain/calorie"
	"github.com/healthylife/server/internal/domain/meal"
	"github.com/healthylife/server/internal/domain/user"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *user.User) error
	Update(ctx context.Context, user *user.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

// MealRepository defines the interface for meal persistence
type MealRepository interface {
	Create(ctx context.Context, meal *meal.Meal) error
	FindByID(ctx context.Context, id uuid.UUID) (*meal.Meal, error)
	// ListByUser returns the user's meals, newest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*meal.Meal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CalorieHistoryRepository stores one intake record per user per day
type CalorieHistoryRepository interface {
	// AddIntake adds calories to the record for the day containing at,
	// creating it with goal when missing
	AddIntake(ctx context.Context, userID uuid.UUID, at time.Time, calories, goal int) error
	// ListSince returns records dated on or after since, oldest first
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]calorie.DailyRecord, error)
}

// SummaryStore keeps one conversation summary per conversation key
type SummaryStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, summary string) error
}

// StorageService defines the interface for meal image storage
type StorageService interface {
	// Store saves the image and returns the URL clients should use
	Store(ctx context.Context, filename, contentType string, data []byte) (string, error)
	// Remove deletes an image previously returned by Store; unknown URLs are ignored
	Remove(ctx context.Context, url string) error
}
