// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/calorie"
	"github.com/healthylife/server/internal/domain/grocery"
	"github.com/healthylife/server/internal/domain/meal"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/domain/user"
)

// AssistantService is the nutrition coach
type AssistantService interface {
	Chat(ctx context.Context, req assistant.ChatRequest) assistant.NormalizedReply
	ChatImage(ctx context.Context, req assistant.ImageRequest) (assistant.NormalizedReply, error)
	Recommend(ctx context.Context, req assistant.RecommendRequest) assistant.Recommendation
}

// SignupCommand carries the fields of a new account
type SignupCommand struct {
	Name     string
	Email    string
	Password string
	Profile  user.Profile
}

// ProfileUpdate carries optional profile changes; nil fields are left alone
type ProfileUpdate struct {
	Name           *string
	Email          *string
	Password       *string
	Age            *int
	Weight         *float64
	Height         *float64
	Activity       *user.ActivityLevel
	DietPreference *shared.DietPreference
	CalorieGoal    *int
}

// AuthResult is returned after signup and login
type AuthResult struct {
	Token string
	User  *user.User
}

// UserService manages accounts and profiles
type UserService interface {
	Signup(ctx context.Context, cmd SignupCommand) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Me(ctx context.Context, userID uuid.UUID) (*user.User, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*user.User, error)
	DietPreference(ctx context.Context, userID uuid.UUID) shared.DietPreference
}

// MealUpload is a meal photo and/or description to log
type MealUpload struct {
	Image       *assistant.ImageRequest
	Filename    string
	Description string
}

// MealService logs and lists meals
type MealService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*meal.Meal, error)
	Upload(ctx context.Context, userID uuid.UUID, upload MealUpload) (*meal.Meal, error)
	Delete(ctx context.Context, userID, mealID uuid.UUID) error
}

// CalorieService reports on calorie history
type CalorieService interface {
	SmartBudget(ctx context.Context, userID uuid.UUID) (calorie.Budget, error)
}

// WeeklyPlan is the static grocery plan for a week
type WeeklyPlan struct {
	Diet    shared.DietPreference        `json:"diet"`
	Week    string                       `json:"week"`
	Items   []grocery.Item               `json:"items"`
	Recipes []assistant.RecipeSuggestion `json:"recipes"`
	Meta    assistant.RecommendationMeta `json:"meta"`
}

// GroceryService serves grocery plans and recommendations
type GroceryService interface {
	WeeklyPlan(diet shared.DietPreference, week string, now time.Time) WeeklyPlan
	Recommend(ctx context.Context, req assistant.RecommendRequest) assistant.Recommendation
}
