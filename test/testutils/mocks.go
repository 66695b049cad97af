// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/calorie"
	"github.com/healthylife/server/internal/domain/meal"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/domain/user"
	"github.com/healthylife/server/internal/ports/inbound"
)

// MockUserRepository provides a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

// MockMealRepository provides a mock implementation of MealRepository
type MockMealRepository struct {
	mock.Mock
}

func (m *MockMealRepository) Create(ctx context.Context, ml *meal.Meal) error {
	return m.Called(ctx, ml).Error(0)
}

func (m *MockMealRepository) FindByID(ctx context.Context, id uuid.UUID) (*meal.Meal, error) {
	args := m.Called(ctx, id)
	ml, _ := args.Get(0).(*meal.Meal)
	return ml, args.Error(1)
}

func (m *MockMealRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*meal.Meal, error) {
	args := m.Called(ctx, userID)
	meals, _ := args.Get(0).([]*meal.Meal)
	return meals, args.Error(1)
}

func (m *MockMealRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockCalorieHistoryRepository provides a mock implementation of CalorieHistoryRepository
type MockCalorieHistoryRepository struct {
	mock.Mock
}

func (m *MockCalorieHistoryRepository) AddIntake(ctx context.Context, userID uuid.UUID, at time.Time, calories, goal int) error {
	return m.Called(ctx, userID, at, calories, goal).Error(0)
}

func (m *MockCalorieHistoryRepository) ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]calorie.DailyRecord, error) {
	args := m.Called(ctx, userID, since)
	records, _ := args.Get(0).([]calorie.DailyRecord)
	return records, args.Error(1)
}

// MockStorageService provides a mock implementation of StorageService
type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) Store(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, filename, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) Remove(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

// MockTokenIssuer provides a mock implementation of TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(userID uuid.UUID, email string) (string, error) {
	args := m.Called(userID, email)
	return args.String(0), args.Error(1)
}

// MockNutritionEstimator provides a mock implementation of NutritionEstimator
type MockNutritionEstimator struct {
	mock.Mock
}

func (m *MockNutritionEstimator) EstimateText(ctx context.Context, query string) (meal.Estimate, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(meal.Estimate), args.Error(1)
}

// MockMealAnalyzer provides a mock implementation of MealAnalyzer
type MockMealAnalyzer struct {
	mock.Mock
	ProviderName string
}

func (m *MockMealAnalyzer) Name() string { return m.ProviderName }

func (m *MockMealAnalyzer) IsFood(ctx context.Context, img assistant.ImageRequest) (bool, error) {
	args := m.Called(ctx, img)
	return args.Bool(0), args.Error(1)
}

func (m *MockMealAnalyzer) Estimate(ctx context.Context, img assistant.ImageRequest) (meal.Estimate, error) {
	args := m.Called(ctx, img)
	return args.Get(0).(meal.Estimate), args.Error(1)
}

// MockAssistantService provides a mock implementation of AssistantService
type MockAssistantService struct {
	mock.Mock
}

func (m *MockAssistantService) Chat(ctx context.Context, req assistant.ChatRequest) assistant.NormalizedReply {
	return m.Called(ctx, req).Get(0).(assistant.NormalizedReply)
}

func (m *MockAssistantService) ChatImage(ctx context.Context, req assistant.ImageRequest) (assistant.NormalizedReply, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(assistant.NormalizedReply), args.Error(1)
}

func (m *MockAssistantService) Recommend(ctx context.Context, req assistant.RecommendRequest) assistant.Recommendation {
	return m.Called(ctx, req).Get(0).(assistant.Recommendation)
}

// MockUserService provides a mock implementation of inbound.UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Signup(ctx context.Context, cmd inbound.SignupCommand) (*inbound.AuthResult, error) {
	args := m.Called(ctx, cmd)
	res, _ := args.Get(0).(*inbound.AuthResult)
	return res, args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*inbound.AuthResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*inbound.AuthResult)
	return res, args.Error(1)
}

func (m *MockUserService) Me(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserService) UpdateMe(ctx context.Context, userID uuid.UUID, update inbound.ProfileUpdate) (*user.User, error) {
	args := m.Called(ctx, userID, update)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserService) DietPreference(ctx context.Context, userID uuid.UUID) shared.DietPreference {
	return m.Called(ctx, userID).Get(0).(shared.DietPreference)
}

// MockMealService provides a mock implementation of inbound.MealService
type MockMealService struct {
	mock.Mock
}

func (m *MockMealService) List(ctx context.Context, userID uuid.UUID) ([]*meal.Meal, error) {
	args := m.Called(ctx, userID)
	meals, _ := args.Get(0).([]*meal.Meal)
	return meals, args.Error(1)
}

func (m *MockMealService) Upload(ctx context.Context, userID uuid.UUID, upload inbound.MealUpload) (*meal.Meal, error) {
	args := m.Called(ctx, userID, upload)
	ml, _ := args.Get(0).(*meal.Meal)
	return ml, args.Error(1)
}

func (m *MockMealService) Delete(ctx context.Context, userID, mealID uuid.UUID) error {
	return m.Called(ctx, userID, mealID).Error(0)
}

// MockCalorieService provides a mock implementation of inbound.CalorieService
type MockCalorieService struct {
	mock.Mock
}

func (m *MockCalorieService) SmartBudget(ctx context.Context, userID uuid.UUID) (calorie.Budget, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(calorie.Budget), args.Error(1)
}

// MockGroceryService provides a mock implementation of inbound.GroceryService
type MockGroceryService struct {
	mock.Mock
}

func (m *MockGroceryService) WeeklyPlan(diet shared.DietPreference, week string, now time.Time) inbound.WeeklyPlan {
	return m.Called(diet, week, now).Get(0).(inbound.WeeklyPlan)
}

func (m *MockGroceryService) Recommend(ctx context.Context, req assistant.RecommendRequest) assistant.Recommendation {
	return m.Called(ctx, req).Get(0).(assistant.Recommendation)
}
