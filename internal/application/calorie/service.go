// Package calorie provides the application layer for calorie history
package calorie

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthylife/server/internal/domain/calorie"
	"github.com/healthylife/server/internal/domain/meal"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/domain/user"
	"github.com/healthylife/server/internal/ports/outbound"
	apperrors "github.com/healthylife/server/pkg/errors"
)

// CalorieService tracks daily intake and suggests a calorie budget
type CalorieService struct {
	history outbound.CalorieHistoryRepository
	users   outbound.UserRepository
	now     func() time.Time
	logger  *zap.Logger
}

// NewCalorieService creates a calorie service
func NewCalorieService(history outbound.CalorieHistoryRepository, users outbound.UserRepository, logger *zap.Logger) *CalorieService {
	return &CalorieService{
		history: history,
		users:   users,
		now:     time.Now,
		logger:  logger.Named("calorie-service"),
	}
}

// SmartBudget suggests a daily goal from the last 14 days of history
func (s *CalorieService) SmartBudget(ctx context.Context, userID uuid.UUID) (calorie.Budget, error) {
	since := s.now().Add(-calorie.WindowDays * 24 * time.Hour)

	records, err := s.history.ListSince(ctx, userID, since)
	if err != nil {
		return calorie.Budget{}, apperrors.NewDatabaseError("load calorie history", err)
	}

	budget := calorie.SmartBudget(records)
	s.logger.Debug("Smart budget computed",
		zap.String("user_id", userID.String()),
		zap.Int("days", budget.DaysAnalyzed),
		zap.Int("suggested", budget.SuggestedGoal))
	return budget, nil
}

// Register subscribes the service to meal events
func (s *CalorieService) Register(d shared.EventDispatcher) {
	d.Register(meal.MealLoggedEvent, s.HandleMealLogged)
}

// HandleMealLogged adds a logged meal to the day's intake. A new day record
// takes the user's current goal.
func (s *CalorieService) HandleMealLogged(ctx context.Context, event shared.DomainEvent) error {
	logged, ok := event.(meal.MealLogged)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	goal := user.DefaultCalorieGoal
	if u, err := s.users.FindByID(ctx, logged.UserID); err == nil {
		goal = u.CalorieGoal()
	} else {
		s.logger.Debug("Goal lookup failed, using default", zap.String("user_id", logged.UserID.String()), zap.Error(err))
	}

	at := logged.At
	if at.IsZero() {
		at = s.now()
	}
	if err := s.history.AddIntake(ctx, logged.UserID, at, logged.Calories, goal); err != nil {
		return fmt.Errorf("failed to add intake: %w", err)
	}
	return nil
}
