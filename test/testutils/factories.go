// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/healthylife/server/internal/domain/calorie"
	"github.com/healthylife/server/internal/domain/meal"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/domain/user"
	"github.com/healthylife/server/internal/ports/inbound"
)

// DefaultPassword is the password of every factory user
const DefaultPassword = "correct-horse-battery"

var dishes = []string{"Poha", "Masala Dosa", "Rajma Chawal", "Paneer Tikka", "Chicken Curry", "Veg Pulao", "Idli Sambar"}

// UserFactory provides methods to create test users
type UserFactory struct {
	faker *gofakeit.Faker
}

// NewUserFactory creates a new user factory with a seeded faker
func NewUserFactory(seed int64) *UserFactory {
	return &UserFactory{faker: gofakeit.New(seed)}
}

// Profile returns a valid random profile
func (f *UserFactory) Profile() user.Profile {
	activities := []user.ActivityLevel{
		user.ActivitySedentary, user.ActivityLightlyActive, user.ActivityModeratelyActive, user.ActivityVeryActive,
	}
	diets := []shared.DietPreference{shared.DietVeg, shared.DietNonVeg}

	return user.Profile{
		Age:            f.faker.Number(18, 80),
		Weight:         float64(f.faker.Number(45, 110)),
		Height:         float64(f.faker.Number(150, 195)),
		Activity:       activities[f.faker.Number(0, len(activities)-1)],
		DietPreference: diets[f.faker.Number(0, 1)],
		CalorieGoal:    f.faker.Number(14, 30) * 100,
	}
}

// SignupCommand returns a valid signup request
func (f *UserFactory) SignupCommand() inbound.SignupCommand {
	return inbound.SignupCommand{
		Name:     f.faker.Name(),
		Email:    strings.ToLower(f.faker.Email()),
		Password: DefaultPassword,
		Profile:  f.Profile(),
	}
}

// User returns a valid user with DefaultPassword
func (f *UserFactory) User() *user.User {
	cmd := f.SignupCommand()
	u, err := user.NewUser(cmd.Email, cmd.Name, cmd.Password, cmd.Profile)
	if err != nil {
		panic(err)
	}
	return u
}

// MealFactory provides methods to create test meals
type MealFactory struct {
	faker *gofakeit.Faker
}

// NewMealFactory creates a new meal factory with a seeded faker
func NewMealFactory(seed int64) *MealFactory {
	return &MealFactory{faker: gofakeit.New(seed)}
}

// Estimate returns a valid estimate
func (f *MealFactory) Estimate() meal.Estimate {
	return meal.Estimate{
		Name:     dishes[f.faker.Number(0, len(dishes)-1)],
		Calories: f.faker.Number(150, 900),
		Macros: meal.Macros{
			Protein: float64(f.faker.Number(2, 40)),
			Carbs:   float64(f.faker.Number(10, 90)),
			Fat:     float64(f.faker.Number(1, 35)),
		},
		Source: "mock",
	}
}

// Meal returns a persisted-looking meal for userID logged at loggedAt
func (f *MealFactory) Meal(userID uuid.UUID, loggedAt time.Time) *meal.Meal {
	est := f.Estimate()
	return meal.Reconstruct(uuid.New(), userID, "", "", est.Name, est.Calories, est.Macros,
		map[string]interface{}{"source": est.Source}, loggedAt, loggedAt)
}

// History returns one record per day for days days ending at end, with fixed
// goal and intake
func History(userID uuid.UUID, end time.Time, days, goal, intake int) []calorie.DailyRecord {
	records := make([]calorie.DailyRecord, 0, days)
	for i := days - 1; i >= 0; i-- {
		records = append(records, calorie.DailyRecord{
			ID:          uuid.New(),
			UserID:      userID,
			Date:        end.AddDate(0, 0, -i),
			DailyIntake: intake,
			DailyGoal:   goal,
		})
	}
	return records
}
