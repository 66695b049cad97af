package gorm

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/healthylife/server/internal/domain/meal"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/domain/user"
	"github.com/healthylife/server/internal/ports/outbound"
)

type RepositoryTestSuite struct {
	suite.Suite
	db       *gorm.DB
	users    *UserRepository
	meals    *MealRepository
	calories *CalorieHistoryRepository
	ctx      context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(db.AutoMigrate(AllModels()...))

	s.db = db
	s.users = NewUserRepository(db)
	s.meals = NewMealRepository(db)
	s.calories = NewCalorieHistoryRepository(db)
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	sqlDB, _ := s.db.DB()
	_ = sqlDB.Close()
}

func (s *RepositoryTestSuite) newUser(email string) *user.User {
	u, err := user.NewUser(email, "Asha", "secret1", user.Profile{Age: 29, Weight: 61.5, Height: 165})
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u
}

func (s *RepositoryTestSuite) TestUserRoundTrip() {
	u := s.newUser("Asha@Example.com")

	found, err := s.users.FindByEmail(s.ctx, "asha@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID(), found.ID())
	s.Equal("asha@example.com", found.Email())
	s.Equal(61.5, found.Profile().Weight)
	s.Equal(shared.DietVeg, found.DietPreference())
	s.Equal(user.DefaultCalorieGoal, found.CalorieGoal())
	s.NoError(found.CheckPassword("secret1"))

	byID, err := s.users.FindByID(s.ctx, u.ID())
	s.Require().NoError(err)
	s.Equal(u.Email(), byID.Email())
}

func (s *RepositoryTestSuite) TestUserDuplicateEmail() {
	s.newUser("dup@example.com")

	other, err := user.NewUser("dup@example.com", "Ravi", "secret2", user.Profile{Age: 35, Weight: 80, Height: 178})
	s.Require().NoError(err)
	s.ErrorIs(s.users.Create(s.ctx, other), outbound.ErrDuplicateKey)
}

func (s *RepositoryTestSuite) TestUserUpdate() {
	u := s.newUser("upd@example.com")
	p := u.Profile()
	p.DietPreference = shared.DietNonVeg
	p.CalorieGoal = 1800
	s.Require().NoError(u.UpdateProfile(p))

	s.Require().NoError(s.users.Update(s.ctx, u))

	found, err := s.users.FindByID(s.ctx, u.ID())
	s.Require().NoError(err)
	s.Equal(shared.DietNonVeg, found.DietPreference())
	s.Equal(1800, found.CalorieGoal())
}

func (s *RepositoryTestSuite) TestUserNotFound() {
	_, err := s.users.FindByID(s.ctx, uuid.New())
	s.ErrorIs(err, outbound.ErrNotFound)

	_, err = s.users.FindByEmail(s.ctx, "ghost@example.com")
	s.ErrorIs(err, outbound.ErrNotFound)
}

func (s *RepositoryTestSuite) TestMealsNewestFirstAndDelete() {
	u := s.newUser("meals@example.com")
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i, name := range []string{"Poha", "Dal Rice", "Paneer Wrap"} {
		m := meal.Reconstruct(uuid.New(), u.ID(), "", "", name, 300+i*100,
			meal.Macros{Protein: 10, Carbs: 40, Fat: 8}, map[string]interface{}{"source": "mock"},
			base.Add(time.Duration(i)*time.Hour), base)
		s.Require().NoError(s.meals.Create(s.ctx, m))
		ids = append(ids, m.ID())
	}

	list, err := s.meals.ListByUser(s.ctx, u.ID())
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("Paneer Wrap", list[0].Name())
	s.Equal("Poha", list[2].Name())
	s.Equal("mock", list[0].Meta()["source"])
	s.Equal(10.0, list[0].Macros().Protein)

	s.Require().NoError(s.meals.Delete(s.ctx, ids[0]))
	s.ErrorIs(s.meals.Delete(s.ctx, ids[0]), outbound.ErrNotFound)
	_, err = s.meals.FindByID(s.ctx, ids[0])
	s.ErrorIs(err, outbound.ErrNotFound)

	other, err := s.meals.ListByUser(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Empty(other)
}

func (s *RepositoryTestSuite) TestAddIntakeAccumulatesPerDay() {
	u := s.newUser("cal@example.com")
	day := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

	s.Require().NoError(s.calories.AddIntake(s.ctx, u.ID(), day, 400, 2000))
	s.Require().NoError(s.calories.AddIntake(s.ctx, u.ID(), day.Add(5*time.Hour), 650, 1800))
	s.Require().NoError(s.calories.AddIntake(s.ctx, u.ID(), day.Add(24*time.Hour), 300, 1800))

	records, err := s.calories.ListSince(s.ctx, u.ID(), day.Add(-14*24*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(1050, records[0].DailyIntake)
	s.Equal(2000, records[0].DailyGoal, "goal is fixed when the day is created")
	s.Equal(300, records[1].DailyIntake)
	s.Equal(1800, records[1].DailyGoal)

	recent, err := s.calories.ListSince(s.ctx, u.ID(), time.Date(2026, 4, 11, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Len(recent, 1)
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
