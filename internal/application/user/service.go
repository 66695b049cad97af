// Package user provides the application layer for accounts and profiles
package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/domain/user"
	"github.com/healthylife/server/internal/ports/inbound"
	"github.com/healthylife/server/internal/ports/outbound"
	apperrors "github.com/healthylife/server/pkg/errors"
)

// UserService implements user management use cases
type UserService struct {
	userRepo outbound.UserRepository
	tokens   outbound.TokenIssuer
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo outbound.UserRepository, tokens outbound.TokenIssuer, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger.Named("user-service"),
	}
}

// Signup creates a new account and signs a token for it
func (s *UserService) Signup(ctx context.Context, cmd inbound.SignupCommand) (*inbound.AuthResult, error) {
	s.logger.Info("Registering new user", zap.String("email", cmd.Email))

	if _, err := s.userRepo.FindByEmail(ctx, cmd.Email); err == nil {
		return nil, apperrors.NewEmailAlreadyExistsError(user.NormalizeEmail(cmd.Email))
	} else if !errors.Is(err, outbound.ErrNotFound) {
		return nil, apperrors.NewDatabaseError("look up user", err)
	}

	newUser, err := user.NewUser(cmd.Email, cmd.Name, cmd.Password, cmd.Profile)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error()).WithCause(err)
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, outbound.ErrDuplicateKey) {
			return nil, apperrors.NewEmailAlreadyExistsError(newUser.Email())
		}
		return nil, apperrors.NewDatabaseError("save user", err)
	}

	result, err := s.authResult(newUser)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered successfully",
		zap.String("user_id", newUser.ID().String()),
		zap.String("email", newUser.Email()),
	)
	return result, nil
}

// Login authenticates a user by email and password
func (s *UserService) Login(ctx context.Context, email, password string) (*inbound.AuthResult, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, outbound.ErrNotFound) {
			return nil, apperrors.NewInvalidCredentialsError()
		}
		return nil, apperrors.NewDatabaseError("look up user", err)
	}

	if err := u.CheckPassword(password); err != nil {
		s.logger.Warn("Invalid password attempt", zap.String("email", u.Email()))
		return nil, apperrors.NewInvalidCredentialsError()
	}

	s.logger.Info("User logged in", zap.String("user_id", u.ID().String()))
	return s.authResult(u)
}

// Me returns the user's account
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, outbound.ErrNotFound) {
			return nil, apperrors.NewUserNotFoundError(userID.String())
		}
		return nil, apperrors.NewDatabaseError("look up user", err)
	}
	return u, nil
}

// UpdateMe applies the non-nil fields of update
func (s *UserService) UpdateMe(ctx context.Context, userID uuid.UUID, update inbound.ProfileUpdate) (*user.User, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		if err := u.Rename(*update.Name); err != nil {
			return nil, apperrors.NewValidationError(err.Error()).WithCause(err)
		}
	}

	if update.Email != nil && user.NormalizeEmail(*update.Email) != u.Email() {
		existing, err := s.userRepo.FindByEmail(ctx, *update.Email)
		if err == nil && existing.ID() != u.ID() {
			return nil, apperrors.NewEmailAlreadyExistsError(existing.Email())
		}
		if err != nil && !errors.Is(err, outbound.ErrNotFound) {
			return nil, apperrors.NewDatabaseError("look up user", err)
		}
		if err := u.ChangeEmail(*update.Email); err != nil {
			return nil, apperrors.NewValidationError(err.Error()).WithCause(err)
		}
	}

	if update.Password != nil {
		if err := u.UpdatePassword(*update.Password); err != nil {
			return nil, apperrors.NewValidationError(err.Error()).WithCause(err)
		}
	}

	profile := applyProfile(u.Profile(), update)
	if profile != u.Profile() {
		if err := u.UpdateProfile(profile); err != nil {
			return nil, apperrors.NewValidationError(err.Error()).WithCause(err)
		}
	}

	if err := s.userRepo.Update(ctx, u); err != nil {
		if errors.Is(err, outbound.ErrDuplicateKey) {
			return nil, apperrors.NewEmailAlreadyExistsError(u.Email())
		}
		return nil, apperrors.NewDatabaseError("update user", err)
	}

	s.logger.Info("User profile updated", zap.String("user_id", userID.String()))
	return u, nil
}

// DietPreference returns the user's diet, defaulting to veg when the user
// cannot be loaded
func (s *UserService) DietPreference(ctx context.Context, userID uuid.UUID) shared.DietPreference {
	if userID == uuid.Nil {
		return shared.DietVeg
	}
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Debug("Diet lookup failed, defaulting to veg", zap.String("user_id", userID.String()), zap.Error(err))
		return shared.DietVeg
	}
	return shared.ParseDiet(string(u.DietPreference()))
}

func (s *UserService) authResult(u *user.User) (*inbound.AuthResult, error) {
	token, err := s.tokens.GenerateToken(u.ID(), u.Email())
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to sign token").WithCause(err)
	}
	return &inbound.AuthResult{Token: token, User: u}, nil
}

func applyProfile(p user.Profile, update inbound.ProfileUpdate) user.Profile {
	if update.Age != nil {
		p.Age = *update.Age
	}
	if update.Weight != nil {
		p.Weight = *update.Weight
	}
	if update.Height != nil {
		p.Height = *update.Height
	}
	if update.Activity != nil {
		p.Activity = *update.Activity
	}
	if update.DietPreference != nil {
		p.DietPreference = *update.DietPreference
	}
	if update.CalorieGoal != nil {
		p.CalorieGoal = *update.CalorieGoal
	}
	return p
}
