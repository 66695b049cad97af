package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/domain/user"
	"github.com/healthylife/server/internal/infrastructure/http/middleware"
	"github.com/healthylife/server/internal/infrastructure/security"
	"github.com/healthylife/server/internal/ports/inbound"
	apperrors "github.com/healthylife/server/pkg/errors"
)

// RegistrationRecorder counts new accounts
type RegistrationRecorder interface {
	UserRegistered()
}

// AuthAPIHandlers handles signup, login and profile requests
type AuthAPIHandlers struct {
	users     inbound.UserService
	validator *security.ValidationService
	metrics   RegistrationRecorder
	logger    *zap.Logger
}

// NewAuthAPIHandlers creates a new authentication API handlers instance
func NewAuthAPIHandlers(
	users inbound.UserService,
	validator *security.ValidationService,
	metrics RegistrationRecorder,
	logger *zap.Logger,
) *AuthAPIHandlers {
	return &AuthAPIHandlers{
		users:     users,
		validator: validator,
		metrics:   metrics,
		logger:    logger.Named("auth-api"),
	}
}

// Number accepts a JSON number or a numeric string
type Number float64

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// SignupRequest represents a registration request
type SignupRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required"`
	Age            Number `json:"age" validate:"gt=0"`
	Weight         Number `json:"weight" validate:"gt=0"`
	Height         Number `json:"height" validate:"gt=0"`
	Activity       string `json:"activity" validate:"activity"`
	DietPreference string `json:"dietPreference" validate:"diet"`
	CalorieGoal    Number `json:"calorieGoal" validate:"gte=0"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries optional profile changes
type UpdateProfileRequest struct {
	Name           *string `json:"name" validate:"omitempty,max=100"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Password       *string `json:"password" validate:"omitempty,min=1"`
	Age            *Number `json:"age" validate:"omitempty,gt=0"`
	Weight         *Number `json:"weight" validate:"omitempty,gt=0"`
	Height         *Number `json:"height" validate:"omitempty,gt=0"`
	Activity       *string `json:"activity" validate:"omitempty,activity"`
	DietPreference *string `json:"dietPreference" validate:"omitempty,diet"`
	CalorieGoal    *Number `json:"calorieGoal" validate:"omitempty,gt=0"`
}

// AuthUser is the account summary returned with a token
type AuthUser struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Email          string                `json:"email"`
	DietPreference shared.DietPreference `json:"dietPreference"`
	CalorieGoal    int                   `json:"calorieGoal"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// UserResponse is the full account without credentials
type UserResponse struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Email          string                `json:"email"`
	Age            int                   `json:"age"`
	Weight         float64               `json:"weight"`
	Height         float64               `json:"height"`
	Activity       user.ActivityLevel    `json:"activity"`
	DietPreference shared.DietPreference `json:"dietPreference"`
	CalorieGoal    int                   `json:"calorieGoal"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// Signup handles POST /api/auth/signup
func (h *AuthAPIHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.users.Signup(r.Context(), inbound.SignupCommand{
		Name:     h.validator.SanitizeText(req.Name, 100),
		Email:    req.Email,
		Password: req.Password,
		Profile: user.Profile{
			Age:            int(req.Age),
			Weight:         float64(req.Weight),
			Height:         float64(req.Height),
			Activity:       user.ActivityLevel(req.Activity),
			DietPreference: shared.DietPreference(req.DietPreference),
			CalorieGoal:    int(req.CalorieGoal),
		},
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.metrics.UserRegistered()
	writeJSON(w, h.logger, http.StatusCreated, toAuthResponse(result))
}

// Login handles POST /api/auth/login
func (h *AuthAPIHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, toAuthResponse(result))
}

// Me handles GET /api/auth/me
func (h *AuthAPIHandlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperrors.NewUnauthorizedError(""))
		return
	}

	u, err := h.users.Me(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, toUserResponse(u))
}

// UpdateMe handles PATCH /api/auth/me
func (h *AuthAPIHandlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperrors.NewUnauthorizedError(""))
		return
	}

	var req UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	u, err := h.users.UpdateMe(r.Context(), userID, req.toUpdate(h.validator))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, toUserResponse(u))
}

func (req UpdateProfileRequest) toUpdate(v *security.ValidationService) inbound.ProfileUpdate {
	update := inbound.ProfileUpdate{
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Name != nil {
		name := v.SanitizeText(*req.Name, 100)
		update.Name = &name
	}
	if req.Age != nil {
		age := int(*req.Age)
		update.Age = &age
	}
	if req.Weight != nil {
		weight := float64(*req.Weight)
		update.Weight = &weight
	}
	if req.Height != nil {
		height := float64(*req.Height)
		update.Height = &height
	}
	if req.Activity != nil {
		activity := user.ActivityLevel(*req.Activity)
		update.Activity = &activity
	}
	if req.DietPreference != nil {
		diet := shared.DietPreference(*req.DietPreference)
		update.DietPreference = &diet
	}
	if req.CalorieGoal != nil {
		goal := int(*req.CalorieGoal)
		update.CalorieGoal = &goal
	}
	return update
}

func toAuthResponse(result *inbound.AuthResult) AuthResponse {
	u := result.User
	return AuthResponse{
		Token: result.Token,
		User: AuthUser{
			ID:             u.ID().String(),
			Name:           u.Name(),
			Email:          u.Email(),
			DietPreference: u.DietPreference(),
			CalorieGoal:    u.CalorieGoal(),
		},
	}
}

func toUserResponse(u *user.User) UserResponse {
	p := u.Profile()
	return UserResponse{
		ID:             u.ID().String(),
		Name:           u.Name(),
		Email:          u.Email(),
		Age:            p.Age,
		Weight:         p.Weight,
		Height:         p.Height,
		Activity:       p.Activity,
		DietPreference: p.DietPreference,
		CalorieGoal:    p.CalorieGoal,
		CreatedAt:      u.CreatedAt(),
		UpdatedAt:      u.UpdatedAt(),
	}
}
