// Package user defines the user domain entity
package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/healthylife/server/internal/domain/shared"
)

// DefaultCalorieGoal is used when a user does not set one
const DefaultCalorieGoal = 2000

var (
	ErrNameRequired     = errors.New("name is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrPasswordRequired = errors.New("password is required")
	ErrInvalidAge       = errors.New("invalid age")
	ErrInvalidWeight    = errors.New("invalid weight")
	ErrInvalidHeight    = errors.New("invalid height")
	ErrInvalidActivity  = errors.New("invalid activity level")
	ErrInvalidDiet      = errors.New("invalid diet preference")
	ErrInvalidGoal      = errors.New("invalid calorie goal")
)

// ActivityLevel represents how active a user is day to day
type ActivityLevel string

const (
	ActivitySedentary        ActivityLevel = "Sedentary"
	ActivityLightlyActive    ActivityLevel = "Lightly Active"
	ActivityModeratelyActive ActivityLevel = "Moderately Active"
	ActivityVeryActive       ActivityLevel = "Very Active"
)

// Valid reports whether a is a known activity level
func (a ActivityLevel) Valid() bool {
	switch a {
	case ActivitySedentary, ActivityLightlyActive, ActivityModeratelyActive, ActivityVeryActive:
		return true
	}
	return false
}

// Profile holds the body metrics and diet settings of a user
type Profile struct {
	Age            int
	Weight         float64
	Height         float64
	Activity       ActivityLevel
	DietPreference shared.DietPreference
	CalorieGoal    int
}

// User represents a user in the system
type User struct {
	id           uuid.UUID
	email        string
	name         string
	passwordHash string
	profile      Profile
	createdAt    time.Time
	updatedAt    time.Time
}

// NewUser creates a new user with validation. Missing activity, diet and
// calorie goal fall back to their defaults.
func NewUser(email, name, password string, profile Profile) (*User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if name == "" {
		return nil, ErrNameRequired
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	profile = withDefaults(profile)
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &User{
		id:           uuid.New(),
		email:        email,
		name:         name,
		passwordHash: hash,
		profile:      profile,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a user from persisted state without validation
func Reconstruct(id uuid.UUID, email, name, passwordHash string, profile Profile, createdAt, updatedAt time.Time) *User {
	return &User{
		id:           id,
		email:        email,
		name:         name,
		passwordHash: passwordHash,
		profile:      profile,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// ID returns the user's ID
func (u *User) ID() uuid.UUID {
	return u.id
}

// Email returns the user's email
func (u *User) Email() string {
	return u.email
}

// Name returns the user's name
func (u *User) Name() string {
	return u.name
}

// PasswordHash returns the bcrypt hash of the password
func (u *User) PasswordHash() string {
	return u.passwordHash
}

// Profile returns the user's profile
func (u *User) Profile() Profile {
	return u.profile
}

// DietPreference returns the user's diet preference
func (u *User) DietPreference() shared.DietPreference {
	return u.profile.DietPreference
}

// CalorieGoal returns the user's daily calorie goal
func (u *User) CalorieGoal() int {
	if u.profile.CalorieGoal <= 0 {
		return DefaultCalorieGoal
	}
	return u.profile.CalorieGoal
}

// CreatedAt returns when the user was created
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt returns when the user was last updated
func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// CheckPassword verifies if the provided password matches
func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password))
}

// UpdatePassword updates the user's password
func (u *User) UpdatePassword(newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	u.passwordHash = hash
	u.updatedAt = time.Now()
	return nil
}

// Rename changes the display name
func (u *User) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	u.name = name
	u.updatedAt = time.Now()
	return nil
}

// ChangeEmail changes the login email
func (u *User) ChangeEmail(email string) error {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	u.email = email
	u.updatedAt = time.Now()
	return nil
}

// UpdateProfile replaces the profile after validation
func (u *User) UpdateProfile(profile Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	u.profile = profile
	u.updatedAt = time.Now()
	return nil
}

// Validate checks body metrics and enumerations
func (p Profile) Validate() error {
	if p.Age <= 0 {
		return ErrInvalidAge
	}
	if p.Weight <= 0 {
		return ErrInvalidWeight
	}
	if p.Height <= 0 {
		return ErrInvalidHeight
	}
	if !p.Activity.Valid() {
		return ErrInvalidActivity
	}
	if !p.DietPreference.Valid() {
		return ErrInvalidDiet
	}
	if p.CalorieGoal <= 0 {
		return ErrInvalidGoal
	}
	return nil
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func withDefaults(p Profile) Profile {
	if p.Activity == "" {
		p.Activity = ActivitySedentary
	}
	if p.DietPreference == "" {
		p.DietPreference = shared.DietVeg
	}
	if p.CalorieGoal <= 0 {
		p.CalorieGoal = DefaultCalorieGoal
	}
	return p
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.New("failed to hash password")
	}
	return string(hashed), nil
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}

	if !strings.Contains(email, "@") || len(email) > 255 {
		return ErrInvalidEmail
	}

	return nil
}
