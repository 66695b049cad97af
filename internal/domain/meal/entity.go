// Package meal defines logged meals and their nutrition estimates
package meal

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthylife/server/internal/domain/shared"
)

var (
	ErrImageOrDescription = errors.New("image or description required")
	ErrInvalidEstimate    = errors.New("invalid image. Please upload a valid food image")
	ErrNotFood            = errors.New("the uploaded image does not appear to be food. Please upload a clear meal/food photo")
	ErrMealNotFound       = errors.New("meal not found")
)

// Macros are grams per serving
type Macros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// Estimate is a nutrition estimate for one serving
type Estimate struct {
	Name     string
	Calories int
	Macros   Macros
	Source   string
	Details  map[string]interface{}
}

// Valid reports whether the estimate names a food with positive calories
func (e Estimate) Valid() bool {
	return strings.TrimSpace(e.Name) != "" && e.Calories > 0
}

// Meal is a logged meal
type Meal struct {
	shared.AggregateRoot

	id          uuid.UUID
	userID      uuid.UUID
	imageURL    string
	description string
	name        string
	calories    int
	macros      Macros
	meta        map[string]interface{}
	loggedAt    time.Time
	createdAt   time.Time
}

// NewMeal creates a meal from a validated estimate and records a MealLogged event
func NewMeal(userID uuid.UUID, estimate Estimate, imageURL, description string) (*Meal, error) {
	if !estimate.Valid() {
		return nil, ErrInvalidEstimate
	}

	meta := make(map[string]interface{}, len(estimate.Details)+1)
	for k, v := range estimate.Details {
		meta[k] = v
	}
	if estimate.Source != "" {
		meta["source"] = estimate.Source
	}

	now := time.Now()
	m := &Meal{
		id:          uuid.New(),
		userID:      userID,
		imageURL:    imageURL,
		description: strings.TrimSpace(description),
		name:        estimate.Name,
		calories:    estimate.Calories,
		macros:      estimate.Macros,
		meta:        meta,
		loggedAt:    now,
		createdAt:   now,
	}
	m.AddEvent(MealLogged{MealID: m.id, UserID: userID, Calories: m.calories, At: now})
	return m, nil
}

// Reconstruct rebuilds a meal from persisted state
func Reconstruct(id, userID uuid.UUID, imageURL, description, name string, calories int, macros Macros, meta map[string]interface{}, loggedAt, createdAt time.Time) *Meal {
	return &Meal{
		id:          id,
		userID:      userID,
		imageURL:    imageURL,
		description: description,
		name:        name,
		calories:    calories,
		macros:      macros,
		meta:        meta,
		loggedAt:    loggedAt,
		createdAt:   createdAt,
	}
}

func (m *Meal) ID() uuid.UUID { return m.id }
func (m *Meal) UserID() uuid.UUID { return m.userID }
func (m *Meal) ImageURL() string { return m.imageURL }
func (m *Meal) Description() string { return m.description }
func (m *Meal) Name() string { return m.name }
func (m *Meal) Calories() int { return m.calories }
func (m *Meal) Macros() Macros { return m.macros }
func (m *Meal) Meta() map[string]interface{} { return m.meta }
func (m *Meal) LoggedAt() time.Time { return m.loggedAt }
func (m *Meal) CreatedAt() time.Time { return m.createdAt }
func (m *Meal) OwnedBy(userID uuid.UUID) bool { return m.userID == userID }

// MealLogged is raised when a meal is added to a user's log
type MealLogged struct {
	MealID   uuid.UUID
	UserID   uuid.UUID
	Calories int
	At       time.Time
}

// MealLoggedEvent is the event name of MealLogged
const MealLoggedEvent = "meal.logged"

func (e MealLogged) EventName() string { return MealLoggedEvent }
func (e MealLogged) OccurredAt() time.Time { return e.At }

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// UploadFileName builds a unique, filesystem safe name for an uploaded photo
func UploadFileName(now time.Time, original string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(original), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), unsafeFileChars.ReplaceAllString(base, "_"))
}

// DescriptionFromFileName turns "paneer_tikka.jpg" into "paneer tikka"
func DescriptionFromFileName(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(base))
	if base == "" || base == "." || base == "/" {
		return "meal"
	}
	return base
}
