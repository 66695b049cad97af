package meal

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMealRecordsEvent(t *testing.T) {
	userID := uuid.New()
	m, err := NewMeal(userID, Estimate{
		Name:     "Dal Rice",
		Calories: 520,
		Macros:   Macros{Protein: 18, Carbs: 80, Fat: 12},
		Source:   "gemini",
		Details:  map[string]interface{}{"fiber": 9},
	}, "/uploads/x.jpg", "  lunch ")
	require.NoError(t, err)

	assert.Equal(t, "lunch", m.Description())
	assert.Equal(t, "gemini", m.Meta()["source"])
	assert.Equal(t, 9, m.Meta()["fiber"])
	assert.True(t, m.OwnedBy(userID))
	assert.False(t, m.OwnedBy(uuid.New()))

	events := m.Events()
	require.Len(t, events, 1)
	logged, ok := events[0].(MealLogged)
	require.True(t, ok)
	assert.Equal(t, MealLoggedEvent, logged.EventName())
	assert.Equal(t, 520, logged.Calories)
	assert.Equal(t, userID, logged.UserID)

	assert.Empty(t, m.Events())
}

func TestNewMealRejectsInvalidEstimate(t *testing.T) {
	_, err := NewMeal(uuid.New(), Estimate{Name: "air", Calories: 0}, "", "")
	assert.ErrorIs(t, err, ErrInvalidEstimate)

	_, err = NewMeal(uuid.New(), Estimate{Name: " ", Calories: 100}, "", "")
	assert.ErrorIs(t, err, ErrInvalidEstimate)
}

func TestUploadFileName(t *testing.T) {
	now := time.UnixMilli(1712345678901)

	assert.Equal(t, "1712345678901-my_lunch__1_.jpg", UploadFileName(now, "my lunch (1).jpg"))
	assert.Equal(t, "1712345678901-passwd", UploadFileName(now, "../../etc/passwd"))
	assert.Equal(t, "1712345678901-dosa.png", UploadFileName(now, `C:\photos\dosa.png`))
	assert.Equal(t, "1712345678901-image", UploadFileName(now, ""))
}

func TestDescriptionFromFileName(t *testing.T) {
	assert.Equal(t, "paneer tikka", DescriptionFromFileName("paneer_tikka.jpg"))
	assert.Equal(t, "masala dosa", DescriptionFromFileName("uploads/masala-dosa.heic"))
	assert.Equal(t, "meal", DescriptionFromFileName(""))
	assert.Equal(t, "meal", DescriptionFromFileName(".jpg"))
}
