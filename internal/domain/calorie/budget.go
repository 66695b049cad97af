// Package calorie holds daily calorie history and the smart budget rule
package calorie

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Budget limits and defaults
const (
	WindowDays      = 14
	DefaultGoal     = 2000
	MinSuggested    = 1400
	MaxSuggested    = 3500
	VarianceTrigger = 0.1
)

// Budget reasons
const (
	ReasonNoHistory = "No history found; defaulting to 2000 kcal"
	ReasonMaintain  = "Maintaining current average goal based on recent history."
	ReasonReduce    = "Average intake exceeded goal by >10%. Suggest reducing goal by ~10%."
	ReasonIncrease  = "Average intake was below goal by >10%. Suggest increasing goal by ~10% to match appetite/needs."
)

// DailyRecord is one day of intake against goal
type DailyRecord struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Date        time.Time
	DailyIntake int
	DailyGoal   int
}

// Budget is a suggested daily calorie goal
type Budget struct {
	SuggestedGoal int    `json:"suggestedGoal"`
	Reason        string `json:"reason"`
	DaysAnalyzed  int    `json:"daysAnalyzed"`
	AvgGoal       *int   `json:"avgGoal,omitempty"`
	AvgIntake     *int   `json:"avgIntake,omitempty"`
}

// SmartBudget nudges the average goal by 10% when average intake strays more
// than 10% from it, clamped to [MinSuggested, MaxSuggested].
func SmartBudget(history []DailyRecord) Budget {
	if len(history) == 0 {
		return Budget{SuggestedGoal: DefaultGoal, Reason: ReasonNoHistory}
	}

	var goalSum, intakeSum float64
	for _, h := range history {
		goalSum += float64(h.DailyGoal)
		intakeSum += float64(h.DailyIntake)
	}
	n := float64(len(history))
	avgGoal := goalSum / n
	avgIntake := intakeSum / n
	variance := (avgIntake - avgGoal) / math.Max(1, avgGoal)

	suggested := avgGoal
	reason := ReasonMaintain
	switch {
	case variance > VarianceTrigger:
		suggested = round(avgGoal * 0.9)
		reason = ReasonReduce
	case variance < -VarianceTrigger:
		suggested = round(avgGoal * 1.1)
		reason = ReasonIncrease
	}

	suggested = math.Min(MaxSuggested, math.Max(MinSuggested, suggested))

	roundedGoal := int(round(avgGoal))
	roundedIntake := int(round(avgIntake))
	return Budget{
		SuggestedGoal: int(round(suggested)),
		Reason:        reason,
		DaysAnalyzed:  len(history),
		AvgGoal:       &roundedGoal,
		AvgIntake:     &roundedIntake,
	}
}

// round matches half-up rounding for positive values
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}

// DayBounds returns the start and end of the local day containing t
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.Add(24*time.Hour - time.Nanosecond)
}
