package assistant

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/healthylife/server/internal/domain/shared"
)

// Canned replies used when no provider answers
const (
	VisionCooledReply      = "I'm temporarily at my image analysis limit. Tip: center the dish, good lighting, and I can also help by text meanwhile."
	VisionRateLimitedReply = "I'm at my image analysis limit right now. I'll be ready again soon. Meanwhile, I can suggest general nutrition tips if you describe the dish."
	VisionEmptyReply       = "I analyzed the image."
)

const quoteLimit = 120

// Tips are short general-purpose nutrition tips
var Tips = []string{
	"Prioritize whole foods: veggies, fruits, lean proteins, and whole grains.",
	"Stay hydrated: aim for 8–10 glasses of water per day.",
	"Plan meals ahead to avoid impulsive high-calorie choices.",
	"Balance your plate: half veggies, quarter protein, quarter carbs.",
}

// Tip returns tip n, wrapping around
func Tip(n int) string {
	if n < 0 {
		n = -n
	}
	return Tips[n%len(Tips)]
}

type topic struct {
	pattern *regexp.Regexp
	bullets func(pref string) []string
}

// topics are checked in order; the first match wins
var topics = []topic{
	{
		pattern: regexp.MustCompile(`calorie|kcal|energy`),
		bullets: func(string) []string {
			return []string{
				"Estimate portions: half veggies, quarter protein, quarter carbs.",
				"Pick lean proteins (tofu/paneer/eggs/legumes) and whole grains.",
				"Aim for consistent meals and stay hydrated.",
			}
		},
	},
	{
		pattern: regexp.MustCompile(`recipe|meal|cook|dish`),
		bullets: func(pref string) []string {
			return []string{
				fmt.Sprintf("Try a quick %s plate: protein + veggies stir‑fry + whole grain.", pref),
				"Use minimal oil; season with herbs/spices for flavor.",
				"Balance macros: target protein with each meal.",
			}
		},
	},
	{
		pattern: regexp.MustCompile(`grocery|shopping|buy`),
		bullets: func(pref string) []string {
			return []string{
				"Base list: leafy greens, colorful veggies, fruits, whole grains.",
				fmt.Sprintf("Protein staples (%s): tofu/paneer/eggs/beans or lean meats/fish.", pref),
				"Healthy fats: nuts, seeds, olive/groundnut oil.",
			}
		},
	},
}

func genericBullets() []string {
	return []string{
		"Clarify your goal (weight, protein, calories) to get a tailored plan.",
		"Keep meals simple: protein + veggies + whole grain + healthy fat.",
		"Plan snacks (fruits, yogurt, nuts) to avoid impulsive eating.",
	}
}

// LocalReply builds a deterministic bullet-list answer for the latest user
// message. The topic is picked from keywords; diet only changes protein wording.
func LocalReply(messages []ChatMessage, diet shared.DietPreference) string {
	last := LastUserMessage(messages)
	ask := strings.ToLower(last)
	pref := diet.Label()

	bullets := genericBullets()
	for _, t := range topics {
		if t.pattern.MatchString(ask) {
			bullets = t.bullets(pref)
			break
		}
	}

	intro := "Here’s a quick, actionable guide:"
	if last != "" {
		intro = fmt.Sprintf("Here’s a quick, actionable guide for your request: “%s”", truncate(last, quoteLimit))
	}

	return intro + "\n• " + strings.Join(bullets, "\n• ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
