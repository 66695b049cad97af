package assistant

import (
	"fmt"
	"strings"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/shared"
)

const (
	summaryPrompt = "Summarize this nutrition chat into <= 80 words focusing on goals and constraints, to improve future answers. Return plain text."

	visionPrompt = `You are a helpful nutrition assistant. Analyze the attached food photo and reply with:
1) Likely dish/ingredients.
2) Estimated calories and macros (protein, carbs, fat) for one serving.
3) 2–3 short suggestions to make it healthier.
Keep it concise (<120 words).`

	summaryTurns = 4
)

func systemPrompt(diet shared.DietPreference) string {
	return fmt.Sprintf("You are HealthyLife, a friendly nutrition assistant. The user's diet preference is %s. "+
		"Give concise, practical, and encouraging guidance about meals, calories, groceries, and healthier choices. "+
		"Prefer %s options. Keep answers under 120 words, use simple bullet points when useful.", diet, diet.Label())
}

func summaryContext(summary string) string {
	if strings.TrimSpace(summary) == "" {
		return ""
	}
	return "Conversation summary so far (for context only): " + summary
}

func cartWithQuantities(cart []assistant.CartItem, format string) string {
	parts := make([]string, 0, len(cart))
	for _, c := range cart {
		qty := c.Quantity
		if qty <= 0 {
			qty = 1
		}
		parts = append(parts, fmt.Sprintf(format, c.Name, qty))
	}
	return strings.Join(parts, ", ")
}

func cartNames(cart []assistant.CartItem) string {
	names := make([]string, 0, len(cart))
	for _, c := range cart {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

// strictRecipePrompt is sent to the first recipe provider
func strictRecipePrompt(diet shared.DietPreference, cart []assistant.CartItem) string {
	return fmt.Sprintf(`I have these grocery items in my cart: %s.
My diet preference is %s.
Please suggest 4 quick, budget-friendly recipes (under 20 minutes each) that use these items.
Return ONLY valid JSON in this exact format (no markdown, no extra text):
{"recipes": [{"name": "Recipe Name", "items": ["ingredient1", "ingredient2"], "instructions": "Brief cooking steps"}]}`,
		cartWithQuantities(cart, "%s (x%d)"), diet)
}

// rulesRecipePrompt is the first prompt sent to the second recipe provider
func rulesRecipePrompt(diet shared.DietPreference, cart []assistant.CartItem) string {
	return fmt.Sprintf(`You are a helpful nutrition assistant.
Rules:
- Diet: %s.
- Propose 4 quick, budget-friendly recipes (target < 20 minutes each).
- Prefer using items from the cart; you may add up to 2 common pantry items if necessary (e.g., salt, oil).
- Keep ingredient lists short (<= 6 items each) and simple instructions (<= 2 sentences).
- Return ONLY valid JSON (no markdown) exactly in this shape:
  { "recipes": [ { "name": string, "items": string[], "instructions": string } ] }


Cart items: %s`, diet, cartWithQuantities(cart, "%s x%d"))
}

// retryRecipePrompt is the shorter prompt used once after a parse failure
func retryRecipePrompt(diet shared.DietPreference, cart []assistant.CartItem) string {
	return fmt.Sprintf(`Return ONLY valid JSON. Shape: { "recipes": [ { "name": string, "items": string[], "instructions": string } ] }. Diet: %s. Cart: %s`,
		diet, cartNames(cart))
}
