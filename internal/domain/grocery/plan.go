// Package grocery holds the static weekly grocery plans and the cart-based
// recipe scoring used when no AI provider answers.
package grocery

import (
	"sort"
	"strings"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/shared"
)

// Item is a grocery list entry
type Item struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
	Checked  bool   `json:"checked,omitempty"`
}

// Plan is a weekly grocery plan
type Plan struct {
	Items   []Item
	Recipes []assistant.RecipeSuggestion
}

var (
	baseVeg = []string{
		"Spinach", "Broccoli", "Carrots", "Tomatoes", "Chickpeas", "Lentils", "Quinoa", "Brown Rice", "Greek Yogurt", "Fruits",
	}
	baseNonVeg = []string{
		"Chicken Breast", "Eggs", "Fish", "Greek Yogurt", "Brown Rice", "Sweet Potatoes", "Olive Oil", "Avocados", "Fruits", "Veggies",
	}

	recipesVeg = []assistant.RecipeSuggestion{
		{Name: "Quinoa Buddha Bowl", Items: []string{"Quinoa", "Chickpeas", "Spinach", "Avocado", "Carrots"}, Instructions: "Cook quinoa, top with veggies and chickpeas."},
		{Name: "Paneer Stir-fry", Items: []string{"Paneer", "Bell Peppers", "Broccoli", "Soy Sauce", "Garlic"}, Instructions: "Stir-fry paneer and veggies; season to taste."},
	}
	recipesNonVeg = []assistant.RecipeSuggestion{
		{Name: "Grilled Chicken Salad", Items: []string{"Chicken Breast", "Lettuce", "Tomatoes", "Olive Oil", "Lemon"}, Instructions: "Grill chicken; toss with salad and dressing."},
		{Name: "Tuna Wrap", Items: []string{"Whole-wheat Wraps", "Tuna", "Greek Yogurt", "Cucumber", "Dill"}, Instructions: "Mix tuna and yogurt; assemble wrap."},
	}
)

// StaticPlan returns a fresh copy of the plan for diet
func StaticPlan(diet shared.DietPreference) Plan {
	names, recipes := baseVeg, recipesVeg
	if diet == shared.DietNonVeg {
		names, recipes = baseNonVeg, recipesNonVeg
	}

	items := make([]Item, 0, len(names))
	for _, name := range names {
		items = append(items, Item{Name: name})
	}

	return Plan{Items: items, Recipes: cloneRecipes(recipes)}
}

// ScoreRecipes orders recipes by how many of their items are in the cart,
// ignoring case. Ties keep their original order and every recipe is returned.
func ScoreRecipes(recipes []assistant.RecipeSuggestion, cart []assistant.CartItem) []assistant.RecipeSuggestion {
	out := cloneRecipes(recipes)
	if len(cart) == 0 {
		return out
	}

	have := make(map[string]struct{}, len(cart))
	for _, c := range cart {
		have[strings.ToLower(strings.TrimSpace(c.Name))] = struct{}{}
	}

	scores := make(map[int]int, len(out))
	for i, r := range out {
		scores[i] = Score(r, have)
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	sorted := make([]assistant.RecipeSuggestion, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

// Score counts recipe items present in have (lowercased names)
func Score(r assistant.RecipeSuggestion, have map[string]struct{}) int {
	score := 0
	for _, item := range r.Items {
		if _, ok := have[strings.ToLower(strings.TrimSpace(item))]; ok {
			score++
		}
	}
	return score
}

func cloneRecipes(in []assistant.RecipeSuggestion) []assistant.RecipeSuggestion {
	out := make([]assistant.RecipeSuggestion, len(in))
	for i, r := range in {
		out[i] = assistant.RecipeSuggestion{
			Name:         r.Name,
			Items:        append([]string(nil), r.Items...),
			Instructions: r.Instructions,
		}
	}
	return out
}
