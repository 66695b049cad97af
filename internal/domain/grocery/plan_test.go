package grocery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/shared"
)

func names(recipes []assistant.RecipeSuggestion) []string {
	out := make([]string, len(recipes))
	for i, r := range recipes {
		out[i] = r.Name
	}
	return out
}

func TestStaticPlan(t *testing.T) {
	veg := StaticPlan(shared.DietVeg)
	require.Len(t, veg.Items, 10)
	assert.Equal(t, "Spinach", veg.Items[0].Name)
	assert.Equal(t, []string{"Quinoa Buddha Bowl", "Paneer Stir-fry"}, names(veg.Recipes))

	nonVeg := StaticPlan(shared.DietNonVeg)
	require.Len(t, nonVeg.Items, 10)
	assert.Equal(t, "Chicken Breast", nonVeg.Items[0].Name)
	assert.Equal(t, []string{"Grilled Chicken Salad", "Tuna Wrap"}, names(nonVeg.Recipes))
}

func TestStaticPlanReturnsCopies(t *testing.T) {
	plan := StaticPlan(shared.DietVeg)
	plan.Recipes[0].Items[0] = "Changed"

	assert.Equal(t, "Quinoa", StaticPlan(shared.DietVeg).Recipes[0].Items[0])
}

func TestScoreRecipesOrdersByCartOverlap(t *testing.T) {
	recipes := []assistant.RecipeSuggestion{
		{Name: "Paneer Stir-fry", Items: []string{"Paneer", "Bell Peppers", "Broccoli", "Soy Sauce", "Garlic"}},
		{Name: "Quinoa Buddha Bowl", Items: []string{"Quinoa", "Chickpeas", "Spinach", "Avocado", "Carrots"}},
	}
	cart := []assistant.CartItem{{Name: "Spinach"}, {Name: "Chickpeas"}}

	assert.Equal(t, []string{"Quinoa Buddha Bowl", "Paneer Stir-fry"}, names(ScoreRecipes(recipes, cart)))
}

func TestScoreRecipesCaseInsensitive(t *testing.T) {
	recipes := StaticPlan(shared.DietNonVeg).Recipes
	cart := []assistant.CartItem{{Name: "tuna"}, {Name: "GREEK YOGURT"}}

	assert.Equal(t, []string{"Tuna Wrap", "Grilled Chicken Salad"}, names(ScoreRecipes(recipes, cart)))
}

func TestScoreRecipesStableTies(t *testing.T) {
	recipes := []assistant.RecipeSuggestion{
		{Name: "A", Items: []string{"x"}},
		{Name: "B", Items: []string{"y", "z"}},
		{Name: "C", Items: []string{"x"}},
		{Name: "D", Items: []string{"q"}},
	}
	cart := []assistant.CartItem{{Name: "x"}, {Name: "y"}}

	assert.Equal(t, []string{"A", "B", "C", "D"}, names(ScoreRecipes(recipes, cart)))

	cart = []assistant.CartItem{{Name: "y"}, {Name: "z"}, {Name: "q"}}
	assert.Equal(t, []string{"B", "D", "A", "C"}, names(ScoreRecipes(recipes, cart)))
}

func TestScoreRecipesEmptyCartKeepsOrder(t *testing.T) {
	recipes := StaticPlan(shared.DietVeg).Recipes
	assert.Equal(t, names(recipes), names(ScoreRecipes(recipes, nil)))
}
