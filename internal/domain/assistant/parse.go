package assistant

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?i)```json")

// ExtractJSON strips markdown fences and returns the span from the first '{'
// to the last '}'. The span is returned unchanged when no braces are found.
func ExtractJSON(text string) string {
	s := fencePattern.ReplaceAllString(text, "```")
	s = strings.TrimSpace(strings.ReplaceAll(s, "```", ""))

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end > start {
		s = s[start : end+1]
	}
	return s
}

// ParseRecipes decodes a provider answer of the form {"recipes": [...]},
// tolerating surrounding prose and code fences. Any other shape is a
// KindParseFailure error. Entries are read leniently: numeric names and
// items are kept as text and entries that are not objects are skipped.
func ParseRecipes(text string) ([]RecipeSuggestion, error) {
	var payload struct {
		Recipes *[]json.RawMessage `json:"recipes"`
	}

	if err := json.Unmarshal([]byte(ExtractJSON(text)), &payload); err != nil {
		return nil, NewProviderError("", KindParseFailure, fmt.Errorf("decode recipes: %w", err))
	}
	if payload.Recipes == nil {
		return nil, NewProviderError("", KindParseFailure, ErrNoRecipes)
	}

	recipes := make([]RecipeSuggestion, 0, len(*payload.Recipes))
	for _, raw := range *payload.Recipes {
		if r, ok := decodeRecipe(raw); ok {
			recipes = append(recipes, r)
		}
	}
	return recipes, nil
}

func decodeRecipe(raw json.RawMessage) (RecipeSuggestion, bool) {
	var fields struct {
		Name         json.RawMessage `json:"name"`
		Items        json.RawMessage `json:"items"`
		Instructions json.RawMessage `json:"instructions"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return RecipeSuggestion{}, false
	}

	r := RecipeSuggestion{
		Name:         scalarText(fields.Name),
		Instructions: scalarText(fields.Instructions),
		Items:        []string{},
	}
	var items []json.RawMessage
	if err := json.Unmarshal(fields.Items, &items); err == nil {
		for _, it := range items {
			if text := scalarText(it); text != "" {
				r.Items = append(r.Items, text)
			}
		}
	} else if text := scalarText(fields.Items); text != "" {
		r.Items = append(r.Items, text)
	}
	return r, true
}

// scalarText renders a JSON string, number or boolean as text. Anything else
// is "".
func scalarText(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[':
		return ""
	}
	return trimmed
}
