package shared

import "strings"

// DietPreference is the user's dietary preference
type DietPreference string

const (
	DietVeg    DietPreference = "veg"
	DietNonVeg DietPreference = "non-veg"
)

// ParseDiet normalizes free-form input; anything other than non-veg is veg
func ParseDiet(raw string) DietPreference {
	if strings.EqualFold(strings.TrimSpace(raw), string(DietNonVeg)) {
		return DietNonVeg
	}
	return DietVeg
}

// Label returns the human readable form used in prompts and tips
func (d DietPreference) Label() string {
	if d == DietNonVeg {
		return "non-vegetarian"
	}
	return "vegetarian"
}

// Valid reports whether d is one of the known preferences
func (d DietPreference) Valid() bool {
	return d == DietVeg || d == DietNonVeg
}
