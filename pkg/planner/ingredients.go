package planner

import (
	"regexp"
	"strings"
)

var (
	separators = regexp.MustCompile(`[\n,]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// ParseIngredients splits free text on commas and newlines into normalized,
// lowercase ingredient names
func ParseIngredients(text string) []string {
	var ingredients []string
	for _, part := range separators.Split(text, -1) {
		name := whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(part)), " ")
		if name != "" {
			ingredients = append(ingredients, name)
		}
	}
	return ingredients
}

// hasAny reports whether any ingredient contains any of the keywords
func hasAny(ingredients []string, keywords ...string) bool {
	for _, ingredient := range ingredients {
		for _, keyword := range keywords {
			if strings.Contains(ingredient, keyword) {
				return true
			}
		}
	}
	return false
}

// GuessDish picks a dish name from the ingredients
func GuessDish(ingredients []string) string {
	eggs := hasAny(ingredients, "egg")
	pasta := hasAny(ingredients, "pasta", "spaghetti", "noodle", "penne", "macaroni")
	tortilla := hasAny(ingredients, "tortilla")
	spinach := hasAny(ingredients, "spinach")
	chicken := hasAny(ingredients, "chicken")
	rice := hasAny(ingredients, "rice")

	switch {
	case eggs && tortilla:
		return "Quick Egg Wraps"
	case eggs && spinach:
		return "Spinach & Egg Skillet"
	case pasta:
		return "Weeknight Pasta"
	case chicken && rice:
		return "One-Pan Chicken & Rice"
	case chicken:
		return "Pan-Seared Chicken Plate"
	case rice:
		return "Fried Rice Remix"
	default:
		return "Simple Weeknight Skillet"
	}
}

// Substitutions suggests swaps for what is missing
func Substitutions(ingredients []string) []string {
	subs := []string{}
	if !hasAny(ingredients, "onion") {
		subs = append(subs, "No onion? Use shallots or leeks.")
	}
	if !hasAny(ingredients, "garlic") {
		subs = append(subs, "No garlic? Use garlic powder or extra herbs.")
	}
	if hasAny(ingredients, "spinach") && !hasAny(ingredients, "feta") {
		subs = append(subs, "Spinach pairs nicely with feta or parmesan.")
	}
	if hasAny(ingredients, "rice") && !hasAny(ingredients, "egg") {
		subs = append(subs, "Fried-rice tip: scramble an egg for protein.")
	}
	return subs
}
