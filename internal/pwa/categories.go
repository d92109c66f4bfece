package pwa

import (
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Categories is the predefined manifest category list offered to users.
var Categories = []string{
	"business", "education", "entertainment", "finance", "fitness",
	"food", "games", "government", "health", "kids", "lifestyle",
	"magazines", "medical", "music", "navigation", "news",
	"personalization", "photo", "politics", "productivity", "security",
	"shopping", "social", "sports", "travel", "utilities", "weather",
}

// Category is a predefined tag with its display label.
type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// IsCategory reports whether tag is one of the predefined categories.
func IsCategory(tag string) bool {
	return slices.Contains(Categories, tag)
}

// CategoryLabel returns the display label for a category tag.
func CategoryLabel(tag string) string {
	// Casers carry state and must not be shared between goroutines.
	return cases.Title(language.English).String(tag)
}

// CategoryList returns every predefined category with its label.
func CategoryList() []Category {
	out := make([]Category, 0, len(Categories))
	for _, tag := range Categories {
		out = append(out, Category{Value: tag, Label: CategoryLabel(tag)})
	}
	return out
}
