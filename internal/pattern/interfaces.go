// Package pattern assigns accounting categories to merchant names using
// ordered, user-supplied regular expression rules.
package pattern

import "github.com/Veraticus/keihi/internal/model"

// CategoryMatcher resolves a merchant name to an accounting category.
type CategoryMatcher interface {
	// Match returns the category of the first enabled rule matching merchant.
	Match(merchant string) (string, bool)
}

// Rule is an alias to the model.AccountCategoryRule type for convenience.
type Rule = model.AccountCategoryRule

// ValidationResult reports whether a pattern compiles.
type ValidationResult struct {
	Error string `json:"error,omitempty"`
	Valid bool   `json:"valid"`
}
