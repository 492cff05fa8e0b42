package model

import (
	"fmt"
	"strings"
	"time"
)

// AccountCategoryRule maps merchant names to an accounting category.
// Rules are evaluated in list order and the first enabled match wins.
type AccountCategoryRule struct {
	CreatedAt       time.Time `json:"createdAt" yaml:"createdAt"`
	ID              string    `json:"id" yaml:"id"`
	Pattern         string    `json:"pattern" yaml:"pattern"`
	Flags           string    `json:"flags" yaml:"flags"`
	AccountCategory string    `json:"accountCategory" yaml:"accountCategory"`
	Enabled         bool      `json:"enabled" yaml:"enabled"`
}

// Validate checks the fields that do not depend on regex compilation.
func (r *AccountCategoryRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule id is required")
	}
	if strings.TrimSpace(r.Pattern) == "" {
		return fmt.Errorf("pattern is required")
	}
	if strings.TrimSpace(r.AccountCategory) == "" {
		return fmt.Errorf("account category is required")
	}
	return nil
}
