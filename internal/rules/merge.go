package rules

import "github.com/Veraticus/keihi/internal/model"

// MergeResult is the outcome of MergeWithDefaultRules.
type MergeResult struct {
	Rules       []model.ValidationRule
	HasNewRules bool
}

// MergeWithDefaultRules appends a fresh instance of every built-in check
// whose type is missing from saved. Built-ins are identified by type, since
// ids are minted per installation. Saved rules are returned untouched and
// keep their position; the caller persists the result when HasNewRules is set.
//
// An empty saved set is not merged here: callers initialise the full default
// set instead.
func MergeWithDefaultRules(saved []model.ValidationRule) MergeResult {
	present := make(map[model.ValidationRuleType]bool, len(saved))
	for _, rule := range saved {
		present[rule.Type] = true
	}

	merged := make([]model.ValidationRule, len(saved), len(saved)+len(builtInValidationRules))
	copy(merged, saved)

	hasNew := false
	for _, def := range builtInValidationRules {
		if present[def.ruleType] {
			continue
		}
		merged = append(merged, def.instantiate())
		hasNew = true
	}

	return MergeResult{Rules: merged, HasNewRules: hasNew}
}
