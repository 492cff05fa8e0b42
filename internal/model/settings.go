package model

// CurrentSettingsVersion is written with every persisted rule collection.
// Merging keys off rule content, not this number.
const CurrentSettingsVersion = 1

// RulesSettings is the unit of persistence for a rule family.
type RulesSettings[R any] struct {
	Rules   []R `json:"rules" yaml:"rules"`
	Version int `json:"version" yaml:"version"`
}

// CategoryRulesSettings is the persisted merchant-to-category rule set.
type CategoryRulesSettings = RulesSettings[AccountCategoryRule]

// ValidationRulesSettings is the persisted validation rule set.
type ValidationRulesSettings = RulesSettings[ValidationRule]
