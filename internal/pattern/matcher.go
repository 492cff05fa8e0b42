package pattern

import (
	"log/slog"
	"regexp"
)

// Ensure Matcher implements CategoryMatcher interface.
var _ CategoryMatcher = (*Matcher)(nil)

// Matcher evaluates category rules in order against merchant names.
type Matcher struct {
	rules    []Rule
	compiled []*regexp.Regexp // parallel to rules; nil when disabled or invalid
}

// NewMatcher creates a matcher with every enabled rule's pattern compiled once.
// Rules whose pattern does not compile are remembered as non-matching.
func NewMatcher(rules []Rule) *Matcher {
	m := &Matcher{
		rules:    rules,
		compiled: make([]*regexp.Regexp, len(rules)),
	}

	// Pre-compile regex patterns
	for i, rule := range rules {
		if !rule.Enabled {
			continue
		}
		re, err := Compile(rule.Pattern, rule.Flags)
		if err != nil {
			slog.Debug("skipping category rule with invalid pattern",
				"rule_id", rule.ID,
				"pattern", rule.Pattern,
				"error", err)
			continue
		}
		m.compiled[i] = re
	}

	return m
}

// Match returns the category of the first enabled rule whose pattern occurs
// anywhere in merchant. An empty merchant never matches.
func (m *Matcher) Match(merchant string) (string, bool) {
	if merchant == "" {
		return "", false
	}

	for i, re := range m.compiled {
		if re == nil {
			continue
		}
		if re.MatchString(merchant) {
			return m.rules[i].AccountCategory, true
		}
	}

	return "", false
}

// MatchCategory is a one-shot Match over rules. A nil merchant yields nil.
func MatchCategory(merchant *string, rules []Rule) *string {
	if merchant == nil {
		return nil
	}
	category, ok := NewMatcher(rules).Match(*merchant)
	if !ok {
		return nil
	}
	return &category
}
