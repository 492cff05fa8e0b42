package rules

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/Veraticus/keihi/internal/common"
	"github.com/Veraticus/keihi/internal/model"
	"github.com/Veraticus/keihi/internal/pattern"
	"github.com/Veraticus/keihi/internal/service"
)

// CategoryStore owns the merchant-to-category rules. Order is significant:
// the first enabled matching rule wins.
type CategoryStore struct {
	obs       *observable[model.AccountCategoryRule]
	persister service.CategorySettingsStore
	matcher   *pattern.Matcher
	matcherMu sync.RWMutex
}

// NewCategoryStore creates an empty store backed by persister.
func NewCategoryStore(persister service.CategorySettingsStore) *CategoryStore {
	s := &CategoryStore{
		obs:       newObservable[model.AccountCategoryRule](),
		persister: persister,
		matcher:   pattern.NewMatcher(nil),
	}
	// Keep a compiled matcher alongside the rules so matching never recompiles.
	s.obs.subscribe(func(rules []model.AccountCategoryRule) {
		m := pattern.NewMatcher(rules)
		s.matcherMu.Lock()
		s.matcher = m
		s.matcherMu.Unlock()
	})
	return s
}

func categoryID(r model.AccountCategoryRule) string { return r.ID }

func (s *CategoryStore) save(ctx context.Context, rules []model.AccountCategoryRule) error {
	return s.persister.SaveCategorySettings(ctx, &model.CategoryRulesSettings{
		Rules:   rules,
		Version: model.CurrentSettingsVersion,
	})
}

// Load reads the saved rules. Nothing saved, or an empty list, seeds and
// saves the defaults. Category rules are user-owned, so saved rules are
// adopted as they are. On a load error the defaults are used in memory and
// the error is returned.
func (s *CategoryStore) Load(ctx context.Context) error {
	settings, err := s.persister.LoadCategorySettings(ctx)
	if err != nil {
		s.obs.commit(DefaultCategoryRules())
		return fmt.Errorf("failed to load category rules: %w", err)
	}

	if settings == nil || len(settings.Rules) == 0 {
		slog.Info("Initializing default category rules")
		return s.Reset(ctx)
	}

	s.obs.commit(settings.Rules)
	return nil
}

// Rules returns a copy of the current rules in evaluation order.
func (s *CategoryStore) Rules() []model.AccountCategoryRule {
	return s.obs.snapshot()
}

// Subscribe registers fn to receive every committed rule list.
func (s *CategoryStore) Subscribe(fn func([]model.AccountCategoryRule)) (unsubscribe func()) {
	return s.obs.subscribe(fn)
}

// Matcher returns the compiled matcher for the current rules.
func (s *CategoryStore) Matcher() *pattern.Matcher {
	s.matcherMu.RLock()
	defer s.matcherMu.RUnlock()
	return s.matcher
}

// Find returns the rule with the given id.
func (s *CategoryStore) Find(id string) (model.AccountCategoryRule, bool) {
	rules := s.obs.snapshot()
	if i := indexByID(rules, id, categoryID); i >= 0 {
		return rules[i], true
	}
	return model.AccountCategoryRule{}, false
}

func checkCategoryRule(rule model.AccountCategoryRule) error {
	if res := pattern.ValidatePattern(rule.Pattern, rule.Flags); !res.Valid {
		return fmt.Errorf("%w: %s", common.ErrInvalidPattern, res.Error)
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidRule, err)
	}
	return nil
}

// Add appends a new enabled rule.
func (s *CategoryStore) Add(ctx context.Context, patternText, flags, category string) (model.AccountCategoryRule, error) {
	rule := model.AccountCategoryRule{
		ID:              newID(),
		Pattern:         patternText,
		Flags:           flags,
		AccountCategory: strings.TrimSpace(category),
		Enabled:         true,
		CreatedAt:       now(),
	}
	if err := checkCategoryRule(rule); err != nil {
		return model.AccountCategoryRule{}, err
	}

	err := s.obs.mutate(ctx, func(rules []model.AccountCategoryRule) ([]model.AccountCategoryRule, error) {
		return append(rules, rule), nil
	}, s.save)
	if err != nil {
		return model.AccountCategoryRule{}, err
	}
	return rule, nil
}

// Update replaces the pattern, flags, category and enabled state of the rule
// with rule.ID. Its position and creation time are kept.
func (s *CategoryStore) Update(ctx context.Context, rule model.AccountCategoryRule) error {
	if err := checkCategoryRule(rule); err != nil {
		return err
	}

	return s.obs.mutate(ctx, func(rules []model.AccountCategoryRule) ([]model.AccountCategoryRule, error) {
		i := indexByID(rules, rule.ID, categoryID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", common.ErrRuleNotFound, rule.ID)
		}
		rule.CreatedAt = rules[i].CreatedAt
		rules[i] = rule
		return rules, nil
	}, s.save)
}

// SetEnabled toggles one rule.
func (s *CategoryStore) SetEnabled(ctx context.Context, id string, enabled bool) error {
	return s.obs.mutate(ctx, func(rules []model.AccountCategoryRule) ([]model.AccountCategoryRule, error) {
		i := indexByID(rules, id, categoryID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", common.ErrRuleNotFound, id)
		}
		rules[i].Enabled = enabled
		return rules, nil
	}, s.save)
}

// Delete removes one rule.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	return s.obs.mutate(ctx, func(rules []model.AccountCategoryRule) ([]model.AccountCategoryRule, error) {
		i := indexByID(rules, id, categoryID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", common.ErrRuleNotFound, id)
		}
		return slices.Delete(rules, i, i+1), nil
	}, s.save)
}

// Move places the rule with id at position to (zero-based).
func (s *CategoryStore) Move(ctx context.Context, id string, to int) error {
	return s.obs.mutate(ctx, func(rules []model.AccountCategoryRule) ([]model.AccountCategoryRule, error) {
		from := indexByID(rules, id, categoryID)
		if from < 0 {
			return nil, fmt.Errorf("%w: %s", common.ErrRuleNotFound, id)
		}
		if to < 0 || to >= len(rules) {
			return nil, fmt.Errorf("%w: %d not in [0,%d)", common.ErrIndexOutOfRange, to, len(rules))
		}
		return move(rules, from, to), nil
	}, s.save)
}

// Replace swaps in a whole rule list, e.g. from an imported file. Every rule
// must have a valid pattern; missing ids and timestamps are filled in.
func (s *CategoryStore) Replace(ctx context.Context, rules []model.AccountCategoryRule) error {
	next := slices.Clone(rules)
	for i := range next {
		if next[i].ID == "" {
			next[i].ID = newID()
		}
		if next[i].CreatedAt.IsZero() {
			next[i].CreatedAt = now()
		}
		if err := checkCategoryRule(next[i]); err != nil {
			return fmt.Errorf("rule %d: %w", i+1, err)
		}
	}

	return s.obs.mutate(ctx, func([]model.AccountCategoryRule) ([]model.AccountCategoryRule, error) {
		return next, nil
	}, s.save)
}

// Reset replaces every rule with the defaults.
func (s *CategoryStore) Reset(ctx context.Context) error {
	defaults := DefaultCategoryRules()
	return s.obs.mutate(ctx, func([]model.AccountCategoryRule) ([]model.AccountCategoryRule, error) {
		return defaults, nil
	}, s.save)
}
