package rules

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Veraticus/keihi/internal/common"
	"github.com/Veraticus/keihi/internal/model"
	"github.com/Veraticus/keihi/internal/service"
)

// ValidationStore owns the validation rule set consulted by the engine.
type ValidationStore struct {
	obs       *observable[model.ValidationRule]
	persister service.ValidationSettingsStore
}

// NewValidationStore creates an empty store backed by persister.
func NewValidationStore(persister service.ValidationSettingsStore) *ValidationStore {
	return &ValidationStore{
		obs:       newObservable[model.ValidationRule](),
		persister: persister,
	}
}

func validationID(r model.ValidationRule) string { return r.ID }

func (s *ValidationStore) save(ctx context.Context, rules []model.ValidationRule) error {
	return s.persister.SaveValidationSettings(ctx, &model.ValidationRulesSettings{
		Rules:   rules,
		Version: model.CurrentSettingsVersion,
	})
}

// Load reads the saved rules. Nothing saved, or an empty list, seeds and
// saves the defaults. A non-empty list is merged with the built-ins and saved
// again only when the merge appended something. On a load error the defaults
// are used in memory and the error is returned.
func (s *ValidationStore) Load(ctx context.Context) error {
	settings, err := s.persister.LoadValidationSettings(ctx)
	if err != nil {
		s.obs.commit(DefaultValidationRules())
		return fmt.Errorf("failed to load validation rules: %w", err)
	}

	if settings == nil || len(settings.Rules) == 0 {
		slog.Info("Initializing default validation rules")
		return s.Reset(ctx)
	}

	merged := MergeWithDefaultRules(settings.Rules)
	if !merged.HasNewRules {
		s.obs.commit(merged.Rules)
		return nil
	}

	slog.Info("Adding new built-in validation rules",
		"saved", len(settings.Rules),
		"merged", len(merged.Rules))
	return s.obs.mutate(ctx, func([]model.ValidationRule) ([]model.ValidationRule, error) {
		return merged.Rules, nil
	}, s.save)
}

// Rules returns a copy of the current rules.
func (s *ValidationStore) Rules() []model.ValidationRule {
	return s.obs.snapshot()
}

// Subscribe registers fn to receive every committed rule list.
func (s *ValidationStore) Subscribe(fn func([]model.ValidationRule)) (unsubscribe func()) {
	return s.obs.subscribe(fn)
}

// findIndex resolves an id, or failing that the first rule of that type.
func findIndex(rules []model.ValidationRule, idOrType string) int {
	if i := indexByID(rules, idOrType, validationID); i >= 0 {
		return i
	}
	return slices.IndexFunc(rules, func(r model.ValidationRule) bool {
		return string(r.Type) == idOrType
	})
}

// Find returns the rule with the given id, or the first rule of that type.
func (s *ValidationStore) Find(idOrType string) (model.ValidationRule, bool) {
	rules := s.obs.snapshot()
	if i := findIndex(rules, idOrType); i >= 0 {
		return rules[i], true
	}
	return model.ValidationRule{}, false
}

func (s *ValidationStore) update(ctx context.Context, idOrType string, change func(*model.ValidationRule) error) error {
	return s.obs.mutate(ctx, func(rules []model.ValidationRule) ([]model.ValidationRule, error) {
		i := findIndex(rules, idOrType)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", common.ErrRuleNotFound, idOrType)
		}
		rule := rules[i]
		if err := change(&rule); err != nil {
			return nil, err
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidRule, err)
		}
		rules[i] = rule
		return rules, nil
	}, s.save)
}

// Update replaces the editable fields of the rule with rule.ID. Identity,
// type, built-in flag and creation time are kept from the stored copy.
func (s *ValidationStore) Update(ctx context.Context, rule model.ValidationRule) error {
	return s.update(ctx, rule.ID, func(stored *model.ValidationRule) error {
		stored.Name = rule.Name
		stored.Description = rule.Description
		stored.Enabled = rule.Enabled
		stored.Severity = rule.Severity
		stored.Params = rule.Params
		return nil
	})
}

// SetEnabled toggles a rule addressed by id or type.
func (s *ValidationStore) SetEnabled(ctx context.Context, idOrType string, enabled bool) error {
	return s.update(ctx, idOrType, func(r *model.ValidationRule) error {
		r.Enabled = enabled
		return nil
	})
}

// SetSeverity overrides the severity of a rule's findings.
func (s *ValidationStore) SetSeverity(ctx context.Context, idOrType string, severity model.Severity) error {
	if !severity.Valid() {
		return fmt.Errorf("%w: severity %q", common.ErrInvalidRule, severity)
	}
	return s.update(ctx, idOrType, func(r *model.ValidationRule) error {
		r.Severity = severity
		return nil
	})
}

// SetParam sets one tunable of a rule from its textual value.
func (s *ValidationStore) SetParam(ctx context.Context, idOrType, key, value string) error {
	return s.update(ctx, idOrType, func(r *model.ValidationRule) error {
		if err := r.SetParam(key, value); err != nil {
			return fmt.Errorf("%w: %v", common.ErrInvalidRule, err)
		}
		return nil
	})
}

// Delete removes a user-added rule. Built-in rules can only be disabled.
func (s *ValidationStore) Delete(ctx context.Context, id string) error {
	return s.obs.mutate(ctx, func(rules []model.ValidationRule) ([]model.ValidationRule, error) {
		i := indexByID(rules, id, validationID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", common.ErrRuleNotFound, id)
		}
		if rules[i].IsBuiltIn {
			return nil, fmt.Errorf("%w: %s", common.ErrBuiltInRule, rules[i].Name)
		}
		return slices.Delete(rules, i, i+1), nil
	}, s.save)
}

// Reset replaces every rule with a fresh default set.
func (s *ValidationStore) Reset(ctx context.Context) error {
	defaults := DefaultValidationRules()
	return s.obs.mutate(ctx, func([]model.ValidationRule) ([]model.ValidationRule, error) {
		return defaults, nil
	}, s.save)
}
