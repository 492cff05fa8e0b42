package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValidationRuleType selects which check a validation rule governs.
type ValidationRuleType string

// Built-in check families.
const (
	RuleTypeDateFormat    ValidationRuleType = "date-format"
	RuleTypeDateRange     ValidationRuleType = "date-range"
	RuleTypeAmountDecimal ValidationRuleType = "amount-decimal"
	RuleTypeAmountOutlier ValidationRuleType = "amount-outlier"
	RuleTypeDuplicateFile ValidationRuleType = "duplicate-file"
	RuleTypeDuplicateData ValidationRuleType = "duplicate-data"
)

// RuleParams is the tunable part of a validation rule. Each rule type has its
// own concrete params struct; GenericParams holds params of unknown types.
type RuleParams interface {
	ruleType() ValidationRuleType
}

// DateRangeParams tunes the date-range check.
type DateRangeParams struct {
	MaxYearDiff  int `json:"maxYearDiff"`
	MaxMonthDiff int `json:"maxMonthDiff"`
}

func (DateRangeParams) ruleType() ValidationRuleType { return RuleTypeDateRange }

// DefaultDateRangeParams returns the shipped date-range tunables.
func DefaultDateRangeParams() DateRangeParams {
	return DateRangeParams{MaxYearDiff: 1, MaxMonthDiff: 2}
}

// AmountOutlierParams tunes the IQR outlier check.
type AmountOutlierParams struct {
	LowerMultiplier float64 `json:"lowerMultiplier"`
	UpperMultiplier float64 `json:"upperMultiplier"`
	MinSampleSize   int     `json:"minSampleSize"`
}

func (AmountOutlierParams) ruleType() ValidationRuleType { return RuleTypeAmountOutlier }

// DefaultAmountOutlierParams returns the shipped outlier tunables. The upper
// fence is wider than the lower one on purpose.
func DefaultAmountOutlierParams() AmountOutlierParams {
	return AmountOutlierParams{LowerMultiplier: 1.5, UpperMultiplier: 3.0, MinSampleSize: 4}
}

// DuplicateDataParams tunes the near-duplicate check.
type DuplicateDataParams struct {
	SimilarityThreshold float64 `json:"similarityThreshold"`
}

func (DuplicateDataParams) ruleType() ValidationRuleType { return RuleTypeDuplicateData }

// DefaultDuplicateDataParams returns the shipped near-duplicate tunables.
func DefaultDuplicateDataParams() DuplicateDataParams {
	return DuplicateDataParams{SimilarityThreshold: 0.85}
}

// GenericParams carries params for rule types this build does not know about,
// so they survive a load/save round trip.
type GenericParams map[string]any

func (GenericParams) ruleType() ValidationRuleType { return "" }

// ValidationRule is a configurable check definition.
type ValidationRule struct {
	CreatedAt   time.Time          `json:"createdAt"`
	Params      RuleParams         `json:"params,omitempty"`
	ID          string             `json:"id"`
	Type        ValidationRuleType `json:"type"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Severity    Severity           `json:"severity"`
	IsBuiltIn   bool               `json:"isBuiltIn"`
	Enabled     bool               `json:"enabled"`
}

// UnmarshalJSON decodes the open params object into the typed params for the
// rule's type. Keys missing from the object keep their default values.
func (r *ValidationRule) UnmarshalJSON(data []byte) error {
	type alias ValidationRule
	aux := struct {
		*alias
		Params json.RawMessage `json:"params"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	params, err := DecodeParams(r.Type, aux.Params)
	if err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	r.Params = params
	return nil
}

// DecodeParams decodes raw params for the given rule type, starting from the
// type's defaults. Types without tunables yield nil.
func DecodeParams(ruleType ValidationRuleType, raw json.RawMessage) (RuleParams, error) {
	empty := len(raw) == 0 || string(raw) == "null"

	switch ruleType {
	case RuleTypeDateRange:
		p := DefaultDateRangeParams()
		if !empty {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("invalid date-range params: %w", err)
			}
		}
		return p, nil
	case RuleTypeAmountOutlier:
		p := DefaultAmountOutlierParams()
		if !empty {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("invalid amount-outlier params: %w", err)
			}
		}
		return p, nil
	case RuleTypeDuplicateData:
		p := DefaultDuplicateDataParams()
		if !empty {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("invalid duplicate-data params: %w", err)
			}
		}
		return p, nil
	case RuleTypeDateFormat, RuleTypeAmountDecimal, RuleTypeDuplicateFile:
		return nil, nil
	}

	if empty {
		return nil, nil
	}
	var g GenericParams
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	return g, nil
}

// DateRange returns the rule's date-range params, falling back to defaults.
func (r ValidationRule) DateRange() DateRangeParams {
	return paramsAs(r, DefaultDateRangeParams())
}

// AmountOutlier returns the rule's outlier params, falling back to defaults.
func (r ValidationRule) AmountOutlier() AmountOutlierParams {
	return paramsAs(r, DefaultAmountOutlierParams())
}

// DuplicateData returns the rule's near-duplicate params, falling back to defaults.
func (r ValidationRule) DuplicateData() DuplicateDataParams {
	return paramsAs(r, DefaultDuplicateDataParams())
}

func paramsAs[T RuleParams](r ValidationRule, defaults T) T {
	switch p := r.Params.(type) {
	case T:
		return p
	case GenericParams:
		raw, err := json.Marshal(p)
		if err != nil {
			return defaults
		}
		out := defaults
		if err := json.Unmarshal(raw, &out); err != nil {
			return defaults
		}
		return out
	}
	return defaults
}

// SeverityOrDefault returns the configured severity, or warning when unset.
func (r ValidationRule) SeverityOrDefault() Severity {
	if r.Severity.Valid() {
		return r.Severity
	}
	return SeverityWarning
}

// SetParam sets one tunable from its textual form, e.g. "maxMonthDiff", "3".
// Numbers, booleans and strings are accepted; the result is re-decoded into the
// rule's typed params.
func (r *ValidationRule) SetParam(key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("param key is required")
	}

	current := map[string]any{}
	if r.Params != nil {
		raw, err := json.Marshal(r.Params)
		if err != nil {
			return fmt.Errorf("failed to encode params: %w", err)
		}
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("failed to decode params: %w", err)
		}
	}

	if r.Params != nil && r.Params.ruleType() != "" {
		if _, known := current[key]; !known {
			return fmt.Errorf("unknown param %q for rule type %s", key, r.Type)
		}
	}
	current[key] = parseParamValue(value)

	raw, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	params, err := DecodeParams(r.Type, raw)
	if err != nil {
		return err
	}
	if params == nil {
		return fmt.Errorf("rule type %s has no params", r.Type)
	}
	r.Params = params
	return nil
}

func parseParamValue(value string) any {
	value = strings.TrimSpace(value)
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}

// Validate ensures the rule has usable data.
func (r *ValidationRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule id is required")
	}
	if r.Type == "" {
		return fmt.Errorf("rule type is required")
	}
	if r.Severity != "" && !r.Severity.Valid() {
		return fmt.Errorf("invalid severity %q", r.Severity)
	}

	switch p := r.Params.(type) {
	case DateRangeParams:
		if p.MaxYearDiff < 0 || p.MaxMonthDiff < 0 {
			return fmt.Errorf("date-range limits must not be negative")
		}
	case AmountOutlierParams:
		if p.LowerMultiplier < 0 || p.UpperMultiplier < 0 {
			return fmt.Errorf("outlier multipliers must not be negative")
		}
		if p.MinSampleSize < 0 {
			return fmt.Errorf("minimum sample size must not be negative")
		}
	case DuplicateDataParams:
		if p.SimilarityThreshold < 0 || p.SimilarityThreshold > 1 {
			return fmt.Errorf("similarity threshold must be between 0 and 1")
		}
	}

	return nil
}
