package rules

import (
	"testing"

	"github.com/Veraticus/keihi/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeWithDefaultRules(t *testing.T) {
	stableIDs(t)

	t.Run("complete set is untouched", func(t *testing.T) {
		saved := DefaultValidationRules()
		got := MergeWithDefaultRules(saved)
		assert.False(t, got.HasNewRules)
		assert.Equal(t, saved, got.Rules)
	})

	t.Run("missing built-ins are appended", func(t *testing.T) {
		saved := DefaultValidationRules()[:2]
		got := MergeWithDefaultRules(saved)
		require.True(t, got.HasNewRules)
		require.Len(t, got.Rules, len(builtInValidationRules))
		assert.Equal(t, saved, got.Rules[:2])

		types := make([]model.ValidationRuleType, 0, len(got.Rules))
		for _, r := range got.Rules {
			types = append(types, r.Type)
		}
		assert.Equal(t, []model.ValidationRuleType{
			model.RuleTypeDateFormat,
			model.RuleTypeDateRange,
			model.RuleTypeAmountDecimal,
			model.RuleTypeAmountOutlier,
			model.RuleTypeDuplicateFile,
			model.RuleTypeDuplicateData,
		}, types)
		for _, r := range got.Rules[2:] {
			assert.True(t, r.IsBuiltIn)
			assert.NotEmpty(t, r.ID)
		}
	})

	t.Run("user edits survive merge", func(t *testing.T) {
		custom := model.ValidationRule{
			ID:       "saved-range",
			Type:     model.RuleTypeDateRange,
			Name:     "日付範囲",
			Enabled:  false,
			Severity: model.SeverityError,
			Params:   model.DateRangeParams{MaxYearDiff: 3, MaxMonthDiff: 6},
		}
		got := MergeWithDefaultRules([]model.ValidationRule{custom})
		assert.True(t, got.HasNewRules)
		assert.Equal(t, custom, got.Rules[0])

		count := 0
		for _, r := range got.Rules {
			if r.Type == model.RuleTypeDateRange {
				count++
			}
		}
		assert.Equal(t, 1, count, "existing type must not be duplicated")
	})

	t.Run("matching is by type not id", func(t *testing.T) {
		saved := []model.ValidationRule{{ID: "legacy-id", Type: model.RuleTypeDuplicateFile}}
		got := MergeWithDefaultRules(saved)
		for _, r := range got.Rules[1:] {
			assert.NotEqual(t, model.RuleTypeDuplicateFile, r.Type)
		}
	})

	t.Run("user-added rule types are kept", func(t *testing.T) {
		saved := append(DefaultValidationRules(), model.ValidationRule{
			ID:   "custom",
			Type: "receiver-name",
		})
		got := MergeWithDefaultRules(saved)
		assert.False(t, got.HasNewRules)
		assert.Equal(t, saved, got.Rules)
	})

	t.Run("input slice is not modified", func(t *testing.T) {
		saved := DefaultValidationRules()[:1]
		before := append([]model.ValidationRule(nil), saved...)
		_ = MergeWithDefaultRules(saved)
		assert.Equal(t, before, saved)
	})
}

func TestDefaultRules(t *testing.T) {
	for _, r := range DefaultValidationRules() {
		assert.NoError(t, r.Validate(), r.Type)
		assert.True(t, r.Enabled)
	}
	for _, r := range DefaultCategoryRules() {
		assert.NoError(t, checkCategoryRule(r), r.Pattern)
	}
}
