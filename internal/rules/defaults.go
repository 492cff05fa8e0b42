// Package rules holds the user-editable rule collections: the shipped
// defaults, the merge that brings saved settings up to date with new
// built-ins, and observable stores that persist every mutation.
package rules

import (
	"time"

	"github.com/Veraticus/keihi/internal/model"
	"github.com/google/uuid"
)

// Overridable in tests.
var (
	newID = uuid.NewString
	now   = time.Now
)

type validationRuleDefinition struct {
	params      model.RuleParams
	ruleType    model.ValidationRuleType
	name        string
	description string
	severity    model.Severity
	enabled     bool
}

// builtInValidationRules lists the checks shipped with the application, in
// engine order. New checks are appended here and reach existing users via
// MergeWithDefaultRules.
var builtInValidationRules = []validationRuleDefinition{
	{
		ruleType:    model.RuleTypeDateFormat,
		name:        "日付形式",
		description: "日付が YYYY-MM-DD 形式であることを確認します",
		severity:    model.SeverityError,
		enabled:     true,
	},
	{
		ruleType:    model.RuleTypeDateRange,
		name:        "日付範囲",
		description: "日付が申請月から大きく離れていないことを確認します",
		severity:    model.SeverityWarning,
		enabled:     true,
		params:      model.DefaultDateRangeParams(),
	},
	{
		ruleType:    model.RuleTypeAmountDecimal,
		name:        "金額の小数",
		description: "金額に小数が含まれていないことを確認します（外貨の換算漏れの可能性）",
		severity:    model.SeverityWarning,
		enabled:     true,
	},
	{
		ruleType:    model.RuleTypeAmountOutlier,
		name:        "金額の外れ値",
		description: "同じ月の他のレシートと比べて極端な金額を検出します（IQR法）",
		severity:    model.SeverityWarning,
		enabled:     true,
		params:      model.DefaultAmountOutlierParams(),
	},
	{
		ruleType:    model.RuleTypeDuplicateFile,
		name:        "ファイル重複",
		description: "同じファイル名のレシートが複数ないことを確認します",
		severity:    model.SeverityError,
		enabled:     true,
	},
	{
		ruleType:    model.RuleTypeDuplicateData,
		name:        "データ重複",
		description: "日付・金額が同じで店舗名が類似したレシートを検出します",
		severity:    model.SeverityWarning,
		enabled:     true,
		params:      model.DefaultDuplicateDataParams(),
	},
}

func (d validationRuleDefinition) instantiate() model.ValidationRule {
	return model.ValidationRule{
		ID:          newID(),
		Type:        d.ruleType,
		Name:        d.name,
		Description: d.description,
		IsBuiltIn:   true,
		Enabled:     d.enabled,
		Severity:    d.severity,
		Params:      d.params,
		CreatedAt:   now(),
	}
}

// DefaultValidationRules returns a fresh instance of every built-in check.
func DefaultValidationRules() []model.ValidationRule {
	out := make([]model.ValidationRule, 0, len(builtInValidationRules))
	for _, def := range builtInValidationRules {
		out = append(out, def.instantiate())
	}
	return out
}

type categoryRuleDefinition struct {
	pattern  string
	flags    string
	category string
}

var defaultCategoryRules = []categoryRuleDefinition{
	{pattern: `タクシー|交通|JR|鉄道|電鉄|メトロ|高速バス|路線バス|バス(\s|$)|\bANA\b|\bJAL\b|航空`, category: "旅費交通費"},
	{pattern: "ホテル|旅館|宿泊|民宿|ホステル|ゲストハウス|東横イン|ルートイン", category: "旅費交通費"},
	{pattern: "スターバックス|ドトール|タリーズ|コメダ|カフェ|珈琲|coffee", flags: "i", category: "会議費"},
	{pattern: "居酒屋|レストラン|寿司|焼肉|ダイニング", category: "接待交際費"},
	{pattern: "郵便|ゆうパック|ヤマト運輸|佐川", category: "通信費"},
	{pattern: "書店|書房|紀伊國屋|丸善|ジュンク堂", category: "新聞図書費"},
	{pattern: "セブン-?イレブン|ローソン|ファミリーマート|ミニストップ", category: "消耗品費"},
	{pattern: "amazon|ヨドバシ|ビックカメラ|ダイソー|ロフト|ハンズ", flags: "i", category: "消耗品費"},
}

// DefaultCategoryRules returns the seeded merchant-to-category rules.
func DefaultCategoryRules() []model.AccountCategoryRule {
	out := make([]model.AccountCategoryRule, 0, len(defaultCategoryRules))
	for _, def := range defaultCategoryRules {
		out = append(out, model.AccountCategoryRule{
			ID:              newID(),
			Pattern:         def.pattern,
			Flags:           def.flags,
			AccountCategory: def.category,
			Enabled:         true,
			CreatedAt:       now(),
		})
	}
	return out
}
