// Package validation checks a batch of receipts against the active
// validation rules and attaches the findings to each receipt.
package validation

import (
	"math"
	"regexp"
	"strconv"

	"github.com/Veraticus/keihi/internal/model"
	"github.com/Veraticus/keihi/internal/similarity"
)

// canonicalDate is YYYY-MM-DD; calendar validity is not checked.
var canonicalDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ruleSet resolves the one rule consulted per check family: the first rule
// of that type, and only if it is enabled.
type ruleSet map[model.ValidationRuleType]model.ValidationRule

func newRuleSet(rules []model.ValidationRule) ruleSet {
	rs := make(ruleSet)
	seen := make(map[model.ValidationRuleType]bool)
	for _, rule := range rules {
		if seen[rule.Type] {
			continue
		}
		seen[rule.Type] = true
		if rule.Enabled {
			rs[rule.Type] = rule
		}
	}
	return rs
}

func (rs ruleSet) active(t model.ValidationRuleType) (model.ValidationRule, bool) {
	rule, ok := rs[t]
	return rule, ok
}

// batchContext holds what every receipt is checked against.
type batchContext struct {
	rules      ruleSet
	receipts   []model.ReceiptData
	period     Period
	thresholds Thresholds
	periodOK   bool
}

// ValidateAllReceipts runs every enabled check over the batch and returns a
// copy of receipts with Issues replaced. Outlier bounds and duplicate checks
// are relative to this batch only, so callers pass the complete current
// batch. Receipts with no findings get nil Issues. Malformed or missing
// fields skip the checks that need them; nothing here fails.
func ValidateAllReceipts(receipts []model.ReceiptData, targetPeriod string, rules []model.ValidationRule) []model.ReceiptData {
	bc := batchContext{
		rules:    newRuleSet(rules),
		receipts: receipts,
	}
	if period, err := ParsePeriod(targetPeriod); err == nil {
		bc.period, bc.periodOK = period, true
	}
	if rule, ok := bc.rules.active(model.RuleTypeAmountOutlier); ok {
		bc.thresholds = ComputeThresholds(batchAmounts(receipts), rule.AmountOutlier())
	}

	out := make([]model.ReceiptData, len(receipts))
	for i, receipt := range receipts {
		issues := bc.check(i)
		if len(issues) == 0 {
			issues = nil
		}
		receipt.Issues = issues
		out[i] = receipt
	}
	return out
}

func (bc *batchContext) check(i int) []model.ValidationIssue {
	r := bc.receipts[i]
	var issues []model.ValidationIssue

	formatFailed := false
	if rule, ok := bc.rules.active(model.RuleTypeDateFormat); ok && model.StringValue(r.Date) != "" {
		if !canonicalDate.MatchString(*r.Date) {
			issues = append(issues, newIssue(rule, model.IssueFieldDate, model.IssueTypeFormat, msgDateFormat(*r.Date)))
			formatFailed = true
		}
	}

	if rule, ok := bc.rules.active(model.RuleTypeDateRange); ok && !formatFailed {
		if issue, found := bc.checkDateRange(rule, r); found {
			issues = append(issues, issue)
		}
	}

	if rule, ok := bc.rules.active(model.RuleTypeAmountDecimal); ok {
		if amount, defined := definedAmount(r); defined && amount != math.Trunc(amount) {
			issues = append(issues, newIssue(rule, model.IssueFieldAmount, model.IssueTypeDecimal, msgAmountDecimal(amount)))
		}
	}

	if rule, ok := bc.rules.active(model.RuleTypeAmountOutlier); ok && bc.thresholds.Applicable {
		if amount, defined := definedAmount(r); defined {
			switch {
			case amount < bc.thresholds.Lower:
				issues = append(issues, newIssue(rule, model.IssueFieldAmount, model.IssueTypeOutlier, msgAmountLow(amount, bc.thresholds.Lower)))
			case amount > bc.thresholds.Upper:
				issues = append(issues, newIssue(rule, model.IssueFieldAmount, model.IssueTypeOutlier, msgAmountHigh(amount, bc.thresholds.Upper)))
			}
		}
	}

	if rule, ok := bc.rules.active(model.RuleTypeDuplicateFile); ok {
		if others := bc.sameFile(i); len(others) > 0 {
			issues = append(issues, newIssue(rule, model.IssueFieldFile, model.IssueTypeDuplicateFile, msgDuplicateFile(r.File, len(others))))
		}
	}

	if rule, ok := bc.rules.active(model.RuleTypeDuplicateData); ok {
		threshold := rule.DuplicateData().SimilarityThreshold
		if others := bc.similarEntries(i, threshold); len(others) > 0 {
			issues = append(issues, newIssue(rule, model.IssueFieldDuplicate, model.IssueTypeDuplicateData, msgDuplicateData(others)))
		}
	}

	return issues
}

func (bc *batchContext) checkDateRange(rule model.ValidationRule, r model.ReceiptData) (model.ValidationIssue, bool) {
	if r.Date == nil || !bc.periodOK || !canonicalDate.MatchString(*r.Date) {
		return model.ValidationIssue{}, false
	}
	year, yErr := strconv.Atoi((*r.Date)[:4])
	month, mErr := strconv.Atoi((*r.Date)[5:7])
	if yErr != nil || mErr != nil {
		return model.ValidationIssue{}, false
	}

	params := rule.DateRange()
	if abs(year-bc.period.Year) >= params.MaxYearDiff {
		return newIssue(rule, model.IssueFieldDate, model.IssueTypeRange,
			msgDateYearRange(*r.Date, bc.period, params.MaxYearDiff)), true
	}

	monthDiff := abs(year*12 + month - bc.period.monthIndex())
	if monthDiff >= params.MaxMonthDiff {
		return newIssue(rule, model.IssueFieldDate, model.IssueTypeRange,
			msgDateMonthRange(*r.Date, bc.period, params.MaxMonthDiff)), true
	}

	return model.ValidationIssue{}, false
}

// sameFile returns the other receipts with exactly the same file name.
func (bc *batchContext) sameFile(i int) []model.ReceiptData {
	var others []model.ReceiptData
	for j, other := range bc.receipts {
		if j != i && other.File == bc.receipts[i].File {
			others = append(others, other)
		}
	}
	return others
}

// similarEntries returns the other receipts with the same date and amount and
// a merchant name at least threshold-similar.
func (bc *batchContext) similarEntries(i int, threshold float64) []model.ReceiptData {
	r := bc.receipts[i]
	amount, hasAmount := definedAmount(r)
	if r.Date == nil || r.Merchant == nil || *r.Merchant == "" || !hasAmount {
		return nil
	}

	var others []model.ReceiptData
	for j, other := range bc.receipts {
		if j == i || other.Date == nil || other.Merchant == nil || *other.Merchant == "" {
			continue
		}
		otherAmount, ok := definedAmount(other)
		if !ok || otherAmount != amount || *other.Date != *r.Date {
			continue
		}
		if similarity.IsSimilar(*r.Merchant, *other.Merchant, threshold) {
			others = append(others, other)
		}
	}
	return others
}

func newIssue(rule model.ValidationRule, field, issueType, message string) model.ValidationIssue {
	return model.ValidationIssue{
		Field:    field,
		Type:     issueType,
		Severity: rule.SeverityOrDefault(),
		Message:  message,
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
