package cli

import (
	"bytes"
	"testing"

	"github.com/Veraticus/keihi/internal/model"
	"github.com/Veraticus/keihi/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCategoryRules(t *testing.T) {
	rules := []model.AccountCategoryRule{
		{ID: "0f8fad5b-d9cb-469f-a165-70867728950e", Pattern: "タクシー", AccountCategory: "旅費交通費", Enabled: true},
		{ID: "short", Pattern: "amazon", Flags: "i", AccountCategory: "消耗品費"},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderCategoryRules(&buf, rules))

	out := buf.String()
	assert.Contains(t, out, "0f8fad5b")
	assert.NotContains(t, out, "0f8fad5b-d9cb")
	assert.Contains(t, out, "タクシー")
	assert.Contains(t, out, "消耗品費")
	assert.Contains(t, out, "off")
}

func TestRenderValidationRules(t *testing.T) {
	rules := []model.ValidationRule{
		{Type: model.RuleTypeAmountOutlier, Name: "金額の外れ値", Enabled: true, Params: model.DefaultAmountOutlierParams()},
		{Type: model.RuleTypeDateFormat, Name: "日付形式", Severity: model.SeverityError},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderValidationRules(&buf, rules))

	out := buf.String()
	assert.Contains(t, out, "upperMultiplier=3")
	assert.Contains(t, out, "minSampleSize=4")
	assert.Contains(t, out, "date-format")
	assert.Contains(t, out, "error")
}

func TestRenderReceiptsAndIssues(t *testing.T) {
	receipts := []model.ReceiptData{
		{
			ID:       "a",
			File:     "a.jpg",
			Status:   model.StatusSuccess,
			Merchant: model.StringPtr("スターバックス"),
			Amount:   model.FloatPtr(1200),
			Currency: model.StringPtr("JPY"),
			Issues: []model.ValidationIssue{
				{Field: model.IssueFieldDate, Type: model.IssueTypeFormat, Severity: model.SeverityError, Message: "日付の形式が不正です"},
			},
		},
		{ID: "b", File: "b.jpg", Status: model.StatusPending},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderReceipts(&buf, receipts))
	out := buf.String()
	assert.Contains(t, out, "スターバックス")
	assert.Contains(t, out, "1,200 JPY")
	assert.Contains(t, out, "pending")

	buf.Reset()
	require.NoError(t, RenderIssues(&buf, receipts))
	out = buf.String()
	assert.Contains(t, out, "a.jpg")
	assert.Contains(t, out, "日付の形式が不正です")
	assert.NotContains(t, out, "b.jpg")
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	s := validation.Summary{Receipts: 3, ReceiptsWithIssues: 1, Errors: 1, Warnings: 2}

	require.NoError(t, RenderSummary(&buf, s))

	out := buf.String()
	assert.Contains(t, out, "Receipts: 3")
	assert.Contains(t, out, "Warnings: 2")
}
