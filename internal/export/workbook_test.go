package export

import (
	"path/filepath"
	"testing"

	"github.com/Veraticus/keihi/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReceipts() []model.ReceiptData {
	return []model.ReceiptData{
		{
			ID: "1", File: "a.jpg", Status: model.StatusSuccess,
			Date: model.StringPtr("2025-01-10"), Merchant: model.StringPtr("スターバックス"),
			AccountCategory: model.StringPtr("会議費"), Amount: model.FloatPtr(680), Currency: model.StringPtr("JPY"),
		},
		{
			ID: "2", File: "b.jpg", Status: model.StatusSuccess,
			Date: model.StringPtr("2025-01-12"), Merchant: model.StringPtr("日本交通"),
			AccountCategory: model.StringPtr("旅費交通費"), Amount: model.FloatPtr(2300), Currency: model.StringPtr("JPY"),
			Issues: []model.ValidationIssue{{Message: "first"}, {Message: "second"}},
		},
		{
			ID: "3", File: "c.jpg", Status: model.StatusSuccess,
			Merchant: model.StringPtr("Blue Bottle"), AccountCategory: model.StringPtr("会議費"),
			Amount: model.FloatPtr(5.5), Currency: model.StringPtr("USD"),
		},
		{
			ID: "4", File: "d.jpg", Status: model.StatusSuccess,
			Merchant: model.StringPtr("コンビニ"), Amount: model.FloatPtr(120.1),
		},
		{
			ID: "5", File: "e.jpg", Status: model.StatusSuccess,
			Merchant: model.StringPtr("コンビニ"), Amount: model.FloatPtr(0.2),
		},
		{ID: "6", File: "f.jpg", Status: model.StatusError, ErrorMessage: "OCR failed"},
	}
}

func TestCategoryTotals(t *testing.T) {
	got := CategoryTotals(sampleReceipts(), "JPY")
	require.Len(t, got, 3)

	assert.Equal(t, "旅費交通費", got[0].Category)
	assert.True(t, got[0].Total.Equal(decimal.NewFromInt(2300)))

	assert.Equal(t, "会議費", got[1].Category)
	assert.Equal(t, 1, got[1].Count, "USD receipt excluded")

	assert.Equal(t, Uncategorized, got[2].Category)
	assert.Equal(t, 2, got[2].Count)
	assert.True(t, got[2].Total.Equal(decimal.NewFromFloat(120.3)), "got %s", got[2].Total)
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "202501-summary.xlsx")
	require.NoError(t, WriteSummary(path, "202501", sampleReceipts(), "JPY"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{DetailSheet, SummarySheet}, f.GetSheetList())

	detail, err := f.GetRows(DetailSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, detail, 6, "header plus five successful receipts")
	assert.Equal(t, "日付", detail[0][0])
	assert.Equal(t, []string{"2025-01-10", "スターバックス", "会議費", "680", "JPY", "", "", "a.jpg"}, detail[1][:8])
	assert.Equal(t, "first\nsecond", detail[2][8])

	summary, err := f.GetRows(SummarySheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, summary, 5)
	assert.Equal(t, "合計（JPY）", summary[0][2])
	assert.Equal(t, []string{"旅費交通費", "1", "2300"}, summary[1])
	assert.Equal(t, "合計", summary[4][0])
	assert.Equal(t, "4", summary[4][1])
}
