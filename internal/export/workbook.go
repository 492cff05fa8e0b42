// Package export writes a month's receipts to an xlsx summary workbook.
package export

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Veraticus/keihi/internal/model"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	DetailSheet  = "明細"
	SummarySheet = "科目別集計"
)

// Uncategorized labels receipts without an account category in the totals.
const Uncategorized = "未分類"

var detailHeader = []any{"日付", "店舗名", "勘定科目", "金額", "通貨", "宛名", "備考", "ファイル", "確認事項"}

// CategoryTotal is one row of the per-category summary.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	Count    int
}

// CategoryTotals sums successful home-currency receipts by account category,
// largest total first. Receipts without an amount are counted but add nothing.
func CategoryTotals(receipts []model.ReceiptData, homeCurrency string) []CategoryTotal {
	byCategory := make(map[string]*CategoryTotal)
	for _, r := range receipts {
		if r.Status != model.StatusSuccess || r.CurrencyOr(homeCurrency) != homeCurrency {
			continue
		}
		category := model.StringValue(r.AccountCategory)
		if category == "" {
			category = Uncategorized
		}
		total, ok := byCategory[category]
		if !ok {
			total = &CategoryTotal{Category: category}
			byCategory[category] = total
		}
		total.Count++
		if r.Amount != nil {
			total.Total = total.Total.Add(decimal.NewFromFloat(*r.Amount))
		}
	}

	totals := make([]CategoryTotal, 0, len(byCategory))
	for _, t := range byCategory {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].Total.Cmp(totals[j].Total); c != 0 {
			return c > 0
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}

// WriteSummary writes the detail and per-category sheets for period to path.
// Only successful receipts are exported.
func WriteSummary(path, period string, receipts []model.ReceiptData, homeCurrency string) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), DetailSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E0E0E0"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	rows := detailRows(receipts)
	if err := writeRows(f, DetailSheet, detailHeader, rows); err != nil {
		return err
	}
	if err := styleSheet(f, DetailSheet, len(detailHeader), len(rows), headerStyle, amountStyle, "D"); err != nil {
		return err
	}

	totals := CategoryTotals(receipts, homeCurrency)
	summaryHeader := []any{"勘定科目", "件数", fmt.Sprintf("合計（%s）", homeCurrency)}
	summaryRows := make([][]any, 0, len(totals)+1)
	grand := decimal.Zero
	count := 0
	for _, t := range totals {
		value, _ := t.Total.Float64()
		summaryRows = append(summaryRows, []any{t.Category, t.Count, value})
		grand = grand.Add(t.Total)
		count += t.Count
	}
	grandValue, _ := grand.Float64()
	summaryRows = append(summaryRows, []any{"合計", count, grandValue})

	if err := writeRows(f, SummarySheet, summaryHeader, summaryRows); err != nil {
		return err
	}
	if err := styleSheet(f, SummarySheet, len(summaryHeader), len(summaryRows), headerStyle, amountStyle, "C"); err != nil {
		return err
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("%s 経費明細", period),
		Creator: "keihi",
	}); err != nil {
		return fmt.Errorf("failed to set document properties: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	slog.Info("Wrote summary workbook",
		"path", path,
		"receipts", len(rows),
		"categories", len(totals))
	return nil
}

func detailRows(receipts []model.ReceiptData) [][]any {
	rows := make([][]any, 0, len(receipts))
	for _, r := range receipts {
		if r.Status != model.StatusSuccess {
			continue
		}
		var amount any = ""
		if r.Amount != nil {
			amount = *r.Amount
		}
		messages := make([]string, 0, len(r.Issues))
		for _, issue := range r.Issues {
			messages = append(messages, issue.Message)
		}
		rows = append(rows, []any{
			model.StringValue(r.Date),
			model.StringValue(r.Merchant),
			model.StringValue(r.AccountCategory),
			amount,
			model.StringValue(r.Currency),
			model.StringValue(r.ReceiverName),
			model.StringValue(r.Note),
			r.File,
			strings.Join(messages, "\n"),
		})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func styleSheet(f *excelize.File, sheet string, columns, rows, headerStyle, amountStyle int, amountCol string) error {
	lastCol, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	if rows > 0 {
		if err := f.SetCellStyle(sheet, amountCol+"2", fmt.Sprintf("%s%d", amountCol, rows+1), amountStyle); err != nil {
			return fmt.Errorf("failed to style %s amounts: %w", sheet, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return fmt.Errorf("failed to size %s columns: %w", sheet, err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
