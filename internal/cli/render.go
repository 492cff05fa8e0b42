package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/keihi/internal/model"
	"github.com/Veraticus/keihi/internal/validation"
)

// tableWriter collects the first write error so callers check once.
type tableWriter struct {
	tw  *tabwriter.Writer
	err error
}

func newTableWriter(w io.Writer) *tableWriter {
	return &tableWriter{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (t *tableWriter) row(cells ...string) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

func (t *tableWriter) header(cells ...string) {
	styled := make([]string, len(cells))
	rule := make([]string, len(cells))
	for i, c := range cells {
		styled[i] = HeaderStyle.Render(c)
		rule[i] = strings.Repeat("─", max(4, len([]rune(c))*2))
	}
	t.row(styled...)
	t.row(rule...)
}

func (t *tableWriter) flush() error {
	if t.err != nil {
		return t.err
	}
	return t.tw.Flush()
}

// RenderCategoryRules writes the category rules in evaluation order.
func RenderCategoryRules(w io.Writer, rules []model.AccountCategoryRule) error {
	t := newTableWriter(w)
	t.header("#", "ID", "Pattern", "Flags", "Category", "Enabled")
	for i, r := range rules {
		t.row(
			fmt.Sprintf("%d", i+1),
			shortID(r.ID),
			r.Pattern,
			r.Flags,
			r.AccountCategory,
			FormatEnabled(r.Enabled),
		)
	}
	return t.flush()
}

// RenderValidationRules writes the validation rules with their params.
func RenderValidationRules(w io.Writer, rules []model.ValidationRule) error {
	t := newTableWriter(w)
	t.header("Type", "Name", "Severity", "Enabled", "Params")
	for _, r := range rules {
		t.row(
			string(r.Type),
			r.Name,
			FormatSeverity(r.SeverityOrDefault()),
			FormatEnabled(r.Enabled),
			formatParams(r.Params),
		)
	}
	return t.flush()
}

func formatParams(p model.RuleParams) string {
	switch v := p.(type) {
	case model.DateRangeParams:
		return fmt.Sprintf("maxYearDiff=%d maxMonthDiff=%d", v.MaxYearDiff, v.MaxMonthDiff)
	case model.AmountOutlierParams:
		return fmt.Sprintf("lowerMultiplier=%g upperMultiplier=%g minSampleSize=%d",
			v.LowerMultiplier, v.UpperMultiplier, v.MinSampleSize)
	case model.DuplicateDataParams:
		return fmt.Sprintf("similarityThreshold=%g", v.SimilarityThreshold)
	case model.GenericParams:
		parts := make([]string, 0, len(v))
		for k, val := range v {
			parts = append(parts, fmt.Sprintf("%s=%v", k, val))
		}
		return strings.Join(parts, " ")
	}
	return SubtleStyle.Render("-")
}

// RenderReceipts writes one line per receipt with its issue count.
func RenderReceipts(w io.Writer, receipts []model.ReceiptData) error {
	t := newTableWriter(w)
	t.header("ID", "File", "Status", "Date", "Merchant", "Amount", "Category", "Issues")
	for _, r := range receipts {
		amount := ""
		if r.Amount != nil {
			amount = validation.FormatAmount(*r.Amount) + " " + model.StringValue(r.Currency)
		}
		issues := ""
		switch {
		case r.HasErrors():
			issues = ErrorStyle.Render(fmt.Sprintf("%d", len(r.Issues)))
		case r.HasIssues():
			issues = WarningStyle.Render(fmt.Sprintf("%d", len(r.Issues)))
		}
		t.row(
			shortID(r.ID),
			r.File,
			formatStatus(r.Status),
			model.StringValue(r.Date),
			model.StringValue(r.Merchant),
			strings.TrimSpace(amount),
			model.StringValue(r.AccountCategory),
			issues,
		)
	}
	return t.flush()
}

// RenderIssues lists every finding grouped by receipt file.
func RenderIssues(w io.Writer, receipts []model.ReceiptData) error {
	for _, r := range receipts {
		if !r.HasIssues() {
			continue
		}
		if _, err := fmt.Fprintln(w, TitleStyle.UnsetMargins().Render(r.File)); err != nil {
			return err
		}
		for _, issue := range r.Issues {
			line := fmt.Sprintf("  [%s] %s: %s", FormatSeverity(issue.Severity), issue.Field, issue.Message)
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderSummary writes the issue counts of a validated batch.
func RenderSummary(w io.Writer, s validation.Summary) error {
	content := fmt.Sprintf("Receipts: %d\nWith issues: %d\nErrors: %d\nWarnings: %d",
		s.Receipts, s.ReceiptsWithIssues, s.Errors, s.Warnings)
	_, err := fmt.Fprintln(w, RenderBox("Validation", content))
	return err
}

func formatStatus(s model.ReceiptStatus) string {
	switch s {
	case model.StatusSuccess:
		return SuccessStyle.Render(string(s))
	case model.StatusError:
		return ErrorStyle.Render(string(s))
	}
	return SubtleStyle.Render(string(s))
}

// shortID abbreviates a uuid for display; prefixes are accepted as input.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
