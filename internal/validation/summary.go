package validation

import "github.com/Veraticus/keihi/internal/model"

// Summary counts the findings attached to a batch.
type Summary struct {
	ByType             map[string]int
	Receipts           int
	ReceiptsWithIssues int
	Errors             int
	Warnings           int
}

// Summarize counts the issues currently attached to receipts.
func Summarize(receipts []model.ReceiptData) Summary {
	s := Summary{Receipts: len(receipts), ByType: make(map[string]int)}
	for _, r := range receipts {
		if !r.HasIssues() {
			continue
		}
		s.ReceiptsWithIssues++
		for _, issue := range r.Issues {
			s.ByType[issue.Type]++
			if issue.Severity == model.SeverityError {
				s.Errors++
			} else {
				s.Warnings++
			}
		}
	}
	return s
}
