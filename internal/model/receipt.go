// Package model defines the core data structures for the keihi application.
package model

// ReceiptStatus tracks where a receipt is in the OCR lifecycle.
type ReceiptStatus string

// Receipt status constants.
const (
	StatusPending    ReceiptStatus = "pending"
	StatusProcessing ReceiptStatus = "processing"
	StatusSuccess    ReceiptStatus = "success"
	StatusError      ReceiptStatus = "error"
)

// ReceiptData is one scanned document's extracted and edited state.
// OCR-derived fields stay nil until populated.
type ReceiptData struct {
	Merchant         *string           `json:"merchant,omitempty"`
	Date             *string           `json:"date,omitempty"`
	Amount           *float64          `json:"amount,omitempty"`
	Currency         *string           `json:"currency,omitempty"`
	ReceiverName     *string           `json:"receiverName,omitempty"`
	AccountCategory  *string           `json:"accountCategory,omitempty"`
	Note             *string           `json:"note,omitempty"`
	ID               string            `json:"id"`
	File             string            `json:"file"`
	FilePath         string            `json:"filePath"`
	Status           ReceiptStatus     `json:"status"`
	ErrorMessage     string            `json:"errorMessage,omitempty"`
	ThumbnailDataURL string            `json:"thumbnailDataUrl,omitempty"`
	Issues           []ValidationIssue `json:"issues,omitempty"`
}

// HasIssues reports whether the last validation pass found anything.
func (r ReceiptData) HasIssues() bool {
	return len(r.Issues) > 0
}

// HasErrors reports whether any attached issue is error-level.
func (r ReceiptData) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// CurrencyOr returns the receipt currency, or fallback when none was read.
func (r ReceiptData) CurrencyOr(fallback string) string {
	if r.Currency == nil || *r.Currency == "" {
		return fallback
	}
	return *r.Currency
}

// StringValue dereferences an optional string field.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 {
	return &f
}
