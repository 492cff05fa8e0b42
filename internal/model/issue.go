package model

// Severity is the level of a validation finding.
type Severity string

// Severity constants.
const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s == SeverityWarning || s == SeverityError
}

// Issue fields that are not receipt attributes.
const (
	IssueFieldDate      = "date"
	IssueFieldAmount    = "amount"
	IssueFieldMerchant  = "merchant"
	IssueFieldFile      = "file"
	IssueFieldDuplicate = "duplicate"
)

// Issue types, one per check family.
const (
	IssueTypeFormat        = "format"
	IssueTypeRange         = "range"
	IssueTypeDecimal       = "decimal"
	IssueTypeOutlier       = "outlier"
	IssueTypeDuplicateFile = "duplicate-file"
	IssueTypeDuplicateData = "duplicate-data"
)

// ValidationIssue is one finding attached to a receipt.
type ValidationIssue struct {
	Field    string   `json:"field"`
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}
