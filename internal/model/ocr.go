package model

// OCRFields are the values an OCR provider extracts from one document.
type OCRFields struct {
	Merchant     *string  `json:"merchant,omitempty"`
	Date         *string  `json:"date,omitempty"`
	Amount       *float64 `json:"amount,omitempty"`
	Currency     *string  `json:"currency,omitempty"`
	ReceiverName *string  `json:"receiverName,omitempty"`
	File         string   `json:"file"`
}

// OCRResult is the outcome of recognizing one document.
type OCRResult struct {
	Data    *OCRFields `json:"data,omitempty"`
	Error   string     `json:"error,omitempty"`
	Success bool       `json:"success"`
}
