// Package batch drives a month's receipts through OCR, category assignment
// and validation.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/Veraticus/keihi/internal/common"
	"github.com/Veraticus/keihi/internal/model"
	"github.com/Veraticus/keihi/internal/pattern"
	"github.com/Veraticus/keihi/internal/service"
	"github.com/Veraticus/keihi/internal/validation"
	"github.com/google/uuid"
)

// MatcherSource supplies the current category matcher.
type MatcherSource interface {
	Matcher() *pattern.Matcher
}

// RuleSource supplies the current validation rules.
type RuleSource interface {
	Rules() []model.ValidationRule
}

// Options configures batch processing behavior.
type Options struct {
	HomeCurrency string
	Retry        common.RetryOptions
	Workers      int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		HomeCurrency: "JPY",
		Workers:      2,
		Retry: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// ProgressFunc is called once per receipt as OCR finishes.
type ProgressFunc func(done, total int, receipt model.ReceiptData)

// Orchestrator owns the receipt lifecycle for one month at a time. It holds
// no batch state; callers pass the complete current batch to every call.
type Orchestrator struct {
	ocr        service.OCRProvider
	categories MatcherSource
	checks     RuleSource
	opts       Options
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(ocr service.OCRProvider, categories MatcherSource, checks RuleSource, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.HomeCurrency == "" {
		opts.HomeCurrency = DefaultOptions().HomeCurrency
	}
	return &Orchestrator{
		ocr:        ocr,
		categories: categories,
		checks:     checks,
		opts:       opts,
	}
}

// NewReceipt creates a pending receipt for a document on disk. An empty file
// name defaults to the base of filePath.
func NewReceipt(file, filePath string) model.ReceiptData {
	if file == "" {
		file = filepath.Base(filePath)
	}
	return model.ReceiptData{
		ID:       uuid.NewString(),
		File:     file,
		FilePath: filePath,
		Status:   model.StatusPending,
	}
}

// SuccessfulReceipts returns the receipts whose OCR succeeded, in order.
func SuccessfulReceipts(receipts []model.ReceiptData) []model.ReceiptData {
	out := make([]model.ReceiptData, 0, len(receipts))
	for _, r := range receipts {
		if r.Status == model.StatusSuccess {
			out = append(out, r)
		}
	}
	return out
}

type ocrJob struct {
	receipt model.ReceiptData
	index   int
}

// Process runs every receipt that has not succeeded yet through OCR, assigns
// categories and re-validates the whole batch for period. Per-receipt OCR
// failures mark that receipt as error; only cancellation is returned, along
// with the batch as far as it got.
func (o *Orchestrator) Process(ctx context.Context, period string, receipts []model.ReceiptData, progress ProgressFunc) ([]model.ReceiptData, error) {
	out := append([]model.ReceiptData(nil), receipts...)

	var pending []int
	for i := range out {
		if out[i].Status != model.StatusSuccess {
			out[i].Status = model.StatusProcessing
			pending = append(pending, i)
		}
	}

	slog.Info("Starting OCR",
		"period", period,
		"receipts", len(out),
		"pending", len(pending),
		"workers", o.opts.Workers)

	jobs := make(chan ocrJob, len(pending))
	for _, i := range pending {
		jobs <- ocrJob{index: i, receipt: out[i]}
	}
	close(jobs)

	results := make(chan ocrJob, len(pending))

	var wg sync.WaitGroup
	wg.Add(o.opts.Workers)
	for w := 0; w < o.opts.Workers; w++ {
		go func(workerID int) {
			defer wg.Done()
			o.ocrWorker(ctx, workerID, jobs, results)
		}(w)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	matcher := o.categories.Matcher()
	done := 0
	for result := range results {
		receipt := result.receipt
		if receipt.Status == model.StatusSuccess {
			assignCategory(&receipt, matcher)
		}
		out[result.index] = receipt
		done++
		if progress != nil {
			progress(done, len(pending), receipt)
		}
	}

	// Receipts never picked up because of cancellation go back to pending.
	for _, i := range pending {
		if out[i].Status == model.StatusProcessing {
			out[i].Status = model.StatusPending
		}
	}

	out = o.Revalidate(period, out)

	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("processing interrupted: %w", err)
	}
	return out, nil
}

func (o *Orchestrator) ocrWorker(ctx context.Context, workerID int, jobs <-chan ocrJob, results chan<- ocrJob) {
	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		slog.Debug("worker recognizing receipt",
			"worker_id", workerID,
			"file", job.receipt.File)
		job.receipt = o.recognize(ctx, job.receipt)
		results <- job
	}
}

// recognize calls the provider with retry and applies its result.
func (o *Orchestrator) recognize(ctx context.Context, receipt model.ReceiptData) model.ReceiptData {
	var result *model.OCRResult
	err := common.WithRetry(ctx, func() error {
		var callErr error
		result, callErr = o.ocr.Recognize(ctx, receipt.FilePath)
		return callErr
	}, o.opts.Retry)

	switch {
	case err != nil && ctx.Err() != nil:
		receipt.Status = model.StatusPending
		return receipt
	case err != nil:
		slog.Warn("OCR failed", "file", receipt.File, "error", err)
		return markFailed(receipt, err.Error())
	case result == nil || !result.Success || result.Data == nil:
		msg := common.ErrOCRFailed.Error()
		if result != nil && result.Error != "" {
			msg = result.Error
		}
		slog.Warn("OCR failed", "file", receipt.File, "error", msg)
		return markFailed(receipt, msg)
	}

	return o.applyFields(receipt, *result.Data)
}

func markFailed(receipt model.ReceiptData, message string) model.ReceiptData {
	receipt.Status = model.StatusError
	receipt.ErrorMessage = message
	receipt.Issues = nil
	return receipt
}

func (o *Orchestrator) applyFields(receipt model.ReceiptData, fields model.OCRFields) model.ReceiptData {
	receipt.Status = model.StatusSuccess
	receipt.ErrorMessage = ""
	receipt.Merchant = optionalPtr(fields.Merchant)
	receipt.Date = optionalPtr(fields.Date)
	receipt.Amount = fields.Amount
	receipt.ReceiverName = optionalPtr(fields.ReceiverName)
	receipt.Currency = model.StringPtr(model.ReceiptData{Currency: fields.Currency}.CurrencyOr(o.opts.HomeCurrency))
	return receipt
}

// assignCategory sets the category of the first matching rule; with no match
// any existing category stays.
func assignCategory(receipt *model.ReceiptData, matcher *pattern.Matcher) {
	if receipt.Merchant == nil || matcher == nil {
		return
	}
	if category, ok := matcher.Match(*receipt.Merchant); ok {
		receipt.AccountCategory = model.StringPtr(category)
	}
}

// Revalidate re-runs every enabled check over the successful receipts of the
// batch. Receipts that have not succeeded carry no issues.
func (o *Orchestrator) Revalidate(period string, receipts []model.ReceiptData) []model.ReceiptData {
	out := append([]model.ReceiptData(nil), receipts...)

	var indices []int
	for i := range out {
		if out[i].Status == model.StatusSuccess {
			indices = append(indices, i)
		} else {
			out[i].Issues = nil
		}
	}

	successful := make([]model.ReceiptData, len(indices))
	for j, i := range indices {
		successful[j] = out[i]
	}

	validated := validation.ValidateAllReceipts(successful, period, o.checks.Rules())
	for j, i := range indices {
		out[i] = validated[j]
	}
	return out
}

// UpdateField applies a user edit to one receipt and re-validates the batch.
// An empty value clears the field.
func (o *Orchestrator) UpdateField(period string, receipts []model.ReceiptData, id string, field Field, value string) ([]model.ReceiptData, error) {
	idx := -1
	for i := range receipts {
		if receipts[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrReceiptNotFound, id)
	}

	out := append([]model.ReceiptData(nil), receipts...)
	receipt := out[idx]
	if err := setField(&receipt, field, value); err != nil {
		return nil, err
	}

	if field == FieldMerchant && model.StringValue(receipt.AccountCategory) == "" {
		assignCategory(&receipt, o.categories.Matcher())
	}
	out[idx] = receipt

	return o.Revalidate(period, out), nil
}

// IsInterrupted reports whether err came from a cancelled Process call.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
