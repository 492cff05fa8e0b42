package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/keihi/internal/common"
	"github.com/Veraticus/keihi/internal/model"
	"github.com/Veraticus/keihi/internal/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockOCR returns canned results per file path and counts calls.
type mockOCR struct {
	results  map[string]*model.OCRResult
	errs     map[string][]error
	calls    map[string]int
	mu       sync.Mutex
	failWith error
}

func newMockOCR() *mockOCR {
	return &mockOCR{
		results: make(map[string]*model.OCRResult),
		errs:    make(map[string][]error),
		calls:   make(map[string]int),
	}
}

func (m *mockOCR) succeed(path string, fields model.OCRFields) {
	m.results[path] = &model.OCRResult{Success: true, Data: &fields}
}

func (m *mockOCR) Recognize(_ context.Context, filePath string) (*model.OCRResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[filePath]++
	if queued := m.errs[filePath]; len(queued) > 0 {
		m.errs[filePath] = queued[1:]
		return nil, queued[0]
	}
	if m.failWith != nil {
		return nil, m.failWith
	}
	if r, ok := m.results[filePath]; ok {
		return r, nil
	}
	return &model.OCRResult{Success: false, Error: "読み取れませんでした"}, nil
}

type staticMatcher struct{ m *pattern.Matcher }

func (s staticMatcher) Matcher() *pattern.Matcher { return s.m }

type staticRules []model.ValidationRule

func (s staticRules) Rules() []model.ValidationRule { return s }

func testRules() staticRules {
	return staticRules{
		{ID: "1", Type: model.RuleTypeDateFormat, Enabled: true, Severity: model.SeverityError},
		{ID: "2", Type: model.RuleTypeDateRange, Enabled: true, Severity: model.SeverityWarning, Params: model.DefaultDateRangeParams()},
		{ID: "3", Type: model.RuleTypeAmountDecimal, Enabled: true, Severity: model.SeverityWarning},
		{ID: "5", Type: model.RuleTypeDuplicateFile, Enabled: true, Severity: model.SeverityError},
	}
}

func testOrchestrator(ocr *mockOCR) *Orchestrator {
	matcher := pattern.NewMatcher([]pattern.Rule{
		{ID: "c1", Pattern: "スターバックス", AccountCategory: "会議費", Enabled: true},
		{ID: "c2", Pattern: "タクシー", AccountCategory: "旅費交通費", Enabled: true},
	})
	opts := DefaultOptions()
	opts.Retry = common.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
	return NewOrchestrator(ocr, staticMatcher{matcher}, testRules(), opts)
}

func pendingReceipt(id, file string) model.ReceiptData {
	r := NewReceipt(file, "/receipts/2025/01/"+file)
	r.ID = id
	return r
}

func TestNewReceipt(t *testing.T) {
	r := NewReceipt("", "/tmp/scans/a.jpg")
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "a.jpg", r.File)
	assert.Equal(t, model.StatusPending, r.Status)
	assert.NotEqual(t, r.ID, NewReceipt("", "/tmp/scans/a.jpg").ID)
}

func TestProcess(t *testing.T) {
	ocr := newMockOCR()
	ocr.succeed("/receipts/2025/01/a.jpg", model.OCRFields{
		Merchant: model.StringPtr("スターバックス 渋谷店"),
		Date:     model.StringPtr("2025-01-10"),
		Amount:   model.FloatPtr(680),
	})
	ocr.succeed("/receipts/2025/01/b.jpg", model.OCRFields{
		Merchant: model.StringPtr("Blue Bottle"),
		Date:     model.StringPtr("2025-03-20"),
		Amount:   model.FloatPtr(5.5),
		Currency: model.StringPtr("USD"),
	})

	o := testOrchestrator(ocr)
	receipts := []model.ReceiptData{
		pendingReceipt("a", "a.jpg"),
		pendingReceipt("b", "b.jpg"),
		pendingReceipt("c", "c.jpg"),
	}

	var progressCalls int
	got, err := o.Process(context.Background(), "202501", receipts, func(done, total int, _ model.ReceiptData) {
		progressCalls++
		assert.Equal(t, 3, total)
		assert.LessOrEqual(t, done, total)
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 3, progressCalls)

	a := got[0]
	assert.Equal(t, model.StatusSuccess, a.Status)
	assert.Equal(t, "会議費", model.StringValue(a.AccountCategory))
	assert.Equal(t, "JPY", model.StringValue(a.Currency))
	assert.Nil(t, a.Issues)

	b := got[1]
	assert.Equal(t, "USD", model.StringValue(b.Currency))
	assert.Nil(t, b.AccountCategory)
	var types []string
	for _, issue := range b.Issues {
		types = append(types, issue.Type)
	}
	assert.Equal(t, []string{model.IssueTypeRange, model.IssueTypeDecimal}, types)

	c := got[2]
	assert.Equal(t, model.StatusError, c.Status)
	assert.Equal(t, "読み取れませんでした", c.ErrorMessage)
	assert.Nil(t, c.Issues)

	// Input is untouched.
	assert.Equal(t, model.StatusPending, receipts[0].Status)
}

func TestProcess_SkipsSuccessfulReceipts(t *testing.T) {
	ocr := newMockOCR()
	o := testOrchestrator(ocr)

	done := pendingReceipt("a", "a.jpg")
	done.Status = model.StatusSuccess
	done.Merchant = model.StringPtr("タクシー")
	done.AccountCategory = model.StringPtr("交際費")

	got, err := o.Process(context.Background(), "202501", []model.ReceiptData{done}, nil)
	require.NoError(t, err)
	assert.Zero(t, ocr.calls["/receipts/2025/01/a.jpg"])
	assert.Equal(t, "交際費", model.StringValue(got[0].AccountCategory), "existing category kept")
}

func TestProcess_BlankFieldsAreAbsent(t *testing.T) {
	ocr := newMockOCR()
	ocr.succeed("/receipts/2025/01/a.jpg", model.OCRFields{
		Merchant:     model.StringPtr("  "),
		Date:         model.StringPtr(""),
		Amount:       model.FloatPtr(1200),
		ReceiverName: model.StringPtr(""),
	})

	got, err := testOrchestrator(ocr).Process(context.Background(), "202501", []model.ReceiptData{pendingReceipt("a", "a.jpg")}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, got[0].Status)
	assert.Nil(t, got[0].Merchant)
	assert.Nil(t, got[0].Date)
	assert.Nil(t, got[0].ReceiverName)
	assert.Nil(t, got[0].Issues)
}

func TestProcess_RetriesTransientFailures(t *testing.T) {
	ocr := newMockOCR()
	path := "/receipts/2025/01/a.jpg"
	ocr.errs[path] = []error{common.ErrOCRUnavailable, common.ErrOCRUnavailable}
	ocr.succeed(path, model.OCRFields{Merchant: model.StringPtr("x"), Amount: model.FloatPtr(100)})

	got, err := testOrchestrator(ocr).Process(context.Background(), "202501", []model.ReceiptData{pendingReceipt("a", "a.jpg")}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, got[0].Status)
	assert.Equal(t, 3, ocr.calls[path])
}

func TestProcess_PermanentFailureNotRetried(t *testing.T) {
	ocr := newMockOCR()
	ocr.failWith = errors.New("unsupported file")

	got, err := testOrchestrator(ocr).Process(context.Background(), "202501", []model.ReceiptData{pendingReceipt("a", "a.jpg")}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, got[0].Status)
	assert.Contains(t, got[0].ErrorMessage, "unsupported file")
	assert.Equal(t, 1, ocr.calls["/receipts/2025/01/a.jpg"])
}

func TestProcess_Cancelled(t *testing.T) {
	ocr := newMockOCR()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := testOrchestrator(ocr).Process(ctx, "202501", []model.ReceiptData{pendingReceipt("a", "a.jpg")}, nil)
	require.Error(t, err)
	assert.True(t, IsInterrupted(err))
	assert.Equal(t, model.StatusPending, got[0].Status)
}

func TestRevalidate_OnlySuccessfulReceiptsCount(t *testing.T) {
	o := testOrchestrator(newMockOCR())

	ok := pendingReceipt("a", "same.jpg")
	ok.Status = model.StatusSuccess
	failed := pendingReceipt("b", "same.jpg")
	failed.Status = model.StatusError
	failed.Issues = []model.ValidationIssue{{Type: "stale"}}

	got := o.Revalidate("202501", []model.ReceiptData{ok, failed})
	assert.Nil(t, got[0].Issues, "error receipt is not a duplicate partner")
	assert.Nil(t, got[1].Issues)
}

func TestUpdateField(t *testing.T) {
	o := testOrchestrator(newMockOCR())

	base := func() []model.ReceiptData {
		r := pendingReceipt("a", "a.jpg")
		r.Status = model.StatusSuccess
		r.Date = model.StringPtr("2025-01-05")
		r.Amount = model.FloatPtr(1200.5)
		return []model.ReceiptData{r}
	}

	t.Run("amount edit clears decimal warning", func(t *testing.T) {
		receipts := o.Revalidate("202501", base())
		require.Len(t, receipts[0].Issues, 1)

		got, err := o.UpdateField("202501", receipts, "a", FieldAmount, "1,201")
		require.NoError(t, err)
		assert.InDelta(t, 1201, *got[0].Amount, 0)
		assert.Nil(t, got[0].Issues)
	})

	t.Run("merchant edit assigns category when none", func(t *testing.T) {
		got, err := o.UpdateField("202501", base(), "a", FieldMerchant, "日本交通タクシー")
		require.NoError(t, err)
		assert.Equal(t, "旅費交通費", model.StringValue(got[0].AccountCategory))
	})

	t.Run("merchant edit keeps chosen category", func(t *testing.T) {
		receipts := base()
		receipts[0].AccountCategory = model.StringPtr("交際費")
		got, err := o.UpdateField("202501", receipts, "a", FieldMerchant, "タクシー")
		require.NoError(t, err)
		assert.Equal(t, "交際費", model.StringValue(got[0].AccountCategory))
	})

	t.Run("empty value clears field", func(t *testing.T) {
		got, err := o.UpdateField("202501", base(), "a", FieldDate, " ")
		require.NoError(t, err)
		assert.Nil(t, got[0].Date)
	})

	t.Run("currency is upper-cased", func(t *testing.T) {
		got, err := o.UpdateField("202501", base(), "a", FieldCurrency, "usd")
		require.NoError(t, err)
		assert.Equal(t, "USD", model.StringValue(got[0].Currency))
	})

	t.Run("invalid amount", func(t *testing.T) {
		_, err := o.UpdateField("202501", base(), "a", FieldAmount, "千円")
		var userErr *common.UserError
		assert.ErrorAs(t, err, &userErr)
	})

	t.Run("unknown receipt", func(t *testing.T) {
		_, err := o.UpdateField("202501", base(), "zzz", FieldNote, "x")
		assert.ErrorIs(t, err, common.ErrReceiptNotFound)
	})

	t.Run("unsupported field", func(t *testing.T) {
		_, err := o.UpdateField("202501", base(), "a", Field("status"), "success")
		assert.ErrorIs(t, err, common.ErrUnsupportedField)
	})
}

func TestSuccessfulReceipts(t *testing.T) {
	receipts := []model.ReceiptData{
		{ID: "a", Status: model.StatusSuccess},
		{ID: "b", Status: model.StatusError},
		{ID: "c", Status: model.StatusPending},
		{ID: "d", Status: model.StatusSuccess},
	}
	got := SuccessfulReceipts(receipts)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "d", got[1].ID)
}
