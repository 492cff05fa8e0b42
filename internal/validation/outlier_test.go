package validation

import (
	"math"
	"testing"

	"github.com/Veraticus/keihi/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestComputeThresholds(t *testing.T) {
	params := model.DefaultAmountOutlierParams()

	tests := []struct {
		name    string
		amounts []float64
		want    Thresholds
	}{
		{
			name:    "empty batch",
			amounts: nil,
			want:    Thresholds{Lower: 0, Upper: math.Inf(1)},
		},
		{
			name:    "below minimum sample size",
			amounts: []float64{100, 200, 300},
			want:    Thresholds{Lower: 0, Upper: math.Inf(1)},
		},
		{
			// n=4: Q1=sorted[1]=200, Q3=sorted[3]=400, IQR=200
			name:    "exactly minimum sample size",
			amounts: []float64{400, 100, 300, 200},
			want:    Thresholds{Lower: -100, Upper: 1000, Applicable: true},
		},
		{
			name:    "identical amounts collapse the fences",
			amounts: []float64{500, 500, 500, 500, 500},
			want:    Thresholds{Lower: 500, Upper: 500, Applicable: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeThresholds(tt.amounts, params))
		})
	}
}

func TestComputeThresholds_DoesNotReorderInput(t *testing.T) {
	amounts := []float64{3, 1, 2, 5, 4}
	ComputeThresholds(amounts, model.DefaultAmountOutlierParams())
	assert.Equal(t, []float64{3, 1, 2, 5, 4}, amounts)
}

func TestComputeThresholds_CustomMultipliers(t *testing.T) {
	params := model.AmountOutlierParams{LowerMultiplier: 0, UpperMultiplier: 0, MinSampleSize: 2}
	got := ComputeThresholds([]float64{10, 20, 30, 40}, params)
	assert.Equal(t, Thresholds{Lower: 20, Upper: 40, Applicable: true}, got)
}

func TestBatchAmounts_SkipsUndefined(t *testing.T) {
	receipts := []model.ReceiptData{
		{Amount: model.FloatPtr(100)},
		{},
		{Amount: model.FloatPtr(math.NaN())},
		{Amount: model.FloatPtr(0)},
	}
	assert.Equal(t, []float64{100, 0}, batchAmounts(receipts))
}

// Raising the upper multiplier can only remove high-side findings.
func TestOutlierMonotonicity(t *testing.T) {
	var receipts []model.ReceiptData
	for i, a := range []float64{800, 900, 1000, 1100, 1200, 5000, 20000} {
		receipts = append(receipts, receipt(string(rune('a'+i))+".jpg", amount(a)))
	}

	count := func(upper float64) int {
		rules := withRule(defaultRules(), model.RuleTypeAmountOutlier, func(r *model.ValidationRule) {
			p := model.DefaultAmountOutlierParams()
			p.UpperMultiplier = upper
			r.Params = p
		})
		return Summarize(ValidateAllReceipts(receipts, "202501", rules)).ByType[model.IssueTypeOutlier]
	}

	prev := count(0.5)
	assert.Positive(t, prev)
	for _, upper := range []float64{1, 2, 3, 10, 100} {
		got := count(upper)
		assert.LessOrEqual(t, got, prev, "upper=%v", upper)
		prev = got
	}
	assert.Zero(t, prev)
}
