package validation

import (
	"math"
	"sort"

	"github.com/Veraticus/keihi/internal/model"
)

// Thresholds are the batch-relative bounds of the amount-outlier check.
type Thresholds struct {
	Lower float64
	Upper float64
	// Applicable is false when the batch is too small for the check.
	Applicable bool
}

// ComputeThresholds applies Tukey's fences to amounts. Quartiles use
// floor-index selection on the sorted values, without interpolation. Fewer
// than MinSampleSize amounts yield [0, +Inf] and Applicable=false.
func ComputeThresholds(amounts []float64, params model.AmountOutlierParams) Thresholds {
	if len(amounts) == 0 || len(amounts) < params.MinSampleSize {
		return Thresholds{Lower: 0, Upper: math.Inf(1)}
	}

	sorted := append([]float64(nil), amounts...)
	sort.Float64s(sorted)

	n := len(sorted)
	q1 := sorted[int(math.Floor(float64(n)*0.25))]
	q3 := sorted[int(math.Floor(float64(n)*0.75))]
	iqr := q3 - q1

	return Thresholds{
		Lower:      q1 - iqr*params.LowerMultiplier,
		Upper:      q3 + iqr*params.UpperMultiplier,
		Applicable: true,
	}
}

// batchAmounts collects every defined, finite amount in the batch.
func batchAmounts(receipts []model.ReceiptData) []float64 {
	amounts := make([]float64, 0, len(receipts))
	for _, r := range receipts {
		if amount, ok := definedAmount(r); ok {
			amounts = append(amounts, amount)
		}
	}
	return amounts
}

func definedAmount(r model.ReceiptData) (float64, bool) {
	if r.Amount == nil || math.IsNaN(*r.Amount) {
		return 0, false
	}
	return *r.Amount, true
}
