package validation

import (
	"testing"

	"github.com/Veraticus/keihi/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{in: "202501", want: Period{Year: 2025, Month: 1}},
		{in: "199912", want: Period{Year: 1999, Month: 12}},
		{in: "202513", wantErr: true},
		{in: "202500", wantErr: true},
		{in: "2025-1", wantErr: true},
		{in: "20251", wantErr: true},
		{in: "", wantErr: true},
		{in: "abcd01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidPeriod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "2025年1月", Period{Year: 2025, Month: 1}.Label())
	assert.Equal(t, "2024年12月", Period{Year: 2024, Month: 12}.Label())
}
