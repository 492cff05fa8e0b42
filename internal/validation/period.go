package validation

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/keihi/internal/common"
)

// Period is an application month, written YYYYMM.
type Period struct {
	Year  int
	Month int
}

// ParsePeriod parses a six-digit YYYYMM key.
func ParsePeriod(s string) (Period, error) {
	if len(s) != 6 {
		return Period{}, fmt.Errorf("%w: %q is not YYYYMM", common.ErrInvalidPeriod, s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil || year < 0 {
		return Period{}, fmt.Errorf("%w: %q is not YYYYMM", common.ErrInvalidPeriod, s)
	}
	month, err := strconv.Atoi(s[4:])
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: %q has no month %s", common.ErrInvalidPeriod, s, s[4:])
	}
	return Period{Year: year, Month: month}, nil
}

// String returns the YYYYMM key.
func (p Period) String() string {
	return fmt.Sprintf("%04d%02d", p.Year, p.Month)
}

// Label returns the period as shown to users, e.g. "2025年1月".
func (p Period) Label() string {
	return fmt.Sprintf("%d年%d月", p.Year, p.Month)
}

func (p Period) monthIndex() int {
	return p.Year*12 + p.Month
}
