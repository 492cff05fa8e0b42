package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePattern(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		flags     string
		wantError string
		wantValid bool
	}{
		{name: "valid", pattern: "タクシー|JR", wantValid: true},
		{name: "valid with flags", pattern: "amazon", flags: "i", wantValid: true},
		{name: "empty", pattern: "", wantError: EmptyPatternMessage},
		{name: "whitespace only", pattern: "  \t", wantError: EmptyPatternMessage},
		{name: "unclosed group", pattern: "(unclosed", wantError: "error parsing regexp: missing closing ): `(unclosed`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePattern(tt.pattern, tt.flags)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.wantError, got.Error)
		})
	}

	t.Run("bad flags reported", func(t *testing.T) {
		got := ValidatePattern("abc", "x")
		assert.False(t, got.Valid)
		assert.Contains(t, got.Error, "unsupported flag")
	})
}
