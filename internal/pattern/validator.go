package pattern

import "strings"

// EmptyPatternMessage is reported for blank patterns.
const EmptyPatternMessage = "パターンを入力してください"

// ValidatePattern compiles pattern with flags and reports the compiler's
// message on failure, so a rule editor can flag it before saving.
func ValidatePattern(pattern, flags string) ValidationResult {
	if strings.TrimSpace(pattern) == "" {
		return ValidationResult{Error: EmptyPatternMessage}
	}

	if _, err := Compile(pattern, flags); err != nil {
		return ValidationResult{Error: err.Error()}
	}

	return ValidationResult{Valid: true}
}
