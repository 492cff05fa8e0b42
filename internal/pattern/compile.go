package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Compile builds a matcher from a pattern and JavaScript-style flags.
// i, m and s map to RE2 inline flags; g and u do not change a boolean search
// and are accepted. Any other letter, or a repeated one, is an error.
func Compile(pattern, flags string) (*regexp.Regexp, error) {
	var inline strings.Builder
	seen := make(map[rune]bool, len(flags))

	for _, f := range flags {
		if seen[f] {
			return nil, fmt.Errorf("invalid flags %q: duplicate flag %q", flags, f)
		}
		seen[f] = true

		switch f {
		case 'i', 'm', 's':
			inline.WriteRune(f)
		case 'g', 'u':
		default:
			return nil, fmt.Errorf("invalid flags %q: unsupported flag %q", flags, f)
		}
	}

	if inline.Len() > 0 {
		pattern = "(?" + inline.String() + ")" + pattern
	}
	return regexp.Compile(pattern)
}
