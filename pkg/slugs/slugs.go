package slugs

import (
	"fmt"
	"strings"
	"unicode"
)

// Derive lowercases the input and collapses every run of non-alphanumeric
// characters into a single hyphen: "Smith Family" -> "smith-family".
func Derive(input string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(input)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// WithSuffix appends a numeric collision suffix: WithSuffix("smith-family", 2)
// yields "smith-family-2". Attempt zero returns the base slug unchanged.
func WithSuffix(base string, attempt int) string {
	if attempt <= 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, attempt)
}
