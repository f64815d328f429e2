// Package phone normalizes Brazilian phone numbers into the canonical
// digits-only form accepted by BotConversa: 55 followed by 10 to 13 digits.
package phone

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// CountryCode is the prefix every canonical number starts with.
const CountryCode = "55"

var canonical = regexp.MustCompile(`^55\d{10,13}$`)

// Digits folds full-width digits to ASCII and drops every other rune.
func Digits(raw string) string {
	folded := width.Fold.String(raw)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize keeps only digits and prepends the country code when it is
// missing and the remaining length is plausible (10 to 13 digits). Anything
// else is returned as bare digits and will fail IsValidCanonical.
func Normalize(raw string) string {
	p := Digits(raw)
	if strings.HasPrefix(p, CountryCode) {
		return p
	}
	if n := len(p); n >= 10 && n <= 13 {
		return CountryCode + p
	}
	return p
}

// IsValidCanonical reports whether p is exactly 55 followed by 10-13 digits.
func IsValidCanonical(p string) bool {
	return canonical.MatchString(p)
}

// Redact masks the middle of a number for logging.
// "5511987654321" → "5511*****4321"
func Redact(p string) string {
	if len(p) <= 8 {
		return strings.Repeat("*", len(p))
	}
	return p[:4] + strings.Repeat("*", len(p)-8) + p[len(p)-4:]
}
