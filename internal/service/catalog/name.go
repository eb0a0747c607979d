package catalog

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const MaxNameLength = 100

// NormalizeName returns the canonical form of a venue name: NFC, surrounding
// whitespace trimmed. Comparison stays case-sensitive.
func NormalizeName(name string) (string, error) {
	n := strings.TrimSpace(norm.NFC.String(name))
	if n == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(n) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return n, nil
}

// CanonicalName is NormalizeName without the validation, for lookups.
func CanonicalName(name string) string {
	return strings.TrimSpace(norm.NFC.String(name))
}
