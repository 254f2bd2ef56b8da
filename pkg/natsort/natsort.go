// Package natsort provides a natural sort order for names with embedded numbers.
// Numeric runs compare by value ("page2" < "page10") and text runs compare
// case-insensitively. The order is total: names that differ only in case or
// leading zeros fall back to a byte-wise comparison.
package natsort

import (
	"slices"
	"strings"
)

// Token is one maximal run of digits or non-digits within a name.
type Token struct {
	Text   string
	Digits bool
}

// Tokens splits s into maximal alternating runs of ASCII digits and non-digits.
func Tokens(s string) []Token {
	var tokens []Token
	start := 0
	for i := 1; i <= len(s); i++ {
		if i < len(s) && isDigit(s[i]) == isDigit(s[start]) {
			continue
		}
		tokens = append(tokens, Token{Text: s[start:i], Digits: isDigit(s[start])})
		start = i
	}
	return tokens
}

// Compare returns -1, 0, or +1 depending on whether a orders before, equal to,
// or after b. It returns 0 only when a == b.
func Compare(a, b string) int {
	if a == b {
		return 0
	}

	ta, tb := Tokens(a), Tokens(b)
	for i := range min(len(ta), len(tb)) {
		if c := compareToken(ta[i], tb[i]); c != 0 {
			return c
		}
	}

	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}

	return strings.Compare(a, b)
}

// Less reports whether a orders strictly before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Sort orders names in place.
func Sort(names []string) {
	slices.SortFunc(names, Compare)
}

func compareToken(a, b Token) int {
	switch {
	case a.Digits && b.Digits:
		return compareNumeric(a.Text, b.Text)
	case a.Digits:
		return -1
	case b.Digits:
		return 1
	default:
		return strings.Compare(strings.ToLower(a.Text), strings.ToLower(b.Text))
	}
}

// compareNumeric compares two digit strings by value without converting them,
// so runs longer than any machine integer still order correctly.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
