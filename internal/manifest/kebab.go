package manifest

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLength bounds directory names produced by Kebab.
const DefaultMaxLength = 100

// letters that do not decompose into an ASCII base letter
var ligatures = strings.NewReplacer(
	"Œ", "OE", "œ", "oe",
	"Æ", "AE", "æ", "ae",
	"ß", "ss",
	"Ø", "O", "ø", "o",
	"Ł", "L", "ł", "l",
	"Đ", "D", "đ", "d",
	"Ð", "D", "ð", "d",
	"Þ", "TH", "þ", "th",
	"ı", "i",
	"ſ", "s",
)

// ASCII transliterates s: ligatures are expanded, accents are stripped, and
// any remaining non-ASCII rune is dropped.
func ASCII(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
		norm.NFC,
	)

	out, _, err := transform.String(t, ligatures.Replace(s))
	if err != nil {
		return ""
	}
	return out
}

// Kebab turns a label into a lowercase, dash-separated directory name.
// Words split on any non-alphanumeric rune and on camelCase boundaries, and
// are transliterated to ASCII one at a time. A result longer than maxLen is
// truncated and cut back to the last dash.
func Kebab(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	var parts []string
	for _, w := range words(norm.NFC.String(s)) {
		if a := strings.ToLower(ASCII(w)); a != "" {
			parts = append(parts, a)
		}
	}

	k := strings.Join(parts, "-")
	if len(k) <= maxLen {
		return k
	}

	k = k[:maxLen]
	if i := strings.LastIndex(k, "-"); i > 0 {
		k = k[:i]
	}
	return k
}

func words(s string) []string {
	var (
		out []string
		cur []rune
	)

	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}

	rs := []rune(s)
	for i, r := range rs {
		if unicode.Is(unicode.Mn, r) {
			if len(cur) > 0 {
				cur = append(cur, r)
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}

		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()

	return out
}
