package systems

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningMarks is the Combining Diacritical Marks block, U+0300..U+036F
var combiningMarks = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

// Normalize lowercases s, decomposes it (NFD) and strips combining diacritical marks.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	lower := strings.ToLower(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningMarks)))
	out, _, err := transform.String(t, lower)
	if err != nil {
		return lower
	}
	return out
}
