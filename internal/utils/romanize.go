package utils

import "strings"

// Revised Romanization tables, indexed by the jamo offsets of a composed
// Hangul syllable (U+AC00..U+D7A3).
var (
	romanInitials = [19]string{
		"g", "kk", "n", "d", "tt", "r", "m", "b", "pp", "s",
		"ss", "", "j", "jj", "ch", "k", "t", "p", "h",
	}
	romanMedials = [21]string{
		"a", "ae", "ya", "yae", "eo", "e", "yeo", "ye", "o", "wa",
		"wae", "oe", "yo", "u", "wo", "we", "wi", "yu", "eu", "ui", "i",
	}
	romanFinals = [28]string{
		"", "k", "k", "k", "n", "n", "n", "t", "l", "k",
		"m", "l", "l", "l", "p", "l", "m", "p", "p", "t",
		"t", "ng", "t", "t", "k", "t", "p", "t",
	}
)

const (
	hangulBase = 0xAC00
	hangulLast = 0xD7A3
)

// Romanize transliterates Hangul syllables to Latin letters and passes ASCII
// through unchanged. Other runes are dropped. The output is meant for
// Latin-only sinks like PDF core fonts, not for display to customers.
func Romanize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevFinalL := false
	for _, r := range s {
		switch {
		case r >= hangulBase && r <= hangulLast:
			offset := int(r - hangulBase)
			initial := offset / (21 * 28)
			medial := (offset / 28) % 21
			final := offset % 28
			// ㄹㄹ across a syllable boundary romanizes as "ll"
			if prevFinalL && initial == 5 {
				b.WriteString("l")
			} else {
				b.WriteString(romanInitials[initial])
			}
			b.WriteString(romanMedials[medial])
			b.WriteString(romanFinals[final])
			prevFinalL = final == 8
		case r < 0x80:
			b.WriteRune(r)
			prevFinalL = false
		default:
			prevFinalL = false
		}
	}
	return b.String()
}
