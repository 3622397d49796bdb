// Package textnorm folds user text so keyword matching ignores case and accents.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and strips combining marks ("Avísame" -> "avisame").
func Fold(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		// transform only fails on invalid state; fall back to plain lowering
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// ContainsAny reports the first keyword that appears in folded.
// Keywords are expected to be folded already.
func ContainsAny(folded string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(folded, kw) {
			return kw, true
		}
	}
	return "", false
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// TrimToken strips punctuation around a single word ("luz," -> "luz").
func TrimToken(tok string) string {
	return strings.TrimFunc(tok, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}
