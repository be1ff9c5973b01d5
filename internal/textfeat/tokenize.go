package textfeat

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const minTokenRunes = 2

// Tokenize lower-cases doc and returns its word tokens in order.
func Tokenize(doc string) []string {
	lowered := cases.Lower(language.Und).String(norm.NFC.String(doc))
	var tokens []string
	start := -1
	for i, r := range lowered {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = appendToken(tokens, lowered[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = appendToken(tokens, lowered[start:])
	}
	return tokens
}

func appendToken(tokens []string, tok string) []string {
	if utf8.RuneCountInString(tok) < minTokenRunes {
		return tokens
	}
	return append(tokens, tok)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// NGrams expands tokens into every n-gram with lo <= n <= hi, shortest first.
// Grams are joined with a single space.
func NGrams(tokens []string, lo, hi int) []string {
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	out := make([]string, 0, len(tokens)*(hi-lo+1))
	for n := lo; n <= hi; n++ {
		if n == 1 {
			out = append(out, tokens...)
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}
