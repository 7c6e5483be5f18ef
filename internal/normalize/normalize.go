// Package normalize canonicalizes record strings so that downstream
// comparisons are insensitive to case, punctuation, and formatting noise.
// All functions are pure and total: they never fail, and empty input
// yields an empty string.
package normalize

import (
	"strings"
	"unicode"
)

// legalSuffixes are trailing legal-entity designators stripped from company
// names. Stripping repeats, so "Acme Co Ltd" reduces to "acme".
var legalSuffixes = []string{
	"inc",
	"corp",
	"corporation",
	"llc",
	"ltd",
	"limited",
	"co",
	"company",
}

// String lowercases, trims, strips characters that are neither word
// characters nor whitespace, and collapses internal whitespace runs to a
// single space.
func String(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isWordRune(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// CompanyName normalizes a company name: String normalization, then repeated
// stripping of trailing legal-entity suffixes at a word boundary.
func CompanyName(s string) string {
	s = String(s)
	for {
		stripped := stripOneSuffix(s)
		if stripped == s {
			return s
		}
		s = stripped
	}
}

func stripOneSuffix(s string) string {
	for _, suffix := range legalSuffixes {
		if s == suffix {
			return ""
		}
		if strings.HasSuffix(s, " "+suffix) {
			return strings.TrimSpace(strings.TrimSuffix(s, suffix))
		}
	}
	return s
}

// isWordRune reports whether r counts as a word character (letter, digit,
// or underscore, matching the \w class the comparisons were tuned against).
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokens returns the normalized whitespace-separated tokens of s.
func Tokens(s string) []string {
	return strings.Fields(String(s))
}
