// Package answer canonicalizes free-text guesses so that noisy input typed
// on a phone in the street can be compared against accepted answers.
package answer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// wildcards are stripped before comparison.
const wildcards = `*?[]{}^$|\/`

var (
	articles = regexp.MustCompile(`\b(the|a|an)\b`)
	lower    = cases.Lower(language.Und)
)

// Normalize returns the canonical form of s: trimmed, lower-cased, with
// wildcard characters, the articles "the", "a" and "an" and all whitespace
// removed.
func Normalize(s string) string {
	s = lower.String(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(wildcards, r) {
			return -1
		}
		return r
	}, s)
	// Joining words can form a new article ("th e"), so strip until stable.
	for {
		next := stripSpace(articles.ReplaceAllString(s, " "))
		if next == s {
			return s
		}
		s = next
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Matches reports whether input is equivalent to any of accepted. Input
// that normalizes to the empty string never matches.
func Matches(input string, accepted ...string) bool {
	in := Normalize(input)
	if in == "" {
		return false
	}
	for _, a := range accepted {
		if Normalize(a) == in {
			return true
		}
	}
	return false
}

// Blank reports whether s carries no answer at all.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
