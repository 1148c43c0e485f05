// Package corpus provides the vocabularies used by corpus-based entity
// extraction.
//
// A corpus is an ordered list of words grouped in rows of synonyms. The first
// synonym of a row is its canonical value. Words and sentences are compared
// in normalized form (see Normalize).
package corpus

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Corpus is a fixed vocabulary with a canonical value lookup.
type Corpus interface {
	// Words returns every word of the corpus in declaration order.
	Words() []string

	// Value returns the canonical value of word. Words that are not part of
	// the corpus are returned unchanged.
	Value(word string, opts Options) string
}

// Options controls normalization. The zero value folds case, strips accents
// and turns quotes into spaces.
type Options struct {
	CaseSensitive bool `toml:"case_sensitive,omitempty" json:"caseSensitive,omitempty"`
	KeepAccents   bool `toml:"keep_accents,omitempty" json:"keepAccents,omitempty"`
	KeepQuotes    bool `toml:"keep_quotes,omitempty" json:"keepQuotes,omitempty"`
	StripDashes   bool `toml:"strip_dashes,omitempty" json:"stripDashes,omitempty"`
}

var (
	quotes     = regexp.MustCompile("[\"'`’‘“”]")
	whitespace = regexp.MustCompile(`\s+`)
)

// Normalize returns text in the canonical form used for matching.
func Normalize(text string, opts Options) string {
	s := text
	if !opts.KeepQuotes {
		s = quotes.ReplaceAllString(s, " ")
	}
	if opts.StripDashes {
		s = strings.ReplaceAll(s, "-", " ")
	}
	if !opts.CaseSensitive {
		s = strings.ToLower(s)
	}
	if !opts.KeepAccents {
		s = removeAccents(s)
	}

	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// removeAccents decomposes s and drops the combining marks.
func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
