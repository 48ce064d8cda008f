// Package slug builds URL slugs from free-form names.
package slug

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds generated slugs to the width of the slug columns.
const MaxLength = 200

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

// transliterations maps Icelandic letters to their conventional ASCII spelling.
// Letters that carry only an accent would also survive NFD stripping, but
// ð, þ and æ have no decomposition and must be spelled out.
var transliterations = map[rune]string{
	'á': "a", 'Á': "A",
	'ð': "d", 'Ð': "D",
	'é': "e", 'É': "E",
	'í': "i", 'Í': "I",
	'ó': "o", 'Ó': "O",
	'ú': "u", 'Ú': "U",
	'ý': "y", 'Ý': "Y",
	'þ': "th", 'Þ': "Th",
	'æ': "ae", 'Æ': "Ae",
	'ö': "o", 'Ö': "O",
}

// Transliterate replaces extended Latin letters from the table with ASCII.
// Characters outside the table are returned unchanged.
func Transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := transliterations[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Make lowercases s, strips diacritics, and collapses every run of
// non-alphanumeric characters into a single hyphen. It returns "" when
// nothing usable remains.
func Make(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	buf := make([]rune, 0, len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	s = string(buf)

	s = reNonAlnum.ReplaceAllString(s, "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if utf8.RuneCountInString(s) > MaxLength {
		s = strings.Trim(s[:MaxLength], "-")
	}
	return s
}

// FromName is Make applied to the transliterated name.
func FromName(name string) string {
	return Make(Transliterate(name))
}
