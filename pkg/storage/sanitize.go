package storage

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxTitleBytes keeps "{date} {title} - {exif} (NN).ext" under the usual
// 255 byte filename limit
const maxTitleBytes = 100

// reserved characters are dropped; path separators become dashes
const reservedChars = `:*?"<>|`

func unsafeRune(r rune) bool {
	return unicode.IsControl(r) || strings.ContainsRune(reservedChars, r) || r == utf8.RuneError
}

func replaceSeparator(r rune) rune {
	if r == '/' || r == '\\' {
		return '-'
	}
	return r
}

var sanitizer = transform.Chain(
	norm.NFC,
	runes.Remove(runes.Predicate(unsafeRune)),
	runes.Map(replaceSeparator),
)

// stripUnsafe does what sanitizer does except composing accents
func stripUnsafe(s string) string {
	return strings.Map(func(r rune) rune {
		if unsafeRune(r) {
			return -1
		}
		return replaceSeparator(r)
	}, strings.ToValidUTF8(s, ""))
}

// SanitizeTitle makes s safe to use inside a filename. Accented letters
// are kept (NFC composed) and whitespace is collapsed. Leading dots are
// stripped so titles never produce hidden files.
func SanitizeTitle(s string) string {
	cleaned, _, err := transform.String(sanitizer, s)
	if err != nil {
		cleaned = stripUnsafe(s)
	}
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = strings.TrimLeft(cleaned, ". ")
	cleaned = strings.TrimRight(cleaned, ". ")
	return truncateBytes(cleaned, maxTitleBytes)
}

// truncateBytes cuts s to at most n bytes without splitting a rune
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimRight(s[:cut], " .")
}
