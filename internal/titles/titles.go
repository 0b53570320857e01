// Package titles canonicalizes scraped film titles.
//
// Normalize strips version and format annotations so the sessions of one film
// share a grouping key and a clean search query. Slugify derives the path
// segment the cinema's own site uses for a film page.
package titles

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Markers lists the annotations removed by Normalize.
var Markers = []string{
	"OV", "OmU", "OmeU", "Originalfassung", "Originalversion",
	"3D", "2D", "IMAX", "Dolby", "Atmos",
}

var (
	markerPattern    = regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}_])(?:` + strings.Join(Markers, "|") + `)($|[^\p{L}\p{N}_])`)
	emptyParens      = regexp.MustCompile(`\(\s*\)`)
	emptyBrackets    = regexp.MustCompile(`\[\s*\]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	slugSeparatorRun = regexp.MustCompile(`[^a-z0-9]+`)
	germanFolds      = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")
	germanLowerCaser = cases.Lower(language.German)
)

// Normalize removes marker tokens (whole words, any case), collapses the empty
// bracket pairs they leave behind, collapses whitespace and trims. Word
// boundaries follow Unicode letters and digits, so "ÉOV" keeps its marker.
// The result is stable: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	cleaned := stripMarkers(raw)
	for {
		next := emptyParens.ReplaceAllString(cleaned, " ")
		next = emptyBrackets.ReplaceAllString(next, " ")
		if next == cleaned {
			break
		}
		cleaned = next
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(cleaned, " "))
}

// stripMarkers repeats the replacement because adjacent markers share the
// separator between them and a single pass only consumes it once.
func stripMarkers(s string) string {
	for {
		next := markerPattern.ReplaceAllString(s, "${1} ${2}")
		if next == s {
			return s
		}
		s = next
	}
}

// Slugify lowercases title, folds German umlauts and ß, transliterates the
// remaining characters to ASCII and joins alphanumeric runs with single dashes.
func Slugify(title string) string {
	s := germanLowerCaser.String(norm.NFC.String(title))
	s = germanFolds.Replace(s)
	s = strings.ToLower(unidecode.Unidecode(s))
	s = slugSeparatorRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
