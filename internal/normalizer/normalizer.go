// Package normalizer turns raw metadata titles into filesystem-safe base
// filenames for hbrename.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// illegalChars matches characters rejected by at least one common filesystem,
// plus ASCII control characters.
var illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\x7f]`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// reservedNames are Windows device names that cannot be used as a base name
// regardless of extension.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest.
func TitleCase(s string) string {
	// A Caser carries state and is not safe for concurrent use.
	return cases.Title(language.Und).String(s)
}

// Sanitize derives a candidate filename from a title.
//
// The title is title-cased and stripped of illegal characters. Whitespace runs
// collapse to one space, and surrounding whitespace and trailing dots are
// trimmed. An empty title yields "". A title made only of illegal characters
// also yields "", which callers treat as "no candidate". No length limit is
// applied.
//
// Examples:
//   - "the great book" -> "The Great Book"
//   - "What If?: Serious Answers" -> "What If Serious Answers"
//   - "Alpha / Beta" -> "Alpha Beta"
//   - "con" -> "Con_"
func Sanitize(title string) string {
	if title == "" {
		return ""
	}

	cleaned := illegalChars.ReplaceAllString(TitleCase(title), "")
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRightFunc(cleaned, func(r rune) bool {
		return r == '.' || unicode.IsSpace(r)
	})

	if reservedNames[strings.ToUpper(cleaned)] {
		cleaned += "_"
	}
	return cleaned
}

// IsLegal reports whether name contains no character Sanitize would remove.
func IsLegal(name string) bool {
	return !illegalChars.MatchString(name)
}
