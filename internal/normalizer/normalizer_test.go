package normalizer

import (
	"strings"
	"testing"
	"unicode"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"empty passes through", "", ""},
		{"lower case title", "my book", "My Book"},
		{"upper case title", "THE GREAT BOOK", "The Great Book"},
		{"question mark and colon stripped", "What If?: Serious Answers", "What If Serious Answers"},
		{"slashes stripped and spaces collapsed", "alpha / beta \\ gamma", "Alpha Beta Gamma"},
		{"surrounding whitespace trimmed", "  dune  ", "Dune"},
		{"trailing dots trimmed", "the end...", "The End"},
		{"control characters stripped", "tab\there", "TabHere"},
		{"only illegal characters", "???", ""},
		{"reserved device name", "con", "Con_"},
		{"reserved name is not a prefix match", "console wars", "Console Wars"},
		{"parentheses kept", "the great book (author edition)", "The Great Book (Author Edition)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.title); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("frank HERBERT"); got != "Frank Herbert" {
		t.Errorf("TitleCase = %q", got)
	}
}

func TestIsLegal(t *testing.T) {
	if !IsLegal("The Great Book") {
		t.Error("expected plain title to be legal")
	}
	if IsLegal("a/b") {
		t.Error("expected slash to be illegal")
	}
}

// titleAlphabet mixes legal runes with characters that must be removed.
var titleAlphabet = []rune{
	'a', 'B', 'z', ' ', '.', '-', '(', ')',
	'<', '>', ':', '"', '/', '\\', '|', '?', '*', '\x00', '\x1f', '\x7f',
}

// genTitleWithIllegal draws titles from titleAlphabet.
func genTitleWithIllegal() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(titleAlphabet)-1)).Map(func(idx []int) string {
		var sb strings.Builder
		for _, i := range idx {
			sb.WriteRune(titleAlphabet[i])
		}
		return sb.String()
	})
}

// hasContent reports whether s holds a rune that survives sanitizing: legal,
// not whitespace and not a dot.
func hasContent(s string) bool {
	for _, r := range s {
		if r != '.' && !unicode.IsSpace(r) && IsLegal(string(r)) {
			return true
		}
	}
	return false
}

// Property: sanitized output never contains an illegal character, never has
// surrounding whitespace, and is empty exactly when the input carried no
// legal content.
func TestSanitizeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("no illegal characters survive", prop.ForAll(
		func(title string) bool {
			return IsLegal(Sanitize(title))
		},
		genTitleWithIllegal(),
	))

	properties.Property("no leading or trailing whitespace", prop.ForAll(
		func(title string) bool {
			got := Sanitize(title)
			return got == strings.TrimSpace(got)
		},
		genTitleWithIllegal(),
	))

	properties.Property("empty iff no legal content", prop.ForAll(
		func(title string) bool {
			return (Sanitize(title) == "") == !hasContent(title)
		},
		genTitleWithIllegal(),
	))

	properties.Property("arbitrary strings stay legal", prop.ForAll(
		func(title string) bool {
			return IsLegal(Sanitize(title))
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
