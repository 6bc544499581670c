// README: Text clean-up and accent-insensitive keys for municipality names.
package location

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var typographic = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
)

// stripMarks decomposes (NFKD) and drops combining marks: "Querétaro" -> "Queretaro".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CleanText is the display form: no accents, plain quotes and dashes, trimmed.
func CleanText(s string) string {
	return strings.TrimSpace(typographic.Replace(stripMarks(s)))
}

// NormalizeKey is the comparison form: CleanText, lower-cased, inner
// whitespace collapsed.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(CleanText(s))), " ")
}
