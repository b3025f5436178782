package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nathoo/kingdomcore/types"
)

// titleCase builds a Caser per call; a Caser is stateful and must not be
// shared between goroutines.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// DegreeName turns "criticalSuccess" into "Critical Success".
func DegreeName(d types.Degree) string {
	var b strings.Builder
	for i, r := range string(d) {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return titleCase(b.String())
}

// AttitudeName turns "unfriendly" into "Unfriendly".
func AttitudeName(a types.Attitude) string {
	return titleCase(string(a))
}

// BadgeLine renders a badge as one line of plain text.
func BadgeLine(b types.Badge) string {
	marker := "*"
	switch b.Variant {
	case "positive":
		marker = "+"
	case "negative":
		marker = "-"
	}
	if b.Icon != "" {
		return marker + " " + b.Icon + " " + b.Text
	}
	return marker + " " + b.Text
}
