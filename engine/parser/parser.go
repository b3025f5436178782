// Package parser converts shell command strings into Intent structs.
// Intentionally dumb: no NLP, just aliases and quoting.
package parser

import (
	"strings"

	"github.com/nathoo/kingdomcore/types"
)

var verbAliases = map[string]string{
	// Catalog
	"ls":     "pipelines",
	"list":   "pipelines",
	"events": "pipelines",
	"o":      "outcomes",
	"odds":   "outcomes",
	"info":   "outcomes",

	// Resolution
	"r":       "resolve",
	"roll":    "resolve",
	"check":   "resolve",
	"p":       "preview",
	"show":    "preview",
	"pick":    "choose",
	"c":       "confirm",
	"ok":      "confirm",
	"yes":     "confirm",
	"apply":   "confirm",
	"commit":  "confirm",
	"abort":   "cancel",
	"discard": "cancel",
	"no":      "cancel",

	// Interactions
	"sel":     "select",
	"claim":   "select",
	"todo":    "pending",
	"waiting": "pending",

	// Kingdom
	"k":       "kingdom",
	"status":  "kingdom",
	"effects": "ongoing",
	"mods":    "ongoing",
	"next":    "turn",
	"advance": "turn",
	"end":     "turn",
	"h":       "help",
	"?":       "help",
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse converts a raw command string into an Intent. The verb is
// lowercased; arguments keep their case. Double quotes group words into a
// single argument.
func Parse(input string) types.Intent {
	words := tokenize(strings.TrimSpace(input))
	if len(words) == 0 {
		return types.Intent{}
	}

	words[0].text = strings.ToLower(words[0].text)
	words = expandMultiWordVerbs(words)

	// Apply verb aliases.
	if alias, ok := verbAliases[words[0].text]; ok {
		words[0].text = alias
	}

	intent := types.Intent{Verb: words[0].text}
	for _, w := range stripArticles(words[1:]) {
		intent.Args = append(intent.Args, w.text)
	}
	return intent
}

type word struct {
	text   string
	quoted bool
}

// tokenize splits on whitespace, keeping quoted runs together.
func tokenize(input string) []word {
	var (
		out    []word
		cur    strings.Builder
		quoted bool
		inWord bool
	)
	flush := func() {
		if inWord {
			out = append(out, word{text: cur.String(), quoted: quoted})
		}
		cur.Reset()
		quoted, inWord = false, false
	}
	inQuote := false
	for _, r := range input {
		switch {
		case r == '"':
			if inQuote {
				inQuote = false
				flush()
			} else {
				flush()
				inQuote, quoted, inWord = true, true, true
			}
		case !inQuote && (r == ' ' || r == '\t'):
			flush()
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	flush()
	return out
}

// expandMultiWordVerbs handles "end turn", "list pipelines" etc.
func expandMultiWordVerbs(words []word) []word {
	if len(words) < 2 {
		return words
	}
	second := strings.ToLower(words[1].text)

	switch words[0].text {
	case "end", "next":
		if second == "turn" {
			return append([]word{{text: "turn"}}, words[2:]...)
		}
	case "list", "show":
		switch second {
		case "pipelines", "events", "actions":
			return append([]word{{text: "pipelines"}}, words[2:]...)
		case "kingdom":
			return append([]word{{text: "kingdom"}}, words[2:]...)
		case "effects", "ongoing":
			return append([]word{{text: "ongoing"}}, words[2:]...)
		case "pending", "interactions":
			return append([]word{{text: "pending"}}, words[2:]...)
		}
	case "possible":
		if second == "outcomes" {
			return append([]word{{text: "outcomes"}}, words[2:]...)
		}
	}

	return words
}

// stripArticles removes unquoted articles ("the", "a", "an").
func stripArticles(words []word) []word {
	result := make([]word, 0, len(words))
	for _, w := range words {
		if !w.quoted && articles[strings.ToLower(w.text)] {
			continue
		}
		result = append(result, w)
	}
	return result
}
