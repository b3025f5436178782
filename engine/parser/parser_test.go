package parser

import (
	"reflect"
	"testing"

	"github.com/nathoo/kingdomcore/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  types.Intent
	}{
		// Empty / whitespace
		{
			name:  "empty string",
			input: "",
			want:  types.Intent{},
		},
		{
			name:  "whitespace only",
			input: "   ",
			want:  types.Intent{},
		},

		// Basic verbs
		{
			name:  "pipelines",
			input: "pipelines",
			want:  types.Intent{Verb: "pipelines"},
		},
		{
			name:  "verb is lowercased",
			input: "CONFIRM",
			want:  types.Intent{Verb: "confirm"},
		},

		// Verb aliases
		{
			name:  "ls → pipelines",
			input: "ls",
			want:  types.Intent{Verb: "pipelines"},
		},
		{
			name:  "r → resolve with args",
			input: "r bandit-raid crit-fail ruthless",
			want:  types.Intent{Verb: "resolve", Args: []string{"bandit-raid", "crit-fail", "ruthless"}},
		},
		{
			name:  "ok → confirm",
			input: "ok",
			want:  types.Intent{Verb: "confirm"},
		},
		{
			name:  "claim → select keeps arg case",
			input: "claim expand A2 B3",
			want:  types.Intent{Verb: "select", Args: []string{"expand", "A2", "B3"}},
		},
		{
			name:  "pick → choose",
			input: "pick 1 lumber",
			want:  types.Intent{Verb: "choose", Args: []string{"1", "lumber"}},
		},

		// Multi-word verbs
		{
			name:  "end turn",
			input: "end turn",
			want:  types.Intent{Verb: "turn"},
		},
		{
			name:  "list pipelines",
			input: "list pipelines",
			want:  types.Intent{Verb: "pipelines"},
		},
		{
			name:  "show kingdom",
			input: "show kingdom",
			want:  types.Intent{Verb: "kingdom"},
		},
		{
			name:  "possible outcomes",
			input: "possible outcomes bandit-raid",
			want:  types.Intent{Verb: "outcomes", Args: []string{"bandit-raid"}},
		},

		// Quoting and articles
		{
			name:  "quoted name is one arg",
			input: `resolve "Bandit Raid" success`,
			want:  types.Intent{Verb: "resolve", Args: []string{"Bandit Raid", "success"}},
		},
		{
			name:  "articles stripped",
			input: "resolve the bandit-raid success",
			want:  types.Intent{Verb: "resolve", Args: []string{"bandit-raid", "success"}},
		},
		{
			name:  "quoted article kept",
			input: `resolve "the" success`,
			want:  types.Intent{Verb: "resolve", Args: []string{"the", "success"}},
		},
		{
			name:  "extra whitespace",
			input: "  preview   ",
			want:  types.Intent{Verb: "preview"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_UnknownVerbPassesThrough(t *testing.T) {
	got := Parse("dance wildly")
	if got.Verb != "dance" || len(got.Args) != 1 || got.Args[0] != "wildly" {
		t.Errorf("unexpected intent %+v", got)
	}
}

func TestParse_UnterminatedQuote(t *testing.T) {
	got := Parse(`resolve "Bandit Raid`)
	want := types.Intent{Verb: "resolve", Args: []string{"Bandit Raid"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %+v, want %+v", got, want)
	}
}
