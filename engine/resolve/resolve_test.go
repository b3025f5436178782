package resolve

import (
	"errors"
	"testing"

	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

func testDefs() *state.Defs {
	return &state.Defs{
		Pipelines: map[string]types.Pipeline{
			"bandit-raid": {
				ID:   "bandit-raid",
				Name: "Bandit Raid",
				Choice: &types.StrategicChoice{Options: []types.Option{
					{ID: "fair", Label: "Fair Trials"},
					{ID: "ruthless", Label: "Ruthless Purge"},
					{ID: "bribe", Label: "Bribe the Bandits"},
				}},
			},
			"goblin-raid":  {ID: "goblin-raid", Name: "Goblin Raid"},
			"claim_hexes":  {ID: "claim_hexes", Name: "Claim Hexes"},
			"good-weather": {ID: "good-weather", Name: "Good Weather"},
		},
	}
}

func TestPipeline_ExactID(t *testing.T) {
	got, err := Pipeline(testDefs(), "bandit-raid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "bandit-raid" {
		t.Errorf("got %q, want bandit-raid", got)
	}
}

func TestPipeline_ByName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Bandit Raid", "bandit-raid"},
		{"bandit raid", "bandit-raid"},
		{"claim hexes", "claim_hexes"},
		{"weather", "good-weather"},
		{"GOBLIN-RAID", "goblin-raid"},
	}
	for _, tt := range tests {
		got, err := Pipeline(testDefs(), tt.input)
		if err != nil {
			t.Errorf("Pipeline(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Pipeline(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPipeline_Ambiguous(t *testing.T) {
	_, err := Pipeline(testDefs(), "raid")
	var amb *AmbiguityError
	if !errors.As(err, &amb) {
		t.Fatalf("expected AmbiguityError, got %v", err)
	}
	if len(amb.Candidates) != 2 {
		t.Errorf("expected 2 candidates, got %v", amb.Candidates)
	}
}

func TestPipeline_NotFound(t *testing.T) {
	_, err := Pipeline(testDefs(), "dragon")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Kind != "pipeline" {
		t.Errorf("kind = %q", nf.Kind)
	}
}

func TestApproach(t *testing.T) {
	p := testDefs().Pipelines["bandit-raid"]
	tests := []struct {
		input string
		want  string
	}{
		{"ruthless", "ruthless"},
		{"Fair Trials", "fair"},
		{"purge", "ruthless"},
		{"bandits", "bribe"},
	}
	for _, tt := range tests {
		got, err := Approach(p, tt.input)
		if err != nil {
			t.Errorf("Approach(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Approach(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	if _, err := Approach(p, "merciful"); err == nil {
		t.Error("expected error for unknown approach")
	}
	if _, err := Approach(testDefs().Pipelines["goblin-raid"], "fair"); err == nil {
		t.Error("expected error for pipeline without a choice")
	}
}

func TestDegree(t *testing.T) {
	tests := []struct {
		input string
		want  types.Degree
	}{
		{"cs", types.CriticalSuccess},
		{"criticalSuccess", types.CriticalSuccess},
		{"Success", types.Success},
		{"fail", types.Failure},
		{"crit-fail", types.CriticalFailure},
		{"criticalFailure", types.CriticalFailure},
	}
	for _, tt := range tests {
		got, err := Degree(tt.input)
		if err != nil {
			t.Errorf("Degree(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Degree(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
	if _, err := Degree("meh"); err == nil {
		t.Error("expected error for unknown degree")
	}
}
