package save

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nathoo/kingdomcore/engine/dice"
	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

func testDefs() *state.Defs {
	return &state.Defs{
		Game: types.GameDef{
			Title:   "Test Kingdom",
			Version: "1.0",
		},
	}
}

func testKingdom() *types.Kingdom {
	return &types.Kingdom{
		Name:      "Stolen Lands",
		Turn:      7,
		Resources: map[string]int{"gold": 12, "unrest": 2},
		Settlements: []types.Settlement{{
			ID: "anvilgate", Name: "Anvilgate", Level: 3, PrisonCapacity: 4, Imprisoned: 2,
			Structures: []types.Structure{{ID: "jail", Name: "Jail", Tier: 1, Damaged: true}},
		}},
		Factions: []types.Faction{{ID: "swordlords", Name: "Swordlords", Attitude: types.Friendly}},
		Hexes:    []types.Hex{{ID: "A1", Terrain: "plains", Claimed: true, Worksite: "farmland"}},
		Ongoing: []types.ActiveModifier{{
			ID:        "01J0000000000000000000000A",
			Source:    types.ModifierSource{Type: "pipeline", ID: "drought", Name: "Drought"},
			Modifiers: []types.Modifier{{Type: types.ModifierStatic, Resource: "food", Value: 1, Negative: true}},
			Remaining: 2,
		}},
	}
}

func TestRoundTrip(t *testing.T) {
	defs := testDefs()
	rng := dice.NewRNG(42)
	rng.Roll(6)
	rng.Roll(6)

	data, err := Save(testKingdom(), defs, rng, []string{"resolve drought failure", "confirm"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	sd, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	store := state.NewStore(state.NewKingdom("empty"))
	restored := ApplySave(store, sd)

	k := store.Kingdom()
	if k.Turn != 7 {
		t.Errorf("expected turn 7, got %d", k.Turn)
	}
	if store.Resource("gold") != 12 {
		t.Errorf("expected gold 12, got %d", store.Resource("gold"))
	}
	st, err := store.Structure("anvilgate", "jail")
	if err != nil || !st.Damaged {
		t.Errorf("expected damaged jail, got %+v (%v)", st, err)
	}
	if len(k.Ongoing) != 1 || k.Ongoing[0].Remaining != 2 {
		t.Errorf("ongoing ledger mismatch: %+v", k.Ongoing)
	}
	if len(sd.CommandLog) != 2 || sd.CommandLog[1] != "confirm" {
		t.Errorf("command log mismatch: %v", sd.CommandLog)
	}

	// The restored stream continues exactly where the saved one left off.
	if restored.Position() != 2 {
		t.Errorf("expected position 2, got %d", restored.Position())
	}
	if got, want := restored.Roll(20), rng.Roll(20); got != want {
		t.Errorf("restored RNG diverged: %d vs %d", got, want)
	}
}

func TestSave_ProducesValidJSON(t *testing.T) {
	defs := testDefs()
	data, err := Save(testKingdom(), defs, dice.NewRNG(1), nil)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !json.Valid(data) {
		t.Fatal("Save output is not valid JSON")
	}

	// Verify game metadata.
	var raw map[string]any
	json.Unmarshal(data, &raw)
	if raw["version"] != "1.0" {
		t.Errorf("expected version '1.0', got %v", raw["version"])
	}
	if raw["game"] != "Test Kingdom" {
		t.Errorf("expected game 'Test Kingdom', got %v", raw["game"])
	}
}

func TestLoad_MissingOptionalFields(t *testing.T) {
	// Minimal JSON: only a kingdom name.
	data := []byte(`{"version":"1.0","game":"Test","kingdom":{"name":"Bare"}}`)

	sd, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if sd.Kingdom.Resources == nil {
		t.Error("expected non-nil resources")
	}
	if sd.Kingdom.Settlements == nil {
		t.Error("expected non-nil settlements")
	}
	if sd.Kingdom.Ongoing == nil {
		t.Error("expected non-nil ongoing")
	}
	if sd.CommandLog == nil {
		t.Error("expected non-nil command_log")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load([]byte(`{"version":"1.0"}`)); !errors.Is(err, ErrNoKingdom) {
		t.Errorf("expected ErrNoKingdom, got %v", err)
	}
	if _, err := Load([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
