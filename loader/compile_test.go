package loader

import (
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/kingdomcore/engine/commands"
	"github.com/nathoo/kingdomcore/types"
)

// newTestVM creates a sandboxed Lua VM with the API registered and a fresh collector.
func newTestVM() (*lua.LState, *collector) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	coll := &collector{seen: map[string]bool{}}
	registerAPI(L, coll, commands.DefaultRegistry())
	return L, coll
}

func TestCompileGame(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		return {
			title = "Test Kingdom",
			author = "Author",
			version = "1.0",
			intro = "Welcome!"
		}
	`); err != nil {
		t.Fatal(err)
	}

	game := compileGame(L.CheckTable(-1))
	if game.Title != "Test Kingdom" {
		t.Errorf("Title = %q, want %q", game.Title, "Test Kingdom")
	}
	if game.Author != "Author" {
		t.Errorf("Author = %q, want %q", game.Author, "Author")
	}
	if game.Version != "1.0" {
		t.Errorf("Version = %q, want %q", game.Version, "1.0")
	}
	if game.Intro != "Welcome!" {
		t.Errorf("Intro = %q, want %q", game.Intro, "Welcome!")
	}
}

func TestModifierHelpers(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		return {
			Static("gold", 2),
			Dice("unrest", "1d4", { negative = true }),
			ResourceChoice({ "lumber", "ore" }, 3),
			Ongoing(Static("food", 1, { negative = true }), 3),
		}
	`); err != nil {
		t.Fatal(err)
	}

	tables := arrayTables(L.CheckTable(-1))
	if len(tables) != 4 {
		t.Fatalf("expected 4 modifiers, got %d", len(tables))
	}
	tests := []types.Modifier{
		{Type: types.ModifierStatic, Resource: "gold", Value: 2},
		{Type: types.ModifierDice, Resource: "unrest", Formula: "1d4", Negative: true},
		{Type: types.ModifierChoice, Resources: []string{"lumber", "ore"}, Value: 3},
		{Type: types.ModifierStatic, Resource: "food", Value: 1, Negative: true, Duration: 3},
	}
	for i, want := range tests {
		got := compileModifier(tables[i])
		if got.Type != want.Type || got.Resource != want.Resource || got.Value != want.Value ||
			got.Formula != want.Formula || got.Negative != want.Negative || got.Duration != want.Duration ||
			len(got.Resources) != len(want.Resources) {
			t.Errorf("modifier %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestResourceChoice_RejectsBadMagnitude(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`return ResourceChoice({ "gold" }, true)`); err == nil {
		t.Error("expected error for boolean magnitude")
	}
}

func TestCommandHelpers(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		return {
			DamageStructure { count = "1d2", random = false },
			ClaimHex { hex = "B3" },
			Command("adjust_faction", { steps = 2 }),
			SpendPlayerAction(),
		}
	`); err != nil {
		t.Fatal(err)
	}

	reqs := compileCommands(L.CheckTable(-1))
	if len(reqs) != 4 {
		t.Fatalf("expected 4 requests, got %d", len(reqs))
	}
	if reqs[0].Type != commands.TypeDamageStructure || reqs[0].Params["count"] != "1d2" || reqs[0].Params["random"] != false {
		t.Errorf("damage request = %+v", reqs[0])
	}
	if reqs[1].Type != commands.TypeClaimHex || reqs[1].Params["hex"] != "B3" {
		t.Errorf("claim request = %+v", reqs[1])
	}
	if reqs[2].Type != commands.TypeAdjustFaction || reqs[2].Params["steps"] != 2 {
		t.Errorf("faction request = %+v", reqs[2])
	}
	if _, ok := reqs[2].Params["type"]; ok {
		t.Error("type must not leak into params")
	}
	if reqs[3].Type != commands.TypeSpendPlayerAction || len(reqs[3].Params) != 0 {
		t.Errorf("spend request = %+v", reqs[3])
	}
}

func TestHelperName(t *testing.T) {
	tests := map[string]string{
		"damage_structure":          "DamageStructure",
		"increase_settlement_level": "IncreaseSettlementLevel",
		"schedule":                  "Schedule",
	}
	for in, want := range tests {
		if got := helperName(in); got != want {
			t.Errorf("helperName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompilePipeline_UnknownDegree(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Event "odd" { outcomes = { greatSuccess = { description = "?" } } }
	`); err != nil {
		t.Fatal(err)
	}
	if _, err := compilePipeline(coll.pipelines[0]); err == nil {
		t.Error("expected error for unknown degree key")
	}
}

func TestCompilePipeline_Defaults(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Action "muster" {
			choice = { required = false, options = { Option "quick" {} } },
			interactions = { Interaction "pick" { count = 2 } },
		}
	`); err != nil {
		t.Fatal(err)
	}
	p, err := compilePipeline(coll.pipelines[0])
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "muster" {
		t.Errorf("name should default to the id, got %q", p.Name)
	}
	if p.Choice.Required {
		t.Error("expected optional choice")
	}
	if p.Choice.Options[0].Label != "quick" {
		t.Errorf("option label should default to the id, got %q", p.Choice.Options[0].Label)
	}
	if p.Interactions[0].Type != "map-selection" || p.Interactions[0].Count != 2 {
		t.Errorf("interaction = %+v", p.Interactions[0])
	}
}

func TestCompile_RequiresGame(t *testing.T) {
	if _, err := compile(&collector{}); err == nil {
		t.Error("expected error without a Game definition")
	}
}
