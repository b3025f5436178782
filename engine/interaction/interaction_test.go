package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/kingdomcore/types"
)

func mapKingdom() *types.Kingdom {
	return &types.Kingdom{
		Resources: map[string]int{"gold": 4},
		Hexes: []types.Hex{
			{ID: "A1", Terrain: "plains", Claimed: true, Neighbors: []string{"A2", "B1"}},
			{ID: "A2", Terrain: "forest", Neighbors: []string{"A1", "A3"}},
			{ID: "A3", Terrain: "hills", Neighbors: []string{"A2"}},
			{ID: "B1", Terrain: "swamp", Claimed: true, Neighbors: []string{"A1"}},
			{ID: "C9", Terrain: "plains"},
		},
	}
}

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	ev, err := NewEvaluator()
	require.NoError(t, err)
	return ev
}

func TestEvaluate_ConditionCountTitle(t *testing.T) {
	ev := newEvaluator(t)
	defs := []types.InteractionDef{
		{
			ID:        "claim",
			Type:      "map-selection",
			CountExpr: `has(metadata.hexes) ? metadata.hexes : 0`,
			TitleExpr: `"Select " + string(metadata.hexes) + " hexes to claim"`,
			Condition: `outcome == "success" || outcome == "criticalSuccess"`,
			Validator: "claimable-hex",
		},
		{ID: "never", Count: 1, Condition: `approach == "ruthless"`},
		{ID: "zero", Count: 0},
	}
	env := Env{Outcome: "success", Approach: "fair", Metadata: map[string]int{"hexes": 2}}

	reqs, err := ev.Evaluate(defs, env)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, 2, reqs[0].Count)
	assert.Equal(t, "Select 2 hexes to claim", reqs[0].Title)

	env.Outcome = "failure"
	reqs, err = ev.Evaluate(defs, env)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestEvaluate_Errors(t *testing.T) {
	ev := newEvaluator(t)
	_, err := ev.Evaluate([]types.InteractionDef{{ID: "x", Condition: `outcome +`}}, Env{})
	assert.Error(t, err)
	_, err = ev.Evaluate([]types.InteractionDef{{ID: "x", Condition: `1`}}, Env{})
	assert.Error(t, err)
	assert.Error(t, ev.Check(`metadata.`))
	assert.NoError(t, ev.Check(`resources.gold > 2`))
}

func TestGate_CountTwoThenAlreadySatisfied(t *testing.T) {
	g := NewGate([]Requirement{{Def: types.InteractionDef{ID: "claim"}, Count: 2}})
	k := mapKingdom()

	res, err := g.Submit("claim", []string{"A2"}, k)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2"}, res.Accepted)
	assert.False(t, res.Satisfied)
	assert.False(t, g.Done())

	res, err = g.Submit("claim", []string{"A3", "C9"}, k)
	require.NoError(t, err)
	assert.Equal(t, []string{"A3"}, res.Accepted)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, Rejection{Candidate: "C9", Reason: "already satisfied"}, res.Rejected[0])
	assert.True(t, res.Satisfied)
	assert.True(t, g.Done())
	assert.Equal(t, []string{"A2", "A3"}, g.Accepted("claim"))
}

func TestGate_DuplicateAndUnknown(t *testing.T) {
	g := NewGate([]Requirement{{Def: types.InteractionDef{ID: "claim"}, Count: 3}})
	res, err := g.Submit("claim", []string{"A2", "A2"}, mapKingdom())
	require.NoError(t, err)
	assert.Equal(t, "already selected", res.Rejected[0].Reason)
	assert.Equal(t, 2, g.Remaining("claim"))

	_, err = g.Submit("missing", []string{"A2"}, mapKingdom())
	assert.ErrorIs(t, err, ErrUnknownInteraction)
}

func TestClaimableHex_AdjacencyIncludesBatch(t *testing.T) {
	g := NewGate([]Requirement{{Def: types.InteractionDef{ID: "claim", Validator: "claimable-hex"}, Count: 3}})
	k := mapKingdom()

	// A3 only borders A2, which is accepted earlier in the same batch.
	res, err := g.Submit("claim", []string{"A3", "A2", "A3", "A1", "C9", "Z9"}, k)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "A3"}, res.Accepted)

	reasons := map[string]string{}
	for _, r := range res.Rejected {
		reasons[r.Candidate] = r.Reason
	}
	assert.Contains(t, reasons["A1"], "already claimed")
	assert.Contains(t, reasons["C9"], "not adjacent")
	assert.Contains(t, reasons["Z9"], "does not exist")
	for _, r := range res.Rejected {
		assert.NotEmpty(t, r.Reason, "rejections always carry a reason")
	}
}

func TestClaimableHex_EmptyKingdomClaimsAnywhere(t *testing.T) {
	k := &types.Kingdom{Hexes: []types.Hex{{ID: "A1", Terrain: "plains"}}}
	assert.True(t, claimableHex("A1", nil, k, nil).Valid)
}

func TestWorksiteHex(t *testing.T) {
	k := mapKingdom()
	k.Hexes[0].Worksite = "farmland"
	tests := []struct {
		hex    string
		params map[string]any
		valid  bool
	}{
		{"A1", nil, false}, // has a worksite
		{"A2", nil, false}, // unclaimed
		{"B1", nil, false}, // swamp
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, worksiteHex(tt.hex, nil, k, tt.params).Valid, tt.hex)
	}

	k.Hexes[1].Claimed = true
	assert.True(t, worksiteHex("A2", nil, k, nil).Valid)
	assert.False(t, worksiteHex("A2", nil, k, map[string]any{"terrain": []any{"hills"}}).Valid)
}

func TestKnownValidators(t *testing.T) {
	assert.True(t, Known(""))
	assert.True(t, Known("claimable-hex"))
	assert.False(t, Known("teleport"))
	assert.Equal(t, []string{"claimable-hex", "worksite-hex"}, Names())
}
