package commands

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/kingdomcore/engine/dice"
	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

func fixtureKingdom() *types.Kingdom {
	return &types.Kingdom{
		Name:      "Stolen Lands",
		Turn:      1,
		Resources: map[string]int{"gold": 10, "unrest": 6},
		Settlements: []types.Settlement{
			{
				ID: "anvilgate", Name: "Anvilgate", Level: 3, PrisonCapacity: 3, Imprisoned: 1,
				Structures: []types.Structure{
					{ID: "jail", Name: "Jail", Tier: 1},
					{ID: "market", Name: "Market", Tier: 1},
				},
			},
			{
				ID: "oldport", Name: "Oldport", Level: 1, PrisonCapacity: 2, Imprisoned: 0,
				Structures: []types.Structure{{ID: "docks", Name: "Docks", Tier: 1, Damaged: true}},
			},
		},
		Factions: []types.Faction{
			{ID: "swordlords", Name: "Swordlords", Attitude: types.Helpful},
			{ID: "river-kings", Name: "River Kings", Attitude: types.Unfriendly},
		},
		Armies:  []types.Army{{ID: "first", Name: "First Legion"}},
		Players: []types.Player{{ID: "p1", Name: "Amiri", ActionSpent: true}, {ID: "p2", Name: "Ezren"}},
		Hexes: []types.Hex{
			{ID: "A1", Terrain: "plains", Claimed: true},
			{ID: "A2", Terrain: "forest", Claimed: true, Worksite: "lumber camp"},
			{ID: "B1", Terrain: "hills"},
		},
	}
}

func testContext(k *types.Kingdom) Context {
	rng := dice.NewRNG(42)
	return Context{
		Outcome:  types.CriticalFailure,
		Approach: "ruthless",
		Kingdom:  state.Clone(k),
		RNG:      rng,
		Dice:     dice.Roller{RNG: rng},
	}
}

func req(typ string, params map[string]any) types.CommandRequest {
	return types.CommandRequest{Type: typ, Params: params}
}

func TestConvertUnrest_CapacityBound(t *testing.T) {
	conv := ConvertUnrest(4, 10, []types.Settlement{
		{ID: "a", Name: "Anvilgate", PrisonCapacity: 3, Imprisoned: 1},
		{ID: "b", Name: "Oldport", PrisonCapacity: 2, Imprisoned: 2},
	})
	assert.Equal(t, 2, conv.TotalCapacity)
	assert.Equal(t, 2, conv.Converted)
	require.Len(t, conv.Allocations, 1)
	assert.Equal(t, Allocation{SettlementID: "a", SettlementName: "Anvilgate", Amount: 2}, conv.Allocations[0])
}

func TestConvertUnrest_GreedyAcrossSettlements(t *testing.T) {
	conv := ConvertUnrest(4, 10, []types.Settlement{
		{ID: "a", Name: "Anvilgate", PrisonCapacity: 3, Imprisoned: 0},
		{ID: "b", Name: "Oldport", PrisonCapacity: 2, Imprisoned: 0},
	})
	assert.Equal(t, 4, conv.Converted)
	assert.Equal(t, "3 in Anvilgate, 1 in Oldport", conv.Describe())
}

func TestConvertUnrest_DegenerateCases(t *testing.T) {
	full := []types.Settlement{{ID: "a", PrisonCapacity: 2, Imprisoned: 2}}

	conv := ConvertUnrest(3, 5, full)
	assert.True(t, conv.NoCapacity)
	assert.Zero(t, conv.Converted)

	conv = ConvertUnrest(3, 0, full)
	assert.True(t, conv.NothingToImprison, "zero unrest wins regardless of capacity")
	assert.False(t, conv.NoCapacity)

	conv = ConvertUnrest(10, 1, []types.Settlement{{ID: "a", PrisonCapacity: 5}})
	assert.Equal(t, 1, conv.Converted, "bounded by current unrest")
}

func TestImprisonUnrest_PrepareDoesNotMutate(t *testing.T) {
	k := fixtureKingdom()
	store := state.NewStore(k)
	ctx := testContext(k)

	p, err := DefaultRegistry().Prepare(req(TypeImprisonUnrest, map[string]any{"amount": 3}), ctx)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 6, store.Resource("unrest"), "prepare must not mutate")
	require.Len(t, p.Badges, 1)
	assert.Equal(t, "Imprison 3 unrest (2 in Anvilgate, 1 in Oldport)", p.Badges[0].Text)

	require.NoError(t, p.Commit(store))
	assert.Equal(t, 3, store.Resource("unrest"))
	a, _ := store.Settlement("anvilgate")
	o, _ := store.Settlement("oldport")
	assert.Equal(t, 3, a.Imprisoned)
	assert.Equal(t, 1, o.Imprisoned)
}

func TestImprisonUnrest_FrozenAllocation(t *testing.T) {
	k := fixtureKingdom()
	store := state.NewStore(k)
	p, err := prepareImprisonUnrest(req(TypeImprisonUnrest, map[string]any{"amount": 2}), testContext(k))
	require.NoError(t, err)

	// Live state changes between preview and commit; the frozen plan is reused.
	o, _ := store.Settlement("oldport")
	o.PrisonCapacity = 10
	require.NoError(t, p.Commit(store))

	a, _ := store.Settlement("anvilgate")
	assert.Equal(t, 3, a.Imprisoned)
	assert.Equal(t, 0, o.Imprisoned)
}

func TestImprisonUnrest_NoPrisonsBadge(t *testing.T) {
	k := fixtureKingdom()
	for i := range k.Settlements {
		k.Settlements[i].PrisonCapacity = k.Settlements[i].Imprisoned
	}
	p, err := prepareImprisonUnrest(req(TypeImprisonUnrest, nil), testContext(k))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, types.Badge{Icon: "lock", Text: "No prisons available", Variant: "neutral"}, p.Badges[0])

	store := state.NewStore(k)
	require.NoError(t, p.Commit(store))
	assert.Equal(t, 6, store.Resource("unrest"))
}

func TestAdjustFaction_AtMaximumIsNil(t *testing.T) {
	k := fixtureKingdom()
	p, err := prepareAdjustFaction(req(TypeAdjustFaction, map[string]any{"faction": "swordlords", "steps": 1}), testContext(k))
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestAdjustFaction_FiltersIneligibleAndClamps(t *testing.T) {
	k := fixtureKingdom()
	store := state.NewStore(k)
	p, err := prepareAdjustFaction(req(TypeAdjustFaction, map[string]any{"steps": 5}), testContext(k))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "river-kings", p.Metadata["faction"])
	assert.Equal(t, "River Kings: unfriendly → helpful", p.Badges[0].Text)

	require.NoError(t, p.Commit(store))
	f, _ := store.Faction("river-kings")
	assert.Equal(t, types.Helpful, f.Attitude)
}

func TestShiftAttitude(t *testing.T) {
	assert.Equal(t, types.Hostile, ShiftAttitude(types.Unfriendly, -4))
	assert.Equal(t, types.Friendly, ShiftAttitude(types.Indifferent, 1))
	assert.Equal(t, types.Helpful, ShiftAttitude(types.Helpful, 1))
}

func TestDamageStructure_SkipsDamaged(t *testing.T) {
	k := fixtureKingdom()
	store := state.NewStore(k)
	p, err := prepareDamageStructure(req(TypeDamageStructure, map[string]any{"count": 5}), testContext(k))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Len(t, p.Badges, 2, "only the two undamaged structures are eligible")
	assert.ElementsMatch(t, []string{"jail", "market"}, p.Metadata["structures"])

	require.NoError(t, p.Commit(store))
	for _, id := range []string{"jail", "market"} {
		s, _ := store.Structure("anvilgate", id)
		assert.True(t, s.Damaged, id)
	}
}

func TestDamageStructure_NoneEligible(t *testing.T) {
	k := fixtureKingdom()
	p, err := prepareDamageStructure(req(TypeDamageStructure, map[string]any{"settlement": "oldport"}), testContext(k))
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestDamageStructure_DiceCount(t *testing.T) {
	k := fixtureKingdom()
	ctx := testContext(k)
	ctx.Dice = dice.Fixed{Values: map[string]int{"1d2": 1}}
	p, err := prepareDamageStructure(req(TypeDamageStructure, map[string]any{"count": "1d2", "random": false}), ctx)
	require.NoError(t, err)
	require.Len(t, p.Badges, 1)
	assert.Equal(t, "Jail in Anvilgate is damaged (rolled 1d2 = 1)", p.Badges[0].Text)
}

func TestDestroyStructure(t *testing.T) {
	k := fixtureKingdom()
	store := state.NewStore(k)
	p, err := prepareDestroyStructure(req(TypeDestroyStructure, map[string]any{"settlement": "oldport"}), testContext(k))
	require.NoError(t, err)
	require.NoError(t, p.Commit(store))
	o, _ := store.Settlement("oldport")
	assert.Empty(t, o.Structures)
}

func TestGrantStructure_SkipsExisting(t *testing.T) {
	k := fixtureKingdom()
	p, err := prepareGrantStructure(req(TypeGrantStructure, map[string]any{"structure": "Jail", "settlement": "anvilgate"}), testContext(k))
	require.NoError(t, err)
	assert.Nil(t, p)

	store := state.NewStore(k)
	p, err = prepareGrantStructure(req(TypeGrantStructure, map[string]any{"structure": "Town Hall", "settlement": "oldport"}), testContext(k))
	require.NoError(t, err)
	require.NoError(t, p.Commit(store))
	s, err := store.Structure("oldport", "town-hall")
	require.NoError(t, err)
	assert.Equal(t, "Town Hall", s.Name)
}

func TestGrantStructure_RequiresName(t *testing.T) {
	_, err := prepareGrantStructure(req(TypeGrantStructure, nil), testContext(fixtureKingdom()))
	var pe *ParamError
	assert.ErrorAs(t, err, &pe)
}

func TestIncreaseSettlementLevel(t *testing.T) {
	k := fixtureKingdom()
	store := state.NewStore(k)
	p, err := prepareIncreaseSettlementLevel(req(TypeIncreaseSettlementLevel, map[string]any{"settlement": "oldport"}), testContext(k))
	require.NoError(t, err)
	require.NoError(t, p.Commit(store))
	o, _ := store.Settlement("oldport")
	assert.Equal(t, 2, o.Level)
}

func TestWorksitesAndHexes(t *testing.T) {
	k := fixtureKingdom()
	store := state.NewStore(k)
	ctx := testContext(k)

	p, err := prepareCreateWorksite(req(TypeCreateWorksite, map[string]any{"hex": "A1"}), ctx)
	require.NoError(t, err)
	require.NoError(t, p.Commit(store))
	h, _ := store.Hex("A1")
	assert.Equal(t, "farmland", h.Worksite)

	p, err = prepareCreateWorksite(req(TypeCreateWorksite, map[string]any{"hex": "B1"}), ctx)
	require.NoError(t, err)
	assert.Nil(t, p, "unclaimed hex cannot take a worksite")

	p, err = prepareClaimHex(req(TypeClaimHex, map[string]any{"hex": "B1"}), ctx)
	require.NoError(t, err)
	require.NoError(t, p.Commit(store))
	h, _ = store.Hex("B1")
	assert.True(t, h.Claimed)

	p, err = prepareDestroyWorksite(req(TypeDestroyWorksite, nil), ctx)
	require.NoError(t, err)
	require.NoError(t, p.Commit(store))
	h, _ = store.Hex("A2")
	assert.Empty(t, h.Worksite)
}

func TestArmyCondition_KeepsLongerDuration(t *testing.T) {
	k := fixtureKingdom()
	k.Armies[0].Conditions = map[string]int{"fatigued": 3}
	store := state.NewStore(k)
	p, err := prepareArmyCondition(req(TypeArmyCondition, map[string]any{"condition": "fatigued", "turns": 1}), testContext(k))
	require.NoError(t, err)
	require.NoError(t, p.Commit(store))
	a, _ := store.Army("first")
	assert.Equal(t, 3, a.Conditions["fatigued"])
}

func TestSpendPlayerAction_OnlyUnspent(t *testing.T) {
	k := fixtureKingdom()
	store := state.NewStore(k)
	p, err := prepareSpendPlayerAction(req(TypeSpendPlayerAction, nil), testContext(k))
	require.NoError(t, err)
	assert.Equal(t, "p2", p.Metadata["player"])
	require.NoError(t, p.Commit(store))
	pl, _ := store.Player("p2")
	assert.True(t, pl.ActionSpent)

	k.Players[1].ActionSpent = true
	p, err = prepareSpendPlayerAction(req(TypeSpendPlayerAction, nil), testContext(k))
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSchedule(t *testing.T) {
	p, err := prepareSchedule(req(TypeSchedule, map[string]any{"key": "hexes", "count": 2, "label": "Claim {n} hexes"}), testContext(fixtureKingdom()))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hexes": 2}, p.Schedule)
	assert.Equal(t, "Claim 2 hexes", p.Badges[0].Text)

	for label, want := range map[string]string{
		"Claim hexes":        "Claim hexes",
		"100% of {n} hexes":  "100% of 3 hexes",
		"{n} now, {n} later": "3 now, 3 later",
	} {
		p, err := prepareSchedule(req(TypeSchedule, map[string]any{"key": "hexes", "count": 3, "label": label}), testContext(fixtureKingdom()))
		require.NoError(t, err)
		assert.Equal(t, want, p.Badges[0].Text, label)
	}
}

func TestPrepared_CommitOnce(t *testing.T) {
	calls := 0
	p := NewPrepared("x", func(*state.Store) error { calls++; return nil })
	store := state.NewStore(fixtureKingdom())
	require.NoError(t, p.Commit(store))
	assert.ErrorIs(t, p.Commit(store), ErrAlreadyCommitted)
	assert.Equal(t, 1, calls)
	assert.True(t, p.Committed())
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.True(t, r.Has(TypeClaimHex))
	assert.Len(t, r.Types(), 13)

	_, err := r.Prepare(types.CommandRequest{}, Context{})
	assert.ErrorIs(t, err, ErrTypeRequired)
	_, err = r.Prepare(types.CommandRequest{Type: "summon_dragon"}, Context{})
	assert.ErrorIs(t, err, ErrTypeUnknown)

	assert.Error(t, r.Register(TypeClaimHex, HandlerFunc(prepareClaimHex)))
	assert.ErrorIs(t, r.Register(" ", HandlerFunc(prepareClaimHex)), ErrTypeRequired)

	boom := errors.New("boom")
	require.NoError(t, r.Register("custom", HandlerFunc(func(types.CommandRequest, Context) (*Prepared, error) {
		return nil, boom
	})))
	_, err = r.Prepare(types.CommandRequest{Type: "custom"}, Context{})
	assert.ErrorIs(t, err, boom)
}

func TestPickN_Deterministic(t *testing.T) {
	a := pickN(dice.NewRNG(7), 10, 3, true)
	b := pickN(dice.NewRNG(7), 10, 3, true)
	assert.Equal(t, a, b)
	assert.Equal(t, []int{0, 1}, pickN(nil, 2, 5, true))
}
