package commands

import (
	"fmt"
	"strings"

	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// structureRef freezes a chosen structure target.
type structureRef struct {
	SettlementID   string
	SettlementName string
	StructureID    string
	StructureName  string
}

// eligibleStructures lists structures in listed order, optionally limited to
// one settlement and filtered by keep.
func eligibleStructures(k *types.Kingdom, settlementID string, keep func(types.Structure) bool) []structureRef {
	var out []structureRef
	for _, st := range k.Settlements {
		if settlementID != "" && st.ID != settlementID {
			continue
		}
		for _, s := range st.Structures {
			if keep(s) {
				out = append(out, structureRef{st.ID, st.Name, s.ID, s.Name})
			}
		}
	}
	return out
}

func chooseStructures(req types.CommandRequest, ctx Context, keep func(types.Structure) bool) ([]structureRef, string, error) {
	count, formula, err := countParam(req, ctx, "count", 1)
	if err != nil {
		return nil, "", err
	}
	if count <= 0 {
		return nil, formula, nil
	}
	eligible := eligibleStructures(ctx.Kingdom, stringParam(req, "settlement"), keep)
	if len(eligible) == 0 {
		return nil, formula, nil
	}
	var chosen []structureRef
	for _, i := range pickN(ctx.RNG, len(eligible), count, boolParam(req, "random", true)) {
		chosen = append(chosen, eligible[i])
	}
	return chosen, rolledSuffix(formula, count), nil
}

func prepareDamageStructure(req types.CommandRequest, ctx Context) (*Prepared, error) {
	targets, suffix, err := chooseStructures(req, ctx, func(s types.Structure) bool { return !s.Damaged })
	if err != nil || len(targets) == 0 {
		return nil, err
	}
	p := NewPrepared(req.Type, func(s *state.Store) error {
		for _, t := range targets {
			st, err := s.Structure(t.SettlementID, t.StructureID)
			if err != nil {
				return err
			}
			st.Damaged = true
		}
		return nil
	})
	var ids []string
	for _, t := range targets {
		p.Badges = append(p.Badges, types.Badge{
			Icon:    "hammer",
			Text:    fmt.Sprintf("%s in %s is damaged%s", t.StructureName, t.SettlementName, suffix),
			Variant: "negative",
		})
		ids = append(ids, t.StructureID)
	}
	p.Metadata["structures"] = ids
	return p, nil
}

func prepareDestroyStructure(req types.CommandRequest, ctx Context) (*Prepared, error) {
	targets, suffix, err := chooseStructures(req, ctx, func(types.Structure) bool { return true })
	if err != nil || len(targets) == 0 {
		return nil, err
	}
	p := NewPrepared(req.Type, func(s *state.Store) error {
		for _, t := range targets {
			if err := s.RemoveStructure(t.SettlementID, t.StructureID); err != nil {
				return err
			}
		}
		return nil
	})
	var ids []string
	for _, t := range targets {
		p.Badges = append(p.Badges, types.Badge{
			Icon:    "fire",
			Text:    fmt.Sprintf("%s in %s is destroyed%s", t.StructureName, t.SettlementName, suffix),
			Variant: "negative",
		})
		ids = append(ids, t.StructureID)
	}
	p.Metadata["structures"] = ids
	return p, nil
}

// chooseSettlement returns the named settlement or a random one.
func chooseSettlement(req types.CommandRequest, ctx Context, keep func(types.Settlement) bool) (types.Settlement, bool) {
	want := stringParam(req, "settlement")
	var eligible []types.Settlement
	for _, st := range ctx.Kingdom.Settlements {
		if want != "" && st.ID != want {
			continue
		}
		if keep(st) {
			eligible = append(eligible, st)
		}
	}
	if len(eligible) == 0 {
		return types.Settlement{}, false
	}
	idx := pickN(ctx.RNG, len(eligible), 1, boolParam(req, "random", true))
	return eligible[idx[0]], true
}

func prepareGrantStructure(req types.CommandRequest, ctx Context) (*Prepared, error) {
	name := stringParam(req, "structure")
	if name == "" {
		return nil, &ParamError{Type: req.Type, Param: "structure", Msg: "is required"}
	}
	id := slug(name)
	target, ok := chooseSettlement(req, ctx, func(st types.Settlement) bool {
		for _, s := range st.Structures {
			if s.ID == id {
				return false
			}
		}
		return true
	})
	if !ok {
		return nil, nil
	}
	built := types.Structure{ID: id, Name: name, Tier: intParam(req, "tier", 1)}
	p := NewPrepared(req.Type, func(s *state.Store) error {
		st, err := s.Settlement(target.ID)
		if err != nil {
			return err
		}
		st.Structures = append(st.Structures, built)
		return nil
	}, types.Badge{
		Icon:    "building",
		Text:    fmt.Sprintf("%s gains a %s", target.Name, name),
		Variant: "positive",
	})
	p.Metadata["settlement"] = target.ID
	return p, nil
}

func prepareIncreaseSettlementLevel(req types.CommandRequest, ctx Context) (*Prepared, error) {
	amount := intParam(req, "amount", 1)
	maxLevel := intParam(req, "max_level", 20)
	target, ok := chooseSettlement(req, ctx, func(st types.Settlement) bool { return st.Level < maxLevel })
	if !ok || amount <= 0 {
		return nil, nil
	}
	next := target.Level + amount
	if next > maxLevel {
		next = maxLevel
	}
	p := NewPrepared(req.Type, func(s *state.Store) error {
		st, err := s.Settlement(target.ID)
		if err != nil {
			return err
		}
		st.Level = next
		return nil
	}, types.Badge{
		Icon:    "arrow-up",
		Text:    fmt.Sprintf("%s grows to level %d", target.Name, next),
		Variant: "positive",
	})
	p.Metadata["settlement"] = target.ID
	return p, nil
}

// slug turns "Town Hall" into "town-hall".
func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
