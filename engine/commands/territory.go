package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// defaultWorksites maps terrain to the worksite it supports.
var defaultWorksites = map[string]string{
	"plains":    "farmland",
	"forest":    "lumber camp",
	"hills":     "mine",
	"mountains": "quarry",
	"swamp":     "",
	"water":     "",
}

// WorksiteFor returns the worksite a terrain supports, or "".
func WorksiteFor(terrain string) string {
	return defaultWorksites[terrain]
}

func prepareDestroyWorksite(req types.CommandRequest, ctx Context) (*Prepared, error) {
	count, formula, err := countParam(req, ctx, "count", 1)
	if err != nil || count <= 0 {
		return nil, err
	}
	var eligible []types.Hex
	for _, h := range ctx.Kingdom.Hexes {
		if h.Worksite != "" {
			eligible = append(eligible, h)
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}
	var targets []types.Hex
	for _, i := range pickN(ctx.RNG, len(eligible), count, boolParam(req, "random", true)) {
		targets = append(targets, eligible[i])
	}
	p := NewPrepared(req.Type, func(s *state.Store) error {
		for _, t := range targets {
			h, err := s.Hex(t.ID)
			if err != nil {
				return err
			}
			h.Worksite = ""
		}
		return nil
	})
	var ids []string
	for _, t := range targets {
		p.Badges = append(p.Badges, types.Badge{
			Icon:    "pickaxe",
			Text:    fmt.Sprintf("The %s in hex %s is lost%s", t.Worksite, t.ID, rolledSuffix(formula, count)),
			Variant: "negative",
		})
		ids = append(ids, t.ID)
	}
	p.Metadata["hexes"] = ids
	return p, nil
}

func prepareCreateWorksite(req types.CommandRequest, ctx Context) (*Prepared, error) {
	id := stringParam(req, "hex")
	if id == "" {
		return nil, &ParamError{Type: req.Type, Param: "hex", Msg: "is required"}
	}
	h, ok := state.FindHex(ctx.Kingdom, id)
	if !ok || !h.Claimed || h.Worksite != "" {
		return nil, nil
	}
	site := stringParam(req, "worksite")
	if site == "" {
		site = WorksiteFor(h.Terrain)
	}
	if site == "" {
		return nil, nil
	}
	p := NewPrepared(req.Type, func(s *state.Store) error {
		live, err := s.Hex(id)
		if err != nil {
			return err
		}
		live.Worksite = site
		return nil
	}, types.Badge{
		Icon:    "pickaxe",
		Text:    fmt.Sprintf("A %s is built in hex %s", site, id),
		Variant: "positive",
	})
	p.Metadata["hexes"] = []string{id}
	return p, nil
}

func prepareClaimHex(req types.CommandRequest, ctx Context) (*Prepared, error) {
	id := stringParam(req, "hex")
	if id == "" {
		return nil, &ParamError{Type: req.Type, Param: "hex", Msg: "is required"}
	}
	h, ok := state.FindHex(ctx.Kingdom, id)
	if !ok || h.Claimed {
		return nil, nil
	}
	p := NewPrepared(req.Type, func(s *state.Store) error {
		live, err := s.Hex(id)
		if err != nil {
			return err
		}
		live.Claimed = true
		return nil
	}, types.Badge{
		Icon:    "flag",
		Text:    fmt.Sprintf("Hex %s (%s) is claimed", id, h.Terrain),
		Variant: "positive",
	})
	p.Metadata["hexes"] = []string{id}
	return p, nil
}

func prepareArmyCondition(req types.CommandRequest, ctx Context) (*Prepared, error) {
	cond := stringParam(req, "condition")
	if cond == "" {
		return nil, &ParamError{Type: req.Type, Param: "condition", Msg: "is required"}
	}
	turns, formula, err := countParam(req, ctx, "turns", 1)
	if err != nil || turns <= 0 || len(ctx.Kingdom.Armies) == 0 {
		return nil, err
	}
	army := ctx.Kingdom.Armies[pickN(ctx.RNG, len(ctx.Kingdom.Armies), 1, true)[0]]
	p := NewPrepared(req.Type, func(s *state.Store) error {
		a, err := s.Army(army.ID)
		if err != nil {
			return err
		}
		if a.Conditions == nil {
			a.Conditions = map[string]int{}
		}
		if a.Conditions[cond] < turns {
			a.Conditions[cond] = turns
		}
		return nil
	}, types.Badge{
		Icon:    "shield",
		Text:    fmt.Sprintf("%s is %s for %d turns%s", army.Name, cond, turns, rolledSuffix(formula, turns)),
		Variant: "negative",
	})
	p.Metadata["army"] = army.ID
	return p, nil
}

func prepareSpendPlayerAction(req types.CommandRequest, ctx Context) (*Prepared, error) {
	var eligible []types.Player
	for _, pl := range ctx.Kingdom.Players {
		if !pl.ActionSpent {
			eligible = append(eligible, pl)
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}
	who := eligible[pickN(ctx.RNG, len(eligible), 1, true)[0]]
	p := NewPrepared(req.Type, func(s *state.Store) error {
		pl, err := s.Player(who.ID)
		if err != nil {
			return err
		}
		pl.ActionSpent = true
		return nil
	}, types.Badge{
		Icon:    "hourglass",
		Text:    fmt.Sprintf("%s loses their action this turn", who.Name),
		Variant: "negative",
	})
	p.Metadata["player"] = who.ID
	return p, nil
}

// prepareSchedule records plain scheduling data (for example how many hexes
// a later interaction should ask for). It mutates nothing on commit. A
// label's "{n}" is replaced by the scheduled count.
func prepareSchedule(req types.CommandRequest, ctx Context) (*Prepared, error) {
	key := stringParam(req, "key")
	if key == "" {
		return nil, &ParamError{Type: req.Type, Param: "key", Msg: "is required"}
	}
	n, formula, err := countParam(req, ctx, "count", 1)
	if err != nil || n <= 0 {
		return nil, err
	}
	p := NewPrepared(req.Type, nil)
	p.Schedule = map[string]int{key: n}
	if label := stringParam(req, "label"); label != "" {
		p.Badges = append(p.Badges, types.Badge{
			Icon:    "map",
			Text:    strings.ReplaceAll(label, "{n}", strconv.Itoa(n)) + rolledSuffix(formula, n),
			Variant: "positive",
		})
	}
	return p, nil
}
