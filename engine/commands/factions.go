package commands

import (
	"fmt"

	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// ShiftAttitude moves an attitude by steps, clamped to the scale.
func ShiftAttitude(a types.Attitude, steps int) types.Attitude {
	i := state.AttitudeIndex(a)
	if i < 0 {
		i = state.AttitudeIndex(types.Indifferent)
	}
	i += steps
	if i < 0 {
		i = 0
	}
	if last := len(types.AttitudeScale) - 1; i > last {
		i = last
	}
	return types.AttitudeScale[i]
}

func prepareAdjustFaction(req types.CommandRequest, ctx Context) (*Prepared, error) {
	steps := intParam(req, "steps", 1)
	if steps == 0 {
		return nil, nil
	}
	want := stringParam(req, "faction")
	var eligible []types.Faction
	for _, f := range ctx.Kingdom.Factions {
		if want != "" && f.ID != want {
			continue
		}
		if ShiftAttitude(f.Attitude, steps) == f.Attitude {
			continue
		}
		eligible = append(eligible, f)
	}
	if len(eligible) == 0 {
		return nil, nil
	}
	f := eligible[pickN(ctx.RNG, len(eligible), 1, boolParam(req, "random", true))[0]]
	next := ShiftAttitude(f.Attitude, steps)
	variant := "positive"
	if steps < 0 {
		variant = "negative"
	}
	p := NewPrepared(req.Type, func(s *state.Store) error {
		live, err := s.Faction(f.ID)
		if err != nil {
			return err
		}
		live.Attitude = next
		return nil
	}, types.Badge{
		Icon:    "handshake",
		Text:    fmt.Sprintf("%s: %s → %s", f.Name, f.Attitude, next),
		Variant: variant,
	})
	p.Metadata["faction"] = f.ID
	return p, nil
}
