package resolution

import (
	"github.com/nathoo/kingdomcore/engine/modifiers"
	"github.com/nathoo/kingdomcore/types"
)

// PossibleOutcome is the pre-roll preview for one degree of success.
type PossibleOutcome struct {
	Degree      types.Degree
	Description string
	Badges      []types.Badge
	EndsEvent   bool
}

// PossibleOutcomes lists what each degree would do, best first. On a choice
// pipeline with a known approach the option's descriptions and badges win;
// otherwise the outcome's static badges, falling back to modifier badges.
func PossibleOutcomes(p types.Pipeline, approach string) []PossibleOutcome {
	var opt *types.Option
	if p.Choice != nil {
		for i := range p.Choice.Options {
			if p.Choice.Options[i].ID == approach {
				opt = &p.Choice.Options[i]
			}
		}
	}
	var out []PossibleOutcome
	for _, d := range types.Degrees {
		def, ok := p.Outcomes[d]
		if !ok {
			continue
		}
		po := PossibleOutcome{Degree: d, Description: def.Description, EndsEvent: def.EndsEvent}
		switch {
		case opt != nil && len(opt.OutcomeBadges[d]) > 0:
			po.Badges = opt.OutcomeBadges[d]
		case len(def.Badges) > 0:
			po.Badges = def.Badges
		default:
			for _, m := range def.Modifiers {
				po.Badges = append(po.Badges, modifiers.Badge(m))
			}
		}
		if opt != nil && opt.OutcomeDescriptions[d] != "" {
			po.Description = opt.OutcomeDescriptions[d]
		}
		out = append(out, po)
	}
	return out
}
