package interaction

import (
	"errors"
	"fmt"

	"github.com/nathoo/kingdomcore/types"
)

// ErrUnknownInteraction indicates a submission for an interaction that is
// not pending on this resolution.
var ErrUnknownInteraction = errors.New("unknown interaction")

// Requirement is an interaction whose condition held, with its count and
// title resolved.
type Requirement struct {
	Def   types.InteractionDef
	Count int
	Title string
}

// Evaluate resolves which interactions apply. A false condition or a zero
// count skips the interaction.
func (e *Evaluator) Evaluate(defs []types.InteractionDef, env Env) ([]Requirement, error) {
	var out []Requirement
	for _, d := range defs {
		ok, err := e.Bool(d.Condition, env)
		if err != nil {
			return nil, fmt.Errorf("interaction %s: %w", d.ID, err)
		}
		if !ok {
			continue
		}
		count := d.Count
		if d.CountExpr != "" {
			if count, err = e.Int(d.CountExpr, env); err != nil {
				return nil, fmt.Errorf("interaction %s: %w", d.ID, err)
			}
		}
		if count <= 0 {
			continue
		}
		title := d.Title
		if d.TitleExpr != "" {
			if title, err = e.String(d.TitleExpr, env); err != nil {
				return nil, fmt.Errorf("interaction %s: %w", d.ID, err)
			}
		}
		out = append(out, Requirement{Def: d, Count: count, Title: title})
	}
	return out, nil
}

// Rejection explains why a candidate was refused.
type Rejection struct {
	Candidate string
	Reason    string
}

// SubmitResult reports one batch of candidates.
type SubmitResult struct {
	Accepted  []string
	Rejected  []Rejection
	Satisfied bool
}

// Gate tracks accepted candidates per requirement.
type Gate struct {
	reqs     []Requirement
	accepted map[string][]string
}

// NewGate opens a gate over the given requirements.
func NewGate(reqs []Requirement) *Gate {
	return &Gate{reqs: reqs, accepted: make(map[string][]string)}
}

func (g *Gate) requirement(id string) (Requirement, bool) {
	for _, r := range g.reqs {
		if r.Def.ID == id {
			return r, true
		}
	}
	return Requirement{}, false
}

// Submit validates candidates in order against the set accepted so far.
// The kingdom is read only.
func (g *Gate) Submit(id string, candidates []string, k *types.Kingdom) (SubmitResult, error) {
	req, ok := g.requirement(id)
	if !ok {
		return SubmitResult{}, fmt.Errorf("%w: %s", ErrUnknownInteraction, id)
	}
	validate := Lookup(req.Def.Validator)
	var res SubmitResult
	for _, c := range candidates {
		have := g.accepted[id]
		switch {
		case len(have) >= req.Count:
			res.Rejected = append(res.Rejected, Rejection{c, "already satisfied"})
			continue
		case contains(have, c):
			res.Rejected = append(res.Rejected, Rejection{c, "already selected"})
			continue
		}
		if validate != nil {
			if r := validate(c, have, k, req.Def.Params); !r.Valid {
				res.Rejected = append(res.Rejected, Rejection{c, r.Message})
				continue
			}
		}
		g.accepted[id] = append(have, c)
		res.Accepted = append(res.Accepted, c)
	}
	res.Satisfied = len(g.accepted[id]) >= req.Count
	return res, nil
}

// Accepted returns the candidates accepted for an interaction.
func (g *Gate) Accepted(id string) []string {
	return append([]string(nil), g.accepted[id]...)
}

// Remaining returns how many more candidates an interaction needs.
func (g *Gate) Remaining(id string) int {
	req, ok := g.requirement(id)
	if !ok {
		return 0
	}
	return max(req.Count-len(g.accepted[id]), 0)
}

// Satisfied reports whether an interaction has all its candidates.
func (g *Gate) Satisfied(id string) bool {
	return g.Remaining(id) == 0
}

// Pending returns unsatisfied requirements in declaration order.
func (g *Gate) Pending() []Requirement {
	var out []Requirement
	for _, r := range g.reqs {
		if !g.Satisfied(r.Def.ID) {
			out = append(out, r)
		}
	}
	return out
}

// Requirements returns every requirement on the gate.
func (g *Gate) Requirements() []Requirement {
	return g.reqs
}

// Done reports whether every requirement is satisfied.
func (g *Gate) Done() bool {
	return len(g.Pending()) == 0
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
