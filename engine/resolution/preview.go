package resolution

import (
	"fmt"

	"github.com/nathoo/kingdomcore/engine/commands"
	"github.com/nathoo/kingdomcore/engine/modifiers"
	"github.com/nathoo/kingdomcore/types"
)

// Preview computes the badges and warnings for the resolution without
// mutating anything. Staged commands and rolled magnitudes are frozen on
// the first call and reused on every later one.
func (h *Handle) Preview() (Preview, error) {
	switch h.state {
	case Rolled:
		if err := h.stage(); err != nil {
			return Preview{}, err
		}
		h.state = Previewed
	case Cancelled:
		return Preview{}, h.transitionError("preview")
	}
	return h.render(), nil
}

// stage takes the snapshot, freezes modifier rolls and prepares every
// command. Keys already staged are skipped, so a failed staging can be
// retried without re-rolling what succeeded.
func (h *Handle) stage() error {
	if h.snapshot == nil {
		if err := h.deps.Store.Exclusive(func() error {
			h.snapshot = h.deps.Store.Snapshot()
			return nil
		}); err != nil {
			return err
		}
	}

	out := h.outcome()
	if h.rolled == nil {
		rolled := make([]modifiers.Delta, 0, len(out.Modifiers))
		for i, m := range out.Modifiers {
			d, err := modifiers.Resolve(m, h.deps.Dice, "")
			if err != nil {
				return fmt.Errorf("outcome modifier %d: %w", i, err)
			}
			rolled = append(rolled, d)
		}
		h.rolled = rolled
	}

	h.warnings = nil
	if _, ok := h.Pipeline.Outcomes[h.Degree]; !ok {
		h.warnings = append(h.warnings, fmt.Sprintf("%s has no %s outcome", h.Pipeline.ID, h.Degree))
	}

	ctx := commands.Context{
		Outcome:  h.Degree,
		Approach: h.Approach,
		Kingdom:  h.snapshot,
		RNG:      h.deps.RNG,
		Dice:     h.deps.Dice,
	}
	if err := h.stagePlan("outcome", out.Commands, ctx); err != nil {
		return err
	}
	if err := h.stagePlan("plan", h.Pipeline.Plans[types.PlanKey{Degree: h.Degree}], ctx); err != nil {
		return err
	}

	if h.Pipeline.Choice == nil {
		return nil
	}
	if h.Approach == "" {
		h.warnings = append(h.warnings, "no approach selected: approach-specific effects were not staged")
		h.log.Warn("choice pipeline previewed without an approach")
		return nil
	}
	if _, ok := h.option(); !ok {
		h.warnings = append(h.warnings, fmt.Sprintf("unknown approach %q: approach-specific effects were not staged", h.Approach))
		h.log.Warn("choice pipeline previewed with an unknown approach", "approach", h.Approach)
		return nil
	}
	return h.stagePlan(h.Approach, h.Pipeline.Plans[types.PlanKey{Approach: h.Approach, Degree: h.Degree}], ctx)
}

func (h *Handle) stagePlan(scope string, plan []types.CommandRequest, ctx commands.Context) error {
	for i, req := range plan {
		key := fmt.Sprintf("%s/%s/%d:%s", scope, h.Degree, i, req.Type)
		if _, done := h.stagedKey[key]; done {
			continue
		}
		p, err := h.deps.Registry.Prepare(req, ctx)
		if err != nil {
			return fmt.Errorf("staging %s: %w", key, err)
		}
		h.stagedKey[key] = len(h.staged)
		h.staged = append(h.staged, Staged{Key: key, Command: p})
		if p == nil {
			h.log.Debug("command inapplicable", "key", key)
		}
	}
	return nil
}

// render assembles badges: the approach's static badges on a choice
// pipeline (modifier badges when it has none), then each staged command's
// badges in staging order.
func (h *Handle) render() Preview {
	var pv Preview
	if opt, ok := h.option(); ok && len(opt.OutcomeBadges[h.Degree]) > 0 {
		pv.Badges = append(pv.Badges, opt.OutcomeBadges[h.Degree]...)
	} else {
		for i, m := range h.outcome().Modifiers {
			pv.Badges = append(pv.Badges, h.modifierBadge(i, m))
		}
	}
	for _, st := range h.staged {
		if st.Command != nil {
			pv.Badges = append(pv.Badges, st.Command.Badges...)
		}
	}
	pv.Warnings = append(pv.Warnings, h.warnings...)
	for i, m := range h.outcome().Modifiers {
		if modifiers.IsChoice(m) && h.choices[i] == "" && len(m.Resources) > 0 {
			pv.Warnings = append(pv.Warnings,
				fmt.Sprintf("modifier %d: choose %s (defaults to %s)", i+1, joinResources(m.Resources), modifiers.DisplayResource(m.Resources[0])))
		}
	}
	return pv
}

// modifierBadge shows the magnitude frozen at staging for immediate
// modifiers. Ongoing ones re-roll every tick, so they keep the formula.
func (h *Handle) modifierBadge(i int, m types.Modifier) types.Badge {
	m = h.chosenModifier(i, m)
	if m.Duration > 0 || m.Formula == "" || i >= len(h.rolled) {
		return modifiers.Badge(m)
	}
	return modifiers.RolledBadge(m, h.rolled[i])
}

// chosenModifier narrows a choice modifier to the picked resource.
func (h *Handle) chosenModifier(i int, m types.Modifier) types.Modifier {
	if !modifiers.IsChoice(m) || h.choices[i] == "" {
		return m
	}
	m.Resource = h.choices[i]
	m.Resources = nil
	if m.Formula != "" {
		m.Type = types.ModifierDice
	} else {
		m.Type = types.ModifierStatic
	}
	return m
}

// SetChoice picks the resource for the index-th outcome modifier.
func (h *Handle) SetChoice(index int, resource string) error {
	if h.state != Rolled && h.state != Previewed {
		return h.transitionError("choose")
	}
	mods := h.outcome().Modifiers
	if index < 0 || index >= len(mods) {
		return fmt.Errorf("%w: no modifier %d", ErrBadChoice, index+1)
	}
	m := mods[index]
	if !modifiers.IsChoice(m) {
		return fmt.Errorf("%w: modifier %d is not a choice", ErrBadChoice, index+1)
	}
	for _, r := range m.Resources {
		if r == resource {
			h.choices[index] = resource
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not one of %s", ErrBadChoice, resource, joinResources(m.Resources))
}

// Cancel discards the staged commands. Only allowed before confirmation.
func (h *Handle) Cancel() error {
	if h.state != Rolled && h.state != Previewed {
		return h.transitionError("cancel")
	}
	h.staged = nil
	h.stagedKey = map[string]int{}
	h.snapshot = nil
	h.rolled = nil
	h.state = Cancelled
	h.log.Debug("resolution cancelled")
	return nil
}

func joinResources(rs []string) string {
	out := ""
	for i, r := range rs {
		if i > 0 {
			out += " or "
		}
		out += modifiers.DisplayResource(r)
	}
	return out
}
