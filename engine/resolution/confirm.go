package resolution

import (
	"context"
	"fmt"

	"github.com/samber/oops"

	"github.com/nathoo/kingdomcore/engine/interaction"
	"github.com/nathoo/kingdomcore/engine/journal"
	"github.com/nathoo/kingdomcore/engine/modifiers"
	"github.com/nathoo/kingdomcore/types"
)

// Confirm applies the outcome: immediate modifiers first, then ongoing
// modifiers are registered, then every staged command commits in staging
// order. A commit error stops the batch; earlier commits stay applied and
// the handle remains Confirmed with the error retained.
func (h *Handle) Confirm(ctx context.Context) error {
	if h.state != Previewed {
		return h.transitionError("confirm")
	}
	return h.deps.Store.Exclusive(func() error {
		h.logJournal(h.deps.Journal.Begin(ctx, journal.Entry{
			ID:       h.ID,
			Pipeline: h.Pipeline.ID,
			Degree:   string(h.Degree),
			Approach: h.Approach,
			Turn:     h.deps.Store.Kingdom().Turn,
		}))

		h.state = Confirmed
		if err := h.applyModifiers(); err != nil {
			return h.fail(ctx, err)
		}

		for seq, st := range h.staged {
			if st.Command == nil {
				continue
			}
			err := st.Command.Commit(h.deps.Store)
			rec := journal.Commit{Seq: seq, EffectKey: st.Key, Type: st.Command.Type}
			if err != nil {
				rec.Error = err.Error()
			}
			h.logJournal(h.deps.Journal.RecordCommit(ctx, h.ID, rec))
			if err != nil {
				return h.fail(ctx, oops.
					In("resolution").
					With("resolution", h.ID).
					With("pipeline", h.Pipeline.ID).
					With("effect", st.Key).
					Wrapf(err, "commit %s", st.Key))
			}
		}
		h.log.Info("resolution committed", "commands", len(h.staged))

		return h.openGate(ctx)
	})
}

// applyModifiers applies immediate modifiers using the magnitudes frozen at
// preview and registers ongoing ones with the ledger.
func (h *Handle) applyModifiers() error {
	var immediate []modifiers.Delta
	for i, m := range h.outcome().Modifiers {
		m = h.chosenModifier(i, m)
		if m.Duration > 0 {
			if h.deps.Ledger == nil {
				return fmt.Errorf("ongoing modifier %d needs a ledger", i+1)
			}
			am, err := h.deps.Ledger.Register(types.ActiveModifier{
				Source: types.ModifierSource{
					Type: "pipeline",
					ID:   h.Pipeline.ID,
					Name: h.Pipeline.Name,
				},
				Modifiers:   []types.Modifier{withoutDuration(m)},
				Remaining:   m.Duration,
				Description: h.outcome().Description,
			})
			if err != nil {
				return fmt.Errorf("registering ongoing modifier %d: %w", i+1, err)
			}
			h.registered = append(h.registered, am)
			continue
		}
		d := h.rolled[i]
		if chosen := h.choices[i]; chosen != "" {
			d.Resource = chosen
		}
		immediate = append(immediate, d)
	}
	h.applied = modifiers.Apply(h.deps.Store, immediate)
	return nil
}

func withoutDuration(m types.Modifier) types.Modifier {
	m.Duration = 0
	return m
}

// openGate evaluates post-apply interactions against the confirmed context.
func (h *Handle) openGate(ctx context.Context) error {
	if len(h.Pipeline.Interactions) == 0 {
		return h.finish(ctx)
	}
	if h.deps.Interactions == nil {
		return h.fail(ctx, fmt.Errorf("pipeline %s has interactions but no evaluator", h.Pipeline.ID))
	}
	reqs, err := h.deps.Interactions.Evaluate(h.Pipeline.Interactions, h.env())
	if err != nil {
		return h.fail(ctx, err)
	}
	if len(reqs) == 0 {
		return h.finish(ctx)
	}
	h.gate = interaction.NewGate(reqs)
	h.state = AwaitingInteraction
	h.logJournal(h.deps.Journal.Finish(ctx, h.ID, journal.StatusAwaiting, ""))
	h.log.Info("resolution awaiting interaction", "pending", len(reqs))
	return nil
}

func (h *Handle) env() interaction.Env {
	return interaction.Env{
		Outcome:   string(h.Degree),
		Approach:  h.Approach,
		Metadata:  h.schedule(),
		Resources: h.deps.Store.Kingdom().Resources,
	}
}

func (h *Handle) finish(ctx context.Context) error {
	h.state = Resolved
	h.logJournal(h.deps.Journal.Finish(ctx, h.ID, journal.StatusResolved, ""))
	h.log.Info("resolution resolved")
	return nil
}

// fail records a fatal error. The state is left where it is.
func (h *Handle) fail(ctx context.Context, err error) error {
	h.err = err
	h.log.Error("resolution failed", "state", h.state.String(), "error", err)
	h.logJournal(h.deps.Journal.Finish(ctx, h.ID, journal.StatusFailed, err.Error()))
	return err
}

// logJournal logs journal write failures; they never stop a resolution.
func (h *Handle) logJournal(err error) {
	if err != nil {
		h.log.Warn("journal write failed", "error", err)
	}
}
