package resolution

import (
	"context"
	"maps"

	"github.com/samber/oops"

	"github.com/nathoo/kingdomcore/engine/commands"
	"github.com/nathoo/kingdomcore/engine/interaction"
	"github.com/nathoo/kingdomcore/engine/journal"
	"github.com/nathoo/kingdomcore/types"
)

// SubmitInteraction offers candidates for a pending interaction. Each is
// validated against the ones accepted before it; rejections carry a reason.
// Once an interaction has all its candidates they are written to the
// compound data and settled exactly once. After resolution, candidates for
// a known interaction are rejected as already satisfied.
func (h *Handle) SubmitInteraction(ctx context.Context, id string, candidates []string) (interaction.SubmitResult, error) {
	var res interaction.SubmitResult
	switch {
	case h.state == Resolved && h.gate != nil:
		err := h.deps.Store.Exclusive(func() error {
			var err error
			res, err = h.gate.Submit(id, candidates, h.deps.Store.Kingdom())
			return err
		})
		return res, err
	case h.state != AwaitingInteraction:
		return res, h.transitionError("submit an interaction")
	}
	err := h.deps.Store.Exclusive(func() error {
		var err error
		res, err = h.gate.Submit(id, candidates, h.deps.Store.Kingdom())
		if err != nil {
			return err
		}
		if !res.Satisfied || h.settled[id] {
			return nil
		}
		h.compound[id] = h.gate.Accepted(id)
		if err := h.settle(ctx, id); err != nil {
			return h.fail(ctx, err)
		}
		h.settled[id] = true
		if h.gate.Done() {
			return h.finish(ctx)
		}
		return nil
	})
	return res, err
}

// settle runs the interaction's settlement command once per accepted
// candidate. Each candidate is prepared against fresh state so earlier
// settlements in the batch are visible to later ones.
func (h *Handle) settle(ctx context.Context, id string) error {
	var def types.InteractionDef
	for _, r := range h.gate.Requirements() {
		if r.Def.ID == id {
			def = r.Def
		}
	}
	if def.Settle == "" {
		return nil
	}
	for _, c := range h.compound[id] {
		params := maps.Clone(def.SettleWith)
		if params == nil {
			params = map[string]any{}
		}
		params["hex"] = c
		p, err := h.deps.Registry.Prepare(types.CommandRequest{Type: def.Settle, Params: params}, commands.Context{
			Outcome:  h.Degree,
			Approach: h.Approach,
			Kingdom:  h.deps.Store.Snapshot(),
			RNG:      h.deps.RNG,
			Dice:     h.deps.Dice,
		})
		if err != nil {
			return oops.In("resolution").With("interaction", id).With("candidate", c).Wrapf(err, "settle %s", def.Settle)
		}
		if p == nil {
			h.log.Debug("settlement inapplicable", "interaction", id, "candidate", c)
			continue
		}
		key := id + ":" + c
		err = p.Commit(h.deps.Store)
		rec := journal.Commit{Seq: len(h.staged) + len(h.settledCommits), EffectKey: key, Type: p.Type}
		if err != nil {
			rec.Error = err.Error()
		}
		h.logJournal(h.deps.Journal.RecordCommit(ctx, h.ID, rec))
		h.settledCommits = append(h.settledCommits, key)
		if err != nil {
			return oops.In("resolution").With("interaction", id).With("candidate", c).Wrapf(err, "settle %s", def.Settle)
		}
	}
	return nil
}
