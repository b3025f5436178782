package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/kingdomcore/engine/modifiers"
	"github.com/nathoo/kingdomcore/engine/parser"
	"github.com/nathoo/kingdomcore/engine/resolution"
	"github.com/nathoo/kingdomcore/engine/resolve"
	"github.com/nathoo/kingdomcore/types"
)

// Step processes one shell command and returns the result.
func (e *Engine) Step(input string) types.Result {
	return e.StepContext(context.Background(), input)
}

// StepContext is Step with a caller-supplied context for confirmations and
// journal writes.
func (e *Engine) StepContext(ctx context.Context, input string) types.Result {
	var result types.Result

	intent := parser.Parse(input)
	e.CommandLog = append(e.CommandLog, input)

	if intent.Verb == "" {
		result.Output = append(result.Output, "What do you want to do? Type help for commands.")
		return result
	}

	var err error
	switch intent.Verb {
	case "pipelines":
		e.cmdPipelines(&result)
	case "outcomes":
		err = e.cmdOutcomes(&result, intent.Args)
	case "resolve":
		err = e.cmdResolve(&result, intent.Args)
	case "preview":
		err = e.cmdPreview(&result)
	case "choose":
		err = e.cmdChoose(&result, intent.Args)
	case "confirm":
		err = e.cmdConfirm(ctx, &result)
	case "cancel":
		err = e.cmdCancel(&result)
	case "select":
		err = e.cmdSelect(ctx, &result, intent.Args)
	case "pending":
		err = e.cmdPending(&result)
	case "kingdom":
		e.cmdKingdom(&result)
	case "ongoing":
		e.cmdOngoing(&result)
	case "turn":
		err = e.cmdTurn(&result)
	case "journal":
		err = e.cmdJournal(ctx, &result)
	case "help":
		result.Output = append(result.Output, helpText...)
	default:
		result.Output = append(result.Output, fmt.Sprintf("I don't know how to %q. Type help for commands.", intent.Verb))
	}
	if err != nil {
		result.Output = append(result.Output, err.Error())
	}
	return result
}

var helpText = []string{
	"pipelines                            list events and actions",
	"outcomes <pipeline> [approach]       what each degree of success would do",
	"resolve <pipeline> <degree> [approach]",
	"                                     open a resolution and preview it",
	"preview                              show the open resolution again",
	"choose <n> <resource>                pick the resource for choice modifier n",
	"confirm                              apply the previewed outcome",
	"cancel                               discard an unconfirmed resolution",
	"select <interaction> <ids...>        answer a pending interaction",
	"pending                              list pending interactions",
	"kingdom                              show the kingdom",
	"ongoing                              list ongoing modifiers",
	"turn                                 advance to the next turn",
	"journal                              list incomplete journalled resolutions",
}

func (e *Engine) requireActive() (*resolution.Handle, error) {
	if e.active == nil {
		return nil, ErrNoResolution
	}
	return e.active, nil
}

func (e *Engine) cmdPipelines(r *types.Result) {
	for _, id := range e.Defs.PipelineIDs() {
		p := e.Defs.Pipelines[id]
		line := fmt.Sprintf("%s: %s (%s, tier %d)", id, p.Name, p.Category, p.Tier)
		r.Output = append(r.Output, line)
		if p.Choice != nil {
			opts := make([]string, len(p.Choice.Options))
			for i, o := range p.Choice.Options {
				opts[i] = o.ID
			}
			r.Output = append(r.Output, "  approaches: "+strings.Join(opts, ", "))
		}
	}
	if len(r.Output) == 0 {
		r.Output = append(r.Output, "No pipelines loaded.")
	}
}

func (e *Engine) cmdOutcomes(r *types.Result, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: outcomes <pipeline> [approach]")
	}
	id, err := resolve.Pipeline(e.Defs, args[0])
	if err != nil {
		return err
	}
	p := e.Defs.Pipelines[id]
	approach := ""
	if len(args) > 1 {
		if approach, err = resolve.Approach(p, strings.Join(args[1:], " ")); err != nil {
			return err
		}
	}
	for _, po := range resolution.PossibleOutcomes(p, approach) {
		line := DegreeName(po.Degree) + ": " + po.Description
		if po.EndsEvent {
			line += " (ends the event)"
		}
		r.Output = append(r.Output, line)
		for _, b := range po.Badges {
			r.Output = append(r.Output, "  "+BadgeLine(b))
		}
	}
	return nil
}

func (e *Engine) cmdResolve(r *types.Result, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: resolve <pipeline> <degree> [approach]")
	}
	id, err := resolve.Pipeline(e.Defs, args[0])
	if err != nil {
		return err
	}
	degree, err := resolve.Degree(args[1])
	if err != nil {
		return err
	}
	p := e.Defs.Pipelines[id]
	approach := ""
	if len(args) > 2 {
		if approach, err = resolve.Approach(p, strings.Join(args[2:], " ")); err != nil {
			return err
		}
	}
	h, err := e.Resolve(id, degree, approach)
	if err != nil {
		return err
	}
	r.Events = append(r.Events, types.Event{Type: "resolution_opened", Data: map[string]any{
		"resolution": h.ID, "pipeline": id, "degree": string(degree), "approach": approach,
	}})
	header := fmt.Sprintf("%s: %s", p.Name, DegreeName(degree))
	if approach != "" {
		header += " (" + approach + ")"
	}
	r.Output = append(r.Output, header)
	return e.cmdPreview(r)
}

func (e *Engine) cmdPreview(r *types.Result) error {
	h, err := e.requireActive()
	if err != nil {
		return err
	}
	pv, err := h.Preview()
	if err != nil {
		return err
	}
	if desc := h.Pipeline.Outcomes[h.Degree].Description; desc != "" {
		r.Output = append(r.Output, desc)
	}
	r.Badges = append(r.Badges, pv.Badges...)
	r.Warnings = append(r.Warnings, pv.Warnings...)
	r.Events = append(r.Events, types.Event{Type: "previewed", Data: map[string]any{
		"resolution": h.ID, "staged": len(h.Staged()),
	}})
	if h.State() == resolution.Previewed {
		r.Output = append(r.Output, "Type confirm to apply or cancel to discard.")
	}
	return nil
}

func (e *Engine) cmdChoose(r *types.Result, args []string) error {
	h, err := e.requireActive()
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return errors.New("usage: choose <n> <resource>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%q is not a modifier number", args[0])
	}
	if err := h.SetChoice(n-1, strings.ToLower(args[1])); err != nil {
		return err
	}
	return e.cmdPreview(r)
}

func (e *Engine) cmdConfirm(ctx context.Context, r *types.Result) error {
	h, err := e.requireActive()
	if err != nil {
		return err
	}
	if err := h.Confirm(ctx); err != nil {
		if h.State() == resolution.Confirmed {
			r.Warnings = append(r.Warnings, "The resolution stopped part way; earlier effects stay applied.")
		}
		return err
	}
	for _, d := range h.Applied() {
		r.Badges = append(r.Badges, modifiers.DeltaBadge(d))
	}
	for _, am := range h.Registered() {
		for _, m := range am.Modifiers {
			b := modifiers.Badge(m)
			b.Text += fmt.Sprintf(" each turn for %d turns from %s", am.Remaining, am.Source.Name)
			r.Badges = append(r.Badges, b)
		}
	}
	r.Events = append(r.Events, types.Event{Type: "confirmed", Data: map[string]any{
		"resolution": h.ID, "state": h.State().String(),
	}})
	e.reportState(r, h)
	return nil
}

// reportState describes where a confirmed resolution stands.
func (e *Engine) reportState(r *types.Result, h *resolution.Handle) {
	switch h.State() {
	case resolution.AwaitingInteraction:
		r.Output = append(r.Output, "Waiting on:")
		e.listPending(r, h)
	case resolution.Resolved:
		r.Output = append(r.Output, h.Pipeline.Name+" is resolved.")
		r.Events = append(r.Events, types.Event{Type: "resolved", Data: map[string]any{"resolution": h.ID}})
	}
}

func (e *Engine) cmdCancel(r *types.Result) error {
	h, err := e.requireActive()
	if err != nil {
		return err
	}
	if err := h.Cancel(); err != nil {
		return err
	}
	e.active = nil
	r.Output = append(r.Output, h.Pipeline.Name+" cancelled. Nothing was applied.")
	r.Events = append(r.Events, types.Event{Type: "cancelled", Data: map[string]any{"resolution": h.ID}})
	return nil
}

func (e *Engine) cmdSelect(ctx context.Context, r *types.Result, args []string) error {
	h, err := e.requireActive()
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return errors.New("usage: select <interaction> <ids...>")
	}
	res, err := h.SubmitInteraction(ctx, args[0], args[1:])
	if err != nil {
		return err
	}
	if len(res.Accepted) > 0 {
		r.Output = append(r.Output, "Accepted: "+strings.Join(res.Accepted, ", "))
	}
	for _, rej := range res.Rejected {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %s", rej.Candidate, rej.Reason))
	}
	r.Events = append(r.Events, types.Event{Type: "interaction_submitted", Data: map[string]any{
		"resolution": h.ID, "interaction": args[0], "accepted": len(res.Accepted), "rejected": len(res.Rejected),
	}})
	if !res.Satisfied {
		r.Output = append(r.Output, fmt.Sprintf("%d more needed.", h.Remaining(args[0])))
	}
	e.reportState(r, h)
	return nil
}

func (e *Engine) cmdPending(r *types.Result) error {
	h, err := e.requireActive()
	if err != nil {
		return err
	}
	if h.State() != resolution.AwaitingInteraction {
		r.Output = append(r.Output, fmt.Sprintf("%s is %s; nothing pending.", h.Pipeline.Name, h.State()))
		return nil
	}
	e.listPending(r, h)
	return nil
}

func (e *Engine) listPending(r *types.Result, h *resolution.Handle) {
	for _, req := range h.Pending() {
		title := req.Title
		if title == "" {
			title = req.Def.ID
		}
		r.Output = append(r.Output, fmt.Sprintf("  %s: %s (%d of %d remaining)", req.Def.ID, title, h.Remaining(req.Def.ID), req.Count))
	}
}

func (e *Engine) cmdKingdom(r *types.Result) {
	k := e.Store.Kingdom()
	r.Output = append(r.Output, fmt.Sprintf("%s, turn %d", k.Name, k.Turn))

	names := make([]string, 0, len(k.Resources))
	for name := range k.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s %d", modifiers.DisplayResource(name), k.Resources[name])
	}
	if len(parts) > 0 {
		r.Output = append(r.Output, "Resources: "+strings.Join(parts, ", "))
	}

	for _, s := range k.Settlements {
		line := fmt.Sprintf("%s (level %d): prison %d/%d", s.Name, s.Level, s.Imprisoned, s.PrisonCapacity)
		var sts []string
		for _, st := range s.Structures {
			name := st.Name
			if st.Damaged {
				name += " (damaged)"
			}
			sts = append(sts, name)
		}
		if len(sts) > 0 {
			line += "; " + strings.Join(sts, ", ")
		}
		r.Output = append(r.Output, line)
	}
	for _, f := range k.Factions {
		r.Output = append(r.Output, fmt.Sprintf("%s: %s", f.Name, AttitudeName(f.Attitude)))
	}
	for _, a := range k.Armies {
		line := a.Name
		if len(a.Conditions) > 0 {
			conds := make([]string, 0, len(a.Conditions))
			for c, n := range a.Conditions {
				conds = append(conds, fmt.Sprintf("%s %d", c, n))
			}
			sort.Strings(conds)
			line += ": " + strings.Join(conds, ", ")
		}
		r.Output = append(r.Output, line)
	}
	claimed := 0
	for _, h := range k.Hexes {
		if h.Claimed {
			claimed++
		}
	}
	r.Output = append(r.Output, fmt.Sprintf("Territory: %d of %d hexes claimed", claimed, len(k.Hexes)))
}

func (e *Engine) cmdOngoing(r *types.Result) {
	list := e.Ledger.List()
	if len(list) == 0 {
		r.Output = append(r.Output, "No ongoing modifiers.")
		return
	}
	for _, am := range list {
		r.Output = append(r.Output, fmt.Sprintf("%s: %d turns left", am.Source.Name, am.Remaining))
		for _, m := range am.Modifiers {
			r.Output = append(r.Output, "  "+BadgeLine(modifiers.Badge(m)))
		}
	}
}

func (e *Engine) cmdTurn(r *types.Result) error {
	turn, apps, err := e.AdvanceTurn()
	if err != nil {
		return err
	}
	r.Output = append(r.Output, fmt.Sprintf("Turn %d begins.", turn))
	for _, app := range apps {
		for _, d := range app.Deltas {
			b := modifiers.DeltaBadge(d)
			b.Text += " from " + app.Source.Name
			r.Badges = append(r.Badges, b)
		}
		if app.Expired {
			r.Output = append(r.Output, app.Source.Name+" has run its course.")
		}
	}
	r.Events = append(r.Events, types.Event{Type: "turn_advanced", Data: map[string]any{"turn": turn, "applied": len(apps)}})
	return nil
}

func (e *Engine) cmdJournal(ctx context.Context, r *types.Result) error {
	recs, err := e.Incomplete(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		r.Output = append(r.Output, "No incomplete resolutions.")
		return nil
	}
	for _, rec := range recs {
		line := fmt.Sprintf("%s %s %s (turn %d): %s, %d commits", rec.ID, rec.Pipeline, rec.Degree, rec.Turn, rec.Status, len(rec.Commits))
		if rec.Error != "" {
			line += ": " + rec.Error
		}
		r.Output = append(r.Output, line)
	}
	return nil
}
