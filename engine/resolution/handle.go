// Package resolution runs the two-phase protocol that turns a rolled degree
// of success (and an optional approach) into staged commands, commits them
// once on confirmation, and gates completion on post-apply interactions.
package resolution

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/nathoo/kingdomcore/engine/commands"
	"github.com/nathoo/kingdomcore/engine/dice"
	"github.com/nathoo/kingdomcore/engine/interaction"
	"github.com/nathoo/kingdomcore/engine/journal"
	"github.com/nathoo/kingdomcore/engine/modifiers"
	"github.com/nathoo/kingdomcore/engine/ongoing"
	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// State is a resolution's position in its lifecycle.
type State int

const (
	Rolled State = iota
	Previewed
	Confirmed
	AwaitingInteraction
	Resolved
	Cancelled
)

func (s State) String() string {
	switch s {
	case Rolled:
		return "rolled"
	case Previewed:
		return "previewed"
	case Confirmed:
		return "confirmed"
	case AwaitingInteraction:
		return "awaiting-interaction"
	case Resolved:
		return "resolved"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the handle's current state.
	ErrInvalidTransition = errors.New("invalid resolution transition")
	// ErrUnknownDegree indicates a degree of success outside the four known.
	ErrUnknownDegree = errors.New("unknown degree of success")
	// ErrBadChoice indicates an invalid resource choice.
	ErrBadChoice = errors.New("invalid modifier choice")
)

// Deps are the collaborators a resolution works against.
type Deps struct {
	Store        *state.Store
	Registry     *commands.Registry
	Ledger       *ongoing.Ledger
	Interactions *interaction.Evaluator
	Journal      journal.Journal
	RNG          *dice.RNG
	Dice         dice.Evaluator // defaults to rolling through RNG
	Log          *slog.Logger
	NewID        func() string // defaults to a ULID
}

// Staged is a prepared command under its effect key. Command is nil when
// the handler found nothing to do.
type Staged struct {
	Key     string
	Command *commands.Prepared
}

// Preview is what the player sees before confirming.
type Preview struct {
	Badges   []types.Badge
	Warnings []string
}

// Handle drives one resolution through its states.
type Handle struct {
	ID       string
	Pipeline types.Pipeline
	Degree   types.Degree
	Approach string

	deps  Deps
	log   *slog.Logger
	state State
	err   error

	snapshot  *types.Kingdom
	staged    []Staged
	stagedKey map[string]int
	rolled    []modifiers.Delta // frozen outcome modifier magnitudes
	choices   map[int]string
	warnings  []string

	applied    []modifiers.Delta
	registered []types.ActiveModifier

	gate           *interaction.Gate
	compound       map[string][]string
	settled        map[string]bool
	settledCommits []string
}

// Resolve opens a resolution for a rolled degree and an optional approach.
func Resolve(p types.Pipeline, degree types.Degree, approach string, deps Deps) (*Handle, error) {
	if !validDegree(degree) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDegree, degree)
	}
	if deps.Store == nil || deps.Registry == nil {
		return nil, errors.New("resolution needs a store and a command registry")
	}
	if deps.RNG == nil {
		deps.RNG = dice.NewRNG(0)
	}
	if deps.Dice == nil {
		deps.Dice = dice.Roller{RNG: deps.RNG}
	}
	if deps.Journal == nil {
		deps.Journal = journal.Nop{}
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.NewID == nil {
		deps.NewID = func() string { return ulid.Make().String() }
	}
	id := deps.NewID()
	return &Handle{
		ID:        id,
		Pipeline:  p,
		Degree:    degree,
		Approach:  approach,
		deps:      deps,
		log:       deps.Log.With("resolution", id, "pipeline", p.ID, "degree", string(degree)),
		state:     Rolled,
		stagedKey: make(map[string]int),
		choices:   make(map[int]string),
		compound:  make(map[string][]string),
		settled:   make(map[string]bool),
	}, nil
}

func validDegree(d types.Degree) bool {
	for _, v := range types.Degrees {
		if v == d {
			return true
		}
	}
	return false
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	return h.state
}

// Err returns the error that stopped the resolution, if any.
func (h *Handle) Err() error {
	return h.err
}

// Staged returns the staged commands in commit order.
func (h *Handle) Staged() []Staged {
	return append([]Staged(nil), h.staged...)
}

// Applied returns the immediate resource deltas applied on confirm.
func (h *Handle) Applied() []modifiers.Delta {
	return h.applied
}

// Registered returns the ongoing modifiers registered on confirm.
func (h *Handle) Registered() []types.ActiveModifier {
	return h.registered
}

// CompoundData returns accepted candidates per satisfied interaction.
func (h *Handle) CompoundData() map[string][]string {
	out := make(map[string][]string, len(h.compound))
	for k, v := range h.compound {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Pending returns the interactions still waiting for candidates.
func (h *Handle) Pending() []interaction.Requirement {
	if h.gate == nil {
		return nil
	}
	return h.gate.Pending()
}

// Remaining returns how many candidates an interaction still needs.
func (h *Handle) Remaining(id string) int {
	if h.gate == nil {
		return 0
	}
	return h.gate.Remaining(id)
}

// Metadata returns the staged commands' metadata merged under their effect
// keys, plus the summed scheduling values under "schedule".
func (h *Handle) Metadata() map[string]any {
	out := map[string]any{}
	for _, st := range h.staged {
		if st.Command != nil {
			out[st.Key] = st.Command.Metadata
		}
	}
	out["schedule"] = h.schedule()
	return out
}

func (h *Handle) schedule() map[string]int {
	sched := map[string]int{}
	for _, st := range h.staged {
		if st.Command == nil {
			continue
		}
		for k, v := range st.Command.Schedule {
			sched[k] += v
		}
	}
	return sched
}

// outcome returns the outcome definition for the rolled degree.
func (h *Handle) outcome() types.OutcomeDef {
	return h.Pipeline.Outcomes[h.Degree]
}

// option returns the selected approach's option on a choice pipeline.
func (h *Handle) option() (types.Option, bool) {
	if h.Pipeline.Choice == nil || h.Approach == "" {
		return types.Option{}, false
	}
	for _, o := range h.Pipeline.Choice.Options {
		if o.ID == h.Approach {
			return o, true
		}
	}
	return types.Option{}, false
}

func (h *Handle) transitionError(op string) error {
	return fmt.Errorf("%w: cannot %s in state %s", ErrInvalidTransition, op, h.state)
}
