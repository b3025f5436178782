// Package engine wires the resolution machinery into a single kingdom
// session: the pipeline catalog, the kingdom store, the seeded RNG, the
// command registry, the ongoing ledger and the journal. Step() drives it
// from shell input.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nathoo/kingdomcore/engine/commands"
	"github.com/nathoo/kingdomcore/engine/dice"
	"github.com/nathoo/kingdomcore/engine/interaction"
	"github.com/nathoo/kingdomcore/engine/journal"
	"github.com/nathoo/kingdomcore/engine/ongoing"
	"github.com/nathoo/kingdomcore/engine/resolution"
	"github.com/nathoo/kingdomcore/engine/save"
	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// ErrBusy is returned when a resolution is waiting on interactions and a
// new one is opened.
var ErrBusy = errors.New("a resolution is awaiting interactions")

// ErrNoResolution is returned by shell verbs that need an open resolution.
var ErrNoResolution = errors.New("no resolution in progress")

// Engine holds the content definitions and the mutable kingdom session.
type Engine struct {
	Defs         *state.Defs
	Store        *state.Store
	RNG          *dice.RNG
	Registry     *commands.Registry
	Ledger       *ongoing.Ledger
	Interactions *interaction.Evaluator
	Journal      journal.Journal
	Log          *slog.Logger
	CommandLog   []string

	active *resolution.Handle
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeed seeds the RNG.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.RNG = dice.NewRNG(seed) }
}

// WithJournal records resolutions in j.
func WithJournal(j journal.Journal) Option {
	return func(e *Engine) { e.Journal = j }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.Log = l }
}

// WithRegistry replaces the built-in command registry.
func WithRegistry(r *commands.Registry) Option {
	return func(e *Engine) { e.Registry = r }
}

// New creates an engine over a kingdom. The engine takes ownership of k.
func New(defs *state.Defs, k *types.Kingdom, opts ...Option) (*Engine, error) {
	ev, err := interaction.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("building interaction evaluator: %w", err)
	}
	e := &Engine{
		Defs:         defs,
		Store:        state.NewStore(k),
		Interactions: ev,
		CommandLog:   []string{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.RNG == nil {
		e.RNG = dice.NewRNG(0)
	}
	if e.Registry == nil {
		e.Registry = commands.DefaultRegistry()
	}
	if e.Journal == nil {
		e.Journal = journal.Nop{}
	}
	if e.Log == nil {
		e.Log = slog.Default()
	}
	e.wireLedger()
	return e, nil
}

// wireLedger points the ledger at the current store and RNG. Called again
// whenever the RNG is replaced by a load.
func (e *Engine) wireLedger() {
	e.Ledger = ongoing.NewLedger(e.Store, dice.Roller{RNG: e.RNG}, e.Log.With("component", "ongoing"))
}

// Active returns the resolution in progress, or nil.
func (e *Engine) Active() *resolution.Handle {
	return e.active
}

// Resolve opens a resolution for a pipeline. Each resolution rolls on its
// own stream derived from the engine RNG. An unconfirmed resolution still
// open is cancelled; one awaiting interactions blocks with ErrBusy.
func (e *Engine) Resolve(pipelineID string, degree types.Degree, approach string) (*resolution.Handle, error) {
	p, ok := e.Defs.Pipeline(pipelineID)
	if !ok {
		return nil, &state.NotFoundError{Kind: "pipeline", ID: pipelineID}
	}
	if h := e.active; h != nil {
		switch h.State() {
		case resolution.AwaitingInteraction:
			return nil, fmt.Errorf("%w: %s", ErrBusy, h.Pipeline.ID)
		case resolution.Rolled, resolution.Previewed:
			if err := h.Cancel(); err != nil {
				return nil, err
			}
			e.Log.Info("replaced unconfirmed resolution", "resolution", h.ID, "pipeline", h.Pipeline.ID)
		}
	}
	rng := dice.NewRNG(e.RNG.Derive())
	h, err := resolution.Resolve(p, degree, approach, resolution.Deps{
		Store:        e.Store,
		Registry:     e.Registry,
		Ledger:       e.Ledger,
		Interactions: e.Interactions,
		Journal:      e.Journal,
		RNG:          rng,
		Dice:         dice.Roller{RNG: rng},
		Log:          e.Log,
	})
	if err != nil {
		return nil, err
	}
	e.active = h
	return h, nil
}

// AdvanceTurn starts the next turn: the counter moves, player actions
// refresh and every ongoing modifier is applied once.
func (e *Engine) AdvanceTurn() (int, []ongoing.Application, error) {
	if h := e.active; h != nil && h.State() == resolution.AwaitingInteraction {
		return 0, nil, fmt.Errorf("%w: %s", ErrBusy, h.Pipeline.ID)
	}
	var (
		turn int
		apps []ongoing.Application
	)
	err := e.Store.Exclusive(func() error {
		turn = e.Store.AdvanceTurn()
		apps = e.Ledger.Tick()
		return nil
	})
	e.Log.Info("turn advanced", "turn", turn, "ongoing", len(apps))
	return turn, apps, err
}

// Save serializes the kingdom, the RNG position and the command log.
func (e *Engine) Save() ([]byte, error) {
	return save.Save(e.Store.Kingdom(), e.Defs, e.RNG, e.CommandLog)
}

// Load restores a save. Any open resolution is dropped; a confirmed one
// stays in the journal as incomplete.
func (e *Engine) Load(data []byte) (*save.SaveData, error) {
	sd, err := save.Load(data)
	if err != nil {
		return nil, err
	}
	if h := e.active; h != nil {
		e.Log.Warn("dropping open resolution on load", "resolution", h.ID, "state", h.State().String())
		e.active = nil
	}
	e.RNG = save.ApplySave(e.Store, sd)
	e.CommandLog = sd.CommandLog
	e.wireLedger()
	return sd, nil
}

// Incomplete lists journalled resolutions that never finished, when the
// journal keeps records.
func (e *Engine) Incomplete(ctx context.Context) ([]journal.Record, error) {
	lister, ok := e.Journal.(interface {
		Incomplete(context.Context) ([]journal.Record, error)
	})
	if !ok {
		return nil, nil
	}
	return lister.Incomplete(ctx)
}
