// Package ongoing schedules modifiers that re-apply every turn until their
// duration runs out. The ledger lives in the kingdom state so it is saved
// and restored with everything else.
package ongoing

import (
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/nathoo/kingdomcore/engine/dice"
	"github.com/nathoo/kingdomcore/engine/modifiers"
	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// ErrNoDuration indicates a registration with nothing left to run.
var ErrNoDuration = errors.New("ongoing modifier needs a positive duration")

// Application records what one active modifier did on a tick.
type Application struct {
	ID        string
	Source    types.ModifierSource
	Deltas    []modifiers.Delta
	Remaining int
	Expired   bool
}

// Ledger registers and ticks active modifiers. Callers serialize access
// through the store's exclusive section.
type Ledger struct {
	store *state.Store
	dice  dice.Evaluator
	log   *slog.Logger

	// NewID mints modifier ids. Defaults to a ULID.
	NewID func() string
}

// NewLedger creates a ledger over the store's ongoing list.
func NewLedger(store *state.Store, ev dice.Evaluator, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		store: store,
		dice:  ev,
		log:   log,
		NewID: func() string { return ulid.Make().String() },
	}
}

// Register appends an active modifier, assigning an id and creation turn
// when missing. It does not apply anything; the first application happens
// on the next tick.
func (l *Ledger) Register(am types.ActiveModifier) (types.ActiveModifier, error) {
	if am.Remaining <= 0 {
		return am, ErrNoDuration
	}
	if am.ID == "" {
		am.ID = l.NewID()
	}
	if am.CreatedTurn == 0 {
		am.CreatedTurn = l.store.Kingdom().Turn
	}
	l.store.SetOngoing(append(l.store.Ongoing(), am))
	l.log.Debug("ongoing modifier registered",
		"id", am.ID,
		"source", am.Source.ID,
		"remaining", am.Remaining)
	return am, nil
}

// Tick applies every active modifier once, decrements its duration and
// drops the ones that reach zero.
func (l *Ledger) Tick() []Application {
	var (
		apps []Application
		keep []types.ActiveModifier
	)
	for _, am := range l.store.Ongoing() {
		app := Application{ID: am.ID, Source: am.Source}
		var deltas []modifiers.Delta
		for _, m := range am.Modifiers {
			d, err := modifiers.Resolve(m, l.dice, "")
			if err != nil {
				l.log.Warn("ongoing modifier skipped",
					"id", am.ID,
					"resource", m.Resource,
					"error", err)
				continue
			}
			deltas = append(deltas, d)
		}
		app.Deltas = modifiers.Apply(l.store, deltas)
		am.Remaining--
		app.Remaining = am.Remaining
		if am.Remaining <= 0 {
			app.Expired = true
			l.log.Debug("ongoing modifier expired", "id", am.ID, "source", am.Source.ID)
		} else {
			keep = append(keep, am)
		}
		apps = append(apps, app)
	}
	if keep == nil {
		keep = []types.ActiveModifier{}
	}
	l.store.SetOngoing(keep)
	return apps
}

// List returns a copy of the active modifiers.
func (l *Ledger) List() []types.ActiveModifier {
	return append([]types.ActiveModifier(nil), l.store.Ongoing()...)
}

// Remove drops an active modifier by id.
func (l *Ledger) Remove(id string) bool {
	list := l.store.Ongoing()
	for i, am := range list {
		if am.ID == id {
			l.store.SetOngoing(append(list[:i:i], list[i+1:]...))
			return true
		}
	}
	return false
}
