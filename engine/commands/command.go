// Package commands implements the two-phase staged commands behind every
// non-standard outcome effect. Prepare reads a kingdom snapshot and freezes
// its choices; only Commit mutates the store.
package commands

import (
	"errors"
	"fmt"

	"github.com/nathoo/kingdomcore/engine/dice"
	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// ErrAlreadyCommitted is returned by a second Commit on the same command.
var ErrAlreadyCommitted = errors.New("command already committed")

// Context carries everything a handler may read while preparing.
type Context struct {
	Outcome  types.Degree
	Approach string
	Kingdom  *types.Kingdom // read-only snapshot
	RNG      *dice.RNG
	Dice     dice.Evaluator
}

// Prepared is a staged command: parameters resolved, nothing applied.
type Prepared struct {
	Type     string
	Badges   []types.Badge
	Metadata map[string]any
	Schedule map[string]int // plain scheduling data, e.g. hexes to claim

	commit    func(*state.Store) error
	committed bool
}

// NewPrepared builds a staged command around a commit function. A nil
// commit is a display-only command.
func NewPrepared(typ string, commit func(*state.Store) error, badges ...types.Badge) *Prepared {
	return &Prepared{
		Type:     typ,
		Badges:   badges,
		Metadata: map[string]any{},
		commit:   commit,
	}
}

// Commit performs the mutation. Callers commit at most once; a repeated
// call returns ErrAlreadyCommitted without touching the store.
func (p *Prepared) Commit(s *state.Store) error {
	if p.committed {
		return fmt.Errorf("%s: %w", p.Type, ErrAlreadyCommitted)
	}
	p.committed = true
	if p.commit == nil {
		return nil
	}
	return p.commit(s)
}

// Committed reports whether Commit has run.
func (p *Prepared) Committed() bool {
	return p.committed
}

// Handler prepares one command type. A nil command with a nil error means
// the effect is inapplicable in the current state.
type Handler interface {
	Prepare(req types.CommandRequest, ctx Context) (*Prepared, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(req types.CommandRequest, ctx Context) (*Prepared, error)

// Prepare calls f.
func (f HandlerFunc) Prepare(req types.CommandRequest, ctx Context) (*Prepared, error) {
	return f(req, ctx)
}

// pickN chooses k distinct indexes out of n. With random=false it takes the
// first k in listed order.
func pickN(rng *dice.RNG, n, k int, random bool) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if k > n {
		k = n
	}
	if !random || rng == nil {
		return idx[:k]
	}
	for i := 0; i < k; i++ {
		j := i + rng.Pick(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
