// Package state holds the immutable pipeline catalog and the mutable
// kingdom store. Staging code only ever sees snapshots; commits go through
// the Store's mutators.
package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/nathoo/kingdomcore/types"
)

// Defs holds the immutable content definitions loaded from Lua.
type Defs struct {
	Game      types.GameDef
	Pipelines map[string]types.Pipeline
}

// Pipeline looks up a pipeline by id.
func (d *Defs) Pipeline(id string) (types.Pipeline, bool) {
	p, ok := d.Pipelines[id]
	return p, ok
}

// PipelineIDs returns the catalog ids in sorted order.
func (d *Defs) PipelineIDs() []string {
	ids := make([]string, 0, len(d.Pipelines))
	for id := range d.Pipelines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NewKingdom returns an empty kingdom with non-nil collections.
func NewKingdom(name string) *types.Kingdom {
	k := &types.Kingdom{Name: name}
	Normalize(k)
	return k
}

// Normalize ensures collections are never nil after load.
func Normalize(k *types.Kingdom) {
	if k.Resources == nil {
		k.Resources = map[string]int{}
	}
	if k.Settlements == nil {
		k.Settlements = []types.Settlement{}
	}
	if k.Factions == nil {
		k.Factions = []types.Faction{}
	}
	if k.Armies == nil {
		k.Armies = []types.Army{}
	}
	if k.Players == nil {
		k.Players = []types.Player{}
	}
	if k.Hexes == nil {
		k.Hexes = []types.Hex{}
	}
	if k.Ongoing == nil {
		k.Ongoing = []types.ActiveModifier{}
	}
}

// Clone returns a deep copy of the kingdom.
func Clone(k *types.Kingdom) *types.Kingdom {
	// JSON round trip keeps the copy honest as the model grows.
	data, err := json.Marshal(k)
	if err != nil {
		panic(fmt.Sprintf("state: cloning kingdom: %v", err))
	}
	var out types.Kingdom
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("state: cloning kingdom: %v", err))
	}
	Normalize(&out)
	return &out
}

// Store owns the single shared kingdom state.
type Store struct {
	mu sync.Mutex
	k  *types.Kingdom
}

// NewStore wraps a kingdom. The store takes ownership of k.
func NewStore(k *types.Kingdom) *Store {
	Normalize(k)
	return &Store{k: k}
}

// Snapshot returns a read-only deep copy for staging.
func (s *Store) Snapshot() *types.Kingdom {
	return Clone(s.k)
}

// Kingdom exposes the live state for persistence and display.
func (s *Store) Kingdom() *types.Kingdom {
	return s.k
}

// Replace swaps the live state (used by load).
func (s *Store) Replace(k *types.Kingdom) {
	Normalize(k)
	s.k = k
}

// Exclusive runs fn while holding the per-kingdom lock. Confirmations run
// inside it so two resolutions never interleave their commits.
func (s *Store) Exclusive(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Resource returns the current value of a resource. Unset resources are 0.
func (s *Store) Resource(name string) int {
	return s.k.Resources[name]
}

// AdjustResource adds delta to a resource, clamping at zero.
// Returns the applied (possibly clamped) delta.
func (s *Store) AdjustResource(name string, delta int) int {
	cur := s.k.Resources[name]
	next := cur + delta
	if next < 0 {
		next = 0
	}
	s.k.Resources[name] = next
	return next - cur
}

// Settlement returns a pointer into the live settlement list.
func (s *Store) Settlement(id string) (*types.Settlement, error) {
	for i := range s.k.Settlements {
		if s.k.Settlements[i].ID == id {
			return &s.k.Settlements[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "settlement", ID: id}
}

// Structure returns a pointer to a structure inside a settlement.
func (s *Store) Structure(settlementID, structureID string) (*types.Structure, error) {
	st, err := s.Settlement(settlementID)
	if err != nil {
		return nil, err
	}
	for i := range st.Structures {
		if st.Structures[i].ID == structureID {
			return &st.Structures[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "structure", ID: structureID}
}

// RemoveStructure deletes a structure from a settlement.
func (s *Store) RemoveStructure(settlementID, structureID string) error {
	st, err := s.Settlement(settlementID)
	if err != nil {
		return err
	}
	for i := range st.Structures {
		if st.Structures[i].ID == structureID {
			st.Structures = append(st.Structures[:i], st.Structures[i+1:]...)
			return nil
		}
	}
	return &NotFoundError{Kind: "structure", ID: structureID}
}

// Faction returns a pointer into the live faction list.
func (s *Store) Faction(id string) (*types.Faction, error) {
	for i := range s.k.Factions {
		if s.k.Factions[i].ID == id {
			return &s.k.Factions[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "faction", ID: id}
}

// Army returns a pointer into the live army list.
func (s *Store) Army(id string) (*types.Army, error) {
	for i := range s.k.Armies {
		if s.k.Armies[i].ID == id {
			return &s.k.Armies[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "army", ID: id}
}

// Player returns a pointer into the live player list.
func (s *Store) Player(id string) (*types.Player, error) {
	for i := range s.k.Players {
		if s.k.Players[i].ID == id {
			return &s.k.Players[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "player", ID: id}
}

// Hex returns a pointer into the live hex list.
func (s *Store) Hex(id string) (*types.Hex, error) {
	for i := range s.k.Hexes {
		if s.k.Hexes[i].ID == id {
			return &s.k.Hexes[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "hex", ID: id}
}

// Ongoing returns the live ongoing-effects ledger.
func (s *Store) Ongoing() []types.ActiveModifier {
	return s.k.Ongoing
}

// SetOngoing replaces the ongoing-effects ledger.
func (s *Store) SetOngoing(list []types.ActiveModifier) {
	s.k.Ongoing = list
}

// AdvanceTurn increments the turn counter and refreshes player actions.
func (s *Store) AdvanceTurn() int {
	s.k.Turn++
	for i := range s.k.Players {
		s.k.Players[i].ActionSpent = false
	}
	return s.k.Turn
}

// NotFoundError indicates a missing kingdom entity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// FindHex looks up a hex in a snapshot.
func FindHex(k *types.Kingdom, id string) (types.Hex, bool) {
	for _, h := range k.Hexes {
		if h.ID == id {
			return h, true
		}
	}
	return types.Hex{}, false
}

// AttitudeIndex returns the position of an attitude on the scale, or -1.
func AttitudeIndex(a types.Attitude) int {
	for i, v := range types.AttitudeScale {
		if v == a {
			return i
		}
	}
	return -1
}
