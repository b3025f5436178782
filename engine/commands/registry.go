package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/kingdomcore/types"
)

var (
	// ErrTypeRequired indicates a missing command type.
	ErrTypeRequired = errors.New("command type is required")
	// ErrTypeUnknown indicates an unregistered command type.
	ErrTypeUnknown = errors.New("command type is not registered")
)

// Command type identifiers.
const (
	TypeDamageStructure         = "damage_structure"
	TypeDestroyStructure        = "destroy_structure"
	TypeGrantStructure          = "grant_structure"
	TypeIncreaseSettlementLevel = "increase_settlement_level"
	TypeDestroyWorksite         = "destroy_worksite"
	TypeCreateWorksite          = "create_worksite"
	TypeClaimHex                = "claim_hex"
	TypeImprisonUnrest          = "imprison_unrest"
	TypeAddImprisoned           = "add_imprisoned"
	TypeAdjustFaction           = "adjust_faction"
	TypeArmyCondition           = "army_condition"
	TypeSpendPlayerAction       = "spend_player_action"
	TypeSchedule                = "schedule"
)

// Registry maps command types to handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// DefaultRegistry returns a registry with every built-in handler.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	builtins := map[string]HandlerFunc{
		TypeDamageStructure:         prepareDamageStructure,
		TypeDestroyStructure:        prepareDestroyStructure,
		TypeGrantStructure:          prepareGrantStructure,
		TypeIncreaseSettlementLevel: prepareIncreaseSettlementLevel,
		TypeDestroyWorksite:         prepareDestroyWorksite,
		TypeCreateWorksite:          prepareCreateWorksite,
		TypeClaimHex:                prepareClaimHex,
		TypeImprisonUnrest:          prepareImprisonUnrest,
		TypeAddImprisoned:           prepareAddImprisoned,
		TypeAdjustFaction:           prepareAdjustFaction,
		TypeArmyCondition:           prepareArmyCondition,
		TypeSpendPlayerAction:       prepareSpendPlayerAction,
		TypeSchedule:                prepareSchedule,
	}
	for typ, h := range builtins {
		// Built-in types are distinct constants; Register cannot fail here.
		_ = r.Register(typ, h)
	}
	return r
}

// Register adds a handler for a command type.
func (r *Registry) Register(typ string, h Handler) error {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return ErrTypeRequired
	}
	if h == nil {
		return fmt.Errorf("handler for %s is nil", typ)
	}
	if _, exists := r.handlers[typ]; exists {
		return fmt.Errorf("command type already registered: %s", typ)
	}
	r.handlers[typ] = h
	return nil
}

// Lookup returns the handler for a type.
func (r *Registry) Lookup(typ string) (Handler, bool) {
	h, ok := r.handlers[typ]
	return h, ok
}

// Has reports whether a type is registered.
func (r *Registry) Has(typ string) bool {
	_, ok := r.handlers[typ]
	return ok
}

// Types returns registered types in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Prepare dispatches a request to its handler.
func (r *Registry) Prepare(req types.CommandRequest, ctx Context) (*Prepared, error) {
	if req.Type == "" {
		return nil, ErrTypeRequired
	}
	h, ok := r.handlers[req.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeUnknown, req.Type)
	}
	return h.Prepare(req, ctx)
}
