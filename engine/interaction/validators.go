package interaction

import (
	"fmt"
	"sort"

	"github.com/nathoo/kingdomcore/engine/commands"
	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// Validation is a validator's verdict on one candidate.
type Validation struct {
	Valid   bool
	Message string
}

// Validator checks a candidate given the candidates already accepted in the
// same interaction.
type Validator func(candidate string, accepted []string, k *types.Kingdom, params map[string]any) Validation

var validators = map[string]Validator{
	"claimable-hex": claimableHex,
	"worksite-hex":  worksiteHex,
}

// Lookup returns a named validator. An empty name means no validation.
func Lookup(name string) Validator {
	return validators[name]
}

// Known reports whether a validator name is registered.
func Known(name string) bool {
	_, ok := validators[name]
	return name == "" || ok
}

// Names lists the registered validators.
func Names() []string {
	out := make([]string, 0, len(validators))
	for n := range validators {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func invalid(format string, args ...any) Validation {
	return Validation{Message: fmt.Sprintf(format, args...)}
}

// claimableHex accepts an unclaimed hex adjacent to claimed territory or to a
// hex accepted earlier in the same batch. A kingdom with no territory may
// claim anywhere.
func claimableHex(candidate string, accepted []string, k *types.Kingdom, _ map[string]any) Validation {
	h, ok := state.FindHex(k, candidate)
	if !ok {
		return invalid("hex %s does not exist", candidate)
	}
	if h.Claimed {
		return invalid("hex %s is already claimed", candidate)
	}
	territory := map[string]bool{}
	for _, other := range k.Hexes {
		if other.Claimed {
			territory[other.ID] = true
		}
	}
	for _, id := range accepted {
		territory[id] = true
	}
	if len(territory) == 0 {
		return Validation{Valid: true}
	}
	if adjacent(k, h, territory) {
		return Validation{Valid: true}
	}
	return invalid("hex %s is not adjacent to your territory", candidate)
}

func adjacent(k *types.Kingdom, h types.Hex, territory map[string]bool) bool {
	for _, n := range h.Neighbors {
		if territory[n] {
			return true
		}
	}
	// Neighbour lists may be one-sided in hand-written fixtures.
	for id := range territory {
		if other, ok := state.FindHex(k, id); ok {
			for _, n := range other.Neighbors {
				if n == h.ID {
					return true
				}
			}
		}
	}
	return false
}

// worksiteHex accepts a claimed hex with no worksite whose terrain supports
// one. params["terrain"] narrows the allowed terrains.
func worksiteHex(candidate string, _ []string, k *types.Kingdom, params map[string]any) Validation {
	h, ok := state.FindHex(k, candidate)
	if !ok {
		return invalid("hex %s does not exist", candidate)
	}
	if !h.Claimed {
		return invalid("hex %s is not in your territory", candidate)
	}
	if h.Worksite != "" {
		return invalid("hex %s already has a %s", candidate, h.Worksite)
	}
	if allowed := stringList(params["terrain"]); len(allowed) > 0 && !contains(allowed, h.Terrain) {
		return invalid("%s terrain cannot hold this worksite", h.Terrain)
	}
	if commands.WorksiteFor(h.Terrain) == "" {
		return invalid("%s terrain cannot hold a worksite", h.Terrain)
	}
	return Validation{Valid: true}
}

func stringList(v any) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, x := range l {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{l}
	}
	return nil
}
