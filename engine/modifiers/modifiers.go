// Package modifiers resolves modifier descriptors into concrete resource
// deltas and applies them to the kingdom store.
package modifiers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nathoo/kingdomcore/engine/dice"
	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNoChoice indicates a choice modifier with no candidate resources.
var ErrNoChoice = errors.New("choice modifier has no resources")

// Delta is a resolved, signed resource change.
type Delta struct {
	Resource string
	Amount   int
	Formula  string // source formula, empty for static values
}

// Resolve turns a modifier into a concrete delta. chosen selects the
// resource for choice modifiers; an empty chosen falls back to the first
// candidate.
func Resolve(m types.Modifier, ev dice.Evaluator, chosen string) (Delta, error) {
	d := Delta{Resource: m.Resource}
	switch m.Type {
	case types.ModifierStatic, "":
		d.Amount = m.Value
	case types.ModifierDice:
		v, err := ev.Evaluate(m.Formula)
		if err != nil {
			return Delta{}, fmt.Errorf("resolving %s modifier: %w", m.Resource, err)
		}
		d.Amount = v
		d.Formula = m.Formula
	case types.ModifierChoice, types.ModifierChoiceButtons:
		if len(m.Resources) == 0 {
			return Delta{}, ErrNoChoice
		}
		d.Resource = m.Resources[0]
		if chosen != "" {
			if !contains(m.Resources, chosen) {
				return Delta{}, fmt.Errorf("resource %q is not one of %v", chosen, m.Resources)
			}
			d.Resource = chosen
		}
		if m.Formula != "" {
			v, err := ev.Evaluate(m.Formula)
			if err != nil {
				return Delta{}, fmt.Errorf("resolving choice modifier: %w", err)
			}
			d.Amount = v
			d.Formula = m.Formula
		} else {
			d.Amount = m.Value
		}
	default:
		return Delta{}, fmt.Errorf("unknown modifier type %q", m.Type)
	}
	if m.Negative {
		d.Amount = -d.Amount
	}
	return d, nil
}

// Apply applies deltas to the store and returns what actually changed
// after clamping.
func Apply(s *state.Store, deltas []Delta) []Delta {
	applied := make([]Delta, 0, len(deltas))
	for _, d := range deltas {
		if d.Amount == 0 {
			continue
		}
		got := s.AdjustResource(d.Resource, d.Amount)
		applied = append(applied, Delta{Resource: d.Resource, Amount: got, Formula: d.Formula})
	}
	return applied
}

// IsChoice reports whether the modifier needs a resource choice.
func IsChoice(m types.Modifier) bool {
	return m.Type == types.ModifierChoice || m.Type == types.ModifierChoiceButtons
}

// Badge renders an unrolled modifier for preview, e.g. "-1d4 Gold".
func Badge(m types.Modifier) types.Badge {
	mag := fmt.Sprintf("%d", m.Value)
	if m.Formula != "" {
		mag = m.Formula
	}
	sign := "+"
	if m.Negative {
		sign = "-"
	}
	text := fmt.Sprintf("%s%s %s", sign, mag, target(m))
	if m.Duration > 0 {
		text += fmt.Sprintf(" per turn for %d turns", m.Duration)
	}
	return types.Badge{Text: text, Variant: variant(m)}
}

// RolledBadge renders a modifier with the magnitude frozen at preview,
// e.g. "+3 Gold (rolled 1d4)".
func RolledBadge(m types.Modifier, d Delta) types.Badge {
	text := fmt.Sprintf("%+d %s", d.Amount, target(m))
	if d.Formula != "" {
		text += fmt.Sprintf(" (rolled %s)", d.Formula)
	}
	return types.Badge{Text: text, Variant: variant(m)}
}

func variant(m types.Modifier) string {
	if m.Negative != isBurden(m) {
		return "negative"
	}
	return "positive"
}

// target names the resource a modifier touches, or the candidates of an
// unchosen choice.
func target(m types.Modifier) string {
	if !IsChoice(m) {
		return DisplayResource(m.Resource)
	}
	names := make([]string, len(m.Resources))
	for i, r := range m.Resources {
		names[i] = DisplayResource(r)
	}
	return strings.Join(names, " or ")
}

// DeltaBadge renders a resolved delta.
func DeltaBadge(d Delta) types.Badge {
	variant := "positive"
	if (d.Amount < 0) != (d.Resource == "unrest") {
		variant = "negative"
	}
	return types.Badge{Text: fmt.Sprintf("%+d %s", d.Amount, DisplayResource(d.Resource)), Variant: variant}
}

// isBurden reports resources where gaining is bad.
func isBurden(m types.Modifier) bool {
	return m.Resource == "unrest"
}

// DisplayResource turns "imprisoned_unrest" into "Imprisoned Unrest".
func DisplayResource(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
