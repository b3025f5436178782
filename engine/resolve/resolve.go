// Package resolve maps names typed at the shell to pipeline, approach and
// degree identifiers.
package resolve

import (
	"fmt"
	"strings"

	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// AmbiguityError indicates multiple candidates matched a name.
type AmbiguityError struct {
	Kind       string
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("which %s %q? (%s)", e.Kind, e.Name, names)
}

// NotFoundError indicates nothing matched a name.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s called %q", e.Kind, e.Name)
}

var degreeAliases = map[string]types.Degree{
	"criticalsuccess":  types.CriticalSuccess,
	"critical-success": types.CriticalSuccess,
	"critsuccess":      types.CriticalSuccess,
	"crit-success":     types.CriticalSuccess,
	"crit":             types.CriticalSuccess,
	"cs":               types.CriticalSuccess,
	"success":          types.Success,
	"s":                types.Success,
	"failure":          types.Failure,
	"fail":             types.Failure,
	"f":                types.Failure,
	"criticalfailure":  types.CriticalFailure,
	"critical-failure": types.CriticalFailure,
	"critfail":         types.CriticalFailure,
	"crit-fail":        types.CriticalFailure,
	"cf":               types.CriticalFailure,
}

// Degree maps a typed degree ("cs", "crit-fail", "success") to a Degree.
func Degree(name string) (types.Degree, error) {
	if d, ok := degreeAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return d, nil
	}
	return "", &NotFoundError{Kind: "degree of success", Name: name}
}

// Pipeline maps a pipeline id or name to its id. Exact ids win; then
// whole-name matches; then a single word of the name.
func Pipeline(defs *state.Defs, name string) (string, error) {
	if _, ok := defs.Pipeline(name); ok {
		return name, nil
	}
	nameLower := strings.ToLower(strings.TrimSpace(name))
	var exact, partial []string
	for _, id := range defs.PipelineIDs() {
		p := defs.Pipelines[id]
		switch {
		case matchesWhole(id, p.Name, nameLower):
			exact = append(exact, id)
		case matchesWord(p.Name, nameLower):
			partial = append(partial, id)
		}
	}
	return pick("pipeline", name, exact, partial)
}

// Approach maps an option id or label on a choice pipeline to its id.
func Approach(p types.Pipeline, name string) (string, error) {
	if p.Choice == nil {
		return "", fmt.Errorf("%s has no strategic choice", p.ID)
	}
	nameLower := strings.ToLower(strings.TrimSpace(name))
	var exact, partial []string
	for _, o := range p.Choice.Options {
		switch {
		case matchesWhole(o.ID, o.Label, nameLower):
			exact = append(exact, o.ID)
		case matchesWord(o.Label, nameLower):
			partial = append(partial, o.ID)
		}
	}
	return pick("approach", name, exact, partial)
}

func pick(kind, name string, exact, partial []string) (string, error) {
	matches := exact
	if len(matches) == 0 {
		matches = partial
	}
	switch len(matches) {
	case 0:
		return "", &NotFoundError{Kind: kind, Name: name}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguityError{Kind: kind, Name: name, Candidates: matches}
	}
}

// matchesWhole checks the id or the full display name, case-insensitively.
// "bandit raid" also matches the id "bandit-raid" or "bandit_raid".
func matchesWhole(id, display, nameLower string) bool {
	idLower := strings.ToLower(id)
	if idLower == nameLower || strings.ToLower(display) == nameLower {
		return true
	}
	return strings.ReplaceAll(nameLower, " ", "-") == idLower ||
		strings.ReplaceAll(nameLower, " ", "_") == idLower
}

// matchesWord checks whether the query is one word of the display name.
// e.g. "raid" matches "Bandit Raid".
func matchesWord(display, nameLower string) bool {
	for _, w := range strings.Fields(strings.ToLower(display)) {
		if w == nameLower {
			return true
		}
	}
	return false
}
