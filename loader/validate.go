package loader

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nathoo/kingdomcore/engine/commands"
	"github.com/nathoo/kingdomcore/engine/dice"
	"github.com/nathoo/kingdomcore/engine/interaction"
	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

var validCategories = map[string]bool{
	"event":    true,
	"incident": true,
	"action":   true,
}

var validModifierTypes = map[types.ModifierType]bool{
	types.ModifierStatic:        true,
	types.ModifierDice:          true,
	types.ModifierChoice:        true,
	types.ModifierChoiceButtons: true,
}

// countParams are command params that take a literal or a dice formula.
var countParams = []string{"count", "amount", "turns"}

// validate checks the compiled defs for consistency: modifier shapes, dice
// formulas, command types, plan keys, validators and CEL expressions.
func validate(defs *state.Defs, reg *commands.Registry) error {
	ve := &ValidationError{}

	if defs.Game.Title == "" {
		ve.errorf("Game.Title is required")
	}
	if len(defs.Pipelines) == 0 {
		ve.warnf("no pipelines defined")
	}

	ev, err := interaction.NewEvaluator()
	if err != nil {
		return err
	}

	for _, id := range defs.PipelineIDs() {
		validatePipeline(defs.Pipelines[id], reg, ev, ve)
	}

	for _, w := range ve.Warnings {
		slog.Warn("content warning", "detail", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validatePipeline(p types.Pipeline, reg *commands.Registry, ev *interaction.Evaluator, ve *ValidationError) {
	if !validCategories[p.Category] {
		ve.errorf("pipeline %q has unknown category %q", p.ID, p.Category)
	}
	if len(p.Outcomes) == 0 {
		ve.warnf("pipeline %q has no outcomes", p.ID)
	}

	options := map[string]bool{}
	if p.Choice != nil {
		if len(p.Choice.Options) == 0 {
			ve.errorf("pipeline %q has a choice with no options", p.ID)
		}
		for _, o := range p.Choice.Options {
			if o.ID == "" {
				ve.errorf("pipeline %q has an option without an id", p.ID)
				continue
			}
			if options[o.ID] {
				ve.errorf("pipeline %q has duplicate option %q", p.ID, o.ID)
			}
			options[o.ID] = true
		}
	}

	for _, d := range types.Degrees {
		out, ok := p.Outcomes[d]
		if !ok {
			continue
		}
		where := fmt.Sprintf("pipeline %q %s", p.ID, d)
		for i, m := range out.Modifiers {
			validateModifier(m, fmt.Sprintf("%s modifier %d", where, i+1), ve)
		}
		validateCommands(out.Commands, where, reg, ve)
	}

	for key, plan := range p.Plans {
		where := fmt.Sprintf("pipeline %q plan %s/%s", p.ID, key.Approach, key.Degree)
		if key.Approach != "" {
			if p.Choice == nil {
				ve.errorf("%s is keyed by approach but the pipeline has no choice", where)
			} else if !options[key.Approach] {
				ve.errorf("%s references undefined option %q", where, key.Approach)
			}
		}
		validateCommands(plan, where, reg, ve)
	}

	seen := map[string]bool{}
	for _, it := range p.Interactions {
		where := fmt.Sprintf("pipeline %q interaction %q", p.ID, it.ID)
		if it.ID == "" {
			ve.errorf("pipeline %q has an interaction without an id", p.ID)
		} else if seen[it.ID] {
			ve.errorf("pipeline %q has duplicate interaction %q", p.ID, it.ID)
		}
		seen[it.ID] = true
		if it.Type != "map-selection" {
			ve.errorf("%s has unknown type %q", where, it.Type)
		}
		if it.Validator != "" && !interaction.Known(it.Validator) {
			ve.errorf("%s uses unknown validator %q (known: %s)", where, it.Validator, strings.Join(interaction.Names(), ", "))
		}
		if it.Settle != "" && !reg.Has(it.Settle) {
			ve.errorf("%s settles with unknown command type %q", where, it.Settle)
		}
		if it.Count <= 0 && it.CountExpr == "" {
			ve.warnf("%s has no count and will always be skipped", where)
		}
		for _, expr := range []string{it.Condition, it.CountExpr, it.TitleExpr} {
			if expr == "" {
				continue
			}
			if err := ev.Check(expr); err != nil {
				ve.errorf("%s: %v", where, err)
			}
		}
	}
}

func validateModifier(m types.Modifier, where string, ve *ValidationError) {
	if !validModifierTypes[m.Type] {
		ve.errorf("%s has unknown type %q", where, m.Type)
		return
	}
	if m.Duration < 0 {
		ve.errorf("%s has negative duration", where)
	}
	switch m.Type {
	case types.ModifierStatic:
		if m.Resource == "" {
			ve.errorf("%s needs a resource", where)
		}
	case types.ModifierDice:
		if m.Resource == "" {
			ve.errorf("%s needs a resource", where)
		}
		if err := dice.Validate(m.Formula); err != nil {
			ve.errorf("%s: %v", where, err)
		}
	case types.ModifierChoice, types.ModifierChoiceButtons:
		if len(m.Resources) == 0 {
			ve.errorf("%s needs at least one resource to choose from", where)
		}
		if m.Formula != "" {
			if err := dice.Validate(m.Formula); err != nil {
				ve.errorf("%s: %v", where, err)
			}
		}
	}
}

func validateCommands(reqs []types.CommandRequest, where string, reg *commands.Registry, ve *ValidationError) {
	for i, req := range reqs {
		if !reg.Has(req.Type) {
			ve.errorf("%s command %d has unknown type %q", where, i+1, req.Type)
			continue
		}
		for _, key := range countParams {
			if s, ok := req.Params[key].(string); ok {
				if err := dice.Validate(s); err != nil {
					ve.errorf("%s command %d (%s) param %q: %v", where, i+1, req.Type, key, err)
				}
			}
		}
	}
}
