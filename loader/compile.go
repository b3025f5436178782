// Package loader loads Lua pipeline content and YAML kingdom fixtures into
// Go structs. The Lua VM is discarded after loading, so no Lua runs while
// the engine resolves checks.
package loader

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// anyApproach keys the approach-independent plans in a pipeline's plans table.
const anyApproach = "*"

// rawPipeline holds a pipeline table before compilation.
type rawPipeline struct {
	id       string
	category string
	table    *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// toGoValue converts a Lua value to a Go value recursively.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(val)
	case *lua.LTable:
		// Check if it's an array (sequential integer keys starting at 1).
		maxN := val.MaxN()
		if maxN > 0 {
			arr := make([]any, 0, maxN)
			for i := 1; i <= maxN; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		// Otherwise treat as map.
		m := map[string]any{}
		val.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = toGoValue(v)
			}
		})
		return m
	default:
		return nil
	}
}

// tableToAnyMap converts a Lua table to a map[string]any.
func tableToAnyMap(tbl *lua.LTable) map[string]any {
	if tbl == nil {
		return nil
	}
	m := map[string]any{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			m[string(ks)] = toGoValue(v)
		}
	})
	return m
}

// tableToStrings converts a Lua array of strings.
func tableToStrings(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// arrayTables returns the table elements of a Lua array in order.
func arrayTables(tbl *lua.LTable) []*lua.LTable {
	if tbl == nil {
		return nil
	}
	var out []*lua.LTable
	for i := 1; i <= tbl.MaxN(); i++ {
		if t, ok := tbl.RawGetInt(i).(*lua.LTable); ok {
			out = append(out, t)
		}
	}
	return out
}

// degreeKeyed walks a table keyed by degree name, rejecting unknown keys.
func degreeKeyed(tbl *lua.LTable, fn func(types.Degree, lua.LValue) error) error {
	if tbl == nil {
		return nil
	}
	var err error
	tbl.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		ks, ok := k.(lua.LString)
		if !ok {
			err = fmt.Errorf("degree key %v is not a string", k)
			return
		}
		d := types.Degree(ks)
		if !isDegree(d) {
			err = fmt.Errorf("unknown degree of success %q", string(ks))
			return
		}
		err = fn(d, v)
	})
	return err
}

func isDegree(d types.Degree) bool {
	for _, v := range types.Degrees {
		if v == d {
			return true
		}
	}
	return false
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*state.Defs, error) {
	defs := &state.Defs{
		Pipelines: map[string]types.Pipeline{},
	}

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	defs.Game = compileGame(coll.game)

	for _, raw := range coll.pipelines {
		p, err := compilePipeline(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling pipeline %s: %w", raw.id, err)
		}
		defs.Pipelines[p.ID] = p
	}

	return defs, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Intro:   getString(tbl, "intro"),
	}
}

func compilePipeline(raw rawPipeline) (types.Pipeline, error) {
	tbl := raw.table
	p := types.Pipeline{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Category:    raw.category,
		Tier:        getInt(tbl, "tier"),
		Description: getString(tbl, "description"),
		Traits:      tableToStrings(getTable(tbl, "traits")),
		Outcomes:    map[types.Degree]types.OutcomeDef{},
		Plans:       map[types.PlanKey]types.EffectPlan{},
	}
	if p.Name == "" {
		p.Name = raw.id
	}

	for _, s := range arrayTables(getTable(tbl, "skills")) {
		p.Skills = append(p.Skills, types.SkillOption{
			Skill:       getString(s, "skill"),
			Description: getString(s, "description"),
		})
	}

	if ct := getTable(tbl, "choice"); ct != nil {
		choice, err := compileChoice(ct)
		if err != nil {
			return p, err
		}
		p.Choice = &choice
	}

	err := degreeKeyed(getTable(tbl, "outcomes"), func(d types.Degree, v lua.LValue) error {
		ot, ok := v.(*lua.LTable)
		if !ok {
			return fmt.Errorf("outcome %s is not a table", d)
		}
		p.Outcomes[d] = compileOutcome(ot)
		return nil
	})
	if err != nil {
		return p, err
	}

	if pt := getTable(tbl, "plans"); pt != nil {
		var perr error
		pt.ForEach(func(k, v lua.LValue) {
			if perr != nil {
				return
			}
			approach := lua.LVAsString(k)
			byDegree, ok := v.(*lua.LTable)
			if !ok {
				perr = fmt.Errorf("plans for %q is not a table", approach)
				return
			}
			if approach == anyApproach {
				approach = ""
			}
			perr = degreeKeyed(byDegree, func(d types.Degree, v lua.LValue) error {
				plan, ok := v.(*lua.LTable)
				if !ok {
					return fmt.Errorf("plan %s/%s is not a table", approach, d)
				}
				p.Plans[types.PlanKey{Approach: approach, Degree: d}] = compileCommands(plan)
				return nil
			})
		})
		if perr != nil {
			return p, perr
		}
	}

	for _, it := range arrayTables(getTable(tbl, "interactions")) {
		p.Interactions = append(p.Interactions, compileInteraction(it))
	}

	return p, nil
}

func compileChoice(tbl *lua.LTable) (types.StrategicChoice, error) {
	c := types.StrategicChoice{
		Label:    getString(tbl, "label"),
		Required: getBool(tbl, "required", true),
	}
	for _, ot := range arrayTables(getTable(tbl, "options")) {
		o := types.Option{
			ID:                  getString(ot, "id"),
			Label:               getString(ot, "label"),
			Description:         getString(ot, "description"),
			Icon:                getString(ot, "icon"),
			Skills:              tableToStrings(getTable(ot, "skills")),
			OutcomeDescriptions: map[types.Degree]string{},
			OutcomeBadges:       map[types.Degree][]types.Badge{},
		}
		if pt := getTable(ot, "personality"); pt != nil {
			o.Personality = map[string]int{}
			pt.ForEach(func(k, v lua.LValue) {
				if n, ok := v.(lua.LNumber); ok {
					o.Personality[lua.LVAsString(k)] = int(n)
				}
			})
		}
		err := degreeKeyed(getTable(ot, "outcomes"), func(d types.Degree, v lua.LValue) error {
			o.OutcomeDescriptions[d] = lua.LVAsString(v)
			return nil
		})
		if err != nil {
			return c, fmt.Errorf("option %s: %w", o.ID, err)
		}
		err = degreeKeyed(getTable(ot, "badges"), func(d types.Degree, v lua.LValue) error {
			bt, ok := v.(*lua.LTable)
			if !ok {
				return fmt.Errorf("badges for %s is not a table", d)
			}
			o.OutcomeBadges[d] = compileBadges(bt)
			return nil
		})
		if err != nil {
			return c, fmt.Errorf("option %s: %w", o.ID, err)
		}
		if o.Label == "" {
			o.Label = o.ID
		}
		c.Options = append(c.Options, o)
	}
	return c, nil
}

func compileOutcome(tbl *lua.LTable) types.OutcomeDef {
	out := types.OutcomeDef{
		Description: getString(tbl, "description"),
		EndsEvent:   getBool(tbl, "ends_event", false),
		Commands:    compileCommands(getTable(tbl, "commands")),
		Badges:      compileBadges(getTable(tbl, "badges")),
	}
	for _, mt := range arrayTables(getTable(tbl, "modifiers")) {
		out.Modifiers = append(out.Modifiers, compileModifier(mt))
	}
	return out
}

func compileModifier(tbl *lua.LTable) types.Modifier {
	typ := types.ModifierType(getString(tbl, "type"))
	if typ == "" {
		typ = types.ModifierStatic
	}
	return types.Modifier{
		Type:      typ,
		Resource:  getString(tbl, "resource"),
		Resources: tableToStrings(getTable(tbl, "resources")),
		Value:     getInt(tbl, "value"),
		Formula:   getString(tbl, "formula"),
		Negative:  getBool(tbl, "negative", false),
		Duration:  getInt(tbl, "duration"),
	}
}

func compileBadges(tbl *lua.LTable) []types.Badge {
	var out []types.Badge
	for _, bt := range arrayTables(tbl) {
		out = append(out, types.Badge{
			Icon:    getString(bt, "icon"),
			Text:    getString(bt, "text"),
			Variant: getString(bt, "variant"),
		})
	}
	return out
}

func compileCommands(tbl *lua.LTable) []types.CommandRequest {
	var out []types.CommandRequest
	for _, ct := range arrayTables(tbl) {
		params := tableToAnyMap(ct)
		delete(params, "type")
		out = append(out, types.CommandRequest{
			Type:   getString(ct, "type"),
			Params: params,
		})
	}
	return out
}

func compileInteraction(tbl *lua.LTable) types.InteractionDef {
	def := types.InteractionDef{
		ID:         getString(tbl, "id"),
		Type:       getString(tbl, "type"),
		Title:      getString(tbl, "title"),
		TitleExpr:  getString(tbl, "title_expr"),
		Condition:  getString(tbl, "condition"),
		Validator:  getString(tbl, "validator"),
		Params:     tableToAnyMap(getTable(tbl, "params")),
		Settle:     getString(tbl, "settle"),
		SettleWith: tableToAnyMap(getTable(tbl, "settle_with")),
	}
	if def.Type == "" {
		def.Type = "map-selection"
	}
	// count is a literal number or a CEL expression.
	switch v := tbl.RawGetString("count").(type) {
	case lua.LNumber:
		def.Count = int(v)
	case lua.LString:
		def.CountExpr = string(v)
	}
	return def
}

// sortedLuaFiles returns .lua files with game.lua first and the rest
// sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
