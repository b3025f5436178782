package loader

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/kingdomcore/engine/commands"
)

// Categories map pipeline constructors to their category.
var categories = map[string]string{
	"Event":    "event",
	"Incident": "incident",
	"Action":   "action",
}

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector, reg *commands.Registry) {
	registerConstructors(L, coll)
	registerModifierHelpers(L)
	registerCommandHelpers(L, reg)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Event "id" { ... }: curried, so Event("id") returns a function that
	// takes the definition table. Incident and Action work the same way.
	for name, category := range categories {
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			id := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				tbl := L.CheckTable(1)
				if coll.seen[id] {
					L.RaiseError("duplicate pipeline %q", id)
				}
				coll.seen[id] = true
				coll.pipelines = append(coll.pipelines, rawPipeline{id: id, category: category, table: tbl})
				return 0
			}))
			return 1
		}))
	}

	// Option "id" { ... } and Interaction "id" { ... } return their table
	// with the id filled in, for use inside a pipeline definition.
	for _, name := range []string{"Option", "Interaction"} {
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			id := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				tbl := L.CheckTable(1)
				tbl.RawSetString("id", lua.LString(id))
				L.Push(tbl)
				return 1
			}))
			return 1
		}))
	}

	// Badge("text", variant?, icon?)
	L.SetGlobal("Badge", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("text", lua.LString(L.CheckString(1)))
		tbl.RawSetString("variant", lua.LString(L.OptString(2, "neutral")))
		if icon := L.OptString(3, ""); icon != "" {
			tbl.RawSetString("icon", lua.LString(icon))
		}
		L.Push(tbl)
		return 1
	}))
}

func registerModifierHelpers(L *lua.LState) {
	// Static("gold", 2, { negative = true })
	L.SetGlobal("Static", L.NewFunction(func(L *lua.LState) int {
		tbl := modifierTable(L, "static", L.OptTable(3, nil))
		tbl.RawSetString("resource", lua.LString(L.CheckString(1)))
		tbl.RawSetString("value", L.CheckNumber(2))
		L.Push(tbl)
		return 1
	}))

	// Dice("unrest", "1d4", { negative = true })
	L.SetGlobal("Dice", L.NewFunction(func(L *lua.LState) int {
		tbl := modifierTable(L, "dice", L.OptTable(3, nil))
		tbl.RawSetString("resource", lua.LString(L.CheckString(1)))
		tbl.RawSetString("formula", lua.LString(L.CheckString(2)))
		L.Push(tbl)
		return 1
	}))

	// ResourceChoice({ "lumber", "stone" }, 2 or "1d4", { buttons = true })
	L.SetGlobal("ResourceChoice", L.NewFunction(func(L *lua.LState) int {
		opts := L.OptTable(3, nil)
		typ := "choice"
		if opts != nil && getBool(opts, "buttons", false) {
			typ = "choice-buttons"
		}
		tbl := modifierTable(L, typ, opts)
		tbl.RawSetString("resources", L.CheckTable(1))
		switch v := L.Get(2).(type) {
		case lua.LNumber:
			tbl.RawSetString("value", v)
		case lua.LString:
			tbl.RawSetString("formula", v)
		default:
			L.ArgError(2, "number or dice formula expected")
		}
		L.Push(tbl)
		return 1
	}))

	// Ongoing(Static("food", 1, { negative = true }), 3)
	L.SetGlobal("Ongoing", L.NewFunction(func(L *lua.LState) int {
		mod := L.CheckTable(1)
		mod.RawSetString("duration", L.CheckNumber(2))
		L.Push(mod)
		return 1
	}))
}

func modifierTable(L *lua.LState, typ string, opts *lua.LTable) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("type", lua.LString(typ))
	if opts == nil {
		return tbl
	}
	if getBool(opts, "negative", false) {
		tbl.RawSetString("negative", lua.LTrue)
	}
	if d := getInt(opts, "duration"); d > 0 {
		tbl.RawSetString("duration", lua.LNumber(d))
	}
	return tbl
}

// registerCommandHelpers exposes one constructor per registered command
// type, e.g. DamageStructure { count = "1d2" }, plus the generic
// Command("type", { ... }).
func registerCommandHelpers(L *lua.LState, reg *commands.Registry) {
	L.SetGlobal("Command", L.NewFunction(func(L *lua.LState) int {
		L.Push(commandTable(L, L.CheckString(1), L.OptTable(2, nil)))
		return 1
	}))
	for _, typ := range reg.Types() {
		L.SetGlobal(helperName(typ), L.NewFunction(func(L *lua.LState) int {
			L.Push(commandTable(L, typ, L.OptTable(1, nil)))
			return 1
		}))
	}
}

func commandTable(L *lua.LState, typ string, params *lua.LTable) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("type", lua.LString(typ))
	if params != nil {
		params.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok && string(ks) != "type" {
				tbl.RawSetString(string(ks), v)
			}
		})
	}
	return tbl
}

// helperName turns "damage_structure" into "DamageStructure".
func helperName(typ string) string {
	var b strings.Builder
	for _, part := range strings.Split(typ, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
