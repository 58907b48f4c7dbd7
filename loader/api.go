package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerElementHelpers(L)
}

// named registers a curried constructor: Weapon "Club" { ... } calls
// Weapon("Club") which returns a function taking the definition table.
func named(L *lua.LState, global string, into *[]rawDef) {
	L.SetGlobal(global, L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			*into = append(*into, rawDef{name: name, table: tbl})
			return 0
		}))
		return 1
	}))
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Level { level = 1, xp = 0, ... }
	L.SetGlobal("Level", L.NewFunction(func(L *lua.LState) int {
		coll.levels = append(coll.levels, L.CheckTable(1))
		return 0
	}))

	named(L, "Weapon", &coll.weapons)
	named(L, "Armor", &coll.armors)
	named(L, "Shield", &coll.shields)
	named(L, "Tool", &coll.tools)
	named(L, "Spell", &coll.spells)
	named(L, "Monster", &coll.monsters)
	named(L, "MonsterAction", &coll.monsterActions)
	named(L, "SpecialMonster", &coll.specials)
	named(L, "Hero", &coll.heroes)
	named(L, "Map", &coll.maps)
	named(L, "Dialog", &coll.dialogs)
}

// element builds a dialog element table tagged with kind.
func element(L *lua.LState, kind string) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("kind", lua.LString(kind))
	return tbl
}

// optTable returns argument n as a table, or an empty table when absent.
func optTable(L *lua.LState, n int) *lua.LTable {
	if L.Get(n) == lua.LNil {
		return L.NewTable()
	}
	return L.CheckTable(n)
}

func registerElementHelpers(L *lua.LState) {
	// Say("text")
	L.SetGlobal("Say", L.NewFunction(func(L *lua.LState) int {
		tbl := element(L, "string")
		tbl.RawSetString("text", lua.LString(L.CheckString(1)))
		L.Push(tbl)
		return 1
	}))

	// Branch { Option("Yes", {...}), Option("No", {...}) }
	L.SetGlobal("Branch", L.NewFunction(func(L *lua.LState) int {
		tbl := element(L, "branch")
		tbl.RawSetString("options", L.CheckTable(1))
		L.Push(tbl)
		return 1
	}))

	// Option("label", { ... })
	L.SetGlobal("Option", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("label", lua.LString(L.CheckString(1)))
		tbl.RawSetString("dialog", optTable(L, 2))
		L.Push(tbl)
		return 1
	}))

	// Var("NAME", value) where value may be a number or a "lo-hi" range.
	L.SetGlobal("Var", L.NewFunction(func(L *lua.LState) int {
		tbl := element(L, "variable")
		tbl.RawSetString("name", lua.LString(L.CheckString(1)))
		tbl.RawSetString("value", L.CheckAny(2))
		L.Push(tbl)
		return 1
	}))

	// GoTo("label")
	L.SetGlobal("GoTo", L.NewFunction(func(L *lua.LState) int {
		tbl := element(L, "goto")
		tbl.RawSetString("label", lua.LString(L.CheckString(1)))
		L.Push(tbl)
		return 1
	}))

	// VendorBuy { "Herb", "Torch" } or VendorBuy { variable = "STOCK" }
	L.SetGlobal("VendorBuy", L.NewFunction(func(L *lua.LState) int {
		tbl := element(L, "vendor_buy")
		tbl.RawSetString("vendor", optTable(L, 1))
		L.Push(tbl)
		return 1
	}))

	// VendorSell { ... }, same shape as VendorBuy. No items means anything
	// with a price.
	L.SetGlobal("VendorSell", L.NewFunction(func(L *lua.LState) int {
		tbl := element(L, "vendor_sell")
		tbl.RawSetString("vendor", optTable(L, 1))
		L.Push(tbl)
		return 1
	}))

	// Check("HAS_ITEM", { name = "Key", failed = { ... } })
	L.SetGlobal("Check", L.NewFunction(func(L *lua.LState) int {
		tbl := element(L, "check")
		tbl.RawSetString("check", lua.LString(L.CheckString(1)))
		tbl.RawSetString("params", optTable(L, 2))
		L.Push(tbl)
		return 1
	}))

	// Assert("HAS_GOLD", { count = 10 }): a check that ends the current
	// sequence when it fails.
	L.SetGlobal("Assert", L.NewFunction(func(L *lua.LState) int {
		tbl := element(L, "check")
		tbl.RawSetString("check", lua.LString(L.CheckString(1)))
		tbl.RawSetString("params", optTable(L, 2))
		tbl.RawSetString("assert", lua.LTrue)
		L.Push(tbl)
		return 1
	}))

	// Action("DAMAGE_TARGET", { count = "5-10", category = "MAGICAL" })
	L.SetGlobal("Action", L.NewFunction(func(L *lua.LState) int {
		tbl := element(L, "action")
		tbl.RawSetString("action", lua.LString(L.CheckString(1)))
		if name, ok := L.Get(2).(lua.LString); ok {
			// Action("PLAY_SOUND", "hit") names the action's subject directly.
			params := L.NewTable()
			params.RawSetString("name", name)
			tbl.RawSetString("params", params)
		} else {
			tbl.RawSetString("params", optTable(L, 2))
		}
		L.Push(tbl)
		return 1
	}))
}
