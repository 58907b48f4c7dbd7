// Package loader loads Lua game content into Go structs at compile time.
// The Lua VM is discarded after loading: zero Lua at runtime.
package loader

import (
	"fmt"
	"sort"
	"strconv"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/warriorcore/engine/state"
	"github.com/nathoo/warriorcore/types"
)

// Monster defaults applied when a field is omitted.
const (
	defaultBlockFactor = 0.25
	defaultAttack      = "ATTACK"
)

// The get helpers read fields from an optional table: a nil table or a
// missing field yields the zero value or default.

// getString returns a string field from a Lua table, or "" if missing.
// Numbers are converted so counts may be written either way.
func getString(tbl *lua.LTable, key string) string {
	if tbl == nil {
		return ""
	}
	switch v := tbl.RawGetString(key).(type) {
	case lua.LString:
		return string(v)
	case lua.LNumber:
		return numberString(v)
	}
	return ""
}

func numberString(n lua.LNumber) string {
	f := float64(n)
	if f == float64(int(f)) {
		return strconv.Itoa(int(f))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	if tbl == nil {
		return def
	}
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or def if missing.
func getNumber(tbl *lua.LTable, key string, def float64) float64 {
	if tbl == nil {
		return def
	}
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return def
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key, 0))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if tbl == nil {
		return nil
	}
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// getRange reads either a single number or a {lo, hi} pair.
func getRange(tbl *lua.LTable, key string) (int, int) {
	switch v := tbl.RawGetString(key).(type) {
	case lua.LNumber:
		return int(v), int(v)
	case *lua.LTable:
		lo, _ := v.RawGetInt(1).(lua.LNumber)
		hi, ok := v.RawGetInt(2).(lua.LNumber)
		if !ok {
			hi = lo
		}
		return int(lo), int(hi)
	}
	return 0, 0
}

// getPoint reads x and y fields. It returns nil when neither is set.
func getPoint(tbl *lua.LTable) *types.Point {
	if tbl == nil {
		return nil
	}
	if tbl.RawGetString("x") == lua.LNil && tbl.RawGetString("y") == lua.LNil {
		return nil
	}
	return &types.Point{X: getInt(tbl, "x"), Y: getInt(tbl, "y")}
}

// getStrings returns the array part of a table field as strings.
func getStrings(tbl *lua.LTable, key string) []string {
	arr := getTable(tbl, key)
	if arr == nil {
		return nil
	}
	return arrayStrings(arr)
}

func arrayStrings(arr *lua.LTable) []string {
	if arr == nil {
		return nil
	}
	var result []string
	for i := 1; i <= arr.MaxN(); i++ {
		if s, ok := arr.RawGetInt(i).(lua.LString); ok {
			result = append(result, string(s))
		}
	}
	return result
}

// tableToFloatMap converts a Lua table to a map[string]float64.
func tableToFloatMap(tbl *lua.LTable) map[string]float64 {
	if tbl == nil {
		return nil
	}
	m := map[string]float64{}
	tbl.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok {
			return
		}
		if n, ok := v.(lua.LNumber); ok {
			m[string(ks)] = float64(n)
		}
	})
	return m
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*state.Defs, error) {
	defs := state.NewDefs()

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	defs.Game = compileGame(coll.game)

	for _, tbl := range coll.levels {
		li := types.LevelInfo{
			Level:    getInt(tbl, "level"),
			XP:       getInt(tbl, "xp"),
			Strength: getInt(tbl, "strength"),
			Agility:  getInt(tbl, "agility"),
			HP:       getInt(tbl, "hp"),
			MP:       getInt(tbl, "mp"),
			Spell:    getString(tbl, "spell"),
		}
		defs.Levels = append(defs.Levels, li)
	}
	sort.Slice(defs.Levels, func(i, j int) bool { return defs.Levels[i].Level < defs.Levels[j].Level })

	seen := map[string]bool{}
	for _, raw := range coll.weapons {
		if err := unique(seen, "item", raw.name); err != nil {
			return nil, err
		}
		use, err := compileDialog(getTable(raw.table, "use"))
		if err != nil {
			return nil, fmt.Errorf("compiling weapon %s: %w", raw.name, err)
		}
		defs.Weapons[raw.name] = &types.Weapon{
			Name:      raw.name,
			Attack:    getInt(raw.table, "attack"),
			GP:        getInt(raw.table, "gp"),
			UseDialog: use,
		}
	}

	for _, raw := range coll.armors {
		if err := unique(seen, "item", raw.name); err != nil {
			return nil, err
		}
		armor := &types.Armor{
			Name:        raw.name,
			Defense:     getInt(raw.table, "defense"),
			GP:          getInt(raw.table, "gp"),
			Resistances: tableToFloatMap(getTable(raw.table, "resistances")),
		}
		if mods := tableToFloatMap(getTable(raw.table, "damage_modifiers")); len(mods) > 0 {
			armor.DamageModifiers = map[types.ActionCategory]float64{}
			for category, m := range mods {
				armor.DamageModifiers[types.ActionCategory(category)] = m
			}
		}
		defs.Armors[raw.name] = armor
	}

	for _, raw := range coll.shields {
		if err := unique(seen, "item", raw.name); err != nil {
			return nil, err
		}
		defs.Shields[raw.name] = &types.Shield{
			Name:    raw.name,
			Defense: getInt(raw.table, "defense"),
			GP:      getInt(raw.table, "gp"),
		}
	}

	for _, raw := range coll.tools {
		if err := unique(seen, "item", raw.name); err != nil {
			return nil, err
		}
		use, err := compileDialog(getTable(raw.table, "use"))
		if err != nil {
			return nil, fmt.Errorf("compiling tool %s: %w", raw.name, err)
		}
		defs.Tools[raw.name] = &types.Tool{
			Name:           raw.name,
			GP:             getInt(raw.table, "gp"),
			UseDialog:      use,
			UsableInCombat: getBool(raw.table, "in_combat", false),
			Consumable:     getBool(raw.table, "consumable", false),
		}
	}

	for _, raw := range coll.spells {
		if err := unique(seen, "spell", raw.name); err != nil {
			return nil, err
		}
		use, err := compileDialog(getTable(raw.table, "use"))
		if err != nil {
			return nil, fmt.Errorf("compiling spell %s: %w", raw.name, err)
		}
		defs.Spells[raw.name] = &types.Spell{
			Name:              raw.name,
			MP:                getInt(raw.table, "mp"),
			AvailableInCombat: getBool(raw.table, "in_combat", false),
			AvailableOutside:  getBool(raw.table, "outside", false),
			UseDialog:         use,
		}
	}

	for _, raw := range coll.monsters {
		if err := unique(seen, "monster", raw.name); err != nil {
			return nil, err
		}
		defs.Monsters[raw.name] = compileMonster(raw)
	}

	for _, raw := range coll.monsterActions {
		if err := unique(seen, "monster action", raw.name); err != nil {
			return nil, err
		}
		d, err := compileDialog(raw.table)
		if err != nil {
			return nil, fmt.Errorf("compiling monster action %s: %w", raw.name, err)
		}
		defs.MonsterActions[raw.name] = &types.MonsterAction{Name: raw.name, Dialog: d}
	}

	for _, raw := range coll.specials {
		sm, err := compileSpecialMonster(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling special monster %s: %w", raw.name, err)
		}
		defs.SpecialMonsters = append(defs.SpecialMonsters, sm)
	}

	for _, raw := range coll.heroes {
		if err := unique(seen, "hero", raw.name); err != nil {
			return nil, err
		}
		defs.Heroes[raw.name] = compileHeroDef(raw.name, raw.table)
	}

	for _, raw := range coll.maps {
		if err := unique(seen, "map", raw.name); err != nil {
			return nil, err
		}
		defs.Maps[raw.name] = compileMap(raw)
	}

	for _, raw := range coll.dialogs {
		if err := unique(seen, "dialog", raw.name); err != nil {
			return nil, err
		}
		doc, err := compileDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling dialog %s: %w", raw.name, err)
		}
		defs.Dialogs[raw.name] = doc
	}

	return defs, nil
}

// unique records kind/name in seen and fails on a repeat.
func unique(seen map[string]bool, kind, name string) error {
	key := kind + ":" + name
	if seen[key] {
		return fmt.Errorf("duplicate %s %q", kind, name)
	}
	seen[key] = true
	return nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	game := types.GameDef{
		Title:         getString(tbl, "title"),
		Author:        getString(tbl, "author"),
		Version:       getString(tbl, "version"),
		Intro:         getString(tbl, "intro"),
		DefaultWeapon: getString(tbl, "default_weapon"),
		CombatMusic:   getString(tbl, "combat_music"),
		VictoryMusic:  getString(tbl, "victory_music"),
		MaxItems:      getInt(tbl, "max_items"),
		Gold:          getInt(tbl, "gold"),
	}
	if start := getTable(tbl, "start"); start != nil {
		game.StartMap = getString(start, "map")
		if p := getPoint(start); p != nil {
			game.StartPos = *p
		}
	}
	if hero := getTable(tbl, "hero"); hero != nil {
		game.Hero = compileHeroDef(getString(hero, "name"), hero)
	}
	return game
}

func compileHeroDef(name string, tbl *lua.LTable) types.HeroDef {
	return types.HeroDef{
		Name:   name,
		Level:  getInt(tbl, "level"),
		Weapon: getString(tbl, "weapon"),
		Armor:  getString(tbl, "armor"),
		Shield: getString(tbl, "shield"),
		Items:  getStrings(tbl, "items"),
	}
}

// compileMonster fills a MonsterInfo. Monsters without action rules just
// attack; monsters may run away and take critical hits unless told otherwise.
func compileMonster(raw rawDef) *types.MonsterInfo {
	tbl := raw.table
	info := &types.MonsterInfo{
		Name:               raw.name,
		Strength:           getInt(tbl, "strength"),
		Agility:            getInt(tbl, "agility"),
		XP:                 getInt(tbl, "xp"),
		Dodge:              getInt(tbl, "dodge"),
		BlockFactor:        getNumber(tbl, "block_factor", defaultBlockFactor),
		Resistances:        tableToFloatMap(getTable(tbl, "resistances")),
		MayRunAway:         getBool(tbl, "may_run_away", true),
		AllowsCriticalHits: getBool(tbl, "critical_hits", true),
	}
	info.MinHP, info.MaxHP = getRange(tbl, "hp")
	info.MinGP, info.MaxGP = getRange(tbl, "gp")

	if rules := getTable(tbl, "actions"); rules != nil {
		for i := 1; i <= rules.MaxN(); i++ {
			rt, ok := rules.RawGetInt(i).(*lua.LTable)
			if !ok {
				continue
			}
			info.ActionRules = append(info.ActionRules, types.MonsterActionRule{
				Action:               getString(rt, "action"),
				Probability:          getNumber(rt, "probability", 1),
				HealthRatioThreshold: getNumber(rt, "health_ratio", 1),
			})
		}
	}
	if len(info.ActionRules) == 0 {
		info.ActionRules = []types.MonsterActionRule{{Action: defaultAttack, Probability: 1, HealthRatioThreshold: 1}}
	}
	return info
}

func compileSpecialMonster(raw rawDef) (*types.SpecialMonster, error) {
	tbl := raw.table
	sm := &types.SpecialMonster{
		Name:    raw.name,
		Monster: getString(tbl, "monster"),
		MapName: getString(tbl, "map"),
	}
	if p := getPoint(tbl); p != nil {
		sm.MapPos = *p
	}
	var err error
	if sm.ApproachDialog, err = compileDialog(getTable(tbl, "approach")); err != nil {
		return nil, fmt.Errorf("approach: %w", err)
	}
	if sm.VictoryDialog, err = compileDialog(getTable(tbl, "victory")); err != nil {
		return nil, fmt.Errorf("victory: %w", err)
	}
	if sm.RunAwayDialog, err = compileDialog(getTable(tbl, "run_away")); err != nil {
		return nil, fmt.Errorf("run_away: %w", err)
	}
	return sm, nil
}

func compileMap(raw rawDef) types.MapDef {
	tbl := raw.table
	m := types.MapDef{
		Name:    raw.name,
		Outside: getBool(tbl, "outside", false),
		Music:   getString(tbl, "music"),
		Width:   getInt(tbl, "width"),
		Height:  getInt(tbl, "height"),
	}
	if encounters := getTable(tbl, "encounters"); encounters != nil {
		for i := 1; i <= encounters.MaxN(); i++ {
			et, ok := encounters.RawGetInt(i).(*lua.LTable)
			if !ok {
				continue
			}
			weight := getInt(et, "weight")
			if et.RawGetString("weight") == lua.LNil {
				weight = 1
			}
			m.Encounters = append(m.Encounters, types.EncounterEntry{
				Monster: getString(et, "monster"),
				Weight:  weight,
			})
		}
	}
	return m
}

// compileDocument compiles a Dialog "name" { ... } table: its array part is
// the entry sequence and its labels field holds the GoTo targets.
func compileDocument(raw rawDef) (types.DialogDocument, error) {
	doc := types.DialogDocument{Name: raw.name}
	entry, err := compileDialog(raw.table)
	if err != nil {
		return doc, err
	}
	doc.Entry = entry

	labels := getTable(raw.table, "labels")
	if labels == nil {
		return doc, nil
	}
	doc.Labels = map[string]types.DialogType{}
	var labelErr error
	labels.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		seq, isTable := v.(*lua.LTable)
		if !ok || !isTable || labelErr != nil {
			return
		}
		d, err := compileDialog(seq)
		if err != nil {
			labelErr = fmt.Errorf("label %s: %w", name, err)
			return
		}
		doc.Labels[string(name)] = d
	})
	return doc, labelErr
}

// compileDialog compiles the array part of tbl into a dialog sequence. A
// nil table is an empty dialog.
func compileDialog(tbl *lua.LTable) (types.DialogType, error) {
	if tbl == nil {
		return nil, nil
	}
	var d types.DialogType
	for i := 1; i <= tbl.MaxN(); i++ {
		et, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("element %d is not a dialog element", i)
		}
		el, err := compileElement(et)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		d = append(d, el)
	}
	return d, nil
}

func compileElement(tbl *lua.LTable) (types.DialogElement, error) {
	kind := types.DialogElementKind(getString(tbl, "kind"))
	el := types.DialogElement{Kind: kind}

	switch kind {
	case types.ElementString:
		el.Text = getString(tbl, "text")

	case types.ElementBranch:
		options := getTable(tbl, "options")
		if options == nil {
			return el, fmt.Errorf("branch without options")
		}
		for i := 1; i <= options.MaxN(); i++ {
			ot, ok := options.RawGetInt(i).(*lua.LTable)
			if !ok {
				return el, fmt.Errorf("branch option %d is not an Option", i)
			}
			d, err := compileDialog(getTable(ot, "dialog"))
			if err != nil {
				return el, fmt.Errorf("option %q: %w", getString(ot, "label"), err)
			}
			el.Options = append(el.Options, types.DialogOption{Label: getString(ot, "label"), Dialog: d})
		}

	case types.ElementVariable:
		el.Variable = &types.DialogVariable{
			Name:  getString(tbl, "name"),
			Value: getString(tbl, "value"),
		}

	case types.ElementGoTo:
		el.Label = getString(tbl, "label")

	case types.ElementVendorBuy, types.ElementVendorSell:
		vendor := getTable(tbl, "vendor")
		el.Vendor = &types.DialogVendorOptions{
			Items:    arrayStrings(vendor),
			Variable: getString(vendor, "variable"),
		}

	case types.ElementCheck:
		params := getTable(tbl, "params")
		failed, err := compileDialog(getTable(params, "failed"))
		if err != nil {
			return el, fmt.Errorf("failed dialog: %w", err)
		}
		el.Check = &types.DialogCheck{
			Kind:         types.DialogCheckKind(getString(tbl, "check")),
			FailedDialog: failed,
			Name:         getString(params, "name"),
			Count:        getString(params, "count"),
			MapName:      getString(params, "map"),
			MapPos:       getPoint(params),
			IsAssert:     getBool(tbl, "assert", false),
		}

	case types.ElementAction:
		action, err := compileAction(tbl)
		if err != nil {
			return el, err
		}
		el.Action = action

	default:
		return el, fmt.Errorf("unknown dialog element kind %q", kind)
	}
	return el, nil
}

func compileAction(tbl *lua.LTable) (*types.DialogAction, error) {
	params := getTable(tbl, "params")
	fade, err := compileDialog(getTable(params, "fade"))
	if err != nil {
		return nil, fmt.Errorf("fade dialog: %w", err)
	}
	a := &types.DialogAction{
		Kind:           types.DialogActionKind(getString(tbl, "action")),
		Name:           getString(params, "name"),
		Count:          getString(params, "count"),
		Bypass:         getBool(params, "bypass", false),
		BypassTypeName: getString(params, "bypass_type"),
		DecaySteps:     getInt(params, "decay_steps"),
		FadeDialog:     fade,
		MapName:        getString(params, "map"),
		MapPos:         getPoint(params),
		Category:       types.ActionCategory(getString(params, "category")),
		TargetType:     types.TargetType(getString(params, "target")),
	}
	if problem := getTable(params, "problem"); problem != nil {
		a.Problem = &types.Problem{
			Prompt:            getString(problem, "prompt"),
			Answer:            getString(problem, "answer"),
			AllowedCharacters: getString(problem, "allowed"),
		}
	}
	return a, nil
}

// sortedLuaFiles returns .lua files in a directory, with game.lua first
// and the rest sorted alphabetically.
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
