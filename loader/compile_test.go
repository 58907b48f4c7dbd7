package loader

import (
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/warriorcore/engine/state"
	"github.com/nathoo/warriorcore/types"
)

// newTestVM creates a sandboxed Lua VM with the API registered and a fresh collector.
func newTestVM() (*lua.LState, *collector) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	coll := &collector{}
	registerAPI(L, coll)
	return L, coll
}

// compileSource runs src with a Game preamble and compiles the result.
func compileSource(t *testing.T, src string) *state.Defs {
	t.Helper()
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`Game { title = "T", start = { map = "m" }, hero = { name = "H" } }` + "\n" + src); err != nil {
		t.Fatal(err)
	}
	defs, err := compile(coll)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return defs
}

func TestCompileGame(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		return {
			title = "Test Game",
			author = "Author",
			version = "1.0",
			intro = "Welcome!",
			start = { map = "castle", x = 3, y = 4 },
			default_weapon = "Fists",
			combat_music = "battle",
			max_items = 8,
			gold = 120,
			hero = { name = "Erdrick", level = 2, weapon = "Club", items = { "Herb" } },
		}
	`); err != nil {
		t.Fatal(err)
	}

	game := compileGame(L.CheckTable(-1))

	if game.Title != "Test Game" || game.Author != "Author" || game.Version != "1.0" {
		t.Errorf("metadata = %q %q %q", game.Title, game.Author, game.Version)
	}
	if game.Intro != "Welcome!" {
		t.Errorf("Intro = %q, want %q", game.Intro, "Welcome!")
	}
	if game.StartMap != "castle" || game.StartPos != (types.Point{X: 3, Y: 4}) {
		t.Errorf("start = %s %v, want castle (3,4)", game.StartMap, game.StartPos)
	}
	if game.DefaultWeapon != "Fists" || game.CombatMusic != "battle" {
		t.Errorf("DefaultWeapon = %q, CombatMusic = %q", game.DefaultWeapon, game.CombatMusic)
	}
	if game.MaxItems != 8 || game.Gold != 120 {
		t.Errorf("MaxItems = %d, Gold = %d", game.MaxItems, game.Gold)
	}
	if game.Hero.Name != "Erdrick" || game.Hero.Level != 2 || game.Hero.Weapon != "Club" {
		t.Errorf("Hero = %+v", game.Hero)
	}
	if len(game.Hero.Items) != 1 || game.Hero.Items[0] != "Herb" {
		t.Errorf("Hero.Items = %v", game.Hero.Items)
	}
}

func TestCompile_NoGame(t *testing.T) {
	if _, err := compile(&collector{}); err == nil {
		t.Error("expected error without Game{}")
	}
}

func TestCompileLevels_Sorted(t *testing.T) {
	defs := compileSource(t, `
		Level { level = 3, xp = 23, spell = "HEAL" }
		Level { level = 1, xp = 0, strength = 4, hp = 15 }
		Level { level = 2, xp = 7 }
	`)
	if len(defs.Levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(defs.Levels))
	}
	for i, want := range []int{1, 2, 3} {
		if defs.Levels[i].Level != want {
			t.Errorf("Levels[%d].Level = %d, want %d", i, defs.Levels[i].Level, want)
		}
	}
	if defs.Levels[0].Strength != 4 || defs.Levels[0].HP != 15 {
		t.Errorf("level 1 = %+v", defs.Levels[0])
	}
	if defs.Levels[2].Spell != "HEAL" {
		t.Errorf("level 3 spell = %q", defs.Levels[2].Spell)
	}
}

func TestCompileMonster_Defaults(t *testing.T) {
	defs := compileSource(t, `Monster "Slime" { strength = 5, agility = 3, hp = 3, gp = { 1, 2 }, xp = 1 }`)

	m := defs.Monsters["Slime"]
	if m == nil {
		t.Fatal("monster Slime not found")
	}
	if m.MinHP != 3 || m.MaxHP != 3 {
		t.Errorf("hp = %d-%d, want 3-3", m.MinHP, m.MaxHP)
	}
	if m.MinGP != 1 || m.MaxGP != 2 {
		t.Errorf("gp = %d-%d, want 1-2", m.MinGP, m.MaxGP)
	}
	if !m.MayRunAway || !m.AllowsCriticalHits {
		t.Error("expected MayRunAway and AllowsCriticalHits by default")
	}
	if m.BlockFactor != defaultBlockFactor {
		t.Errorf("BlockFactor = %v, want %v", m.BlockFactor, defaultBlockFactor)
	}
	want := types.MonsterActionRule{Action: "ATTACK", Probability: 1, HealthRatioThreshold: 1}
	if len(m.ActionRules) != 1 || m.ActionRules[0] != want {
		t.Errorf("ActionRules = %+v, want [%+v]", m.ActionRules, want)
	}
}

func TestCompileMonster_Rules(t *testing.T) {
	defs := compileSource(t, `
		Monster "Drakee" {
			hp = { 5, 6 },
			dodge = 1,
			block_factor = 0.5,
			may_run_away = false,
			resistances = { SLEEP = 0.5 },
			actions = {
				{ action = "BREATHE_FIRE", probability = 0.25, health_ratio = 0.5 },
				{ action = "ATTACK" },
			},
		}
	`)

	m := defs.Monsters["Drakee"]
	if m.MinHP != 5 || m.MaxHP != 6 || m.Dodge != 1 || m.BlockFactor != 0.5 {
		t.Errorf("monster = %+v", m)
	}
	if m.MayRunAway {
		t.Error("expected MayRunAway false")
	}
	if m.Resistances["SLEEP"] != 0.5 {
		t.Errorf("SLEEP resistance = %v", m.Resistances["SLEEP"])
	}
	if len(m.ActionRules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(m.ActionRules))
	}
	if r := m.ActionRules[0]; r.Action != "BREATHE_FIRE" || r.Probability != 0.25 || r.HealthRatioThreshold != 0.5 {
		t.Errorf("rule 0 = %+v", r)
	}
	if r := m.ActionRules[1]; r.Probability != 1 || r.HealthRatioThreshold != 1 {
		t.Errorf("rule 1 defaults = %+v", r)
	}
}

func TestCompileArmor_Modifiers(t *testing.T) {
	defs := compileSource(t, `
		Armor "Magic Armor" { defense = 24, gp = 7700, resistances = { HURT = 0.5 }, damage_modifiers = { MAGICAL = 0.66 } }
	`)
	a := defs.Armors["Magic Armor"]
	if a.Defense != 24 || a.GP != 7700 {
		t.Errorf("armor = %+v", a)
	}
	if a.Resistances["HURT"] != 0.5 {
		t.Errorf("HURT resistance = %v", a.Resistances["HURT"])
	}
	if a.DamageModifiers[types.CategoryMagical] != 0.66 {
		t.Errorf("MAGICAL modifier = %v", a.DamageModifiers[types.CategoryMagical])
	}
}

func TestCompileDialog_Elements(t *testing.T) {
	defs := compileSource(t, `
		Dialog "sage" {
			Say "Hello, [HERO].",
			Var("REWARD", "5-10"),
			Branch {
				Option("Yes", { Say "Good." }),
				Option("No"),
			},
			Assert("HAS_GOLD", { count = 10, failed = { Say "Too poor." } }),
			Check("IS_AT_COORDINATES", { map = "castle", x = 1, y = 2 }),
			VendorBuy { "Herb" },
			VendorSell { variable = "WANTED" },
			Action("PLAY_SOUND", "chime"),
			GoTo "end",
			labels = { ["end"] = { Say "Farewell." } },
		}
	`)

	doc, ok := defs.Dialogs["sage"]
	if !ok {
		t.Fatal("dialog sage not found")
	}
	if len(doc.Entry) != 9 {
		t.Fatalf("expected 9 elements, got %d", len(doc.Entry))
	}

	if el := doc.Entry[0]; el.Kind != types.ElementString || el.Text != "Hello, [HERO]." {
		t.Errorf("element 0 = %+v", el)
	}
	if el := doc.Entry[1]; el.Kind != types.ElementVariable || el.Variable.Name != "REWARD" || el.Variable.Value != "5-10" {
		t.Errorf("element 1 = %+v", el)
	}

	branch := doc.Entry[2]
	if branch.Kind != types.ElementBranch || len(branch.Options) != 2 {
		t.Fatalf("element 2 = %+v", branch)
	}
	if branch.Options[0].Label != "Yes" || len(branch.Options[0].Dialog) != 1 {
		t.Errorf("option 0 = %+v", branch.Options[0])
	}
	if branch.Options[1].Label != "No" || len(branch.Options[1].Dialog) != 0 {
		t.Errorf("option 1 = %+v", branch.Options[1])
	}

	assert := doc.Entry[3].Check
	if assert == nil || assert.Kind != types.CheckHasGold || !assert.IsAssert || assert.Count != "10" {
		t.Errorf("element 3 check = %+v", assert)
	} else if len(assert.FailedDialog) != 1 {
		t.Errorf("failed dialog = %+v", assert.FailedDialog)
	}

	at := doc.Entry[4].Check
	if at.IsAssert || at.MapName != "castle" || at.MapPos == nil || *at.MapPos != (types.Point{X: 1, Y: 2}) {
		t.Errorf("element 4 check = %+v", at)
	}

	if v := doc.Entry[5]; v.Kind != types.ElementVendorBuy || len(v.Vendor.Items) != 1 || v.Vendor.Items[0] != "Herb" {
		t.Errorf("element 5 = %+v", v)
	}
	if v := doc.Entry[6]; v.Kind != types.ElementVendorSell || v.Vendor.Variable != "WANTED" {
		t.Errorf("element 6 = %+v", v)
	}
	if a := doc.Entry[7].Action; a.Kind != types.ActionPlaySound || a.Name != "chime" {
		t.Errorf("element 7 action = %+v", a)
	}
	if el := doc.Entry[8]; el.Kind != types.ElementGoTo || el.Label != "end" {
		t.Errorf("element 8 = %+v", el)
	}
	if len(doc.Labels["end"]) != 1 {
		t.Errorf("labels = %+v", doc.Labels)
	}
}

func TestCompileAction_Params(t *testing.T) {
	defs := compileSource(t, `
		Spell "HURT" {
			mp = 2,
			in_combat = true,
			use = {
				Action("DAMAGE_TARGET", {
					count = "5-12",
					category = "MAGICAL",
					target = "SINGLE_ENEMY",
					bypass = true,
					bypass_type = "Metal Slime",
					problem = { prompt = "2+2?", answer = "4", allowed = "0123456789" },
				}),
			},
		}
		Tool "Torch" {
			gp = 8,
			consumable = true,
			use = { Action("SET_LIGHT_DIAMETER", { count = 3, decay_steps = 100, fade = { Say "The torch burns out." } }) },
		}
	`)

	spell := defs.Spells["HURT"]
	if spell.MP != 2 || !spell.AvailableInCombat || spell.AvailableOutside {
		t.Errorf("spell = %+v", spell)
	}
	a := spell.UseDialog[0].Action
	if a.Count != "5-12" || a.Category != types.CategoryMagical || a.TargetType != types.TargetSingleEnemy {
		t.Errorf("action = %+v", a)
	}
	if !a.Bypass || a.BypassTypeName != "Metal Slime" {
		t.Errorf("bypass = %v %q", a.Bypass, a.BypassTypeName)
	}
	if a.Problem == nil || a.Problem.Prompt != "2+2?" || a.Problem.Answer != "4" || a.Problem.AllowedCharacters != "0123456789" {
		t.Errorf("problem = %+v", a.Problem)
	}

	torch := defs.Tools["Torch"]
	if !torch.Consumable || torch.UsableInCombat {
		t.Errorf("torch = %+v", torch)
	}
	light := torch.UseDialog[0].Action
	if light.Count != "3" || light.DecaySteps != 100 || len(light.FadeDialog) != 1 {
		t.Errorf("light action = %+v", light)
	}
}

func TestCompileMap_Encounters(t *testing.T) {
	defs := compileSource(t, `
		Map "world" {
			outside = true,
			music = "overworld",
			width = 64,
			height = 32,
			encounters = { { monster = "Slime", weight = 3 }, { monster = "Drakee" } },
		}
	`)
	m := defs.Maps["world"]
	if !m.Outside || m.Music != "overworld" || m.Width != 64 || m.Height != 32 {
		t.Errorf("map = %+v", m)
	}
	want := []types.EncounterEntry{{Monster: "Slime", Weight: 3}, {Monster: "Drakee", Weight: 1}}
	if len(m.Encounters) != 2 || m.Encounters[0] != want[0] || m.Encounters[1] != want[1] {
		t.Errorf("encounters = %+v, want %+v", m.Encounters, want)
	}
}

func TestCompileSpecialMonster(t *testing.T) {
	defs := compileSource(t, `
		SpecialMonster "Gate Golem" {
			monster = "Golem",
			map = "world",
			x = 10,
			y = 12,
			approach = { Say "The Golem blocks the gate!" },
			run_away = { Say "Coward!" },
		}
	`)
	if len(defs.SpecialMonsters) != 1 {
		t.Fatalf("expected 1 special monster, got %d", len(defs.SpecialMonsters))
	}
	sm := defs.SpecialMonsters[0]
	if sm.Name != "Gate Golem" || sm.Monster != "Golem" || sm.MapName != "world" || sm.MapPos != (types.Point{X: 10, Y: 12}) {
		t.Errorf("special = %+v", sm)
	}
	if len(sm.ApproachDialog) != 1 || len(sm.RunAwayDialog) != 1 || len(sm.VictoryDialog) != 0 {
		t.Errorf("dialogs = %d %d %d", len(sm.ApproachDialog), len(sm.VictoryDialog), len(sm.RunAwayDialog))
	}
}

func TestCompile_DuplicateName(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Game { title = "T" }
		Weapon "Club" { attack = 4 }
		Tool "Club" { gp = 1 }
	`); err != nil {
		t.Fatal(err)
	}
	if _, err := compile(coll); err == nil {
		t.Error("expected duplicate item error")
	}
}

func TestCompile_BadElement(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Game { title = "T" }
		Dialog "broken" { "just a string" }
	`); err != nil {
		t.Fatal(err)
	}
	if _, err := compile(coll); err == nil {
		t.Error("expected error for a non-element entry")
	}
}

func TestSortedLuaFiles(t *testing.T) {
	got := sortedLuaFiles([]string{"monsters.lua", "game.lua", "dialogs.lua"})
	want := []string{"game.lua", "dialogs.lua", "monsters.lua"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sortedLuaFiles = %v, want %v", got, want)
		}
	}
}
