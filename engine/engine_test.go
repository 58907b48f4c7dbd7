package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/nathoo/warriorcore/engine/dice"
	"github.com/nathoo/warriorcore/engine/state"
	"github.com/nathoo/warriorcore/telemetry"
	"github.com/nathoo/warriorcore/types"
)

// zeroSource pins every draw to zero.
type zeroSource struct{}

func (zeroSource) Int63() int64 { return 0 }
func (zeroSource) Seed(int64)   {}

// testUI records messages, answers every menu with its first option and
// replays canned command lines.
type testUI struct {
	messages []string
	inputs   []string
}

func (u *testUI) Message(text string)                  { u.messages = append(u.messages, text) }
func (u *testUI) Acknowledge(ctx context.Context) error { return ctx.Err() }

func (u *testUI) Choose(ctx context.Context, _ string, _ []string) (int, error) {
	return 0, ctx.Err()
}

func (u *testUI) Input(ctx context.Context, _, _ string) (string, error) {
	if len(u.inputs) == 0 {
		return "", io.EOF
	}
	in := u.inputs[0]
	u.inputs = u.inputs[1:]
	return in, ctx.Err()
}

func (u *testUI) saw(substr string) bool {
	for _, m := range u.messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// recordingAudio records music requests.
type recordingAudio struct {
	music []string
	stops int
}

func (a *recordingAudio) PlaySound(string)      {}
func (a *recordingAudio) PlayMusic(name string) { a.music = append(a.music, name) }
func (a *recordingAudio) StopMusic()            { a.stops++ }

// testDefs builds a small game: a castle and a 5x5 field with slimes, a
// golem guarding (2,0) and a talking king.
func testDefs() *state.Defs {
	defs := state.NewDefs()
	defs.Game = types.GameDef{
		Title:    "Test Game",
		Version:  "1.0",
		Intro:    "Welcome, hero.",
		StartMap: "castle",
		StartPos: types.Point{X: 1, Y: 1},
		MaxItems: 8,
		Gold:     100,
		Hero: types.HeroDef{
			Name:   "Erdrick",
			Weapon: "Club",
			Items:  []string{"Herb", "Copper Sword"},
		},
	}
	defs.Levels = []types.LevelInfo{
		{Level: 1, Strength: 100, Agility: 4, HP: 15, MP: 10, Spell: "HEAL"},
	}
	defs.Weapons["Club"] = &types.Weapon{Name: "Club", Attack: 4, GP: 60}
	defs.Weapons["Copper Sword"] = &types.Weapon{Name: "Copper Sword", Attack: 10, GP: 180}
	defs.Tools["Herb"] = &types.Tool{
		Name:       "Herb",
		GP:         24,
		Consumable: true,
		UseDialog: types.DialogType{
			{Kind: types.ElementAction, Action: &types.DialogAction{Kind: types.ActionHealTarget, Count: "5"}},
		},
	}
	defs.Spells["HEAL"] = &types.Spell{
		Name:              "HEAL",
		MP:                4,
		AvailableInCombat: true,
		AvailableOutside:  true,
		UseDialog: types.DialogType{
			{Kind: types.ElementAction, Action: &types.DialogAction{Kind: types.ActionHealTarget, Count: "10"}},
		},
	}
	defs.Monsters["Slime"] = &types.MonsterInfo{
		Name: "Slime", Strength: 1, MinHP: 1, MaxHP: 1, MinGP: 2, MaxGP: 2, XP: 1,
	}
	defs.Monsters["Golem"] = &types.MonsterInfo{
		Name: "Golem", Strength: 1, MinHP: 1, MaxHP: 1, XP: 5,
	}
	defs.SpecialMonsters = []*types.SpecialMonster{{
		Name:    "Gate Golem",
		Monster: "Golem",
		MapName: "field",
		MapPos:  types.Point{X: 2, Y: 0},
	}}
	defs.Maps["castle"] = types.MapDef{Name: "castle", Music: "castle_theme"}
	defs.Maps["field"] = types.MapDef{
		Name:       "field",
		Outside:    true,
		Music:      "field_theme",
		Width:      5,
		Height:     5,
		Encounters: []types.EncounterEntry{{Monster: "Slime", Weight: 1}},
	}
	defs.Dialogs["king"] = types.DialogDocument{
		Name: "king",
		Entry: types.DialogType{
			{Kind: types.ElementString, Text: "Welcome, [HERO]."},
			{Kind: types.ElementAction, Action: &types.DialogAction{Kind: types.ActionAddProgressMarker, Name: "met_king"}},
		},
	}
	return defs
}

func newTestEngine(t *testing.T, rng *dice.RNG) (*Engine, *testUI) {
	t.Helper()
	ui := &testUI{}
	e := New(testDefs(), ui, rng)
	e.Tracer = telemetry.NoopTracer()
	e.SaveDir = t.TempDir()
	return e, ui
}

func TestStep_Empty(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNG(1))
	if err := e.Step(context.Background(), "   "); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !ui.saw("What dost thou want to do?") {
		t.Errorf("messages = %v", ui.messages)
	}
}

func TestStep_Quit(t *testing.T) {
	e, _ := newTestEngine(t, dice.NewRNG(1))
	if err := e.Step(context.Background(), "quit"); !errors.Is(err, ErrQuit) {
		t.Errorf("expected ErrQuit, got %v", err)
	}
}

func TestStep_UnknownVerb(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNG(1))
	if err := e.Step(context.Background(), "dance"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !ui.saw("I don't know how to dance.") {
		t.Errorf("messages = %v", ui.messages)
	}
}

func TestStep_Status(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNG(1))
	if err := e.Step(context.Background(), "status"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !ui.saw("Erdrick  LV 1  HP 15/15  MP 10/10  XP 0") {
		t.Errorf("messages = %v", ui.messages)
	}
	if !ui.saw("Gold: 100") {
		t.Errorf("messages = %v", ui.messages)
	}
}

func TestStep_Inventory(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNG(1))
	if err := e.Step(context.Background(), "i"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !ui.saw("Erdrick wields: Club.") {
		t.Errorf("messages = %v", ui.messages)
	}
	if !ui.saw("Erdrick carries: Herb, Copper Sword.") {
		t.Errorf("messages = %v", ui.messages)
	}
}

func TestStep_Talk(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNG(1))
	if err := e.Step(context.Background(), "talk to the King"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !ui.saw("Welcome, Erdrick.") {
		t.Errorf("messages = %v", ui.messages)
	}
	if !e.Session.HasMarker("met_king") {
		t.Error("expected met_king marker")
	}

	if err := e.Step(context.Background(), "talk to nobody"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !ui.saw("There is no one here by that name.") {
		t.Errorf("messages = %v", ui.messages)
	}
}

func TestWalk_Bounds(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNG(1))
	e.Transition("field", types.Point{X: 0, Y: 4})

	if err := e.Step(context.Background(), "west"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if e.Session.Position != (types.Point{X: 0, Y: 4}) {
		t.Errorf("position = %v, want unchanged", e.Session.Position)
	}
	if !ui.saw("Thou cannot go that way.") {
		t.Errorf("messages = %v", ui.messages)
	}
}

func TestWalk_FadeDialogs(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNG(1))
	e.Session.SetLight(3, 1, types.DialogType{{Kind: types.ElementString, Text: "The light fades."}})
	e.Session.SetRepel(1, types.DialogType{{Kind: types.ElementString, Text: "The repel has worn off."}})

	if err := e.Step(context.Background(), "n"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if e.Session.Position != (types.Point{X: 1, Y: 0}) {
		t.Errorf("position = %v, want (1,0)", e.Session.Position)
	}
	want := []string{"The light fades.", "The repel has worn off."}
	if len(ui.messages) != 2 || ui.messages[0] != want[0] || ui.messages[1] != want[1] {
		t.Errorf("messages = %v, want %v", ui.messages, want)
	}
	if e.Session.LightDiameter != 1 {
		t.Errorf("light diameter = %d, want 1", e.Session.LightDiameter)
	}
}

func TestWalk_RepelSuppressesEncounters(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNGFromSource(zeroSource{}))
	e.Transition("field", types.Point{X: 0, Y: 4})
	e.Session.SetRepel(3, nil)

	for i := 0; i < 2; i++ {
		if err := e.Step(context.Background(), "north"); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if e.Session.Position != (types.Point{X: 0, Y: 2}) {
		t.Errorf("position = %v, want (0,2)", e.Session.Position)
	}
	if ui.saw("draws near") {
		t.Errorf("encounter under repel: %v", ui.messages)
	}
	if e.Session.RepelSteps != 1 {
		t.Errorf("repel steps = %d, want 1", e.Session.RepelSteps)
	}
	if e.Session.TurnCount != 2 {
		t.Errorf("turn count = %d, want 2", e.Session.TurnCount)
	}
}

func TestWalk_RandomEncounter(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNGFromSource(zeroSource{}))
	audio := &recordingAudio{}
	e.Audio = audio
	e.Transition("field", types.Point{X: 0, Y: 4})

	if err := e.Step(context.Background(), "north"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !ui.saw("A Slime draws near!") {
		t.Errorf("messages = %v", ui.messages)
	}
	if e.Session.Party.Gold != 102 {
		t.Errorf("gold = %d, want 102", e.Session.Party.Gold)
	}
	if e.Session.InCombat {
		t.Error("session still in combat")
	}
	if last := audio.music[len(audio.music)-1]; last != "field_theme" {
		t.Errorf("last music = %q, want field_theme", last)
	}
}

func TestWalk_SpecialMonsterOnce(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNG(5))
	e.Transition("field", types.Point{X: 1, Y: 0})
	e.Session.SetRepel(100, nil)

	if err := e.Step(context.Background(), "east"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !ui.saw("A Golem draws near!") {
		t.Errorf("messages = %v", ui.messages)
	}
	if !e.Session.HasMarker("defeated:Gate Golem") {
		t.Fatal("expected defeated marker")
	}

	ui.messages = nil
	e.Session.Position = types.Point{X: 1, Y: 0}
	if err := e.Step(context.Background(), "east"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if ui.saw("draws near") {
		t.Errorf("defeated special monster fought again: %v", ui.messages)
	}
}

func TestFight_MultiWordAndUnknown(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNGFromSource(zeroSource{}))
	e.Defs.Monsters["Red Slime"] = &types.MonsterInfo{Name: "Red Slime", Strength: 1, MinHP: 1, MaxHP: 1, XP: 1}

	if err := e.Step(context.Background(), "fight slime red slime"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !ui.saw("A Slime and a Red Slime draw near!") {
		t.Errorf("messages = %v", ui.messages)
	}

	ui.messages = nil
	if err := e.Step(context.Background(), "fight dragon"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !ui.saw("There is no monster called dragon.") {
		t.Errorf("messages = %v", ui.messages)
	}
}

func TestDefeat_RevivesAtStart(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNGFromSource(zeroSource{}))
	e.Defs.Levels[0].Strength = 1
	e.Session = state.NewSession(e.Defs)
	e.Session.Party.MainHero().Weapon = nil
	e.Session.Party.MainHero().HP = 1
	e.Defs.Monsters["Dragon"] = &types.MonsterInfo{
		Name: "Dragon", Strength: 100, MinHP: 100, MaxHP: 100,
		ActionRules: []types.MonsterActionRule{{Action: "ATTACK", Probability: 1, HealthRatioThreshold: 1}},
	}
	e.Transition("field", types.Point{X: 3, Y: 3})

	if err := e.StartEncounter(context.Background(), "dragon"); err != nil {
		t.Fatalf("StartEncounter: %v", err)
	}

	hero := e.Session.Party.MainHero()
	if hero.HP != hero.MaxHP {
		t.Errorf("hp = %d, want full %d", hero.HP, hero.MaxHP)
	}
	if e.Session.Party.Gold != 50 {
		t.Errorf("gold = %d, want 50", e.Session.Party.Gold)
	}
	if e.Session.MapName != "castle" || e.Session.Position != (types.Point{X: 1, Y: 1}) {
		t.Errorf("revived at %s %v, want castle (1,1)", e.Session.MapName, e.Session.Position)
	}
	if !ui.saw("Erdrick has died.") {
		t.Errorf("messages = %v", ui.messages)
	}
}

func TestCast_HealOutside(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNG(1))
	hero := e.Session.Party.MainHero()
	hero.HP = 3

	if err := e.Step(context.Background(), "cast heal"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if hero.HP != 13 {
		t.Errorf("hp = %d, want 13", hero.HP)
	}
	if hero.MP != 6 {
		t.Errorf("mp = %d, want 6", hero.MP)
	}
	chants := 0
	for _, m := range ui.messages {
		if m == "Erdrick chants the spell of HEAL." {
			chants++
		}
	}
	if chants != 1 {
		t.Errorf("chant shown %d times, messages = %v", chants, ui.messages)
	}

	ui.messages = nil
	hero.MP = 1
	if err := e.Step(context.Background(), "cast heal"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !ui.saw("Thou hast not enough MP.") {
		t.Errorf("messages = %v", ui.messages)
	}

	ui.messages = nil
	if err := e.Step(context.Background(), "cast hurt"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !ui.saw("Erdrick does not know that spell.") {
		t.Errorf("messages = %v", ui.messages)
	}
}

func TestUse_ConsumesItem(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNG(1))
	hero := e.Session.Party.MainHero()
	hero.HP = 5

	if err := e.Step(context.Background(), "use herb"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if hero.HP != 10 {
		t.Errorf("hp = %d, want 10", hero.HP)
	}
	if hero.ItemCount("Herb") != 0 {
		t.Errorf("herb not consumed: %v", hero.Inventory)
	}

	if err := e.Step(context.Background(), "use herb"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !ui.saw("Erdrick does not have that.") {
		t.Errorf("messages = %v", ui.messages)
	}
}

func TestEquip_SwapsWeapon(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNG(1))
	hero := e.Session.Party.MainHero()

	if err := e.Step(context.Background(), "equip copper sword"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if hero.Weapon == nil || hero.Weapon.Name != "Copper Sword" {
		t.Fatalf("weapon = %v, want Copper Sword", hero.Weapon)
	}
	if hero.ItemCount("Club") != 1 || hero.ItemCount("Copper Sword") != 1 {
		t.Errorf("inventory = %v", hero.Inventory)
	}
	if !ui.saw("Erdrick equips the Copper Sword.") {
		t.Errorf("messages = %v", ui.messages)
	}

	if err := e.Step(context.Background(), "equip herb"); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !ui.saw("Herb cannot be equipped.") {
		t.Errorf("messages = %v", ui.messages)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNG(3))
	e.Session.Party.Gold = 321
	e.Session.SetMarker("met_king", true)
	e.Transition("field", types.Point{X: 2, Y: 2})

	if err := e.Step(context.Background(), "save slot1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !ui.saw("Thy deeds have been recorded.") {
		t.Fatalf("messages = %v", ui.messages)
	}

	e.Session.Party.Gold = 0
	e.Session.SetMarker("met_king", false)
	e.Transition("castle", types.Point{X: 1, Y: 1})

	if err := e.Step(context.Background(), "load slot1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.Session.Party.Gold != 321 {
		t.Errorf("gold = %d, want 321", e.Session.Party.Gold)
	}
	if !e.Session.HasMarker("met_king") {
		t.Error("expected met_king marker after load")
	}
	if e.Session.MapName != "field" || e.Session.Position != (types.Point{X: 2, Y: 2}) {
		t.Errorf("position = %s %v, want field (2,2)", e.Session.MapName, e.Session.Position)
	}

	if err := e.Step(context.Background(), "load missing"); err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if !ui.saw("There is no such record.") {
		t.Errorf("messages = %v", ui.messages)
	}
}

func TestRun_IntroUntilQuit(t *testing.T) {
	e, ui := newTestEngine(t, dice.NewRNG(1))
	ui.inputs = []string{"look", "quit", "status"}

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ui.messages[0] != "Welcome, hero." {
		t.Errorf("first message = %q, want intro", ui.messages[0])
	}
	if !ui.saw("Erdrick is inside on castle at (1, 1).") {
		t.Errorf("messages = %v", ui.messages)
	}
	if ui.saw("Gold:") {
		t.Error("commands after quit were processed")
	}
}

func TestRun_EndOfInput(t *testing.T) {
	e, _ := newTestEngine(t, dice.NewRNG(1))
	if err := e.Run(context.Background()); err != nil {
		t.Errorf("Run at end of input = %v, want nil", err)
	}
}
