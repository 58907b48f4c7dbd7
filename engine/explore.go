package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/nathoo/warriorcore/engine/combat"
	"github.com/nathoo/warriorcore/types"
)

// randomEncounterOdds is the one-in-n chance of a random encounter per step.
const randomEncounterOdds = 16

var directions = map[string]types.Point{
	"north": {X: 0, Y: -1},
	"south": {X: 0, Y: 1},
	"east":  {X: 1, Y: 0},
	"west":  {X: -1, Y: 0},
}

func (e *Engine) look() {
	s := e.Session
	place := "inside"
	if s.IsOutside(e.Defs) {
		place = "outside"
	}
	e.UI.Message(fmt.Sprintf("%s is %s on %s at (%d, %d).",
		s.Party.MainHero().Name(), place, s.MapName, s.Position.X, s.Position.Y))
	if s.LightSteps > 0 || s.LightDiameter > 1 {
		e.UI.Message(fmt.Sprintf("Light radius %d.", s.LightDiameter))
	}
	if s.IsRepelActive() {
		e.UI.Message("Monsters keep their distance.")
	}
}

func (e *Engine) status() {
	for _, h := range e.Session.Party.Heroes {
		e.UI.Message(fmt.Sprintf("%s  LV %d  HP %d/%d  MP %d/%d  XP %d",
			h.Name(), h.Level(), h.HP, h.MaxHP, h.MP, h.MaxMP, h.XP))
	}
	e.UI.Message(fmt.Sprintf("Gold: %d", e.Session.Party.Gold))
}

func (e *Engine) inventory() {
	for _, h := range e.Session.Party.Heroes {
		var gear []string
		if h.Weapon != nil {
			gear = append(gear, h.Weapon.Name)
		}
		if h.Armor != nil {
			gear = append(gear, h.Armor.Name)
		}
		if h.Shield != nil {
			gear = append(gear, h.Shield.Name)
		}
		if len(gear) > 0 {
			e.UI.Message(fmt.Sprintf("%s wields: %s.", h.Name(), strings.Join(gear, ", ")))
		}

		rows := h.ItemRowData()
		if len(rows) == 0 {
			e.UI.Message(fmt.Sprintf("%s carries nothing.", h.Name()))
			continue
		}
		items := make([]string, len(rows))
		for i, row := range rows {
			items[i] = row.Name
			if row.Count > 1 {
				items[i] = fmt.Sprintf("%s x%d", row.Name, row.Count)
			}
		}
		e.UI.Message(fmt.Sprintf("%s carries: %s.", h.Name(), strings.Join(items, ", ")))
	}
}

func (e *Engine) help() {
	e.UI.Message("Commands: look, status, inventory, talk <name>, walk <direction>, " +
		"fight <monster>, cast <spell> [on <hero>], use <item> [on <hero>], " +
		"equip <item>, save [slot], load [slot], quit")
}

func (e *Engine) talk(ctx context.Context, name string) error {
	if name == "" {
		e.UI.Message("Talk to whom?")
		return nil
	}
	for key, doc := range e.Defs.Dialogs {
		if strings.EqualFold(key, name) {
			return e.evaluator().Run(ctx, doc)
		}
	}
	e.UI.Message("There is no one here by that name.")
	return nil
}

// walk moves the party one tile. Every step decays light and repel, then
// may trigger the special monster on the tile or a random encounter.
func (e *Engine) walk(ctx context.Context, dir string) error {
	delta, ok := directions[dir]
	if !ok {
		e.UI.Message("Walk where? (north, south, east, west)")
		return nil
	}

	s := e.Session
	m := e.Defs.Maps[s.MapName]
	next := types.Point{X: s.Position.X + delta.X, Y: s.Position.Y + delta.Y}
	if (m.Width > 0 && (next.X < 0 || next.X >= m.Width)) ||
		(m.Height > 0 && (next.Y < 0 || next.Y >= m.Height)) {
		e.UI.Message("Thou cannot go that way.")
		return nil
	}
	s.Position = next

	ev := e.evaluator()
	for _, fade := range s.DecayStep() {
		if err := ev.RunDialog(ctx, fade); err != nil {
			return err
		}
	}

	if sm := e.Defs.SpecialMonsterAt(s.MapName, next); sm != nil && !s.HasMarker(defeatedMarker(sm)) {
		return e.fightSpecial(ctx, sm)
	}
	return e.randomEncounter(ctx, m)
}

// randomEncounter rolls the one-in-sixteen chance of meeting a monster from
// the map's weighted table. Repel suppresses it.
func (e *Engine) randomEncounter(ctx context.Context, m types.MapDef) error {
	if len(m.Encounters) == 0 || e.Session.IsRepelActive() {
		return nil
	}
	if e.RNG.Intn(randomEncounterOdds) != 0 {
		return nil
	}
	weights := make([]int, len(m.Encounters))
	for i, entry := range m.Encounters {
		weights[i] = entry.Weight
	}
	entry := m.Encounters[e.RNG.WeightedSelect(weights)]
	return e.StartEncounter(ctx, entry.Monster)
}

// cast uses an outside spell. The target defaults to the caster.
func (e *Engine) cast(ctx context.Context, name, target string) error {
	hero := e.Session.Party.MainHero()
	ev := e.evaluator().Fork(hero, nil)

	spell := e.Defs.LookupSpell(name)
	if spell == nil || !slices.Contains(hero.SpellNames(), spell.Name) {
		return ev.Say(ctx, "[ACTOR] does not know that spell.")
	}
	if !spell.AvailableOutside {
		return ev.Say(ctx, "That spell cannot be used here.")
	}
	targets, ok := e.partyTarget(target)
	if !ok {
		e.UI.Message("There is no one here by that name.")
		return nil
	}
	if !hero.SpendMP(spell.MP) {
		return ev.Say(ctx, "Thou hast not enough MP.")
	}

	ev.Targets = targets
	return ev.Cast(ctx, spell)
}

// use applies a carried tool. Consumables are used up after their dialog.
func (e *Engine) use(ctx context.Context, name, target string) error {
	hero := e.Session.Party.MainHero()
	item, ok := e.Defs.LookupItem(name)
	if !ok || !slices.Contains(hero.Inventory, item) {
		e.UI.Message(hero.Name() + " does not have that.")
		return nil
	}
	tool, ok := e.Defs.Tools[item]
	if !ok || len(tool.UseDialog) == 0 {
		e.UI.Message("That cannot be used here.")
		return nil
	}
	targets, ok := e.partyTarget(target)
	if !ok {
		e.UI.Message("There is no one here by that name.")
		return nil
	}

	ev := e.evaluator().Fork(hero, targets)
	ev.SetVariable("ITEM", tool.Name)
	if err := ev.RunDialog(ctx, tool.UseDialog); err != nil {
		return err
	}
	if tool.Consumable {
		hero.LoseItem(tool.Name)
	}
	return nil
}

// partyTarget resolves an optional hero name. No name means no explicit
// target.
func (e *Engine) partyTarget(name string) ([]combat.Character, bool) {
	if name == "" {
		return nil, true
	}
	h := e.Session.Party.Hero(name)
	if h == nil {
		return nil, false
	}
	return []combat.Character{h}, true
}

func (e *Engine) equip(name string) {
	hero := e.Session.Party.MainHero()
	item, ok := e.Defs.LookupItem(name)
	if !ok || !slices.Contains(hero.Inventory, item) {
		e.UI.Message(hero.Name() + " does not have that.")
		return
	}

	var equipped bool
	switch {
	case e.Defs.Weapons[item] != nil:
		equipped = hero.EquipWeapon(e.Defs.Weapons[item])
	case e.Defs.Armors[item] != nil:
		equipped = hero.EquipArmor(e.Defs.Armors[item])
	case e.Defs.Shields[item] != nil:
		equipped = hero.EquipShield(e.Defs.Shields[item])
	default:
		e.UI.Message(item + " cannot be equipped.")
		return
	}
	if equipped {
		e.UI.Message(fmt.Sprintf("%s equips the %s.", hero.Name(), item))
	}
}
