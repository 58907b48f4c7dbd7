package encounter

import (
	"context"

	"github.com/nathoo/warriorcore/engine/combat"
	"github.com/nathoo/warriorcore/types"
)

const (
	commandFight = "FIGHT"
	commandRun   = "RUN"
	commandSpell = "SPELL"
	commandItem  = "ITEM"
)

// defaultAttack is used when neither the hero's weapon nor the game's
// default weapon defines a use dialog.
var defaultAttack = types.DialogType{
	{Kind: types.ElementString, Text: "[ACTOR] attacks!"},
	{Kind: types.ElementAction, Action: &types.DialogAction{
		Kind:     types.ActionDamageTarget,
		Count:    types.CountDefault,
		Category: types.CategoryPhysical,
	}},
}

// heroTurn asks the player for a command until one is carried out.
func (enc *Encounter) heroTurn(ctx context.Context, h *combat.HeroState) error {
	ev := enc.fork(h, nil)
	if h.IsAsleep {
		if combat.IsStillAsleep(h, enc.eval.RNG) {
			return ev.Say(ctx, "[ACTOR] is still asleep.")
		}
		if err := ev.Say(ctx, "[ACTOR] wakes up."); err != nil {
			return err
		}
	}

	for {
		commands := enc.heroCommands(h)
		choice, err := enc.eval.UI.Choose(ctx, "Command?", commands)
		if err != nil {
			return err
		}
		if choice < 0 || choice >= len(commands) {
			continue
		}

		var done bool
		switch commands[choice] {
		case commandFight:
			done, err = true, enc.fight(ctx, h)
		case commandRun:
			done, err = true, enc.run(ctx, h)
		case commandSpell:
			done, err = enc.castSpell(ctx, h)
		case commandItem:
			done, err = enc.useItem(ctx, h)
		}
		if err != nil || done {
			return err
		}
	}
}

// heroCommands lists FIGHT and RUN, plus SPELL and ITEM when usable.
func (enc *Encounter) heroCommands(h *combat.HeroState) []string {
	commands := []string{commandFight, commandRun}
	if len(h.AvailableSpells(enc.eval.Defs.Spells, true)) > 0 {
		commands = append(commands, commandSpell)
	}
	if len(enc.usableItems(h)) > 0 {
		commands = append(commands, commandItem)
	}
	return commands
}

func (enc *Encounter) fight(ctx context.Context, h *combat.HeroState) error {
	attack := defaultAttack
	if h.Weapon != nil && len(h.Weapon.UseDialog) > 0 {
		attack = h.Weapon.UseDialog
	} else if w := enc.eval.Defs.Weapons[enc.eval.Defs.Game.DefaultWeapon]; w != nil && len(w.UseDialog) > 0 {
		attack = w.UseDialog
	}
	ev := enc.fork(h, nil)
	ev.Targets = ev.Targeter.Targets(h, types.TargetSingleEnemy)
	return ev.RunDialog(ctx, attack)
}

// run tries to escape. A random still-fighting monster may block the way.
func (enc *Encounter) run(ctx context.Context, h *combat.HeroState) error {
	ev := enc.fork(h, nil)
	if err := ev.Say(ctx, "[ACTOR] started to run away."); err != nil {
		return err
	}

	monsters := enc.Monsters.StillInCombatMembers()
	if len(monsters) > 0 {
		blocker := monsters[enc.eval.RNG.Intn(len(monsters))].(*combat.MonsterState)
		if blocker.IsBlockingEscape(enc.eval.RNG, h) {
			return enc.fork(blocker, []combat.Character{h}).Say(ctx, "But [ACTOR] blocked the way.")
		}
	}

	enc.heroesRan = true
	for _, hero := range enc.heroes.Heroes {
		if hero.IsAlive() {
			hero.HasRunAway = true
		}
	}
	return nil
}

// castSpell lets the hero pick a spell. done is false when the player backed
// out or lacked the mp, so the command menu is shown again.
func (enc *Encounter) castSpell(ctx context.Context, h *combat.HeroState) (bool, error) {
	spells := h.AvailableSpells(enc.eval.Defs.Spells, true)
	names := make([]string, len(spells))
	for i, s := range spells {
		names[i] = s.Name
	}
	choice, err := enc.eval.UI.Choose(ctx, "Spell?", names)
	if err != nil || choice < 0 || choice >= len(spells) {
		return false, err
	}

	spell := spells[choice]
	ev := enc.fork(h, nil)
	if !h.SpendMP(spell.MP) {
		return false, ev.Say(ctx, "Thou hast not enough MP.")
	}
	ev.Targets = ev.Targeter.Targets(h, types.TargetSingleEnemy)
	return true, ev.Cast(ctx, spell)
}

// usableItems lists the distinct carried tools usable in battle.
func (enc *Encounter) usableItems(h *combat.HeroState) []*types.Tool {
	var tools []*types.Tool
	for _, row := range h.ItemRowData() {
		tool, ok := enc.eval.Defs.Tools[row.Name]
		if ok && tool.UsableInCombat && len(tool.UseDialog) > 0 {
			tools = append(tools, tool)
		}
	}
	return tools
}

func (enc *Encounter) useItem(ctx context.Context, h *combat.HeroState) (bool, error) {
	tools := enc.usableItems(h)
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	choice, err := enc.eval.UI.Choose(ctx, "Item?", names)
	if err != nil || choice < 0 || choice >= len(tools) {
		return false, err
	}

	tool := tools[choice]
	ev := enc.fork(h, nil)
	ev.Targets = ev.Targeter.Targets(h, types.TargetSingleEnemy)
	ev.SetVariable("ITEM", tool.Name)
	if err := ev.RunDialog(ctx, tool.UseDialog); err != nil {
		return true, err
	}
	if tool.Consumable {
		h.LoseItem(tool.Name)
	}
	return true, nil
}
