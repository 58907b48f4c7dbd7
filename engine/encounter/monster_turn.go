package encounter

import (
	"context"

	"github.com/nathoo/warriorcore/engine/combat"
	"github.com/nathoo/warriorcore/types"
)

// attackAction is the built-in monster action used when a rule names
// ATTACK and the game defines no monster action of that name.
const attackAction = "ATTACK"

var monsterAttack = types.DialogType{
	{Kind: types.ElementString, Text: "[ACTOR] attacks!"},
	{Kind: types.ElementAction, Action: &types.DialogAction{
		Kind:     types.ActionDamageTarget,
		Count:    types.CountDefault,
		Category: types.CategoryPhysical,
	}},
}

// monsterTurn wakes, flees or acts according to the monster's rules.
func (enc *Encounter) monsterTurn(ctx context.Context, m *combat.MonsterState) error {
	ev := enc.fork(m, nil)
	if m.IsAsleep {
		if combat.IsStillAsleep(m, enc.eval.RNG) {
			return ev.Say(ctx, "[ACTOR] is asleep.")
		}
		if err := ev.Say(ctx, "[ACTOR] wakes up."); err != nil {
			return err
		}
	}

	if m.ShouldRunAway(enc.eval.RNG, enc.heroes.HighestAttackStrength()) {
		return enc.runAway(ctx, m)
	}

	var target combat.Character
	if heroes := enc.heroes.StillInCombatMembers(); len(heroes) > 0 {
		target = heroes[enc.eval.RNG.Intn(len(heroes))]
		ev.Targets = []combat.Character{target}
	}

	name, script := enc.selectAction(m, target)
	if script == nil {
		enc.Logger.Error("monster has no usable action", "encounter", enc.ID, "monster", m.TypeName(), "action", name)
		return ev.Say(ctx, "[ACTOR] looks around.")
	}
	return ev.RunDialog(ctx, script)
}

// selectAction scans the monster's rules in order. A rule is viable when
// the monster's health ratio is at or below its threshold and, for sleep
// and stopspell actions, target is not already affected. The first viable
// rule whose probability roll hits wins.
func (enc *Encounter) selectAction(m *combat.MonsterState, target combat.Character) (string, types.DialogType) {
	ratio := m.HealthRatio()
	for _, rule := range m.Info.ActionRules {
		if ratio > rule.HealthRatioThreshold {
			continue
		}
		script := enc.monsterScript(rule.Action)
		if script == nil {
			return rule.Action, nil
		}
		if kind, ok := statusAction(script); ok && alreadyAffected(target, kind) {
			continue
		}
		if enc.eval.RNG.Chance(rule.Probability) {
			return rule.Action, script
		}
	}
	return "", nil
}

// monsterScript returns the dialog for a named monster action.
func (enc *Encounter) monsterScript(name string) types.DialogType {
	if a, ok := enc.eval.Defs.MonsterActions[name]; ok && len(a.Dialog) > 0 {
		return a.Dialog
	}
	if name == attackAction {
		return monsterAttack
	}
	return nil
}

// statusAction reports the SLEEP or STOPSPELL action a script applies, if any.
func statusAction(script types.DialogType) (types.DialogActionKind, bool) {
	for _, elem := range script {
		if elem.Kind != types.ElementAction || elem.Action == nil {
			continue
		}
		switch elem.Action.Kind {
		case types.ActionSleep, types.ActionStopSpell:
			return elem.Action.Kind, true
		}
	}
	return "", false
}

// alreadyAffected reports whether target already suffers kind. A missing
// target counts as affected.
func alreadyAffected(target combat.Character, kind types.DialogActionKind) bool {
	if target == nil {
		return true
	}
	s := target.CombatStatus()
	switch kind {
	case types.ActionSleep:
		return s.IsAsleep
	case types.ActionStopSpell:
		return s.AreSpellsBlocked
	}
	return false
}
