package dialog

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/nathoo/warriorcore/engine/combat"
	"github.com/nathoo/warriorcore/engine/state"
	"github.com/nathoo/warriorcore/types"
)

// Apply performs one action. Data problems (unknown names, bad counts) are
// logged and skipped; only cancellation and hook failures are returned.
func (e *Evaluator) Apply(ctx context.Context, a *types.DialogAction) error {
	switch a.Kind {
	case types.ActionDamageTarget:
		return e.damageTargets(ctx, a)

	case types.ActionHealTarget:
		return e.restoreTargets(ctx, a, false)

	case types.ActionRestoreMP:
		return e.restoreTargets(ctx, a, true)

	case types.ActionSleep, types.ActionStopSpell:
		return e.statusTargets(ctx, a)

	case types.ActionGainItem:
		h := e.hero()
		n, ok := e.resolveCount(a.Count, 1)
		if h == nil || !ok {
			return nil
		}
		name := e.substitute(a.Name)
		e.SetVariable("ITEM", name)
		for i := 0; i < n; i++ {
			if !h.GainItem(name) {
				return e.Say(ctx, "[HERO] cannot carry any more.")
			}
		}

	case types.ActionLoseItem:
		h := e.hero()
		n, ok := e.resolveCount(a.Count, 1)
		if h == nil || !ok {
			return nil
		}
		name := e.substitute(a.Name)
		e.SetVariable("ITEM", name)
		for i := 0; i < n; i++ {
			if !h.LoseItem(name) {
				e.Logger.Warn("lose item not carried", "item", name, "hero", h.Name())
				break
			}
		}

	case types.ActionGainGold:
		if n, ok := e.resolveCount(a.Count, 0); ok {
			e.Session.Party.Gold += n
			e.SetVariable("AMOUNT", strconv.Itoa(n))
		}

	case types.ActionLoseGold:
		if n, ok := e.resolveCount(a.Count, 0); ok {
			e.Session.Party.Gold = max(0, e.Session.Party.Gold-n)
			e.SetVariable("AMOUNT", strconv.Itoa(n))
		}

	case types.ActionSetLevel:
		h := e.hero()
		if n, ok := e.resolveCount(a.Count, 1); ok && h != nil {
			h.SetLevel(n)
		}

	case types.ActionSetLightDiameter:
		if n, ok := e.resolveCount(a.Count, 1); ok {
			e.Session.SetLight(n, a.DecaySteps, a.FadeDialog)
		}

	case types.ActionRepelMonsters:
		e.Session.SetRepel(a.DecaySteps, a.FadeDialog)

	case types.ActionGotoCoordinates:
		if a.MapPos == nil {
			e.Logger.Error("goto coordinates without a position", "map", a.MapName)
			return nil
		}
		mapName := a.MapName
		if mapName == "" {
			mapName = e.Session.MapName
		}
		e.Hooks.Transition(mapName, *a.MapPos)

	case types.ActionGotoLastOutsideCoordinates:
		if e.Session.LastOutsideMap == "" {
			e.Logger.Warn("no outside position recorded")
			return nil
		}
		e.Hooks.Transition(e.Session.LastOutsideMap, e.Session.LastOutsidePos)

	case types.ActionStartEncounter:
		return e.Hooks.StartEncounter(ctx, e.substitute(a.Name))

	case types.ActionPlaySound:
		e.Audio.PlaySound(e.substitute(a.Name))

	case types.ActionPlayMusic:
		e.Audio.PlayMusic(e.substitute(a.Name))

	case types.ActionStopMusic:
		e.Audio.StopMusic()

	case types.ActionWait:
		n, ok := e.resolveCount(a.Count, 0)
		if !ok || n <= 0 {
			return nil
		}
		timer := time.NewTimer(time.Duration(n) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

	case types.ActionSaveGame:
		return e.Hooks.SaveGame(ctx)

	case types.ActionJoinParty:
		name := e.substitute(a.Name)
		def, ok := e.Defs.Heroes[name]
		if !ok {
			e.Logger.Error("join party: unknown hero", "hero", name)
			return nil
		}
		if e.Session.Party.Hero(name) != nil {
			return nil
		}
		e.Session.Party.Add(state.NewHero(e.Defs, def))

	case types.ActionLeaveParty:
		name := e.substitute(a.Name)
		if !e.Session.Party.Remove(name) {
			e.Logger.Warn("leave party: hero not in party", "hero", name)
		}

	case types.ActionAddProgressMarker:
		e.Session.SetMarker(e.substitute(a.Name), true)

	case types.ActionRemoveProgressMarker:
		e.Session.SetMarker(e.substitute(a.Name), false)

	default:
		e.Logger.Error("unknown action", "kind", a.Kind)
	}
	return nil
}

// targetsFor resolves an action's targets: the action's own target type
// when set, the targets already on the evaluator otherwise. Restoring
// actions only reuse preset targets on the actor's side and fall back to
// the actor itself.
func (e *Evaluator) targetsFor(a *types.DialogAction) []combat.Character {
	tt := a.TargetType
	if tt == types.TargetDefault {
		restoring := isRestoring(a.Kind)
		if len(e.Targets) > 0 && (!restoring || e.onActorSide(e.Targets)) {
			return e.Targets
		}
		if restoring {
			tt = types.TargetSelf
		}
	}
	if e.Targeter == nil {
		return nil
	}
	return e.Targeter.Targets(e.actor(), tt)
}

func isRestoring(kind types.DialogActionKind) bool {
	return kind == types.ActionHealTarget || kind == types.ActionRestoreMP
}

// onActorSide reports whether every target shares the actor's faction.
func (e *Evaluator) onActorSide(targets []combat.Character) bool {
	actor := e.actor()
	if actor == nil {
		return true
	}
	for _, t := range targets {
		if t.Faction() != actor.Faction() {
			return false
		}
	}
	return true
}

// category returns the action category, defaulting to physical for the
// actor's own attack and magical otherwise.
func category(a *types.DialogAction) types.ActionCategory {
	if a.Category != "" {
		return a.Category
	}
	if a.Count == types.CountDefault {
		return types.CategoryPhysical
	}
	return types.CategoryMagical
}

// works runs target through the resistance gate. An unrestricted bypass
// skips the gate entirely.
func (e *Evaluator) works(actor, target combat.Character, a *types.DialogAction, cat types.ActionCategory) bool {
	if a.Bypass && a.BypassTypeName == "" {
		return true
	}
	gate := combat.Gate{
		BypassResistance: a.Bypass,
		BypassTypeName:   a.BypassTypeName,
		Spell:            e.Spell,
	}
	return combat.DoesActionWork(e.RNG, actor, target, a.Kind, cat, gate)
}

// solveProblem asks a hero actor the action's arithmetic problem when math
// problems are enabled. Returns false when the answer was wrong.
func (e *Evaluator) solveProblem(ctx context.Context, a *types.DialogAction) (bool, error) {
	if a.Problem == nil || !e.Session.MathProblems {
		return true, nil
	}
	if _, ok := e.actor().(*combat.HeroState); !ok {
		return true, nil
	}
	answer, err := e.UI.Input(ctx, e.format(a.Problem.Prompt), a.Problem.AllowedCharacters)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(answer) == a.Problem.Answer {
		return true, nil
	}
	e.SetVariable("ANSWER", a.Problem.Answer)
	return false, e.Say(ctx, "Wrong! The answer was [ANSWER].")
}

func (e *Evaluator) damageTargets(ctx context.Context, a *types.DialogAction) error {
	actor := e.actor()
	if actor == nil {
		e.Logger.Error("damage without an actor")
		return nil
	}
	solved, err := e.solveProblem(ctx, a)
	if err != nil || !solved {
		return err
	}

	cat := category(a)
	for _, target := range e.targetsFor(a) {
		if !target.CombatStatus().IsStillInCombat() {
			continue
		}
		e.SetVariable("TARGET", target.Name())

		if !e.works(actor, target, a, cat) {
			if err := e.Say(ctx, "[TARGET] is not affected."); err != nil {
				return err
			}
			continue
		}
		if cat == types.CategoryPhysical && target.IsDodgingAttack(e.RNG) {
			if err := e.Say(ctx, "[TARGET] dodges the attack!"); err != nil {
				return err
			}
			continue
		}

		var damage int
		if a.Count == types.CountDefault {
			var critical bool
			damage, critical = actor.AttackDamage(e.RNG, target, cat, nil)
			if critical {
				if err := e.Say(ctx, "An excellent move!"); err != nil {
					return err
				}
			}
		} else {
			lo, hi, ok := e.countRange(a.Count)
			if !ok {
				return nil
			}
			damage = combat.CalcDamage(e.RNG, lo, hi, target, cat)
		}

		damage = target.CombatStatus().TakesDamage(damage)
		e.SetVariable("DAMAGE", strconv.Itoa(damage))
		e.Renderer.RenderDamageToTargets([]combat.Character{target})

		text := "[TARGET] takes [DAMAGE] points of damage."
		if damage == 0 {
			text = "A miss! [TARGET] takes no damage."
		}
		if err := e.Say(ctx, text); err != nil {
			return err
		}
		if !target.CombatStatus().IsAlive() {
			if err := e.Say(ctx, defeatText(target)); err != nil {
				return err
			}
		}
	}
	return nil
}

func defeatText(c combat.Character) string {
	if c.Faction() == combat.FactionHero {
		return "[TARGET] has fallen."
	}
	return "[TARGET] is defeated."
}

func (e *Evaluator) restoreTargets(ctx context.Context, a *types.DialogAction, mp bool) error {
	actor := e.actor()
	cat := category(a)
	for _, target := range e.targetsFor(a) {
		if !target.CombatStatus().IsAlive() {
			continue
		}
		e.SetVariable("TARGET", target.Name())
		if actor != nil && !e.works(actor, target, a, cat) {
			if err := e.Say(ctx, "[TARGET] is not affected."); err != nil {
				return err
			}
			continue
		}

		n, ok := e.resolveCount(a.Count, 0)
		if !ok {
			return nil
		}
		status := target.CombatStatus()
		text := "[TARGET] recovers [AMOUNT] hit points."
		if mp {
			n = status.RestoresMP(n)
			text = "[TARGET] recovers [AMOUNT] magic points."
		} else {
			n = status.Heals(n)
		}
		e.SetVariable("AMOUNT", strconv.Itoa(n))
		if err := e.Say(ctx, text); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) statusTargets(ctx context.Context, a *types.DialogAction) error {
	actor := e.actor()
	if actor == nil {
		return nil
	}
	cat := category(a)
	for _, target := range e.targetsFor(a) {
		if !target.CombatStatus().IsStillInCombat() {
			continue
		}
		e.SetVariable("TARGET", target.Name())
		if !e.works(actor, target, a, cat) {
			if err := e.Say(ctx, "[TARGET] is not affected."); err != nil {
				return err
			}
			continue
		}

		status := target.CombatStatus()
		text := "[TARGET] is asleep."
		if a.Kind == types.ActionStopSpell {
			status.AreSpellsBlocked = true
			text = "[TARGET]'s spells have been blocked."
		} else {
			status.SetAsleep(true)
		}
		if err := e.Say(ctx, text); err != nil {
			return err
		}
	}
	return nil
}
