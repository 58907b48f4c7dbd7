package encounter

import (
	"log/slog"

	"github.com/nathoo/warriorcore/engine/combat"
	"github.com/nathoo/warriorcore/engine/dice"
	"github.com/nathoo/warriorcore/types"
)

// Targets resolves action target types inside a battle. Allies are the
// actor's own party. Heroes take the first eligible member for single
// targets; monsters pick uniformly at random.
type Targets struct {
	Heroes   *combat.HeroParty
	Monsters *combat.MonsterParty
	RNG      *dice.RNG
	Logger   *slog.Logger
}

func (t Targets) Targets(actor combat.Character, tt types.TargetType) []combat.Character {
	if actor == nil {
		return nil
	}
	allies, enemies := t.sides(actor)

	switch tt {
	case types.TargetSelf:
		return []combat.Character{actor}
	case types.TargetSingleAlly:
		return t.single(actor, allies)
	case types.TargetAllAllies:
		return allies
	case types.TargetSingleEnemy, types.TargetDefault:
		return t.single(actor, enemies)
	case types.TargetAllEnemies:
		return enemies
	default:
		t.Logger.Error("unsupported target type", "target_type", tt, "actor", actor.Name())
		return nil
	}
}

// sides returns the still-fighting members of the actor's party and of the
// opposing party.
func (t Targets) sides(actor combat.Character) (allies, enemies []combat.Character) {
	heroes := t.Heroes.StillInCombatMembers()
	monsters := t.Monsters.StillInCombatMembers()
	if actor.Faction() == combat.FactionHero {
		return heroes, monsters
	}
	return monsters, heroes
}

func (t Targets) single(actor combat.Character, candidates []combat.Character) []combat.Character {
	if len(candidates) == 0 {
		return nil
	}
	if actor.Faction() == combat.FactionHero {
		return candidates[:1]
	}
	return []combat.Character{candidates[t.RNG.Intn(len(candidates))]}
}
