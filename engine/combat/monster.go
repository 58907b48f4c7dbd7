package combat

import (
	"github.com/nathoo/warriorcore/engine/dice"
	"github.com/nathoo/warriorcore/types"
)

// monsterWakeProbability is the per-turn chance a sleeping monster wakes.
const monsterWakeProbability = 1.0 / 3

// MonsterState is a monster taking part in one encounter.
type MonsterState struct {
	Status
	Info    *types.MonsterInfo
	Special *types.SpecialMonster
	GP      int
	XP      int
	name    string
}

// NewMonsterState rolls a monster's hp and gold from its template.
func NewMonsterState(rng *dice.RNG, info *types.MonsterInfo, special *types.SpecialMonster) *MonsterState {
	hp := rng.RandInt(info.MinHP, info.MaxHP)
	m := &MonsterState{
		Status:  NewStatus(hp, 0, true),
		Info:    info,
		Special: special,
		GP:      rng.RandInt(info.MinGP, info.MaxGP),
		XP:      info.XP,
		name:    "the " + info.Name,
	}
	return m
}

// Name returns the display name, e.g. "the Slime" or "the second Slime".
func (m *MonsterState) Name() string { return m.name }

// SetName replaces the display name.
func (m *MonsterState) SetName(name string) { m.name = name }

// TypeName returns the monster type, e.g. "Slime".
func (m *MonsterState) TypeName() string { return m.Info.Name }

func (m *MonsterState) Faction() Faction { return FactionMonster }

func (m *MonsterState) WakeProbability() float64 { return monsterWakeProbability }

func (m *MonsterState) Strength() int { return m.Info.Strength }

func (m *MonsterState) Agility() int { return m.Info.Agility }

func (m *MonsterState) AttackStrength() int { return m.Info.Strength }

func (m *MonsterState) DefenseStrength() int { return m.Info.Agility }

func (m *MonsterState) AllowsCriticalHits() bool { return m.Info.AllowsCriticalHits }

// IsSpecial reports whether this is a scripted fixed-position monster.
func (m *MonsterState) IsSpecial() bool { return m.Special != nil }

// IsDodgingAttack rolls the monster's dodge chance (out of 64).
func (m *MonsterState) IsDodgingAttack(rng *dice.RNG) bool {
	if m.Info.Dodge <= 0 {
		return false
	}
	return rng.Intn(64) < m.Info.Dodge
}

// Resistance returns the chance of negating action. Physical damage is never
// resisted; dodging covers it.
func (m *MonsterState) Resistance(action types.DialogActionKind, category types.ActionCategory) float64 {
	if action == types.ActionDamageTarget && category != types.CategoryMagical {
		return 0
	}
	return m.Info.Resistances[string(action)]
}

// SpellResistance returns the chance of negating the named spell.
func (m *MonsterState) SpellResistance(spell string) float64 {
	return m.Info.Resistances[spell]
}

// DamageModifier is always neutral for monsters.
func (m *MonsterState) DamageModifier(types.ActionCategory) float64 { return 1 }

// AttackDamage rolls the monster's attack. Weak monsters facing strong
// defense deal chip damage; a critical hit keeps the best of two rolls.
func (m *MonsterState) AttackDamage(rng *dice.RNG, target Character, category types.ActionCategory, isCriticalHit *bool) (int, bool) {
	attack := m.AttackStrength()
	defense := target.DefenseStrength()

	lo, hi := normalDamageRange(attack, defense)
	if defense/2 >= attack {
		lo, hi = 0, (attack+4)/6
	}

	damage := CalcDamage(rng, lo, hi, target, category)
	critical := rollCritical(rng, target, isCriticalHit)
	if critical {
		damage = max(damage, CalcDamage(rng, lo, hi, target, category))
	}
	return damage, critical
}

// HasInitiative reports whether the monster acts before the heroes on the
// first round.
func (m *MonsterState) HasInitiative(rng *dice.RNG, hero Character) bool {
	if m.IsSpecial() || m.Info.MayRunAway {
		return false
	}
	return float64(hero.Agility())*rng.Float64() < float64(m.Agility())*rng.Float64()*0.25
}

// ShouldRunAway reports whether the monster flees from heroes whose
// strongest attack is heroStrength.
func (m *MonsterState) ShouldRunAway(rng *dice.RNG, heroStrength int) bool {
	if !m.Info.MayRunAway || m.IsSpecial() {
		return false
	}
	if heroStrength <= 2*m.Strength() {
		return false
	}
	return rng.Float64() < 0.25
}

// IsBlockingEscape reports whether the monster stops hero from running.
func (m *MonsterState) IsBlockingEscape(rng *dice.RNG, hero Character) bool {
	if m.IsAsleep {
		return false
	}
	return float64(hero.Agility())*rng.Float64() < float64(m.Agility())*rng.Float64()*m.Info.BlockFactor
}

// HealthRatio returns hp as a fraction of max hp.
func (m *MonsterState) HealthRatio() float64 {
	if m.MaxHP <= 0 {
		return 0
	}
	return float64(m.HP) / float64(m.MaxHP)
}
