// Package combat implements the stat/status model shared by heroes and
// monsters, the resistance gate every action passes through, damage and
// sleep formulas, and the hero/monster party aggregates.
package combat

import (
	"math"

	"github.com/nathoo/warriorcore/engine/dice"
	"github.com/nathoo/warriorcore/types"
)

// Faction tells heroes and monsters apart by value.
type Faction int

const (
	FactionHero Faction = iota + 1
	FactionMonster
)

// String returns a human-readable faction name.
func (f Faction) String() string {
	switch f {
	case FactionHero:
		return "hero"
	case FactionMonster:
		return "monster"
	default:
		return "unknown"
	}
}

// Character is the capability set every combat participant implements.
type Character interface {
	CombatStatus() *Status

	Name() string
	TypeName() string
	Faction() Faction
	WakeProbability() float64

	Strength() int
	Agility() int
	AttackStrength() int
	DefenseStrength() int

	AllowsCriticalHits() bool
	IsDodgingAttack(rng *dice.RNG) bool
	Resistance(action types.DialogActionKind, category types.ActionCategory) float64
	SpellResistance(spell string) float64
	DamageModifier(category types.ActionCategory) float64

	// AttackDamage rolls this character's intrinsic attack against target.
	// A nil isCriticalHit lets the roll decide.
	AttackDamage(rng *dice.RNG, target Character, category types.ActionCategory, isCriticalHit *bool) (damage int, wasCritical bool)
}

// Status is the mutable combat state shared by every Character variant.
type Status struct {
	HP                int
	MaxHP             int
	MP                int
	MaxMP             int
	IsAsleep          bool
	TurnsAsleep       int
	AreSpellsBlocked  bool
	HasRunAway        bool
	IsCombatCharacter bool
}

// NewStatus creates a status with full hp/mp. Onlookers (non-combat
// characters) start out counted as having run away.
func NewStatus(hp, mp int, isCombatCharacter bool) Status {
	return Status{
		HP:                hp,
		MaxHP:             hp,
		MP:                mp,
		MaxMP:             mp,
		HasRunAway:        !isCombatCharacter,
		IsCombatCharacter: isCombatCharacter,
	}
}

// CombatStatus gives Character implementations access to the embedded status.
func (s *Status) CombatStatus() *Status {
	return s
}

// IsAlive reports whether hp is above zero.
func (s *Status) IsAlive() bool {
	return s.HP > 0
}

// IsStillInCombat reports whether the character is alive and has not fled.
func (s *Status) IsStillInCombat() bool {
	return s.IsAlive() && !s.HasRunAway
}

// TakesDamage lowers hp by amount, clamped to [0, MaxHP]. Returns the hp lost.
func (s *Status) TakesDamage(amount int) int {
	if amount < 0 {
		amount = 0
	}
	before := s.HP
	s.HP = clamp(s.HP-amount, 0, s.MaxHP)
	return before - s.HP
}

// Heals raises hp by amount, clamped to [0, MaxHP]. Returns the hp gained.
func (s *Status) Heals(amount int) int {
	if amount < 0 {
		amount = 0
	}
	before := s.HP
	s.HP = clamp(s.HP+amount, 0, s.MaxHP)
	return s.HP - before
}

// RestoresMP raises mp by amount, clamped to [0, MaxMP]. Returns the mp gained.
func (s *Status) RestoresMP(amount int) int {
	if amount < 0 {
		amount = 0
	}
	before := s.MP
	s.MP = clamp(s.MP+amount, 0, s.MaxMP)
	return s.MP - before
}

// SpendMP deducts amount if available. Returns false if mp is insufficient.
func (s *Status) SpendMP(amount int) bool {
	if s.MP < amount {
		return false
	}
	s.MP -= amount
	return true
}

// SetAsleep changes the sleep flag. Waking resets the asleep counter.
func (s *Status) SetAsleep(asleep bool) {
	s.IsAsleep = asleep
	if !asleep {
		s.TurnsAsleep = 0
	}
}

// ClearCombatStatusAffects resets the transient status at encounter boundaries.
func (s *Status) ClearCombatStatusAffects() {
	s.SetAsleep(false)
	s.AreSpellsBlocked = false
	s.HasRunAway = !s.IsCombatCharacter
}

// IsStillAsleep advances the sleep state by one turn and reports whether c
// stays asleep. A character never wakes on the turn it fell asleep.
func IsStillAsleep(c Character, rng *dice.RNG) bool {
	s := c.CombatStatus()
	if s.IsAsleep && (s.TurnsAsleep == 0 || rng.Float64() > c.WakeProbability()) {
		s.TurnsAsleep++
		return true
	}
	s.SetAsleep(false)
	return false
}

// Gate tunes the resistance roll of DoesActionWork.
type Gate struct {
	BypassResistance bool
	// BypassTypeName restricts BypassResistance to targets of this type.
	BypassTypeName string
	// Spell, when set, raises the resistance to the target's resistance to it.
	Spell string
}

// DoesActionWork is the single resistance/immunity gate consulted before an
// action takes effect on target.
func DoesActionWork(rng *dice.RNG, actor, target Character, action types.DialogActionKind, category types.ActionCategory, gate Gate) bool {
	if category == types.CategoryMagical && actor.CombatStatus().AreSpellsBlocked {
		return false
	}
	ts := target.CombatStatus()
	if action == types.ActionSleep && ts.IsAsleep {
		return false
	}
	if action == types.ActionStopSpell && ts.AreSpellsBlocked {
		return false
	}

	bypass := gate.BypassResistance
	if bypass && gate.BypassTypeName != "" && target.TypeName() != gate.BypassTypeName {
		bypass = false
	}
	if !bypass {
		resistance := target.Resistance(action, category)
		if gate.Spell != "" {
			resistance = math.Max(resistance, target.SpellResistance(gate.Spell))
		}
		if rng.Float64() < resistance {
			return false
		}
	}

	if actor.Faction() == target.Faction() {
		switch action {
		case types.ActionSleep, types.ActionStopSpell, types.ActionDamageTarget:
			return false
		}
	}
	return true
}

// CalcDamage rolls damage uniformly between min and max, scaled by the
// target's modifier for category. Results below one are re-rolled as 0 or 1.
func CalcDamage(rng *dice.RNG, min, max int, target Character, category types.ActionCategory) int {
	raw := float64(min) + rng.Float64()*float64(max-min)
	damage := int(math.Floor(raw * target.DamageModifier(category)))
	if damage < 1 {
		damage = rng.Intn(2)
	}
	return damage
}

// criticalHitChance is the odds of an excellent move.
const criticalHitChance = 1.0 / 32

// rollCritical decides whether an attack on target is critical.
func rollCritical(rng *dice.RNG, target Character, isCriticalHit *bool) bool {
	if isCriticalHit != nil {
		return *isCriticalHit && target.AllowsCriticalHits()
	}
	return target.AllowsCriticalHits() && rng.Float64() < criticalHitChance
}

// normalDamageRange is the classic (atk - def/2)/4 .. (atk - def/2)/2 range.
func normalDamageRange(attack, defense int) (int, int) {
	base := attack - defense/2
	return base / 4, base / 2
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
