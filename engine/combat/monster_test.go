package combat

import (
	"testing"

	"github.com/nathoo/warriorcore/engine/dice"
	"github.com/nathoo/warriorcore/types"
)

func TestNewMonsterState_RollsWithinTemplate(t *testing.T) {
	info := testMonsterInfo()
	info.MinHP, info.MaxHP = 4, 8
	info.MinGP, info.MaxGP = 10, 20

	rng := dice.NewRNG(42)
	for i := 0; i < 100; i++ {
		m := NewMonsterState(rng, info, nil)
		if m.HP < 4 || m.HP > 8 || m.HP != m.MaxHP {
			t.Fatalf("hp %d/%d outside template", m.HP, m.MaxHP)
		}
		if m.GP < 10 || m.GP > 20 {
			t.Fatalf("gp %d outside template", m.GP)
		}
		if m.MP != 0 {
			t.Fatalf("monsters have no mp, got %d", m.MP)
		}
	}
}

func TestMonsterState_Names(t *testing.T) {
	m := NewMonsterState(zeroRNG(), testMonsterInfo(), nil)

	if m.Name() != "the Slime" {
		t.Errorf("Name = %q, want %q", m.Name(), "the Slime")
	}
	if m.TypeName() != "Slime" {
		t.Errorf("TypeName = %q, want Slime", m.TypeName())
	}
	m.SetName("the second Slime")
	if m.Name() != "the second Slime" || m.TypeName() != "Slime" {
		t.Errorf("SetName changed type name: %q / %q", m.Name(), m.TypeName())
	}
}

func TestMonsterState_Dodge(t *testing.T) {
	info := testMonsterInfo()
	m := NewMonsterState(zeroRNG(), info, nil)

	if m.IsDodgingAttack(zeroRNG()) {
		t.Error("dodge 0 should never dodge")
	}
	info.Dodge = 64
	rng := dice.NewRNG(3)
	for i := 0; i < 50; i++ {
		if !m.IsDodgingAttack(rng) {
			t.Fatal("dodge 64 should always dodge")
		}
	}
}

func TestMonsterState_PhysicalDamageNeverResisted(t *testing.T) {
	info := testMonsterInfo()
	info.Resistances = map[string]float64{string(types.ActionDamageTarget): 1}
	m := NewMonsterState(zeroRNG(), info, nil)

	if r := m.Resistance(types.ActionDamageTarget, types.CategoryPhysical); r != 0 {
		t.Errorf("physical resistance = %f, want 0", r)
	}
	if r := m.Resistance(types.ActionDamageTarget, types.CategoryMagical); r != 1 {
		t.Errorf("magical resistance = %f, want 1", r)
	}
}

func TestMonsterState_AttackDamage_WeakMonster(t *testing.T) {
	info := testMonsterInfo()
	info.Strength = 2
	m := NewMonsterState(zeroRNG(), info, nil)

	hero := NewHeroState("Erdrick", testLevels(), 1)
	hero.Armor = &types.Armor{Name: "Plate", Defense: 40}

	rng := dice.NewRNG(9)
	for i := 0; i < 200; i++ {
		d, _ := m.AttackDamage(rng, hero, types.CategoryPhysical, nil)
		// Weak range is [0, (2+4)/6] = [0, 1].
		if d < 0 || d > 1 {
			t.Fatalf("weak monster damage = %d, want 0..1", d)
		}
	}
}

func TestMonsterState_AttackDamage_ForcedCritical(t *testing.T) {
	m := NewMonsterState(zeroRNG(), testMonsterInfo(), nil)
	hero := NewHeroState("Erdrick", testLevels(), 1)

	yes, no := true, false
	if _, crit := m.AttackDamage(dice.NewRNG(1), hero, types.CategoryPhysical, &yes); !crit {
		t.Error("forced critical should be critical against a hero")
	}
	if _, crit := m.AttackDamage(dice.NewRNG(1), hero, types.CategoryPhysical, &no); crit {
		t.Error("forced non-critical should not be critical")
	}

	other := NewMonsterState(zeroRNG(), testMonsterInfo(), nil)
	if _, crit := m.AttackDamage(dice.NewRNG(1), other, types.CategoryPhysical, &yes); crit {
		t.Error("target without critical hits should never take one")
	}
}

func TestMonsterState_ShouldRunAway(t *testing.T) {
	info := testMonsterInfo()
	info.MayRunAway = true
	m := NewMonsterState(zeroRNG(), info, nil)

	if !m.ShouldRunAway(zeroRNG(), 11) {
		t.Error("monster facing more than double its strength should flee on a zero draw")
	}
	if m.ShouldRunAway(zeroRNG(), 10) {
		t.Error("monster facing exactly double its strength should not flee")
	}

	special := NewMonsterState(zeroRNG(), info, &types.SpecialMonster{Name: "Dragonlord"})
	if special.ShouldRunAway(zeroRNG(), 100) {
		t.Error("special monsters never flee")
	}

	info2 := testMonsterInfo()
	stubborn := NewMonsterState(zeroRNG(), info2, nil)
	if stubborn.ShouldRunAway(zeroRNG(), 100) {
		t.Error("monster without MayRunAway should not flee")
	}
}

func TestMonsterState_HasInitiative(t *testing.T) {
	hero := NewHeroState("Erdrick", testLevels(), 1)
	m := NewMonsterState(zeroRNG(), testMonsterInfo(), nil)

	// Both products are zero and the comparison is strict.
	if m.HasInitiative(zeroRNG(), hero) {
		t.Error("zero draws should not give initiative")
	}

	info := testMonsterInfo()
	info.MayRunAway = true
	timid := NewMonsterState(zeroRNG(), info, nil)
	for seed := int64(0); seed < 20; seed++ {
		if timid.HasInitiative(dice.NewRNG(seed), hero) {
			t.Fatal("monsters that may run away never take initiative")
		}
	}
}

func TestMonsterState_SleepingNeverBlocksEscape(t *testing.T) {
	info := testMonsterInfo()
	info.Agility = 255
	info.BlockFactor = 1
	m := NewMonsterState(zeroRNG(), info, nil)
	m.SetAsleep(true)

	hero := NewHeroState("Erdrick", testLevels(), 1)
	for seed := int64(0); seed < 20; seed++ {
		if m.IsBlockingEscape(dice.NewRNG(seed), hero) {
			t.Fatal("sleeping monster blocked an escape")
		}
	}
}

func TestMonsterState_HealthRatio(t *testing.T) {
	info := testMonsterInfo()
	info.MinHP, info.MaxHP = 10, 10
	m := NewMonsterState(zeroRNG(), info, nil)
	m.TakesDamage(5)

	if r := m.HealthRatio(); r != 0.5 {
		t.Errorf("HealthRatio = %f, want 0.5", r)
	}
}
