package combat

import (
	"sort"

	"github.com/nathoo/warriorcore/engine/dice"
	"github.com/nathoo/warriorcore/types"
)

// heroWakeProbability is the per-turn chance a sleeping hero wakes.
const heroWakeProbability = 0.5

// ItemRow is one line of an inventory listing.
type ItemRow struct {
	Name  string
	Count int
}

// LevelUp describes the attribute changes of a level gain.
type LevelUp struct {
	Old types.LevelInfo
	New types.LevelInfo
	// NewSpells lists spells learned between the two levels.
	NewSpells []string
}

// HeroState is a hero; it persists across encounters.
type HeroState struct {
	Status
	HeroName  string
	XP        int
	Weapon    *types.Weapon
	Armor     *types.Armor
	Shield    *types.Shield
	Inventory []string
	MaxItems  int

	levels []types.LevelInfo
	level  types.LevelInfo
}

// NewHeroState creates a hero at the given level of the level table. The
// hero starts with full hp/mp and the xp needed for that level.
func NewHeroState(name string, levels []types.LevelInfo, level int) *HeroState {
	sorted := append([]types.LevelInfo(nil), levels...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	h := &HeroState{
		HeroName: name,
		levels:   sorted,
	}
	h.level = h.levelInfo(level)
	h.Status = NewStatus(h.level.HP, h.level.MP, true)
	h.XP = h.level.XP
	return h
}

// levelInfo returns the entry for level, or the closest lower one.
func (h *HeroState) levelInfo(level int) types.LevelInfo {
	var best types.LevelInfo
	for _, li := range h.levels {
		if li.Level <= level {
			best = li
		}
	}
	if best.Level == 0 && len(h.levels) > 0 {
		best = h.levels[0]
	}
	return best
}

func (h *HeroState) Name() string { return h.HeroName }

// TypeName is "hero" for every hero.
func (h *HeroState) TypeName() string { return "hero" }

func (h *HeroState) Faction() Faction { return FactionHero }

func (h *HeroState) WakeProbability() float64 { return heroWakeProbability }

// Level returns the current level number.
func (h *HeroState) Level() int { return h.level.Level }

// LevelInfo returns the attributes of the current level.
func (h *HeroState) LevelInfo() types.LevelInfo { return h.level }

func (h *HeroState) Strength() int { return h.level.Strength }

func (h *HeroState) Agility() int { return h.level.Agility }

// AttackStrength is strength plus the equipped weapon's attack.
func (h *HeroState) AttackStrength() int {
	attack := h.Strength()
	if h.Weapon != nil {
		attack += h.Weapon.Attack
	}
	return attack
}

// DefenseStrength is half the agility plus armor and shield.
func (h *HeroState) DefenseStrength() int {
	defense := h.Agility() / 2
	if h.Armor != nil {
		defense += h.Armor.Defense
	}
	if h.Shield != nil {
		defense += h.Shield.Defense
	}
	return defense
}

func (h *HeroState) AllowsCriticalHits() bool { return true }

// IsDodgingAttack is always false; heroes rely on armor.
func (h *HeroState) IsDodgingAttack(*dice.RNG) bool { return false }

// Resistance comes from the equipped armor.
func (h *HeroState) Resistance(action types.DialogActionKind, _ types.ActionCategory) float64 {
	if h.Armor == nil {
		return 0
	}
	return h.Armor.Resistances[string(action)]
}

func (h *HeroState) SpellResistance(spell string) float64 {
	if h.Armor == nil {
		return 0
	}
	return h.Armor.Resistances[spell]
}

// DamageModifier scales incoming damage of category by the armor modifier.
func (h *HeroState) DamageModifier(category types.ActionCategory) float64 {
	if h.Armor == nil {
		return 1
	}
	if m, ok := h.Armor.DamageModifiers[category]; ok {
		return m
	}
	return 1
}

// AttackDamage rolls the hero's attack. A critical hit ignores defense.
func (h *HeroState) AttackDamage(rng *dice.RNG, target Character, category types.ActionCategory, isCriticalHit *bool) (int, bool) {
	attack := h.AttackStrength()
	if rollCritical(rng, target, isCriticalHit) {
		return CalcDamage(rng, attack/2, attack, target, category), true
	}
	lo, hi := normalDamageRange(attack, target.DefenseStrength())
	return CalcDamage(rng, lo, hi, target, category), false
}

// SpellNames lists the spells learned up to the current level, in order.
func (h *HeroState) SpellNames() []string {
	var spells []string
	for _, li := range h.levels {
		if li.Level > h.level.Level {
			break
		}
		if li.Spell != "" {
			spells = append(spells, li.Spell)
		}
	}
	return spells
}

// AvailableSpells filters known spells to those usable in the given
// context, looking them up in defs.
func (h *HeroState) AvailableSpells(defs map[string]*types.Spell, inCombat bool) []*types.Spell {
	var result []*types.Spell
	for _, name := range h.SpellNames() {
		spell, ok := defs[name]
		if !ok {
			continue
		}
		if (inCombat && spell.AvailableInCombat) || (!inCombat && spell.AvailableOutside) {
			result = append(result, spell)
		}
	}
	return result
}

// ItemCount returns how many of the named item the hero carries,
// counting equipped gear.
func (h *HeroState) ItemCount(name string) int {
	count := 0
	for _, item := range h.Inventory {
		if item == name {
			count++
		}
	}
	if h.IsEquipped(name) {
		count++
	}
	return count
}

// IsEquipped reports whether the named weapon, armor or shield is equipped.
func (h *HeroState) IsEquipped(name string) bool {
	return (h.Weapon != nil && h.Weapon.Name == name) ||
		(h.Armor != nil && h.Armor.Name == name) ||
		(h.Shield != nil && h.Shield.Name == name)
}

// CanReceiveItem reports whether there is room in the inventory.
func (h *HeroState) CanReceiveItem() bool {
	return h.MaxItems <= 0 || len(h.Inventory) < h.MaxItems
}

// GainItem adds an item to the inventory. Returns false when full.
func (h *HeroState) GainItem(name string) bool {
	if !h.CanReceiveItem() {
		return false
	}
	h.Inventory = append(h.Inventory, name)
	return true
}

// LoseItem removes one unequipped copy of the named item.
func (h *HeroState) LoseItem(name string) bool {
	for i, item := range h.Inventory {
		if item == name {
			h.Inventory = append(h.Inventory[:i], h.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// EquipWeapon swaps w in from the inventory, returning the old weapon to it.
func (h *HeroState) EquipWeapon(w *types.Weapon) bool {
	if !h.LoseItem(w.Name) {
		return false
	}
	if h.Weapon != nil {
		h.Inventory = append(h.Inventory, h.Weapon.Name)
	}
	h.Weapon = w
	return true
}

// EquipArmor swaps a in from the inventory, returning the old armor to it.
func (h *HeroState) EquipArmor(a *types.Armor) bool {
	if !h.LoseItem(a.Name) {
		return false
	}
	if h.Armor != nil {
		h.Inventory = append(h.Inventory, h.Armor.Name)
	}
	h.Armor = a
	return true
}

// EquipShield swaps s in from the inventory, returning the old shield to it.
func (h *HeroState) EquipShield(s *types.Shield) bool {
	if !h.LoseItem(s.Name) {
		return false
	}
	if h.Shield != nil {
		h.Inventory = append(h.Inventory, h.Shield.Name)
	}
	h.Shield = s
	return true
}

// ItemRowData groups the inventory into name/count rows in first-seen order.
func (h *HeroState) ItemRowData() []ItemRow {
	var rows []ItemRow
	index := map[string]int{}
	for _, item := range h.Inventory {
		if i, ok := index[item]; ok {
			rows[i].Count++
			continue
		}
		index[item] = len(rows)
		rows = append(rows, ItemRow{Name: item, Count: 1})
	}
	return rows
}

// SetLevel moves the hero to level, resetting xp to that level's threshold
// and hp/mp to the new maximums.
func (h *HeroState) SetLevel(level int) {
	h.level = h.levelInfo(level)
	h.XP = h.level.XP
	h.MaxHP, h.HP = h.level.HP, h.level.HP
	h.MaxMP, h.MP = h.level.MP, h.level.MP
}

// LevelUpCheck applies every level whose xp threshold has been reached and
// reports the change, or nil when the level did not change.
func (h *HeroState) LevelUpCheck() *LevelUp {
	old := h.level
	oldSpells := len(h.SpellNames())
	for _, li := range h.levels {
		if li.Level > h.level.Level && h.XP >= li.XP {
			h.level = li
		}
	}
	if h.level.Level == old.Level {
		return nil
	}

	h.MaxHP += h.level.HP - old.HP
	h.MaxMP += h.level.MP - old.MP
	h.HP = clamp(h.HP, 0, h.MaxHP)
	h.MP = clamp(h.MP, 0, h.MaxMP)

	up := &LevelUp{Old: old, New: h.level}
	if spells := h.SpellNames(); len(spells) > oldSpells {
		up.NewSpells = spells[oldSpells:]
	}
	return up
}
