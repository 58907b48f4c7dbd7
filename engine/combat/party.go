package combat

import (
	"fmt"
	"strings"
)

// Party is the capability set shared by hero and monster parties.
type Party interface {
	Members() []Character
	IsStillInCombat() bool
	StillInCombatMembers() []Character
	HighestAttackStrength() int
}

func stillInCombat(members []Character) []Character {
	var result []Character
	for _, m := range members {
		if m.CombatStatus().IsStillInCombat() {
			result = append(result, m)
		}
	}
	return result
}

func highestAttackStrength(members []Character) int {
	best := 0
	for _, m := range members {
		if m.CombatStatus().IsStillInCombat() && m.AttackStrength() > best {
			best = m.AttackStrength()
		}
	}
	return best
}

// HeroParty is the player's party and its shared gold purse.
type HeroParty struct {
	Heroes []*HeroState
	Gold   int
}

// NewHeroParty creates a party from heroes in marching order.
func NewHeroParty(heroes ...*HeroState) *HeroParty {
	return &HeroParty{Heroes: heroes}
}

func (p *HeroParty) Members() []Character {
	members := make([]Character, len(p.Heroes))
	for i, h := range p.Heroes {
		members[i] = h
	}
	return members
}

func (p *HeroParty) IsStillInCombat() bool {
	return len(p.StillInCombatMembers()) > 0
}

func (p *HeroParty) StillInCombatMembers() []Character {
	return stillInCombat(p.Members())
}

func (p *HeroParty) HighestAttackStrength() int {
	return highestAttackStrength(p.Members())
}

// HasSurvivingMembers reports whether any hero is alive, fled or not.
func (p *HeroParty) HasSurvivingMembers() bool {
	return len(p.SurvivingMembers()) > 0
}

// SurvivingMembers returns the living heroes.
func (p *HeroParty) SurvivingMembers() []*HeroState {
	var result []*HeroState
	for _, h := range p.Heroes {
		if h.IsAlive() {
			result = append(result, h)
		}
	}
	return result
}

// MainHero returns the party leader, or nil for an empty party.
func (p *HeroParty) MainHero() *HeroState {
	if len(p.Heroes) == 0 {
		return nil
	}
	return p.Heroes[0]
}

// Hero looks up a hero by name.
func (p *HeroParty) Hero(name string) *HeroState {
	for _, h := range p.Heroes {
		if strings.EqualFold(h.Name(), name) {
			return h
		}
	}
	return nil
}

// Add appends a hero to the party.
func (p *HeroParty) Add(h *HeroState) {
	p.Heroes = append(p.Heroes, h)
}

// Remove drops the named hero. The leader cannot leave.
func (p *HeroParty) Remove(name string) bool {
	for i, h := range p.Heroes {
		if i > 0 && strings.EqualFold(h.Name(), name) {
			p.Heroes = append(p.Heroes[:i], p.Heroes[i+1:]...)
			return true
		}
	}
	return false
}

// ClearCombatStatusAffects resets every hero's transient status.
func (p *HeroParty) ClearCombatStatusAffects() {
	for _, h := range p.Heroes {
		h.ClearCombatStatusAffects()
	}
}

// MonsterParty is the monsters of one encounter.
type MonsterParty struct {
	Monsters []*MonsterState
}

// NewMonsterParty creates a party and gives duplicate monster types unique names.
func NewMonsterParty(monsters ...*MonsterState) *MonsterParty {
	p := &MonsterParty{Monsters: monsters}
	p.SetUniqueMonsterNames()
	return p
}

func (p *MonsterParty) Members() []Character {
	members := make([]Character, len(p.Monsters))
	for i, m := range p.Monsters {
		members[i] = m
	}
	return members
}

func (p *MonsterParty) IsStillInCombat() bool {
	return len(p.StillInCombatMembers()) > 0
}

func (p *MonsterParty) StillInCombatMembers() []Character {
	return stillInCombat(p.Members())
}

func (p *MonsterParty) HighestAttackStrength() int {
	return highestAttackStrength(p.Members())
}

// ClearCombatStatusAffects resets every monster's transient status.
func (p *MonsterParty) ClearCombatStatusAffects() {
	for _, m := range p.Monsters {
		m.ClearCombatStatusAffects()
	}
}

// SetUniqueMonsterNames renames monsters whose type occurs more than once
// to "the first Slime", "the second Slime", and so on.
func (p *MonsterParty) SetUniqueMonsterNames() {
	counts := map[string]int{}
	for _, m := range p.Monsters {
		counts[m.TypeName()]++
	}

	seen := map[string]int{}
	for _, m := range p.Monsters {
		typeName := m.TypeName()
		if counts[typeName] < 2 {
			continue
		}
		seen[typeName]++
		m.SetName(fmt.Sprintf("the %s %s", Ordinal(seen[typeName]), typeName))
	}
}

var ordinals = [...]string{
	"first", "second", "third", "fourth", "fifth",
	"sixth", "seventh", "eighth", "ninth", "tenth",
}

// Ordinal returns "first" through "tenth" for 1..10 and numeric ordinals
// ("11th", "21st", "112th") beyond that.
func Ordinal(n int) string {
	if n >= 1 && n <= len(ordinals) {
		return ordinals[n-1]
	}
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func (p *MonsterParty) defeated() []*MonsterState {
	var result []*MonsterState
	for _, m := range p.Monsters {
		if !m.IsAlive() {
			result = append(result, m)
		}
	}
	return result
}

// DefeatedCount returns the number of dead monsters.
func (p *MonsterParty) DefeatedCount() int {
	return len(p.defeated())
}

// GP sums the gold of defeated monsters.
func (p *MonsterParty) GP() int {
	total := 0
	for _, m := range p.defeated() {
		total += m.GP
	}
	return total
}

// XP sums the experience of defeated monsters.
func (p *MonsterParty) XP() int {
	total := 0
	for _, m := range p.defeated() {
		total += m.XP
	}
	return total
}

// DefeatedNames joins the names of the defeated monsters, e.g.
// "the first Slime and the second Slime". Empty when nothing was defeated.
func (p *MonsterParty) DefeatedNames() string {
	var names []string
	for _, m := range p.defeated() {
		names = append(names, m.Name())
	}
	if len(names) == 0 {
		return ""
	}
	return ConcatenateStringList(names)
}

// Summary describes the party by type, e.g. "a Slime and 2 Drakees".
func (p *MonsterParty) Summary() string {
	var order []string
	counts := map[string]int{}
	for _, m := range p.Monsters {
		if counts[m.TypeName()] == 0 {
			order = append(order, m.TypeName())
		}
		counts[m.TypeName()]++
	}

	parts := make([]string, 0, len(order))
	for _, typeName := range order {
		if n := counts[typeName]; n > 1 {
			parts = append(parts, fmt.Sprintf("%d %s", n, plural(typeName)))
		} else {
			parts = append(parts, article(typeName)+" "+typeName)
		}
	}
	return ConcatenateStringList(parts)
}

// ConcatenateStringList joins items as an English list with an Oxford
// comma. It panics on an empty list; callers must pass at least one item.
func ConcatenateStringList(items []string) string {
	switch len(items) {
	case 0:
		panic("combat: ConcatenateStringList called with an empty list")
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

func article(word string) string {
	if word != "" && strings.ContainsRune("AEIOUaeiou", rune(word[0])) {
		return "an"
	}
	return "a"
}

func plural(word string) string {
	switch {
	case strings.HasSuffix(word, "s"), strings.HasSuffix(word, "x"),
		strings.HasSuffix(word, "ch"), strings.HasSuffix(word, "sh"):
		return word + "es"
	default:
		return word + "s"
	}
}
