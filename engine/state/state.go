// Package state holds the immutable game definitions and the mutable
// exploration session (party, position, timed effects, progress markers).
package state

import (
	"strings"

	"github.com/nathoo/warriorcore/engine/combat"
	"github.com/nathoo/warriorcore/types"
)

// Defs holds the immutable game definitions loaded from Lua.
type Defs struct {
	Game            types.GameDef
	Levels          []types.LevelInfo
	Weapons         map[string]*types.Weapon
	Armors          map[string]*types.Armor
	Shields         map[string]*types.Shield
	Tools           map[string]*types.Tool
	Spells          map[string]*types.Spell
	Monsters        map[string]*types.MonsterInfo
	MonsterActions  map[string]*types.MonsterAction
	SpecialMonsters []*types.SpecialMonster
	Heroes          map[string]types.HeroDef
	Maps            map[string]types.MapDef
	Dialogs         map[string]types.DialogDocument
}

// NewDefs returns empty definitions with every map allocated.
func NewDefs() *Defs {
	return &Defs{
		Weapons:        map[string]*types.Weapon{},
		Armors:         map[string]*types.Armor{},
		Shields:        map[string]*types.Shield{},
		Tools:          map[string]*types.Tool{},
		Spells:         map[string]*types.Spell{},
		Monsters:       map[string]*types.MonsterInfo{},
		MonsterActions: map[string]*types.MonsterAction{},
		Heroes:         map[string]types.HeroDef{},
		Maps:           map[string]types.MapDef{},
		Dialogs:        map[string]types.DialogDocument{},
	}
}

// ItemPrice returns the gold value of any item kind, and whether the item
// is known at all.
func (d *Defs) ItemPrice(name string) (int, bool) {
	if w, ok := d.Weapons[name]; ok {
		return w.GP, true
	}
	if a, ok := d.Armors[name]; ok {
		return a.GP, true
	}
	if s, ok := d.Shields[name]; ok {
		return s.GP, true
	}
	if t, ok := d.Tools[name]; ok {
		return t.GP, true
	}
	return 0, false
}

// IsItem reports whether name is a known weapon, armor, shield or tool.
func (d *Defs) IsItem(name string) bool {
	_, ok := d.ItemPrice(name)
	return ok
}

// LookupSpell finds a spell by case-insensitive name.
func (d *Defs) LookupSpell(name string) *types.Spell {
	if s, ok := d.Spells[name]; ok {
		return s
	}
	for key, s := range d.Spells {
		if strings.EqualFold(key, name) {
			return s
		}
	}
	return nil
}

// LookupItem returns the canonical item name for a case-insensitive match.
func (d *Defs) LookupItem(name string) (string, bool) {
	if d.IsItem(name) {
		return name, true
	}
	for _, names := range [][]string{keys(d.Weapons), keys(d.Armors), keys(d.Shields), keys(d.Tools)} {
		for _, key := range names {
			if strings.EqualFold(key, name) {
				return key, true
			}
		}
	}
	return "", false
}

func keys[V any](m map[string]V) []string {
	result := make([]string, 0, len(m))
	for k := range m {
		result = append(result, k)
	}
	return result
}

// SpecialMonsterAt returns the special monster stationed at pos on mapName.
func (d *Defs) SpecialMonsterAt(mapName string, pos types.Point) *types.SpecialMonster {
	for _, sm := range d.SpecialMonsters {
		if sm.MapName == mapName && sm.MapPos == pos {
			return sm
		}
	}
	return nil
}

// NewHero builds a hero from its definition, equipping its gear.
func NewHero(defs *Defs, def types.HeroDef) *combat.HeroState {
	level := def.Level
	if level <= 0 {
		level = 1
	}
	h := combat.NewHeroState(def.Name, defs.Levels, level)
	h.MaxItems = defs.Game.MaxItems
	h.Weapon = defs.Weapons[def.Weapon]
	h.Armor = defs.Armors[def.Armor]
	h.Shield = defs.Shields[def.Shield]
	h.Inventory = append([]string{}, def.Items...)
	return h
}

// Session is the mutable state of one play-through.
type Session struct {
	Party    *combat.HeroParty
	MapName  string
	Position types.Point

	LastOutsideMap string
	LastOutsidePos types.Point

	LightDiameter int
	LightSteps    int
	LightFade     types.DialogType
	RepelSteps    int
	RepelFade     types.DialogType

	Markers      map[string]bool
	InCombat     bool
	MathProblems bool
	TurnCount    int
}

// NewSession creates a fresh session at the start position with the
// configured hero and starting gold.
func NewSession(defs *Defs) *Session {
	hero := NewHero(defs, defs.Game.Hero)
	party := combat.NewHeroParty(hero)
	party.Gold = defs.Game.Gold

	s := &Session{
		Party:         party,
		LightDiameter: 1,
		Markers:       map[string]bool{},
	}
	s.MoveTo(defs, defs.Game.StartMap, defs.Game.StartPos)
	return s
}

// IsOutside reports whether the current map is an outside map.
func (s *Session) IsOutside(defs *Defs) bool {
	return defs.Maps[s.MapName].Outside
}

// MoveTo places the party on mapName at pos. Leaving an outside map for an
// inside one records the outside position for GOTO_LAST_OUTSIDE_COORDINATES.
func (s *Session) MoveTo(defs *Defs, mapName string, pos types.Point) {
	if s.MapName != "" && s.IsOutside(defs) && !defs.Maps[mapName].Outside {
		s.LastOutsideMap = s.MapName
		s.LastOutsidePos = s.Position
	}
	s.MapName = mapName
	s.Position = pos
	if defs.Maps[mapName].Outside {
		s.LightDiameter = 1
		s.LightSteps = 0
		s.LightFade = nil
	}
}

// SetLight sets the light radius for steps moves. Zero steps never fade.
func (s *Session) SetLight(diameter, steps int, fade types.DialogType) {
	s.LightDiameter = diameter
	s.LightSteps = steps
	s.LightFade = fade
}

// SetRepel keeps random encounters away for steps moves.
func (s *Session) SetRepel(steps int, fade types.DialogType) {
	s.RepelSteps = steps
	s.RepelFade = fade
}

// IsRepelActive reports whether random encounters are suppressed.
func (s *Session) IsRepelActive() bool {
	return s.RepelSteps > 0
}

// DecayStep counts down timed effects by one move and returns the fade
// dialogs of effects that just ran out, in light-then-repel order.
func (s *Session) DecayStep() []types.DialogType {
	s.TurnCount++

	var fades []types.DialogType
	if s.LightSteps > 0 {
		s.LightSteps--
		if s.LightSteps == 0 {
			s.LightDiameter = 1
			if s.LightFade != nil {
				fades = append(fades, s.LightFade)
			}
			s.LightFade = nil
		}
	}
	if s.RepelSteps > 0 {
		s.RepelSteps--
		if s.RepelSteps == 0 {
			if s.RepelFade != nil {
				fades = append(fades, s.RepelFade)
			}
			s.RepelFade = nil
		}
	}
	return fades
}

// HasMarker reports whether a progress marker is set.
func (s *Session) HasMarker(name string) bool {
	return s.Markers[name]
}

// SetMarker adds or removes a progress marker.
func (s *Session) SetMarker(name string, on bool) {
	if on {
		s.Markers[name] = true
		return
	}
	delete(s.Markers, name)
}
