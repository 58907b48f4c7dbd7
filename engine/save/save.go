// Package save implements JSON serialization and deserialization of a
// play-through: the session, the hero party and the random source.
package save

import (
	"encoding/json"
	"fmt"

	"github.com/nathoo/warriorcore/engine/combat"
	"github.com/nathoo/warriorcore/engine/dice"
	"github.com/nathoo/warriorcore/engine/state"
	"github.com/nathoo/warriorcore/types"
)

// HeroData is one saved hero. Gear is stored by name and resolved against
// the definitions on load.
type HeroData struct {
	Name      string   `json:"name"`
	Level     int      `json:"level"`
	XP        int      `json:"xp"`
	HP        int      `json:"hp"`
	MP        int      `json:"mp"`
	Weapon    string   `json:"weapon,omitempty"`
	Armor     string   `json:"armor,omitempty"`
	Shield    string   `json:"shield,omitempty"`
	Inventory []string `json:"inventory"`
}

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version string `json:"version"`
	Game    string `json:"game"`
	Turn    int    `json:"turn"`

	Heroes []HeroData `json:"heroes"`
	Gold   int        `json:"gold"`

	Map            string      `json:"map"`
	Position       types.Point `json:"position"`
	LastOutsideMap string      `json:"last_outside_map,omitempty"`
	LastOutsidePos types.Point `json:"last_outside_pos"`

	LightDiameter int              `json:"light_diameter"`
	LightSteps    int              `json:"light_steps"`
	LightFade     types.DialogType `json:"light_fade,omitempty"`
	RepelSteps    int              `json:"repel_steps"`
	RepelFade     types.DialogType `json:"repel_fade,omitempty"`

	Markers      map[string]bool `json:"markers"`
	MathProblems bool            `json:"math_problems"`

	RNGSeed     int64 `json:"rng_seed"`
	RNGPosition int64 `json:"rng_position"`
}

// Save serializes the session and random source to JSON bytes.
func Save(s *state.Session, rng *dice.RNG, defs *state.Defs) ([]byte, error) {
	data := SaveData{
		Version:        defs.Game.Version,
		Game:           defs.Game.Title,
		Turn:           s.TurnCount,
		Gold:           s.Party.Gold,
		Map:            s.MapName,
		Position:       s.Position,
		LastOutsideMap: s.LastOutsideMap,
		LastOutsidePos: s.LastOutsidePos,
		LightDiameter:  s.LightDiameter,
		LightSteps:     s.LightSteps,
		LightFade:      s.LightFade,
		RepelSteps:     s.RepelSteps,
		RepelFade:      s.RepelFade,
		Markers:        s.Markers,
		MathProblems:   s.MathProblems,
		RNGSeed:        rng.Seed(),
		RNGPosition:    rng.Position(),
	}
	for _, h := range s.Party.Heroes {
		data.Heroes = append(data.Heroes, heroData(h))
	}
	return json.MarshalIndent(data, "", "  ")
}

func heroData(h *combat.HeroState) HeroData {
	hd := HeroData{
		Name:      h.Name(),
		Level:     h.Level(),
		XP:        h.XP,
		HP:        h.HP,
		MP:        h.MP,
		Inventory: append([]string{}, h.Inventory...),
	}
	if h.Weapon != nil {
		hd.Weapon = h.Weapon.Name
	}
	if h.Armor != nil {
		hd.Armor = h.Armor.Name
	}
	if h.Shield != nil {
		hd.Shield = h.Shield.Name
	}
	return hd
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	// Ensure maps are never nil after load.
	if sd.Markers == nil {
		sd.Markers = map[string]bool{}
	}
	for i := range sd.Heroes {
		if sd.Heroes[i].Inventory == nil {
			sd.Heroes[i].Inventory = []string{}
		}
	}
	return &sd, nil
}

// ApplySave restores loaded save data onto a session and returns the random
// source repositioned to where it was saved. Unknown maps or gear are errors.
func ApplySave(s *state.Session, defs *state.Defs, sd *SaveData) (*dice.RNG, error) {
	if len(sd.Heroes) == 0 {
		return nil, fmt.Errorf("save has no heroes")
	}
	if _, ok := defs.Maps[sd.Map]; !ok {
		return nil, fmt.Errorf("save references unknown map %q", sd.Map)
	}

	party := combat.NewHeroParty()
	for _, hd := range sd.Heroes {
		h, err := restoreHero(defs, hd)
		if err != nil {
			return nil, err
		}
		party.Add(h)
	}
	party.Gold = sd.Gold

	s.Party = party
	s.MapName = sd.Map
	s.Position = sd.Position
	s.LastOutsideMap = sd.LastOutsideMap
	s.LastOutsidePos = sd.LastOutsidePos
	s.LightDiameter = sd.LightDiameter
	s.LightSteps = sd.LightSteps
	s.LightFade = sd.LightFade
	s.RepelSteps = sd.RepelSteps
	s.RepelFade = sd.RepelFade
	s.Markers = sd.Markers
	s.MathProblems = sd.MathProblems
	s.TurnCount = sd.Turn
	s.InCombat = false

	return dice.RestoreRNG(sd.RNGSeed, sd.RNGPosition), nil
}

func restoreHero(defs *state.Defs, hd HeroData) (*combat.HeroState, error) {
	h := combat.NewHeroState(hd.Name, defs.Levels, hd.Level)
	h.MaxItems = defs.Game.MaxItems
	h.XP = hd.XP
	h.HP = min(hd.HP, h.MaxHP)
	h.MP = min(hd.MP, h.MaxMP)
	h.Inventory = hd.Inventory

	if hd.Weapon != "" {
		w, ok := defs.Weapons[hd.Weapon]
		if !ok {
			return nil, fmt.Errorf("hero %q: unknown weapon %q", hd.Name, hd.Weapon)
		}
		h.Weapon = w
	}
	if hd.Armor != "" {
		a, ok := defs.Armors[hd.Armor]
		if !ok {
			return nil, fmt.Errorf("hero %q: unknown armor %q", hd.Name, hd.Armor)
		}
		h.Armor = a
	}
	if hd.Shield != "" {
		sh, ok := defs.Shields[hd.Shield]
		if !ok {
			return nil, fmt.Errorf("hero %q: unknown shield %q", hd.Name, hd.Shield)
		}
		h.Shield = sh
	}
	return h, nil
}
