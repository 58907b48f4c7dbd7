package engine

import (
	"context"
	"strings"

	"github.com/nathoo/warriorcore/engine/combat"
	"github.com/nathoo/warriorcore/engine/encounter"
	"github.com/nathoo/warriorcore/types"
)

// Transition moves the party to pos on mapName and switches to the map's
// music. Unknown maps are logged and ignored.
func (e *Engine) Transition(mapName string, pos types.Point) {
	if _, ok := e.Defs.Maps[mapName]; !ok {
		e.Logger.Error("transition to unknown map", "map", mapName)
		return
	}
	e.Session.MoveTo(e.Defs, mapName, pos)
	e.playMapMusic()
}

// StartEncounter fights the named special monster, or a single monster of
// the named type.
func (e *Engine) StartEncounter(ctx context.Context, name string) error {
	for _, sm := range e.Defs.SpecialMonsters {
		if strings.EqualFold(sm.Name, name) {
			return e.fightSpecial(ctx, sm)
		}
	}
	info := e.lookupMonster(name)
	if info == nil {
		e.Logger.Error("encounter with unknown monster", "monster", name)
		return nil
	}
	return e.runEncounter(ctx, combat.NewMonsterParty(combat.NewMonsterState(e.RNG, info, nil)))
}

// fight starts an encounter with the monsters named in object, e.g.
// "slime red slime" for a Slime and a Red Slime.
func (e *Engine) fight(ctx context.Context, object string) error {
	if object == "" {
		e.UI.Message("Fight what?")
		return nil
	}

	var monsters []*combat.MonsterState
	words := strings.Fields(object)
	for len(words) > 0 {
		info, n := e.longestMonsterMatch(words)
		if info == nil {
			e.UI.Message("There is no monster called " + words[0] + ".")
			return nil
		}
		monsters = append(monsters, combat.NewMonsterState(e.RNG, info, nil))
		words = words[n:]
	}
	return e.runEncounter(ctx, combat.NewMonsterParty(monsters...))
}

// longestMonsterMatch finds the monster type matching the most leading words.
func (e *Engine) longestMonsterMatch(words []string) (*types.MonsterInfo, int) {
	for n := len(words); n > 0; n-- {
		if info := e.lookupMonster(strings.Join(words[:n], " ")); info != nil {
			return info, n
		}
	}
	return nil, 0
}

func (e *Engine) lookupMonster(name string) *types.MonsterInfo {
	if info, ok := e.Defs.Monsters[name]; ok {
		return info
	}
	for key, info := range e.Defs.Monsters {
		if strings.EqualFold(key, name) {
			return info
		}
	}
	return nil
}

func (e *Engine) fightSpecial(ctx context.Context, sm *types.SpecialMonster) error {
	info := e.lookupMonster(sm.Monster)
	if info == nil {
		e.Logger.Error("special monster of unknown type", "special", sm.Name, "monster", sm.Monster)
		return nil
	}
	return e.runEncounter(ctx, combat.NewMonsterParty(combat.NewMonsterState(e.RNG, info, sm)))
}

// defeatedMarker is the progress marker set when a special monster falls.
func defeatedMarker(sm *types.SpecialMonster) string {
	return "defeated:" + sm.Name
}

// runEncounter plays one battle. Encounters never nest: a dialog asking for
// one during combat is logged and ignored.
func (e *Engine) runEncounter(ctx context.Context, monsters *combat.MonsterParty) error {
	if e.Session.InCombat {
		e.Logger.Warn("encounter requested during combat", "monsters", monsters.Summary())
		return nil
	}

	enc := encounter.New(e.evaluator(), monsters)
	enc.Display = e.Display
	enc.Logger = e.Logger
	enc.OnDefeat = e.revive

	res, err := enc.Run(ctx)
	if err != nil {
		return err
	}
	if res.Outcome == encounter.PhaseVictory && enc.Special != nil {
		e.Session.SetMarker(defeatedMarker(enc.Special), true)
	}
	e.playMapMusic()
	return nil
}

// revive returns a fallen party to the start with full hp and mp and half
// its gold.
func (e *Engine) revive(ctx context.Context) error {
	party := e.Session.Party
	for _, h := range party.Heroes {
		h.HP = h.MaxHP
		h.MP = h.MaxMP
	}
	party.Gold /= 2
	e.Session.MoveTo(e.Defs, e.Defs.Game.StartMap, e.Defs.Game.StartPos)
	return e.evaluator().Say(ctx, "Thou hast been revived. Half of thy gold is lost.")
}

func (e *Engine) playMapMusic() {
	if music := e.Defs.Maps[e.Session.MapName].Music; music != "" {
		e.Audio.PlayMusic(music)
		return
	}
	e.Audio.StopMusic()
}
