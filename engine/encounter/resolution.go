package encounter

import (
	"context"
	"strconv"

	"github.com/nathoo/warriorcore/engine/combat"
)

// resolve decides the outcome once a side is out of the fight.
func (enc *Encounter) resolve(ctx context.Context) (Result, error) {
	switch {
	case !enc.heroes.HasSurvivingMembers():
		return enc.defeat(ctx)
	case enc.Monsters.DefeatedCount() > 0 && !enc.Monsters.IsStillInCombat():
		return enc.victory(ctx)
	default:
		return enc.flee(ctx)
	}
}

func (enc *Encounter) defeat(ctx context.Context) (Result, error) {
	enc.setPhase(PhaseDefeat)
	res := Result{Outcome: PhaseDefeat}
	if err := enc.fork(enc.heroes.MainHero(), nil).Say(ctx, "[HERO] has died."); err != nil {
		return res, err
	}
	if enc.OnDefeat != nil {
		return res, enc.OnDefeat(ctx)
	}
	return res, nil
}

// victory pays out gold to the party purse and experience to every
// surviving hero, then reports level gains.
func (enc *Encounter) victory(ctx context.Context) (Result, error) {
	enc.setPhase(PhaseVictory)
	res := Result{
		Outcome: PhaseVictory,
		GP:      enc.Monsters.GP(),
		XP:      enc.Monsters.XP(),
	}

	ev := enc.fork(enc.heroes.MainHero(), nil)
	if music := enc.eval.Defs.Game.VictoryMusic; music != "" {
		enc.eval.Audio.PlayMusic(music)
	}
	if enc.Special != nil && len(enc.Special.VictoryDialog) > 0 {
		if err := ev.RunDialog(ctx, enc.Special.VictoryDialog); err != nil {
			return res, err
		}
	}

	ev.SetVariable("DEFEATED", enc.Monsters.DefeatedNames())
	ev.SetVariable("XP", strconv.Itoa(res.XP))
	ev.SetVariable("AMOUNT", strconv.Itoa(res.GP))
	if err := ev.Say(ctx, "Thou hast done well in defeating [DEFEATED]."); err != nil {
		return res, err
	}
	if err := ev.Say(ctx, "Thy experience increases by [XP]. Thy gold increases by [AMOUNT]."); err != nil {
		return res, err
	}

	enc.heroes.Gold += res.GP
	for _, h := range enc.heroes.SurvivingMembers() {
		h.XP += res.XP
		up := h.LevelUpCheck()
		if up == nil {
			continue
		}
		res.LevelUps = append(res.LevelUps, LevelUpReport{Hero: h.Name(), LevelUp: *up})
		if err := enc.reportLevelUp(ctx, h, up); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (enc *Encounter) reportLevelUp(ctx context.Context, h *combat.HeroState, up *combat.LevelUp) error {
	ev := enc.fork(h, nil)
	ev.SetVariable("LEVEL", strconv.Itoa(up.New.Level))
	if err := ev.Say(ctx, "[ACTOR] has reached level [LEVEL]!"); err != nil {
		return err
	}
	for _, spell := range up.NewSpells {
		ev.SetVariable("SPELL", spell)
		if err := ev.Say(ctx, "[ACTOR] learned [SPELL]."); err != nil {
			return err
		}
	}
	return nil
}

func (enc *Encounter) flee(ctx context.Context) (Result, error) {
	enc.setPhase(PhaseFlee)
	res := Result{Outcome: PhaseFlee}
	if enc.heroesRan && enc.Special != nil && len(enc.Special.RunAwayDialog) > 0 {
		lead := enc.Monsters.Monsters[0]
		return res, enc.fork(lead, nil).RunDialog(ctx, enc.Special.RunAwayDialog)
	}
	return res, nil
}
