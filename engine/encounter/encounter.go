// Package encounter runs one turn-based battle between the hero party and a
// monster party, from the approach message to cleanup.
package encounter

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nathoo/warriorcore/engine/combat"
	"github.com/nathoo/warriorcore/engine/dialog"
	"github.com/nathoo/warriorcore/telemetry"
	"github.com/nathoo/warriorcore/types"
)

// Phase is the current step of an encounter.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseApproach
	PhaseTurnLoop
	PhaseVictory
	PhaseDefeat
	PhaseFlee
	PhaseCleanup
	PhaseDone
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseApproach:
		return "approach"
	case PhaseTurnLoop:
		return "turn_loop"
	case PhaseVictory:
		return "victory"
	case PhaseDefeat:
		return "defeat"
	case PhaseFlee:
		return "flee"
	case PhaseCleanup:
		return "cleanup"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Display is the battle screen. Calls are notifications only.
type Display interface {
	dialog.Renderer
	SnapshotBackground()
	RestoreBackground()
	Flip()
}

// MonsterTracker is implemented by displays that draw the monster party.
// It is told the party when an encounter starts and nil when it ends.
type MonsterTracker interface {
	TrackMonsters(monsters *combat.MonsterParty)
}

// NopDisplay ignores every notification.
type NopDisplay struct {
	dialog.NopRenderer
}

func (NopDisplay) SnapshotBackground() {}
func (NopDisplay) RestoreBackground()  {}
func (NopDisplay) Flip()               {}

// LevelUpReport pairs a hero with the level gained after a victory.
type LevelUpReport struct {
	Hero string
	combat.LevelUp
}

// Result summarizes a finished encounter.
type Result struct {
	Outcome  Phase
	Rounds   int
	GP       int
	XP       int
	LevelUps []LevelUpReport
}

// Encounter is one battle. Create it with New and call Run once.
type Encounter struct {
	ID       string
	Monsters *combat.MonsterParty
	Special  *types.SpecialMonster
	Display  Display
	Tracer   trace.Tracer
	Logger   *slog.Logger

	// OnDefeat runs after the whole party has fallen, before cleanup.
	OnDefeat func(ctx context.Context) error

	eval      *dialog.Evaluator
	heroes    *combat.HeroParty
	phase     Phase
	round     int
	heroesRan bool
}

// New creates an encounter between the evaluator's party and monsters. The
// evaluator supplies game definitions, session, RNG, UI and audio.
func New(eval *dialog.Evaluator, monsters *combat.MonsterParty) *Encounter {
	enc := &Encounter{
		ID:       uuid.NewString(),
		Monsters: monsters,
		Display:  NopDisplay{},
		Tracer:   telemetry.Tracer("encounter"),
		Logger:   eval.Logger,
		eval:     eval,
		heroes:   eval.Session.Party,
	}
	for _, m := range monsters.Monsters {
		if m.Special != nil {
			enc.Special = m.Special
			break
		}
	}
	return enc
}

// Phase returns the phase the encounter is in.
func (enc *Encounter) Phase() Phase {
	return enc.phase
}

func (enc *Encounter) setPhase(p Phase) {
	enc.phase = p
	enc.Logger.Debug("encounter phase", "encounter", enc.ID, "phase", p.String())
}

// Run plays the encounter to completion. Cleanup always runs, also when
// a dialog is cancelled.
func (enc *Encounter) Run(ctx context.Context) (res Result, err error) {
	ctx, span := enc.Tracer.Start(ctx, "encounter.run")
	span.SetAttributes(
		attribute.String("encounter.id", enc.ID),
		attribute.String("encounter.monsters", enc.Monsters.Summary()),
		attribute.Int("encounter.heroes", len(enc.heroes.Heroes)),
		attribute.Bool("encounter.special", enc.Special != nil),
	)
	defer func() {
		span.SetAttributes(
			attribute.String("encounter.outcome", res.Outcome.String()),
			attribute.Int("encounter.rounds", res.Rounds),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	enc.Logger.Info("encounter started", "encounter", enc.ID, "monsters", enc.Monsters.Summary())

	enc.setPhase(PhaseInit)
	enc.init()
	defer enc.cleanup()

	enc.setPhase(PhaseApproach)
	if err := enc.approach(ctx); err != nil {
		return Result{Outcome: enc.phase}, err
	}

	enc.setPhase(PhaseTurnLoop)
	for enc.bothSidesFighting() {
		enc.round++
		if err := enc.playRound(ctx); err != nil {
			return Result{Outcome: enc.phase, Rounds: enc.round}, err
		}
	}

	res, err = enc.resolve(ctx)
	res.Rounds = enc.round
	enc.Logger.Info("encounter finished", "encounter", enc.ID, "outcome", res.Outcome.String(), "rounds", res.Rounds)
	return res, err
}

func (enc *Encounter) bothSidesFighting() bool {
	return enc.heroes.IsStillInCombat() && enc.Monsters.IsStillInCombat()
}

func (enc *Encounter) init() {
	if t, ok := enc.Display.(MonsterTracker); ok {
		t.TrackMonsters(enc.Monsters)
	}
	enc.Display.SnapshotBackground()
	enc.heroes.ClearCombatStatusAffects()
	enc.eval.Session.InCombat = true
	if music := enc.eval.Defs.Game.CombatMusic; music != "" {
		enc.eval.Audio.PlayMusic(music)
	}
}

func (enc *Encounter) cleanup() {
	enc.setPhase(PhaseCleanup)
	enc.heroes.ClearCombatStatusAffects()
	enc.Monsters.ClearCombatStatusAffects()
	enc.Display.RestoreBackground()
	if t, ok := enc.Display.(MonsterTracker); ok {
		t.TrackMonsters(nil)
	}
	enc.Display.Flip()
	enc.eval.Session.InCombat = false
	enc.eval.Audio.StopMusic()
	enc.setPhase(PhaseDone)
}

// approach announces the monsters and gives timid ones a chance to flee
// before the first round.
func (enc *Encounter) approach(ctx context.Context) error {
	enc.Display.RenderMonsters()

	lead := enc.leadMonster()
	ev := enc.fork(lead, nil)
	if enc.Special != nil && len(enc.Special.ApproachDialog) > 0 {
		if err := ev.RunDialog(ctx, enc.Special.ApproachDialog); err != nil {
			return err
		}
	} else {
		verb := "draws"
		if len(enc.Monsters.Monsters) > 1 {
			verb = "draw"
		}
		if err := ev.Say(ctx, enc.Monsters.Summary()+" "+verb+" near!"); err != nil {
			return err
		}
	}

	strongest := enc.heroes.HighestAttackStrength()
	for _, m := range enc.Monsters.Monsters {
		if !m.IsStillInCombat() || !m.Info.MayRunAway || m.IsSpecial() {
			continue
		}
		if m.ShouldRunAway(enc.eval.RNG, strongest) {
			if err := enc.runAway(ctx, m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (enc *Encounter) runAway(ctx context.Context, m *combat.MonsterState) error {
	m.HasRunAway = true
	enc.Display.RenderMonsters()
	return enc.fork(m, nil).Say(ctx, "[ACTOR] is running away.")
}

// playRound gives every still-fighting hero, then every still-fighting
// monster, one turn. The round stops as soon as one side is out.
func (enc *Encounter) playRound(ctx context.Context) error {
	heroesSkip := false
	if enc.round == 1 {
		lead, hero := enc.leadMonster(), enc.leadHero()
		if lead != nil && hero != nil && lead.HasInitiative(enc.eval.RNG, hero) {
			heroesSkip = true
			if err := enc.fork(lead, []combat.Character{hero}).Say(ctx, "[ACTOR] attacks before [TARGET] is ready!"); err != nil {
				return err
			}
		}
	}

	if !heroesSkip {
		for _, h := range enc.heroes.Heroes {
			if !h.IsStillInCombat() {
				continue
			}
			if err := playTurn(ctx, enc, h, enc.heroTurn); err != nil {
				return err
			}
			if !enc.bothSidesFighting() {
				return nil
			}
		}
	}

	for _, m := range enc.Monsters.Monsters {
		if !m.IsStillInCombat() {
			continue
		}
		if err := playTurn(ctx, enc, m, enc.monsterTurn); err != nil {
			return err
		}
		if !enc.bothSidesFighting() {
			return nil
		}
	}
	return nil
}

// playTurn wraps one character's turn in a span.
func playTurn[C combat.Character](ctx context.Context, enc *Encounter, c C, play func(context.Context, C) error) error {
	ctx, span := enc.Tracer.Start(ctx, "encounter.turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("encounter.id", enc.ID),
		attribute.String("actor", c.Name()),
		attribute.String("faction", c.Faction().String()),
		attribute.Int("round", enc.round),
	)

	before := c.CombatStatus().HP
	err := play(ctx, c)
	span.SetAttributes(attribute.Int("actor.hp_lost", before-c.CombatStatus().HP))
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// fork returns a per-turn evaluator bound to this encounter's targeting
// and display.
func (enc *Encounter) fork(actor combat.Character, targets []combat.Character) *dialog.Evaluator {
	ev := enc.eval.Fork(actor, targets)
	ev.Targeter = Targets{Heroes: enc.heroes, Monsters: enc.Monsters, RNG: enc.eval.RNG, Logger: enc.Logger}
	ev.Renderer = enc.Display
	return ev
}

func (enc *Encounter) leadMonster() *combat.MonsterState {
	for _, m := range enc.Monsters.Monsters {
		if m.IsStillInCombat() {
			return m
		}
	}
	return nil
}

func (enc *Encounter) leadHero() *combat.HeroState {
	for _, h := range enc.heroes.Heroes {
		if h.IsStillInCombat() {
			return h
		}
	}
	return nil
}
