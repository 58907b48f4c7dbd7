// Package dialog interprets dialog scripts: an explicit frame-stack machine
// that walks strings, branches, checks and actions against live game state.
package dialog

import (
	"context"
	"log/slog"

	"github.com/nathoo/warriorcore/engine/combat"
	"github.com/nathoo/warriorcore/engine/dice"
	"github.com/nathoo/warriorcore/engine/state"
	"github.com/nathoo/warriorcore/types"
)

// UI is the player-facing surface a dialog talks to. Every blocking call
// takes a context; a cancelled context unwinds the running dialog.
type UI interface {
	Message(text string)
	Acknowledge(ctx context.Context) error
	// Choose returns the chosen option index, or -1 when the player cancels.
	Choose(ctx context.Context, prompt string, options []string) (int, error)
	Input(ctx context.Context, prompt, allowed string) (string, error)
}

// Audio receives fire-and-forget sound requests.
type Audio interface {
	PlaySound(name string)
	PlayMusic(name string)
	StopMusic()
}

// Renderer receives combat display notifications.
type Renderer interface {
	RenderMonsters()
	RenderDamageToTargets(targets []combat.Character)
}

// Hooks are the game-level transitions a dialog can trigger.
type Hooks interface {
	Transition(mapName string, pos types.Point)
	StartEncounter(ctx context.Context, monster string) error
	SaveGame(ctx context.Context) error
}

// Targeter resolves an action's target type relative to its actor.
type Targeter interface {
	Targets(actor combat.Character, tt types.TargetType) []combat.Character
}

// NopAudio ignores every request.
type NopAudio struct{}

func (NopAudio) PlaySound(string) {}
func (NopAudio) PlayMusic(string) {}
func (NopAudio) StopMusic()       {}

// NopRenderer ignores every notification.
type NopRenderer struct{}

func (NopRenderer) RenderMonsters()                          {}
func (NopRenderer) RenderDamageToTargets([]combat.Character) {}

// NopHooks ignores transitions and saves.
type NopHooks struct{}

func (NopHooks) Transition(string, types.Point)                 {}
func (NopHooks) StartEncounter(context.Context, string) error { return nil }
func (NopHooks) SaveGame(context.Context) error                { return nil }

// Evaluator runs dialog scripts. Actor, Targets and Spell describe who is
// acting; they are set by the caller before Run.
type Evaluator struct {
	Defs     *state.Defs
	Session  *state.Session
	RNG      *dice.RNG
	UI       UI
	Audio    Audio
	Renderer Renderer
	Hooks    Hooks
	Targeter Targeter
	Logger   *slog.Logger

	Actor   combat.Character
	Targets []combat.Character
	Spell   string

	vars  map[string]string
	depth int
}

// New creates an evaluator with no-op audio, rendering and hooks. Outside
// combat, targets resolve against the hero party.
func New(defs *state.Defs, session *state.Session, rng *dice.RNG, ui UI) *Evaluator {
	return &Evaluator{
		Defs:     defs,
		Session:  session,
		RNG:      rng,
		UI:       ui,
		Audio:    NopAudio{},
		Renderer: NopRenderer{},
		Hooks:    NopHooks{},
		Targeter: PartyTargeter{Session: session},
		Logger:   slog.New(slog.DiscardHandler),
		vars:     map[string]string{},
	}
}

// Fork returns an evaluator sharing every service with e but with its own
// actor, targets and variables.
func (e *Evaluator) Fork(actor combat.Character, targets []combat.Character) *Evaluator {
	child := *e
	child.Actor = actor
	child.Targets = targets
	child.Spell = ""
	child.vars = map[string]string{}
	child.depth = 0
	return &child
}

// frame is one sequence being interpreted and its program counter.
type frame struct {
	seq types.DialogType
	pc  int
}

// RunDialog interprets a bare sequence with no GoTo labels.
func (e *Evaluator) RunDialog(ctx context.Context, d types.DialogType) error {
	return e.Run(ctx, types.DialogDocument{Entry: d})
}

// Run interprets doc until its entry sequence and everything it pushed are
// exhausted, a menu is cancelled, or ctx is cancelled. Variables bound
// during a top-level run are cleared when it returns.
func (e *Evaluator) Run(ctx context.Context, doc types.DialogDocument) error {
	if e.vars == nil {
		e.vars = map[string]string{}
	}
	e.depth++
	defer func() {
		e.depth--
		if e.depth == 0 {
			clear(e.vars)
		}
	}()

	stack := []frame{{seq: doc.Entry}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		top := &stack[len(stack)-1]
		if top.pc >= len(top.seq) {
			stack = stack[:len(stack)-1]
			continue
		}
		elem := top.seq[top.pc]
		top.pc++

		switch elem.Kind {
		case types.ElementString:
			e.UI.Message(e.format(elem.Text))
			if !menuFollows(top.seq, top.pc) {
				if err := e.UI.Acknowledge(ctx); err != nil {
					return err
				}
			}

		case types.ElementBranch:
			next, ok, err := e.branch(ctx, elem.Options)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			stack = append(stack, frame{seq: next})

		case types.ElementVariable:
			if elem.Variable == nil {
				e.Logger.Error("variable element without payload")
				continue
			}
			e.SetVariable(elem.Variable.Name, e.evalValue(elem.Variable.Value))

		case types.ElementGoTo:
			seq, ok := doc.Labels[elem.Label]
			if !ok {
				e.Logger.Error("goto unknown label", "label", elem.Label, "dialog", doc.Name)
				continue
			}
			stack = append(stack[:0], frame{seq: seq})

		case types.ElementVendorBuy, types.ElementVendorSell:
			ok, err := e.vendor(ctx, elem.Kind == types.ElementVendorSell, elem.Vendor)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

		case types.ElementCheck:
			if elem.Check == nil {
				e.Logger.Error("check element without payload")
				continue
			}
			if e.EvalCheck(elem.Check) {
				continue
			}
			if elem.Check.IsAssert {
				stack = stack[:len(stack)-1]
			}
			if len(elem.Check.FailedDialog) > 0 {
				stack = append(stack, frame{seq: elem.Check.FailedDialog})
			}

		case types.ElementAction:
			if elem.Action == nil {
				e.Logger.Error("action element without payload")
				continue
			}
			if err := e.Apply(ctx, elem.Action); err != nil {
				return err
			}

		default:
			e.Logger.Error("unknown dialog element", "kind", elem.Kind)
		}
	}
	return nil
}

// menuFollows reports whether the element at pc shows a menu, in which case
// the preceding string is its question and needs no acknowledgement.
func menuFollows(seq types.DialogType, pc int) bool {
	if pc >= len(seq) {
		return false
	}
	switch seq[pc].Kind {
	case types.ElementBranch, types.ElementVendorBuy, types.ElementVendorSell:
		return true
	}
	return false
}

// branch asks the player to pick an option. A single option is taken
// without asking. ok is false when the player cancelled.
func (e *Evaluator) branch(ctx context.Context, options []types.DialogOption) (types.DialogType, bool, error) {
	switch len(options) {
	case 0:
		e.Logger.Error("branch without options")
		return nil, true, nil
	case 1:
		return options[0].Dialog, true, nil
	}

	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = e.format(o.Label)
	}
	choice, err := e.UI.Choose(ctx, "", labels)
	if err != nil {
		return nil, false, err
	}
	if choice < 0 || choice >= len(options) {
		return nil, false, nil
	}
	return options[choice].Dialog, true, nil
}

// Say shows a formatted line and waits for the player.
func (e *Evaluator) Say(ctx context.Context, text string) error {
	e.UI.Message(e.format(text))
	return e.UI.Acknowledge(ctx)
}

// Cast announces spell and runs its use dialog. The caller has already
// paid the mp.
func (e *Evaluator) Cast(ctx context.Context, spell *types.Spell) error {
	e.Spell = spell.Name
	if err := e.Say(ctx, "[ACTOR] chants the spell of [SPELL]."); err != nil {
		return err
	}
	return e.RunDialog(ctx, spell.UseDialog)
}

// hero returns the hero an item or gold operation applies to: the actor
// when it is a hero, the party leader otherwise.
func (e *Evaluator) hero() *combat.HeroState {
	if h, ok := e.Actor.(*combat.HeroState); ok {
		return h
	}
	if e.Session == nil || e.Session.Party == nil {
		return nil
	}
	return e.Session.Party.MainHero()
}

// actor returns the acting character, defaulting to the party leader.
func (e *Evaluator) actor() combat.Character {
	if e.Actor != nil {
		return e.Actor
	}
	if h := e.hero(); h != nil {
		return h
	}
	return nil
}

// PartyTargeter resolves targets among the hero party. It serves dialogs
// run outside combat, where there are no enemies.
type PartyTargeter struct {
	Session *state.Session
}

func (p PartyTargeter) Targets(actor combat.Character, tt types.TargetType) []combat.Character {
	if p.Session == nil || p.Session.Party == nil {
		return nil
	}
	switch tt {
	case types.TargetSelf, types.TargetDefault:
		if actor == nil {
			return nil
		}
		return []combat.Character{actor}
	case types.TargetSingleAlly:
		if heroes := p.Session.Party.SurvivingMembers(); len(heroes) > 0 {
			return []combat.Character{heroes[0]}
		}
	case types.TargetAllAllies:
		var result []combat.Character
		for _, h := range p.Session.Party.SurvivingMembers() {
			result = append(result, h)
		}
		return result
	}
	return nil
}
