// Package engine provides the Step() orchestrator that wires together
// parsing, exploration, dialogs and combat encounters into a single turn.
package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nathoo/warriorcore/engine/dialog"
	"github.com/nathoo/warriorcore/engine/dice"
	"github.com/nathoo/warriorcore/engine/encounter"
	"github.com/nathoo/warriorcore/engine/parser"
	"github.com/nathoo/warriorcore/engine/state"
	"github.com/nathoo/warriorcore/telemetry"
)

// ErrQuit is returned by Step when the player asks to quit.
var ErrQuit = errors.New("quit")

// Engine holds the game definitions, the session and the services the
// dialogs and encounters talk to.
type Engine struct {
	Defs    *state.Defs
	Session *state.Session
	RNG     *dice.RNG
	UI      dialog.UI
	Audio   dialog.Audio
	Display encounter.Display
	Tracer  trace.Tracer
	Logger  *slog.Logger

	// SaveDir is where save slots are written. Empty means the working directory.
	SaveDir string
}

// New creates an engine with a fresh session.
func New(defs *state.Defs, ui dialog.UI, rng *dice.RNG) *Engine {
	return &Engine{
		Defs:    defs,
		Session: state.NewSession(defs),
		RNG:     rng,
		UI:      ui,
		Audio:   dialog.NopAudio{},
		Display: encounter.NopDisplay{},
		Tracer:  telemetry.Tracer("engine"),
		Logger:  slog.New(slog.DiscardHandler),
	}
}

// evaluator builds a dialog evaluator bound to the current session, random
// source and services, with the engine as its hooks.
func (e *Engine) evaluator() *dialog.Evaluator {
	ev := dialog.New(e.Defs, e.Session, e.RNG, e.UI)
	ev.Audio = e.Audio
	ev.Renderer = e.Display
	ev.Hooks = e
	ev.Logger = e.Logger
	return ev
}

// Run shows the intro and processes commands until the player quits, the
// input ends or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if intro := e.Defs.Game.Intro; intro != "" {
		e.UI.Message(intro)
	}
	e.playMapMusic()
	defer e.Audio.StopMusic()

	for {
		input, err := e.UI.Input(ctx, "> ", "")
		if err == nil {
			err = e.Step(ctx, input)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrQuit) {
				return nil
			}
			return err
		}
	}
}

// Step processes one player command.
func (e *Engine) Step(ctx context.Context, input string) error {
	intent := parser.Parse(input)

	ctx, span := e.Tracer.Start(ctx, "engine.step")
	span.SetAttributes(
		attribute.String("command.verb", intent.Verb),
		attribute.String("command.object", intent.Object),
	)
	defer span.End()

	e.Logger.Debug("command", "verb", intent.Verb, "object", intent.Object, "target", intent.Target)

	switch intent.Verb {
	case "":
		e.UI.Message("What dost thou want to do?")
		return nil
	case "look":
		e.look()
		return nil
	case "status":
		e.status()
		return nil
	case "inventory":
		e.inventory()
		return nil
	case "help":
		e.help()
		return nil
	case "talk":
		return e.talk(ctx, intent.Object)
	case "walk":
		return e.walk(ctx, intent.Object)
	case "fight":
		return e.fight(ctx, intent.Object)
	case "cast":
		return e.cast(ctx, intent.Object, intent.Target)
	case "use":
		return e.use(ctx, intent.Object, intent.Target)
	case "equip":
		e.equip(intent.Object)
		return nil
	case "save":
		return e.save(intent.Object)
	case "load":
		return e.load(intent.Object)
	case "quit":
		return ErrQuit
	default:
		e.UI.Message("I don't know how to " + intent.Verb + ".")
		return nil
	}
}
