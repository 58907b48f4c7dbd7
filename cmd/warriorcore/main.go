// WarriorCore is a data-driven engine for tile-based role-playing games.
// Usage: warriorcore [--version] [--plain] [--script <file>] [--seed <n>] [--config <file>] [game_directory]
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/nathoo/warriorcore/audio"
	"github.com/nathoo/warriorcore/cli"
	"github.com/nathoo/warriorcore/config"
	"github.com/nathoo/warriorcore/engine"
	"github.com/nathoo/warriorcore/engine/dice"
	"github.com/nathoo/warriorcore/loader"
	"github.com/nathoo/warriorcore/telemetry"
	"github.com/nathoo/warriorcore/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: warriorcore [--version] [--plain] [--script <file>] [--seed <n>] [--config <file>] [game_directory]"

// options are the command-line flags; they override the config file.
type options struct {
	plain      bool
	scriptFile string
	configFile string
	seed       int64
	seedSet    bool
	gameDir    string
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
	if opts == nil {
		fmt.Printf("warriorcore %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	if err := run(*opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseArgs reads the flags. A nil result means --version was given.
func parseArgs(args []string) (*options, error) {
	opts := &options{configFile: "warriorcore.yaml"}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			return nil, nil
		case "--plain":
			opts.plain = true
		case "--script", "--config", "--seed":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", args[i])
			}
			i++
			switch args[i-1] {
			case "--script":
				opts.scriptFile = args[i]
			case "--config":
				opts.configFile = args[i]
			case "--seed":
				seed, err := strconv.ParseInt(args[i], 10, 64)
				if err != nil {
					return nil, fmt.Errorf("--seed: %w", err)
				}
				opts.seed, opts.seedSet = seed, true
			}
		default:
			if opts.gameDir == "" {
				opts.gameDir = args[i]
			}
		}
	}
	return opts, nil
}

func run(opts options) error {
	cfg, err := config.Load(opts.configFile, ".env")
	if err != nil {
		return err
	}
	if opts.gameDir != "" {
		cfg.GameDir = opts.gameDir
	}
	if opts.seedSet {
		cfg.Seed = opts.seed
	}
	if opts.plain || opts.scriptFile != "" {
		cfg.Plain = true
	}
	useTUI := !cfg.Plain && isTerminal()

	logger, closeLog, err := newLogger(cfg, useTUI)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Setup(ctx, version)
		if err != nil {
			// The game still works without traces.
			logger.Warn("telemetry setup failed", "err", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Warn("telemetry shutdown", "err", err)
				}
			}()
		}
	}

	defs, err := loader.Load(cfg.GameDir)
	if err != nil {
		return fmt.Errorf("loading game: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := dice.NewRNG(seed)
	logger.Info("game loaded", "title", defs.Game.Title, "dir", cfg.GameDir, "seed", seed)

	var sound *audio.Service
	if cfg.Audio.Enabled {
		sound = audio.New(cfg.AudioDir(), audio.NewCommandPlayer(cfg.Audio.Player), audio.WithLogger(logger))
		defer sound.Close()
	}

	setup := func(eng *engine.Engine) {
		eng.Logger = logger
		eng.SaveDir = cfg.SaveDir
		eng.Session.MathProblems = cfg.MathProblems
		if sound != nil {
			eng.Audio = sound
		}
	}

	if !useTUI {
		var in io.Reader = os.Stdin
		if opts.scriptFile != "" {
			f, err := os.Open(opts.scriptFile)
			if err != nil {
				return fmt.Errorf("opening script: %w", err)
			}
			defer f.Close()
			in = f
		}

		c := cli.New(in, os.Stdout)
		c.EchoInput = opts.scriptFile != ""
		c.Pause = opts.scriptFile == "" && isTerminal()
		eng := engine.New(defs, c, rng)
		setup(eng)
		c.Engine = eng

		fmt.Printf("%s v%s by %s\n\n", defs.Game.Title, defs.Game.Version, defs.Game.Author)
		return c.Run(ctx)
	}

	b := tui.NewBridge()
	eng := engine.New(defs, b, rng)
	setup(eng)
	eng.Display = b
	b.Engine = eng
	return tui.Run(ctx, b)
}

// newLogger writes JSON logs to the configured file. Without one, plain mode
// logs text to stderr and the TUI discards logs so the screen stays clean.
func newLogger(cfg config.Config, useTUI bool) (*slog.Logger, func(), error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		return slog.New(slog.NewJSONHandler(f, handlerOpts)), func() { f.Close() }, nil
	}
	if useTUI {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)), func() {}, nil
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
