// Package config loads WarriorCore settings. Defaults are overridden by a
// YAML file, then by WARRIORCORE_* environment variables (which may come
// from a .env file); command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envPrefix starts every environment variable the config reads.
const envPrefix = "WARRIORCORE_"

// Config holds every setting of a run.
type Config struct {
	GameDir      string          `yaml:"game_dir"`
	SaveDir      string          `yaml:"save_dir"`
	Seed         int64           `yaml:"seed"` // zero picks a seed from the clock
	Plain        bool            `yaml:"plain"`
	MathProblems bool            `yaml:"math_problems"`
	Audio        AudioConfig     `yaml:"audio"`
	Log          LogConfig       `yaml:"log"`
	Telemetry    TelemetryConfig `yaml:"telemetry"`
}

// AudioConfig selects the track directory and the external player.
type AudioConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"` // empty means <game_dir>/audio
	Player  string `yaml:"player"`
}

// LogConfig sets where logs go and how much is written.
type LogConfig struct {
	File  string `yaml:"file"` // empty means stderr
	Level string `yaml:"level"`
}

// TelemetryConfig turns OTLP tracing on. The exporter itself is configured
// through the standard OTEL_EXPORTER_OTLP_* variables.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		GameDir: "games/dragonlite",
		SaveDir: filepath.Join(dataDir(), "saves"),
		Audio: AudioConfig{
			Player: "ffplay -nodisp -autoexit -loglevel quiet",
		},
		Log: LogConfig{Level: "info"},
	}
}

// dataDir follows the XDG base directory layout:
// $XDG_DATA_HOME/warriorcore, defaulting to ~/.local/share/warriorcore.
func dataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ".warriorcore"
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "warriorcore")
}

// Load builds the configuration from the defaults, the YAML file at path
// and the environment. The .env file at envFile is loaded into the process
// environment first so that OTEL_* settings reach the exporter too. Missing
// files are skipped; an empty path skips that layer.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides settings from WARRIORCORE_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"GAME_DIR":     &c.GameDir,
		"SAVE_DIR":     &c.SaveDir,
		"AUDIO_DIR":    &c.Audio.Dir,
		"AUDIO_PLAYER": &c.Audio.Player,
		"LOG_FILE":     &c.Log.File,
		"LOG_LEVEL":    &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"PLAIN":         &c.Plain,
		"MATH_PROBLEMS": &c.MathProblems,
		"AUDIO":         &c.Audio.Enabled,
		"TELEMETRY":     &c.Telemetry.Enabled,
	}
	for key, dst := range bools {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = b
	}

	if v, ok := lookup(envPrefix + "SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", envPrefix, err)
		}
		c.Seed = seed
	}
	return nil
}

// AudioDir returns the configured track directory, defaulting to the
// game's audio folder.
func (c Config) AudioDir() string {
	if c.Audio.Dir != "" {
		return c.Audio.Dir
	}
	return filepath.Join(c.GameDir, "audio")
}

// SlogLevel parses the configured log level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}
