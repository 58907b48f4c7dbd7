package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nathoo/warriorcore/engine/save"
)

const defaultSlot = "quicksave"

func (e *Engine) slotPath(slot string) string {
	if slot == "" {
		slot = defaultSlot
	}
	return filepath.Join(e.SaveDir, slot+".json")
}

// SaveGame writes the default slot. Dialogs reach it through SAVE_GAME.
func (e *Engine) SaveGame(ctx context.Context) error {
	return e.save("")
}

// save writes the session to a slot. I/O failures are reported to the
// player, not returned, so the game carries on.
func (e *Engine) save(slot string) error {
	data, err := save.Save(e.Session, e.RNG, e.Defs)
	if err != nil {
		return fmt.Errorf("encoding save: %w", err)
	}
	path := e.slotPath(slot)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			e.Logger.Error("creating save directory", "dir", dir, "err", err)
			e.UI.Message("The game could not be saved.")
			return nil
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		e.Logger.Error("writing save", "path", path, "err", err)
		e.UI.Message("The game could not be saved.")
		return nil
	}
	e.Logger.Info("game saved", "path", path)
	e.UI.Message("Thy deeds have been recorded.")
	return nil
}

func (e *Engine) load(slot string) error {
	path := e.slotPath(slot)
	data, err := os.ReadFile(path)
	if err != nil {
		e.Logger.Warn("reading save", "path", path, "err", err)
		e.UI.Message("There is no such record.")
		return nil
	}
	sd, err := save.Load(data)
	if err != nil {
		e.Logger.Error("decoding save", "path", path, "err", err)
		e.UI.Message("That record is damaged.")
		return nil
	}
	rng, err := save.ApplySave(e.Session, e.Defs, sd)
	if err != nil {
		e.Logger.Error("applying save", "path", path, "err", err)
		e.UI.Message("That record is damaged.")
		return nil
	}
	e.RNG = rng
	e.playMapMusic()
	e.Logger.Info("game loaded", "path", path)
	e.UI.Message("Thy journey continues.")
	return nil
}
