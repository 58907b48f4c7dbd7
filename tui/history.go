// Package tui provides a Bubble Tea terminal UI for the WarriorCore engine.
package tui

import "strings"

// commandHistory remembers the player's resolved commands at the command
// prompt. Menu picks and text answers are never recorded. Walking back
// keeps the half-typed draft so walking forward past the newest entry
// gives it back.
type commandHistory struct {
	entries []string
	limit   int
	cursor  int // len(entries) while not recalling
	draft   string
}

func newCommandHistory(limit int) *commandHistory {
	return &commandHistory{limit: limit}
}

// record stores a command the engine is about to run. Repeats of the
// newest entry and the repeat shorthand itself are dropped.
func (h *commandHistory) record(cmd string) {
	defer h.reset()
	cmd = strings.TrimSpace(cmd)
	if cmd == "" || isRepeat(cmd) {
		return
	}
	if n := len(h.entries); n > 0 && strings.EqualFold(h.entries[n-1], cmd) {
		return
	}
	h.entries = append(h.entries, cmd)
	if len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
}

// older steps back one command. current is the input line, saved as the
// draft on the first step.
func (h *commandHistory) older(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor >= len(h.entries) || h.cursor < 0 {
		h.draft = current
		h.cursor = len(h.entries)
	}
	if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// newer steps forward. Past the newest command it returns the draft and
// stops recalling.
func (h *commandHistory) newer() (string, bool) {
	if h.cursor >= len(h.entries) {
		return "", false
	}
	h.cursor++
	if h.cursor == len(h.entries) {
		draft := h.draft
		h.reset()
		return draft, true
	}
	return h.entries[h.cursor], true
}

func (h *commandHistory) reset() {
	h.cursor = len(h.entries)
	h.draft = ""
}

func isRepeat(cmd string) bool {
	lower := strings.ToLower(cmd)
	return lower == "again" || lower == "g"
}
