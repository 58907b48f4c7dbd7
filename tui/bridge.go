package tui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/warriorcore/engine"
	"github.com/nathoo/warriorcore/engine/combat"
)

// Bridge connects the engine goroutine to the Bubble Tea program. It
// implements the dialog UI and the encounter display: calls made by the
// engine become messages for the model, and blocking calls wait for the
// model to send the player's reply back.
type Bridge struct {
	Engine *engine.Engine

	send    func(tea.Msg)
	replies chan string

	mu       sync.Mutex
	monsters *combat.MonsterParty
	hit      map[string]bool
}

// NewBridge creates a bridge. Attach the engine before running the program.
func NewBridge() *Bridge {
	return &Bridge{replies: make(chan string, 1)}
}

// Message shows a line of game text.
func (b *Bridge) Message(text string) {
	b.post(outputMsg{lines: []string{text}, status: b.snapshot()})
}

// Acknowledge returns immediately: the TUI keeps a scrollable log, so there
// is nothing to page through.
func (b *Bridge) Acknowledge(ctx context.Context) error {
	return ctx.Err()
}

// Choose shows a numbered menu and waits for the player's pick, or -1 when
// they cancel.
func (b *Bridge) Choose(ctx context.Context, prompt string, options []string) (int, error) {
	b.post(menuMsg{prompt: prompt, options: options, status: b.snapshot()})
	reply, err := b.await(ctx)
	if err != nil {
		return -1, err
	}
	var choice int
	if _, err := fmt.Sscanf(reply, "%d", &choice); err != nil {
		return -1, nil
	}
	return choice, nil
}

// Input waits for a line of text from the player.
func (b *Bridge) Input(ctx context.Context, prompt, allowed string) (string, error) {
	b.post(promptMsg{prompt: prompt, allowed: allowed, status: b.snapshot()})
	return b.await(ctx)
}

func (b *Bridge) await(ctx context.Context) (string, error) {
	select {
	case reply := <-b.replies:
		return reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// reply hands the player's answer to the waiting engine call. It never
// blocks the model: a reply nobody asked for is dropped.
func (b *Bridge) reply(s string) {
	select {
	case b.replies <- s:
	default:
	}
}

func (b *Bridge) post(msg tea.Msg) {
	if b.send != nil {
		b.send(msg)
	}
}

// TrackMonsters records the monster party of the running encounter.
func (b *Bridge) TrackMonsters(monsters *combat.MonsterParty) {
	b.mu.Lock()
	b.monsters = monsters
	b.hit = nil
	b.mu.Unlock()
}

// RenderMonsters refreshes the status bar with the monster party.
func (b *Bridge) RenderMonsters() {
	b.post(b.snapshot())
}

// RenderDamageToTargets highlights the characters that were just hit.
func (b *Bridge) RenderDamageToTargets(targets []combat.Character) {
	b.mu.Lock()
	b.hit = map[string]bool{}
	for _, t := range targets {
		b.hit[t.Name()] = true
	}
	b.mu.Unlock()
	b.post(b.snapshot())
}

func (b *Bridge) SnapshotBackground() {}

func (b *Bridge) RestoreBackground() {
	b.mu.Lock()
	b.hit = nil
	b.mu.Unlock()
}

// Flip pushes the current status to the screen.
func (b *Bridge) Flip() {
	b.post(b.snapshot())
}

// snapshot captures the status bar contents. It runs on the engine
// goroutine so the model never reads engine state directly.
func (b *Bridge) snapshot() statusMsg {
	if b.Engine == nil {
		return statusMsg{}
	}
	s := b.Engine.Session
	st := statusMsg{
		mapName:  s.MapName,
		x:        s.Position.X,
		y:        s.Position.Y,
		gold:     s.Party.Gold,
		turn:     s.TurnCount,
		inCombat: s.InCombat,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, h := range s.Party.Heroes {
		st.heroes = append(st.heroes, fighterStatus{
			name:  h.Name(),
			level: h.Level(),
			hp:    h.HP,
			maxHP: h.MaxHP,
			mp:    h.MP,
			maxMP: h.MaxMP,
			hit:   b.hit[h.Name()],
		})
	}
	if b.monsters != nil {
		for _, m := range b.monsters.Monsters {
			if !m.IsStillInCombat() {
				continue
			}
			st.monsters = append(st.monsters, fighterStatus{
				name:   m.TypeName(),
				hp:     m.HP,
				maxHP:  m.MaxHP,
				asleep: m.IsAsleep,
				hit:    b.hit[m.Name()],
			})
		}
	}
	return st
}
