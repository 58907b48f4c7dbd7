package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// fighterStatus is one hero or monster as shown in the status bar.
type fighterStatus struct {
	name   string
	level  int
	hp     int
	maxHP  int
	mp     int
	maxMP  int
	asleep bool
	hit    bool
}

// statusMsg is a snapshot of the session taken on the engine goroutine.
type statusMsg struct {
	mapName  string
	x, y     int
	gold     int
	turn     int
	inCombat bool
	heroes   []fighterStatus
	monsters []fighterStatus
}

// mapDisplayName derives a human-readable name from a map name.
// "tantegel_castle" -> "Tantegel Castle".
func mapDisplayName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (f fighterStatus) heroLabel() string {
	label := fmt.Sprintf("%s L%d H%d/%d M%d/%d", f.name, f.level, f.hp, f.maxHP, f.mp, f.maxMP)
	if f.hit {
		return styleHit.Render(label)
	}
	return label
}

func (f fighterStatus) monsterLabel() string {
	label := fmt.Sprintf("%s %d/%d", f.name, f.hp, f.maxHP)
	if f.asleep {
		label += " zZ"
	}
	if f.hit {
		return styleHit.Render(label)
	}
	return label
}

// renderStatusBar produces a full-width inverted status line. Outside of
// combat it shows the party, location and gold; in combat the monsters
// take the place of the location.
func (m Model) renderStatusBar() string {
	s := m.status

	heroes := make([]string, len(s.heroes))
	for i, h := range s.heroes {
		heroes[i] = h.heroLabel()
	}
	left := " " + strings.Join(heroes, " | ")

	right := fmt.Sprintf("%s (%d,%d) | G:%d | T:%d ", mapDisplayName(s.mapName), s.x, s.y, s.gold, s.turn)
	style := styleStatusBar
	if s.inCombat {
		monsters := make([]string, len(s.monsters))
		for i, mon := range s.monsters {
			monsters[i] = mon.monsterLabel()
		}
		right = "vs " + strings.Join(monsters, ", ") + " "
		style = styleCombatBar
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return style.Width(m.width).Render(bar)
}
