package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleCombatBar = lipgloss.NewStyle().
			Background(lipgloss.Color("52")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleHit = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleCombat = lipgloss.NewStyle().
			Foreground(lipgloss.Color("209"))

	styleReward = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	styleMenu = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117"))

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindCombat
	kindReward
	kindMenu
	kindDialogue
	kindSystem
	kindError
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case isMenuLine(line):
		return kindMenu
	case strings.HasPrefix(line, "Thou cannot"),
		strings.HasPrefix(line, "I don't know"),
		strings.HasPrefix(line, "There is no"),
		strings.Contains(line, "does not have"),
		strings.Contains(line, "not enough"):
		return kindError
	case strings.Contains(line, "experience"),
		strings.Contains(line, "gold"),
		strings.Contains(line, "level"):
		return kindReward
	case strings.Contains(line, "hit points"),
		strings.Contains(line, "damage"),
		strings.Contains(line, "draws near"),
		strings.Contains(line, "draw near"),
		strings.Contains(line, "is defeated"):
		return kindCombat
	case containsQuotedSpeech(line):
		return kindDialogue
	default:
		return kindNarration
	}
}

// isMenuLine matches the "  1) Label" lines of a numbered menu.
func isMenuLine(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	if len(trimmed) == len(line) || trimmed == "" {
		return false
	}
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	return i > 0 && i < len(trimmed) && trimmed[i] == ')'
}

// containsQuotedSpeech checks if a line contains speech in single quotes.
func containsQuotedSpeech(line string) bool {
	inQuote := false
	quoteLen := 0
	for _, r := range line {
		if r == '\'' {
			if inQuote && quoteLen > 5 {
				return true
			}
			inQuote = !inQuote
			quoteLen = 0
		} else if inQuote {
			quoteLen++
		}
	}
	return false
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
