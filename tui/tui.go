package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

// commandPrompt is the prompt the engine uses for player commands.
const commandPrompt = "> "

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// inputMode says what the engine is waiting for.
type inputMode int

const (
	modeIdle    inputMode = iota // engine busy; input is not accepted
	modeCommand                  // a player command
	modeText                     // free text, e.g. a problem answer
	modeMenu                     // a numbered choice
)

// Model is the Bubble Tea model for the WarriorCore TUI.
type Model struct {
	bridge *Bridge
	title  string

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model // shown instead of the input while the engine is busy
	history  *commandHistory

	rawLines []rawLine // accumulated narrative lines (unstyled, for re-wrapping)
	status   statusMsg

	mode    inputMode
	allowed string
	options []string

	width    int
	height   int
	ready    bool
	quitting bool
	lastCmd  string
	cancel   context.CancelFunc
}

// outputMsg carries game text from the engine into the Update loop.
type outputMsg struct {
	lines  []string
	status statusMsg
}

// promptMsg asks for a line of text. A command prompt accepts meta-commands.
type promptMsg struct {
	prompt  string
	allowed string
	status  statusMsg
}

// menuMsg asks the player to pick one of options.
type menuMsg struct {
	prompt  string
	options []string
	status  statusMsg
}

// engineDoneMsg reports that the engine loop returned.
type engineDoneMsg struct{ err error }

// New creates a TUI model driven by the given bridge.
func New(b *Bridge, title string) Model {
	ti := textinput.New()
	ti.Prompt = commandPrompt
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleSystem

	return Model{
		bridge:  b,
		title:   title,
		input:   ti,
		spinner: s,
		history: newCommandHistory(100),
	}
}

// Run starts the Bubble Tea program and the engine loop behind it. It
// returns when the player quits or the engine stops.
func Run(ctx context.Context, b *Bridge) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defs := b.Engine.Defs
	title := defs.Game.Title
	if defs.Game.Version != "" {
		title += " v" + defs.Game.Version
	}
	if defs.Game.Author != "" {
		title += " by " + defs.Game.Author
	}

	m := New(b, title)
	m.cancel = cancel
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	b.send = p.Send

	done := make(chan error, 1)
	go func() {
		err := b.Engine.Run(ctx)
		done <- err
		p.Send(engineDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		return err
	}
	cancel()
	if err := <-done; err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Init shows the title line.
func (m Model) Init() tea.Cmd {
	title := m.title
	return tea.Batch(textinput.Blink, m.spinner.Tick, func() tea.Msg {
		return outputMsg{lines: []string{title, ""}}
	})
}

// Update handles messages (key presses, window resize, engine requests).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m.quit()

		case "enter":
			return m.handleEnter()

		case "esc":
			if m.mode == modeMenu {
				m = m.answer("", strconv.Itoa(-1))
			}
			return m, nil

		case "up", "down":
			if m.mode != modeCommand {
				return m, nil
			}
			recalled, ok := m.history.older(m.input.Value())
			if msg.String() == "down" {
				recalled, ok = m.history.newer()
			}
			if ok {
				m.input.SetValue(recalled)
				m.input.CursorEnd()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case outputMsg:
		m.status = msg.status
		m = m.appendLines(msg.lines, false)

	case statusMsg:
		m.status = msg

	case promptMsg:
		m.status = msg.status
		m.allowed = msg.allowed
		m.options = nil
		m.mode = modeText
		if msg.prompt == commandPrompt {
			m.mode = modeCommand
		}
		m.input.Prompt = msg.prompt

	case menuMsg:
		m.status = msg.status
		m.mode = modeMenu
		m.options = msg.options
		m.allowed = ""
		var lines []string
		if msg.prompt != "" {
			lines = append(lines, msg.prompt)
		}
		for i, opt := range msg.options {
			lines = append(lines, fmt.Sprintf("  %d) %s", i+1, opt))
		}
		m = m.appendLines(lines, false)
		m.input.Prompt = "# "

	case spinner.TickMsg:
		var spinCmd tea.Cmd
		m.spinner, spinCmd = m.spinner.Update(msg)
		return m, spinCmd

	case engineDoneMsg:
		if msg.err != nil {
			m = m.appendLines([]string{"Error: " + msg.err.Error()}, true)
		}
		m.quitting = true
		return m, tea.Quit
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.cancel != nil {
		m.cancel()
	}
	return m, tea.Quit
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	switch m.mode {
	case modeIdle:
		return m, nil

	case modeMenu:
		choice, ok := parseChoice(input, m.options)
		if !ok {
			m = m.appendLines([]string{"Please choose one of the numbers shown."}, true)
			return m, nil
		}
		return m.answer(input, strconv.Itoa(choice)), nil

	case modeText:
		if m.allowed != "" {
			input = filterAllowed(input, m.allowed)
		}
		return m.answer(input, input), nil
	}

	// Command prompt.
	if input == "" {
		return m, nil
	}
	// Handle "again" / "g".
	if isRepeat(input) {
		if m.lastCmd == "" {
			m = m.echo(input).appendLines([]string{"Nothing to repeat."}, true)
			return m, nil
		}
		input = m.lastCmd
	}
	m.history.record(input)

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		cmd, output, quit := handleMeta(input)
		if quit {
			return m.quit()
		}
		if cmd == "" {
			m = m.echo(input).appendLines(output, true)
			return m, nil
		}
		input = cmd
	}

	m.lastCmd = input
	return m.answer(input, input), nil
}

// answer echoes the player's input and hands reply to the engine.
func (m Model) answer(echo, reply string) Model {
	m = m.echo(echo)
	m.mode = modeIdle
	m.options = nil
	m.input.Prompt = ""
	m.bridge.reply(reply)
	return m
}

func (m Model) echo(input string) Model {
	if input == "" {
		return m
	}
	m.rawLines = append(m.rawLines, rawLine{text: "> " + input, isInput: true})
	m.refreshViewport()
	return m
}

// parseChoice reads a menu selection: a 1-based number, an option label,
// or blank/0 to cancel.
func parseChoice(input string, options []string) (int, bool) {
	if input == "" || input == "0" {
		return -1, true
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(options) {
		return n - 1, true
	}
	for i, opt := range options {
		if strings.EqualFold(opt, input) {
			return i, true
		}
	}
	return 0, false
}

func filterAllowed(line, allowed string) string {
	var b strings.Builder
	for _, r := range line {
		if strings.ContainsRune(allowed, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// appendLines adds lines to the narrative and refreshes the viewport.
func (m Model) appendLines(lines []string, isSystem bool) Model {
	for _, line := range lines {
		rl := rawLine{text: line, isSystem: isSystem}
		if !isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}
	m.refreshViewport()
	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindCombat:
		return styleCombat.Render(line)
	case kindReward:
		return styleReward.Render(line)
	case kindMenu:
		return styleMenu.Render(line)
	case kindDialogue:
		return styleDialogue.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	default:
		return styleNarration.Render(line)
	}
}

// wordWrap wraps text to fit within the given number of terminal cells,
// breaking at word boundaries. Wide runes count as two cells.
func wordWrap(text string, width int) string {
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := runewidth.StringWidth(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	line := m.input.View()
	if m.mode == modeIdle {
		line = m.spinner.View()
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + line
}

// handleMeta dispatches meta-commands. It returns a game command to run in
// their place, lines to show, and whether to quit.
func handleMeta(input string) (string, []string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return "", nil, true

	case "/save":
		return strings.TrimSpace("save " + arg), nil, false

	case "/load":
		return strings.TrimSpace("load " + arg), nil, false

	case "/help":
		return "", metaHelp(), false

	default:
		return "", []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func metaHelp() []string {
	return []string{
		"System:",
		"  /save [name]  Save game (default: quicksave)",
		"  /load [name]  Load game (default: quicksave)",
		"  /quit         Exit game",
		"  /help         Show this help",
		"",
		"Type 'help' for game commands, or 'again' (g) to repeat the last one.",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history, Esc cancels a menu",
	}
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
