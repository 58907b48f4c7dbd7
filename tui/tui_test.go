package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestMapDisplayName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"castle", "Castle"},
		{"tantegel_castle", "Tantegel Castle"},
		{"world", "World"},
		{"swamp_cave_b1", "Swamp Cave B1"},
	}
	for _, tt := range tests {
		if got := mapDisplayName(tt.name); got != tt.want {
			t.Errorf("mapDisplayName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"[Thy deeds have been recorded.]", kindSystem},
		{"  1) Buy", kindMenu},
		{"  12) Sell", kindMenu},
		{"1) Not indented", kindNarration},
		{"Thou cannot go that way.", kindError},
		{"I don't know how to dance.", kindError},
		{"There is no one here by that name.", kindError},
		{"Erdrick does not have that.", kindError},
		{"Thou hast not enough MP.", kindError},
		{"Thy experience increases by 2. Thy gold increases by 3.", kindReward},
		{"A Slime draws near!", kindCombat},
		{"Erdrick recovers 10 hit points.", kindCombat},
		{"'Welcome to Tantegel Castle, brave one.'", kindDialogue},
		{"Erdrick is inside on castle at (1, 1).", kindNarration},
		{"", kindNarration},
	}
	for _, tt := range tests {
		if got := classifyLine(tt.line); got != tt.want {
			t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestContainsQuotedSpeech(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"'Hello, traveler. Welcome to the castle.'", true},
		{"It's a door.", false},    // short quote segment
		{"No quotes here.", false}, // no quotes at all
		{"'Hi'", false},            // too short
		{"The king says 'the princess was taken by the dragon.'", true},
	}
	for _, tt := range tests {
		if got := containsQuotedSpeech(tt.line); got != tt.want {
			t.Errorf("containsQuotedSpeech(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 80, "short"},
		{"hello world", 5, "hello\nworld"},
		{"Thy experience increases by 2. Thy gold increases by 3.", 30,
			"Thy experience increases by 2.\nThy gold increases by 3."},
		{"", 80, ""},
		{"one", 80, "one"},
		{"a b c d e", 3, "a b\nc d\ne"},
		// Wide runes take two cells each.
		{"勇者 勇者", 4, "勇者\n勇者"},
	}
	for _, tt := range tests {
		if got := wordWrap(tt.text, tt.width); got != tt.want {
			t.Errorf("wordWrap(%q, %d) =\n  %q\nwant:\n  %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestParseChoice(t *testing.T) {
	options := []string{"Buy", "Sell", "Leave"}
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"1", 0, true},
		{"3", 2, true},
		{"sell", 1, true},
		{"", -1, true},
		{"0", -1, true},
		{"4", 0, false},
		{"steal", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseChoice(tt.input, options)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseChoice(%q) = %d, %v, want %d, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHandleMeta(t *testing.T) {
	if _, _, quit := handleMeta("/quit"); !quit {
		t.Error("expected quit for /quit")
	}
	if _, _, quit := handleMeta("/exit"); !quit {
		t.Error("expected quit for /exit")
	}
	if cmd, _, _ := handleMeta("/save slot1"); cmd != "save slot1" {
		t.Errorf("/save slot1 -> %q, want %q", cmd, "save slot1")
	}
	if cmd, _, _ := handleMeta("/load"); cmd != "load" {
		t.Errorf("/load -> %q, want %q", cmd, "load")
	}

	cmd, output, quit := handleMeta("/help")
	if cmd != "" || quit {
		t.Error("help should be handled locally")
	}
	joined := strings.Join(output, "\n")
	for _, expected := range []string{"/save", "/load", "/quit", "again"} {
		if !strings.Contains(joined, expected) {
			t.Errorf("expected %q in help output", expected)
		}
	}

	_, output, _ = handleMeta("/bogus")
	if len(output) == 0 || !strings.Contains(output[0], "Unknown command") {
		t.Errorf("expected unknown command message, got %v", output)
	}
}

// readyModel returns a sized model waiting at the command prompt.
func readyModel(t *testing.T) (Model, *Bridge) {
	t.Helper()
	b := NewBridge()
	m := New(b, "Test Game")
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = update(t, m, promptMsg{prompt: commandPrompt})
	return m, b
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func enter(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func expectReply(t *testing.T, b *Bridge, want string) {
	t.Helper()
	select {
	case got := <-b.replies:
		if got != want {
			t.Errorf("reply = %q, want %q", got, want)
		}
	default:
		t.Errorf("expected reply %q, got none", want)
	}
}

func expectNoReply(t *testing.T, b *Bridge) {
	t.Helper()
	select {
	case got := <-b.replies:
		t.Errorf("unexpected reply %q", got)
	default:
	}
}

func TestModel_Command(t *testing.T) {
	m, b := readyModel(t)
	if m.mode != modeCommand {
		t.Fatalf("mode = %v, want command", m.mode)
	}

	m = enter(t, m, "status")
	expectReply(t, b, "status")
	if m.mode != modeIdle {
		t.Errorf("mode = %v, want idle after answering", m.mode)
	}

	// Input is ignored while the engine is busy.
	m = enter(t, m, "look")
	expectNoReply(t, b)
}

func TestModel_Again(t *testing.T) {
	m, b := readyModel(t)

	m = enter(t, m, "g")
	expectNoReply(t, b)
	if !strings.Contains(m.rawLines[len(m.rawLines)-1].text, "Nothing to repeat.") {
		t.Errorf("expected 'Nothing to repeat.', got %+v", m.rawLines[len(m.rawLines)-1])
	}

	m = enter(t, m, "walk north")
	expectReply(t, b, "walk north")
	m = update(t, m, promptMsg{prompt: commandPrompt})
	m = enter(t, m, "again")
	expectReply(t, b, "walk north")
}

func TestModel_HistoryRecallAtCommandPrompt(t *testing.T) {
	m, b := readyModel(t)

	m = enter(t, m, "walk north")
	expectReply(t, b, "walk north")
	m = update(t, m, promptMsg{prompt: commandPrompt})
	m = enter(t, m, "g")
	expectReply(t, b, "walk north")
	m = update(t, m, promptMsg{prompt: commandPrompt})

	m.input.SetValue("ta")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if got := m.input.Value(); got != "walk north" {
		t.Errorf("up = %q, want walk north", got)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if got := m.input.Value(); got != "walk north" {
		t.Errorf("the repeat shorthand was recorded: up = %q", got)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if got := m.input.Value(); got != "ta" {
		t.Errorf("down = %q, want the draft back", got)
	}

	// A menu pick is not a command.
	m = enter(t, m, "look")
	expectReply(t, b, "look")
	m = update(t, m, menuMsg{options: []string{"Yes", "No"}})
	m = enter(t, m, "1")
	expectReply(t, b, "0")
	m = update(t, m, menuMsg{options: []string{"Yes", "No"}})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if got := m.input.Value(); got != "" {
		t.Errorf("up in a menu = %q, want no recall", got)
	}
	if len(m.history.entries) != 2 {
		t.Errorf("history = %q, want walk north and look", m.history.entries)
	}
}

func TestModel_MetaCommands(t *testing.T) {
	m, b := readyModel(t)

	m = enter(t, m, "/save slot1")
	expectReply(t, b, "save slot1")

	m = update(t, m, promptMsg{prompt: commandPrompt})
	m = enter(t, m, "/help")
	expectNoReply(t, b)
	if m.mode != modeCommand {
		t.Error("help should leave the command prompt active")
	}

	m = enter(t, m, "/quit")
	if !m.quitting {
		t.Error("expected quitting after /quit")
	}
}

func TestModel_Menu(t *testing.T) {
	m, b := readyModel(t)
	m = update(t, m, menuMsg{options: []string{"Buy", "Sell"}})
	if m.mode != modeMenu {
		t.Fatalf("mode = %v, want menu", m.mode)
	}
	if got := m.rawLines[len(m.rawLines)-1].text; got != "  2) Sell" {
		t.Errorf("last line = %q, want the numbered option", got)
	}

	m = enter(t, m, "7")
	expectNoReply(t, b)
	if m.mode != modeMenu {
		t.Error("an invalid pick should keep the menu open")
	}

	m = enter(t, m, "2")
	expectReply(t, b, "1")
}

func TestModel_MenuEscapeCancels(t *testing.T) {
	m, b := readyModel(t)
	m = update(t, m, menuMsg{options: []string{"Yes", "No"}})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	expectReply(t, b, "-1")
	if m.mode != modeIdle {
		t.Errorf("mode = %v, want idle", m.mode)
	}
}

func TestModel_TextInputFiltered(t *testing.T) {
	m, b := readyModel(t)
	m = update(t, m, promptMsg{prompt: "What is 2+2? ", allowed: "0123456789"})
	if m.mode != modeText {
		t.Fatalf("mode = %v, want text", m.mode)
	}
	enter(t, m, "4 apples")
	expectReply(t, b, "4")
}

func TestModel_OutputAndStatus(t *testing.T) {
	m, _ := readyModel(t)
	m = update(t, m, outputMsg{
		lines: []string{"A Slime draws near!"},
		status: statusMsg{
			mapName:  "world",
			x:        3,
			y:        4,
			gold:     120,
			inCombat: true,
			heroes:   []fighterStatus{{name: "Erdrick", level: 2, hp: 20, maxHP: 22, mp: 5, maxMP: 5}},
			monsters: []fighterStatus{{name: "Slime", hp: 3, maxHP: 3, asleep: true}},
		},
	})

	last := m.rawLines[len(m.rawLines)-1]
	if last.text != "A Slime draws near!" || last.kind != kindCombat {
		t.Errorf("last line = %+v", last)
	}

	bar := m.renderStatusBar()
	for _, want := range []string{"Erdrick L2 H20/22 M5/5", "vs Slime 3/3 zZ"} {
		if !strings.Contains(bar, want) {
			t.Errorf("status bar %q missing %q", bar, want)
		}
	}

	m = update(t, m, statusMsg{mapName: "tantegel_castle", x: 1, y: 1, gold: 120, turn: 7})
	bar = m.renderStatusBar()
	if !strings.Contains(bar, "Tantegel Castle (1,1) | G:120 | T:7") {
		t.Errorf("status bar %q missing location", bar)
	}
}

func TestModel_EngineDone(t *testing.T) {
	m, _ := readyModel(t)
	m = update(t, m, engineDoneMsg{})
	if !m.quitting {
		t.Error("expected quitting once the engine stops")
	}
	if m.View() != "" {
		t.Error("expected empty view when quitting")
	}
}

func TestModel_SpinnerWhileBusy(t *testing.T) {
	m, b := readyModel(t)

	if !strings.HasSuffix(m.View(), m.input.View()) {
		t.Error("expected the input line at the command prompt")
	}

	m = enter(t, m, "look")
	expectReply(t, b, "look")
	if !strings.HasSuffix(m.View(), m.spinner.View()) {
		t.Error("expected the spinner while the engine is busy")
	}
}
