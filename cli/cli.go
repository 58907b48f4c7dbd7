// Package cli provides plain terminal I/O and meta-command dispatch for the
// WarriorCore engine. It implements the dialog UI over a line reader so
// that it also serves scripted playback.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/warriorcore/engine"
)

// commandPrompt is the prompt the engine uses for player commands.
const commandPrompt = "> "

// CLI handles line-based interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	In        *bufio.Reader
	Out       io.Writer
	EchoInput bool // echo each input line after the prompt (for script playback)
	// Pause makes Acknowledge wait for Enter. Script playback leaves it off
	// so that acknowledgements do not consume script lines.
	Pause   bool
	lastCmd string // for "again"/"g" repeat
}

// New creates a CLI reading from in and writing to out. Attach the engine
// before calling Run.
func New(in io.Reader, out io.Writer) *CLI {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &CLI{
		In:  bufio.NewReader(in),
		Out: out,
	}
}

// Run starts the game loop and returns when the player quits or input ends.
func (c *CLI) Run(ctx context.Context) error {
	return c.Engine.Run(ctx)
}

// Message prints one line of game text.
func (c *CLI) Message(text string) {
	c.printLine(text)
}

// Acknowledge waits for Enter when pausing is enabled.
func (c *CLI) Acknowledge(ctx context.Context) error {
	if !c.Pause {
		return nil
	}
	c.print("▼")
	_, err := c.readLine(ctx)
	return err
}

// Choose prints a numbered menu and reads a selection. Blank input or 0
// cancels; an option may also be picked by its label.
func (c *CLI) Choose(ctx context.Context, prompt string, options []string) (int, error) {
	if prompt != "" {
		c.printLine(prompt)
	}
	for i, opt := range options {
		c.printLine(fmt.Sprintf("  %d) %s", i+1, opt))
	}
	for {
		c.print("Choose (0 to cancel): ")
		line, err := c.readLine(ctx)
		if err != nil {
			return -1, err
		}
		if c.EchoInput {
			c.printLine(line)
		}
		if line == "" || line == "0" {
			return -1, nil
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		for i, opt := range options {
			if strings.EqualFold(opt, line) {
				return i, nil
			}
		}
		c.printLine("Please choose one of the numbers shown.")
	}
}

// Input reads one line. Characters outside allowed are dropped when allowed
// is set. At the command prompt, meta-commands and "again" are handled
// here before the engine sees the line.
func (c *CLI) Input(ctx context.Context, prompt, allowed string) (string, error) {
	for {
		c.print(prompt)
		line, err := c.readLine(ctx)
		if err != nil {
			return "", err
		}
		if c.EchoInput {
			c.printLine(line)
		}
		if allowed != "" {
			line = filterAllowed(line, allowed)
		}
		if prompt != commandPrompt {
			return line, nil
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(line, "/") {
			cmd, err := c.handleMeta(line)
			if err != nil {
				return "", err
			}
			if cmd == "" {
				continue
			}
			line = cmd
		}

		// "again" / "g" repeats the last game command.
		lower := strings.ToLower(line)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			return c.lastCmd, nil
		}
		if line != "" {
			c.lastCmd = line
		}
		return line, nil
	}
}

// readLine returns the next non-comment line, trimmed. Lines starting with
// '#' are skipped so script files can be annotated.
func (c *CLI) readLine(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		raw, err := c.In.ReadString('\n')
		if err != nil && (err != io.EOF || raw == "") {
			if err == io.EOF {
				c.printLine("")
			}
			return "", err
		}
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "#") {
			continue
		}
		return line, nil
	}
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

// handleMeta dispatches a meta-command. It returns a game command to run in
// its place, or "" when the command was handled here.
func (c *CLI) handleMeta(input string) (string, error) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return "", engine.ErrQuit

	case "/save":
		return strings.TrimSpace("save " + arg), nil

	case "/load":
		return strings.TrimSpace("load " + arg), nil

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}
	return "", nil
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]  Save game (default: quicksave)",
		"  /load [name]  Load game (default: quicksave)",
		"  /quit         Exit game",
		"  /help         Show this help",
		"  /state        Debug: dump current state",
		"",
		"Type 'help' for game commands, or 'again' (g) to repeat the last one.",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	if c.Engine == nil {
		return
	}
	s := c.Engine.Session
	c.printSystem(fmt.Sprintf("Turn: %d", s.TurnCount))
	c.printSystem(fmt.Sprintf("Location: %s (%d, %d)", s.MapName, s.Position.X, s.Position.Y))
	c.printSystem(fmt.Sprintf("Gold: %d", s.Party.Gold))
	for _, h := range s.Party.Heroes {
		c.printSystem(fmt.Sprintf("%s: LV %d HP %d/%d MP %d/%d XP %d",
			h.Name(), h.Level(), h.HP, h.MaxHP, h.MP, h.MaxMP, h.XP))
	}
	if len(s.Markers) > 0 {
		markers := make([]string, 0, len(s.Markers))
		for m := range s.Markers {
			markers = append(markers, m)
		}
		sort.Strings(markers)
		c.printSystem(fmt.Sprintf("Markers: %s", strings.Join(markers, ", ")))
	}
	if s.IsRepelActive() {
		c.printSystem(fmt.Sprintf("Repel: %d steps", s.RepelSteps))
	}
	c.printSystem(fmt.Sprintf("RNG: seed %d position %d", c.Engine.RNG.Seed(), c.Engine.RNG.Position()))
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
