// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for the kingdomcore shell.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/kingdomcore/engine"
	"github.com/nathoo/kingdomcore/engine/modifiers"
	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// CLI handles line-oriented interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	Defs      *state.Defs
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine, defs *state.Defs) *CLI {
	home, _ := os.UserHomeDir()
	return &CLI{
		Engine:  eng,
		Defs:    defs,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: filepath.Join(home, ".kingdomcore", "saves"),
	}
}

// Run starts the shell loop. It shows the intro and the kingdom, then loops:
// prompt, input, dispatch, output.
func (c *CLI) Run(ctx context.Context) {
	if c.Defs.Game.Intro != "" {
		c.printLine(c.Defs.Game.Intro)
		c.printLine("")
	}
	c.printResult(c.Engine.StepContext(ctx, "kingdom"))

	scanner := bufio.NewScanner(c.In)
	for {
		if ctx.Err() != nil {
			return
		}
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(ctx, input) {
				return // /quit
			}
			continue
		}

		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := c.Engine.StepContext(ctx, input)
		c.printResult(result)

		if c.Trace {
			c.printTrace(result)
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if the shell should exit.
func (c *CLI) handleMeta(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(ctx, arg)

	case "/help":
		c.cmdHelp(ctx)

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := c.Engine.Save()
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	path := filepath.Join(c.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Kingdom saved to %s.", name))
}

func (c *CLI) cmdLoad(ctx context.Context, name string) {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(c.SaveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	sd, err := c.Engine.Load(data)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Kingdom loaded from %s (turn %d).", name, sd.Kingdom.Turn))

	c.printResult(c.Engine.StepContext(ctx, "kingdom"))
}

func (c *CLI) cmdHelp(ctx context.Context) {
	help := []string{
		"System:",
		"  /save [name]  save the kingdom (default: quicksave)",
		"  /load [name]  load a save (default: quicksave)",
		"  /quit         exit",
		"  /help         show this help",
		"  /state        debug: dump the session",
		"  /trace        toggle event trace output",
		"  again (g)     repeat your last command",
		"",
		"Kingdom commands:",
	}
	for _, line := range help {
		c.printLine(line)
	}
	for _, line := range c.Engine.StepContext(ctx, "help").Output {
		c.printLine("  " + line)
	}
}

func (c *CLI) cmdState() {
	k := c.Engine.Store.Kingdom()
	c.printSystem(fmt.Sprintf("Turn: %d", k.Turn))

	names := make([]string, 0, len(k.Resources))
	for name := range k.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.printSystem(fmt.Sprintf("%s: %d", modifiers.DisplayResource(name), k.Resources[name]))
	}
	c.printSystem(fmt.Sprintf("Ongoing: %d", len(k.Ongoing)))
	if h := c.Engine.Active(); h != nil {
		c.printSystem(fmt.Sprintf("Resolution: %s %s (%s)", h.ID, h.Pipeline.ID, h.State()))
	} else {
		c.printSystem("Resolution: none")
	}
	c.printSystem(fmt.Sprintf("Commands: %d", len(c.Engine.CommandLog)))
}

func (c *CLI) printTrace(result types.Result) {
	if len(result.Events) == 0 {
		return
	}
	c.printSystem(fmt.Sprintf("[trace] Events: %d", len(result.Events)))
	for _, e := range result.Events {
		keys := make([]string, 0, len(e.Data))
		for k := range e.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, e.Data[k])
		}
		c.printSystem(fmt.Sprintf("[trace]   %s %s", e.Type, strings.Join(parts, " ")))
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
	for _, b := range result.Badges {
		c.printLine(engine.BadgeLine(b))
	}
	for _, w := range result.Warnings {
		c.printLine("! " + w)
	}
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
