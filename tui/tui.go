package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/kingdomcore/engine"
	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text    string
	kind    lineKind
	isInput bool // echoed player input
}

// Model is the Bubble Tea model for the kingdomcore TUI.
type Model struct {
	engine *engine.Engine
	defs   *state.Defs
	ctx    context.Context

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	lastCmd  string
	saveDir  string
}

// shellOutputMsg carries output into the Update loop.
type shellOutputMsg struct {
	input    string // echoed player input (empty for intro)
	result   types.Result
	isSystem bool // meta-command output
}

// Option configures a Model.
type Option func(*Model)

// WithSaveDir sets where /save and /load read and write.
func WithSaveDir(dir string) Option {
	return func(m *Model) { m.saveDir = dir }
}

// WithTrace starts with event tracing on.
func WithTrace(on bool) Option {
	return func(m *Model) { m.trace = on }
}

// New creates a TUI model wired to the given engine.
func New(ctx context.Context, eng *engine.Engine, defs *state.Defs, opts ...Option) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	home, _ := os.UserHomeDir()
	m := Model{
		engine:  eng,
		defs:    defs,
		ctx:     ctx,
		input:   ti,
		history: NewHistory(100),
		saveDir: filepath.Join(home, ".kingdomcore", "saves"),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Run starts the Bubble Tea program and blocks until it exits or ctx ends.
func Run(ctx context.Context, eng *engine.Engine, defs *state.Defs, opts ...Option) error {
	m := New(ctx, eng, defs, opts...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init returns the initial command that produces the intro and the kingdom.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		var lines []string
		title := m.defs.Game.Title
		if m.defs.Game.Version != "" {
			title += " v" + m.defs.Game.Version
		}
		if m.defs.Game.Author != "" {
			title += " by " + m.defs.Game.Author
		}
		lines = append(lines, title, "")
		if m.defs.Game.Intro != "" {
			lines = append(lines, m.defs.Game.Intro, "")
		}

		result := m.engine.StepContext(m.ctx, "kingdom")
		result.Output = append(lines, result.Output...)
		return shellOutputMsg{result: result}
	}
}

// Update handles messages (key presses, window resize, shell output).
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
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case shellOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			m = m.appendOutput(systemOutput(input, "Nothing to repeat."))
			return m, nil
		}
		input = m.lastCmd
	} else {
		m.lastCmd = input
	}

	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(systemOutput(input, output...))
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	result := m.engine.StepContext(m.ctx, input)
	if m.trace {
		result.Output = append(result.Output, formatTrace(result)...)
	}
	m = m.appendOutput(shellOutputMsg{input: input, result: result})
	return m, nil
}

func systemOutput(input string, lines ...string) shellOutputMsg {
	return shellOutputMsg{input: input, result: types.Result{Output: lines}, isSystem: true}
}

// appendOutput adds a result to the scrollback and refreshes the viewport.
// Output comes first, then badges, then warnings.
func (m Model) appendOutput(msg shellOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{text: "> " + msg.input, isInput: true})
	}

	for _, line := range msg.result.Output {
		kind := kindSystem
		if !msg.isSystem {
			kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rawLine{text: line, kind: kind})
	}
	for _, b := range msg.result.Badges {
		m.rawLines = append(m.rawLines, rawLine{text: engine.BadgeLine(b), kind: badgeKind(b.Variant)})
	}
	for _, w := range msg.result.Warnings {
		m.rawLines = append(m.rawLines, rawLine{text: "! " + w, kind: kindWarning})
	}

	// Blank line separator between commands.
	m.rawLines = append(m.rawLines, rawLine{})

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

	styled := make([]string, 0, len(m.rawLines))
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}
		wrapped := wordWrap(rl.text, width)
		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.kind == kindSystem && !strings.HasPrefix(rl.text, "["):
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries. Leading indentation is kept on the first line.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	indent := text[:len(text)-len(strings.TrimLeft(text, " "))]
	var result strings.Builder
	result.WriteString(indent)
	lineLen := len(indent)

	for i, word := range strings.Fields(text) {
		wLen := len(word)
		switch {
		case i == 0:
			result.WriteString(word)
			lineLen += wLen
		case lineLen+1+wLen > width:
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		default:
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

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/help":
		return m.cmdHelp(), false

	case "/state":
		return m.cmdState(), false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdSave(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	data, err := m.engine.Save()
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	if err := os.MkdirAll(m.saveDir, 0o755); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	path := filepath.Join(m.saveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	return []string{fmt.Sprintf("Kingdom saved to %s.", name)}
}

func (m *Model) cmdLoad(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(m.saveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	sd, err := m.engine.Load(data)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	m.history.Seed(sd.CommandLog)

	output := []string{fmt.Sprintf("Kingdom loaded from %s (turn %d).", name, sd.Kingdom.Turn)}
	result := m.engine.StepContext(m.ctx, "kingdom")
	return append(output, result.Output...)
}

func (m *Model) cmdHelp() []string {
	out := []string{
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
	for _, line := range m.engine.StepContext(m.ctx, "help").Output {
		out = append(out, "  "+line)
	}
	return append(out, "", "Navigation: PgUp/PgDn to scroll, Up/Down for command history")
}

func (m *Model) cmdState() []string {
	k := m.engine.Store.Kingdom()
	out := []string{fmt.Sprintf("Turn: %d", k.Turn)}

	names := make([]string, 0, len(k.Resources))
	for name := range k.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, fmt.Sprintf("%s: %d", name, k.Resources[name]))
	}
	out = append(out, fmt.Sprintf("Ongoing: %d", len(k.Ongoing)))
	if h := m.engine.Active(); h != nil {
		out = append(out, fmt.Sprintf("Resolution: %s %s (%s)", h.ID, h.Pipeline.ID, h.State()))
	}
	return out
}

func formatTrace(result types.Result) []string {
	if len(result.Events) == 0 {
		return nil
	}
	lines := []string{fmt.Sprintf("[trace] Events: %d", len(result.Events))}
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
		lines = append(lines, fmt.Sprintf("[trace]   %s %s", e.Type, strings.Join(parts, " ")))
	}
	return lines
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
