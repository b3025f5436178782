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

	styleStatusBusy = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("214")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarrative = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	styleHint = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	stylePending = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	styleBadgePositive = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42"))

	styleBadgeNegative = lipgloss.NewStyle().
				Foreground(lipgloss.Color("203"))

	styleBadgeNeutral = lipgloss.NewStyle().
				Foreground(lipgloss.Color("111"))

	styleWarning = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarrative lineKind = iota
	kindHeader
	kindHint
	kindPending
	kindBadgePositive
	kindBadgeNegative
	kindBadgeNeutral
	kindWarning
	kindSystem
	kindError
	kindTrace
)

// badgeKind maps a badge variant to its line kind.
func badgeKind(variant string) lineKind {
	switch variant {
	case "positive":
		return kindBadgePositive
	case "negative":
		return kindBadgeNegative
	default:
		return kindBadgeNeutral
	}
}

// classifyLine determines what kind of shell output line this is. Badges
// and warnings arrive separately and are never classified here.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "Type confirm"),
		strings.HasPrefix(line, "What do you want to do?"):
		return kindHint
	case line == "Waiting on:",
		strings.HasSuffix(line, "remaining)"),
		strings.HasSuffix(line, "more needed."):
		return kindPending
	case strings.HasPrefix(line, "usage:"),
		strings.HasPrefix(line, "I don't know how to"),
		strings.Contains(line, "not found"),
		strings.Contains(line, "no resolution in progress"),
		strings.Contains(line, "awaiting interactions"):
		return kindError
	case strings.HasPrefix(line, "Turn ") && strings.HasSuffix(line, " begins."),
		strings.HasSuffix(line, " is resolved."):
		return kindHeader
	default:
		return kindNarrative
	}
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindHeader:
		return styleHeader.Render(line)
	case kindHint:
		return styleHint.Render(line)
	case kindPending:
		return stylePending.Render(line)
	case kindBadgePositive:
		return styleBadgePositive.Render(line)
	case kindBadgeNegative:
		return styleBadgeNegative.Render(line)
	case kindBadgeNeutral:
		return styleBadgeNeutral.Render(line)
	case kindWarning:
		return styleWarning.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarrative.Render(line)
	}
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
