package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/kingdomcore/engine/modifiers"
	"github.com/nathoo/kingdomcore/engine/resolution"
)

// statusResources are shown in the status bar, in order, when the kingdom
// tracks them.
var statusResources = []string{"gold", "food", "lumber", "stone", "ore", "luxuries", "unrest", "fame"}

// resolutionStatus describes the open resolution, or "" when there is none.
func (m Model) resolutionStatus() string {
	h := m.engine.Active()
	if h == nil {
		return ""
	}
	switch h.State() {
	case resolution.Resolved, resolution.Cancelled:
		return ""
	case resolution.AwaitingInteraction:
		n := 0
		for _, req := range h.Pending() {
			n += h.Remaining(req.Def.ID)
		}
		return fmt.Sprintf("%s: %d to select", h.Pipeline.Name, n)
	default:
		return fmt.Sprintf("%s: %s", h.Pipeline.Name, h.State())
	}
}

// renderStatusBar produces a full-width status line showing the kingdom,
// its key resources, the open resolution and the turn. Resources are
// dropped from the right until the line fits.
func (m Model) renderStatusBar() string {
	k := m.engine.Store.Kingdom()

	var res []string
	for _, name := range statusResources {
		if v, ok := k.Resources[name]; ok {
			res = append(res, fmt.Sprintf("%s %d", modifiers.DisplayResource(name), v))
		}
	}

	right := fmt.Sprintf("T:%d ", k.Turn)
	active := m.resolutionStatus()
	if active != "" {
		right = active + " | " + right
	}

	left := " " + k.Name
	for n := len(res); n >= 0; n-- {
		candidate := " " + k.Name
		if n > 0 {
			candidate += " | " + strings.Join(res[:n], " ")
		}
		if lipgloss.Width(candidate)+lipgloss.Width(right)+1 <= m.width || n == 0 {
			left = candidate
			break
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	style := styleStatusBar
	if h := m.engine.Active(); h != nil && h.State() == resolution.AwaitingInteraction {
		style = styleStatusBusy
	}
	return style.Width(m.width).Render(bar)
}
