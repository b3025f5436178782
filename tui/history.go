// Package tui provides a Bubble Tea terminal UI for the kingdomcore shell.
package tui

import "strings"

// History keeps recent shell commands for Up/Down recall. Meta-commands are
// kept too; blank lines and consecutive repeats are not.
type History struct {
	entries []string
	max     int
	cursor  int // -1 = not navigating
}

// NewHistory creates a history holding at most max entries.
func NewHistory(max int) *History {
	return &History{entries: make([]string, 0, max), max: max, cursor: -1}
}

// Push records a command.
func (h *History) Push(cmd string) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == cmd {
		return
	}
	h.entries = append(h.entries, cmd)
	if over := len(h.entries) - h.max; over > 0 {
		h.entries = h.entries[over:]
	}
}

// Seed replaces the history with the tail of a restored command log.
func (h *History) Seed(log []string) {
	h.entries = h.entries[:0]
	h.cursor = -1
	for _, cmd := range log {
		h.Push(cmd)
	}
}

// Len returns the number of stored entries.
func (h *History) Len() int { return len(h.entries) }

// Prev moves to the next older entry. The oldest entry is sticky.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	switch {
	case h.cursor < 0:
		h.cursor = len(h.entries) - 1
	case h.cursor > 0:
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next moves to the next newer entry, returning false once past the newest.
func (h *History) Next() (string, bool) {
	if h.cursor < 0 {
		return "", false
	}
	h.cursor++
	if h.cursor >= len(h.entries) {
		h.cursor = -1
		return "", false
	}
	return h.entries[h.cursor], true
}

// ResetCursor leaves navigation mode.
func (h *History) ResetCursor() {
	h.cursor = -1
}
