// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	StyleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // Red
	StyleClass   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))            // Grey
	StyleEqual   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))             // Green
	StyleAdded   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	StyleRemoved = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	StyleHeader  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
)

// highlightDiff colors a unified diff line by line.
func highlightDiff(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
			lines[i] = StyleHeader.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = StyleAdded.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = StyleRemoved.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
