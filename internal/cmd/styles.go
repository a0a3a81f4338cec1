package cmd

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	geminiStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	codexStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// render applies a style only when stdout is a terminal, so piped output
// stays clean.
func render(style lipgloss.Style, s string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return s
	}
	return style.Render(s)
}

func agentStyle(agent string) lipgloss.Style {
	if agent == "gemini" {
		return geminiStyle
	}
	return codexStyle
}
