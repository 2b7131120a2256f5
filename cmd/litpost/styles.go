package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true) // Red
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))           // Green
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))           // Yellow
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // Cyan
)

// tableHeader and tableKey adapt styles to rodaine/table formatters.
func tableHeader(format string, vals ...interface{}) string {
	return headerStyle.Render(fmt.Sprintf(format, vals...))
}

func tableKey(format string, vals ...interface{}) string {
	return keyStyle.Render(fmt.Sprintf(format, vals...))
}
