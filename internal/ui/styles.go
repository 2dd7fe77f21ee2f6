// Package ui renders enhancement results and cache statistics for the terminal.
package ui

import "github.com/charmbracelet/lipgloss"

// Palette. Section titles and the spinner share the accent.
var (
	colorAccent = lipgloss.Color("205")
	colorMuted  = lipgloss.Color("241")
	colorBody   = lipgloss.Color("252")
	colorBadge  = lipgloss.Color("87")
)

var (
	styleSection  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Underline(true)
	styleStrategy = lipgloss.NewStyle().Foreground(colorBadge).Bold(true)
	styleMetrics  = lipgloss.NewStyle().Foreground(colorMuted)
	styleCached   = lipgloss.NewStyle().Foreground(colorBadge)
	styleSubtle   = lipgloss.NewStyle().Foreground(colorMuted)

	styleTableHeader = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleTableCell   = lipgloss.NewStyle().Foreground(colorBody)
	styleTableRule   = lipgloss.NewStyle().Foreground(colorMuted)
)
