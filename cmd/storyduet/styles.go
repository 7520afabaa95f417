package main

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F780FF")).Bold(true)
	narratorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F780FF"))
	criticStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F1FA8C"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
)
