package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("160")
	muted  = lipgloss.Color("245")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(accent).Padding(0, 1)
	hintStyle  = lipgloss.NewStyle().Foreground(muted)

	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(muted)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(lipgloss.Color("231")).Background(accent)

	headingStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
	cursorStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	totalStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("34"))
	userMsgStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(accent).Padding(0, 1)
	modelMsgStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)
