package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	colorPrimary = lipgloss.Color("#007BFF") // royal blue
	colorBorder  = lipgloss.Color("#0066B3")
	colorPanel   = lipgloss.Color("#1C1F2A")
	colorFg      = lipgloss.Color("#FFFFFF")
	colorLabel   = lipgloss.Color("#C6C8C9")
	colorMuted   = lipgloss.Color("#6B7280")
	colorOK      = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(colorLabel)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Background(colorPanel).
			Padding(0, 1)

	FocusedBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Background(colorPanel).
			Padding(0, 1)

	ItemStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true).
				PaddingLeft(2)

	ButtonStyle = lipgloss.NewStyle().
			Background(colorPrimary).
			Foreground(colorFg).
			Padding(0, 2)

	DisabledButtonStyle = lipgloss.NewStyle().
				Background(colorMuted).
				Foreground(colorFg).
				Padding(0, 2)

	StatusOKStyle = lipgloss.NewStyle().
			Foreground(colorOK)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(colorError)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)
)
