package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#7C3AED")
	selfColor    = lipgloss.Color("#10B981")
	mutedColor   = lipgloss.Color("#9CA3AF")
	errorColor   = lipgloss.Color("#EF4444")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	toastStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(mutedColor).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(mutedColor).
			Padding(0, 1)

	ownNameStyle = lipgloss.NewStyle().
			Foreground(selfColor).
			Bold(true)

	otherNameStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)
)

const banner = `
 ██╗  ██╗███████╗██╗      ██████╗ ██╗  ██╗ █████╗
 ██║  ██║██╔════╝██║     ██╔═══██╗██║  ██║██╔══██╗
 ███████║█████╗  ██║     ██║   ██║███████║███████║
 ██╔══██║██╔══╝  ██║     ██║   ██║██╔══██║██╔══██║
 ██║  ██║███████╗███████╗╚██████╔╝██║  ██║██║  ██║
 ╚═╝  ╚═╝╚══════╝╚══════╝ ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝
`
