// Package styles provides shared lipgloss styles for CLI output.
package styles

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Tokyo Night color palette.
var (
	ColorGreen  = lipgloss.Color("#9ece6a")
	ColorYellow = lipgloss.Color("#e0af68")
	ColorRed    = lipgloss.Color("#d75f6b")
	ColorBlue   = lipgloss.Color("#7aa2f7")
	ColorGray   = lipgloss.Color("#565f89")
	ColorWhite  = lipgloss.Color("#c0caf5")
)

// Banner is printed by the interactive shell on start.
const Banner = `
 ╔═╗╔═╗╔╦╗
 ║ ║╚═╗ ║║
 ╚═╝╚═╝═╩╝`

// BannerStyle styles the ASCII art banner.
var BannerStyle = lipgloss.NewStyle().
	Foreground(ColorBlue).
	Bold(true)

// LabelStyle styles field labels in key/value output.
var LabelStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Width(24)

// ValueStyle styles field values.
var ValueStyle = lipgloss.NewStyle().
	Foreground(ColorWhite)

// ConnectedStyle styles the connection state badge.
var ConnectedStyle = lipgloss.NewStyle().
	Foreground(ColorGreen).
	Bold(true)

// DisconnectedStyle styles the badge when no share is connected.
var DisconnectedStyle = lipgloss.NewStyle().
	Foreground(ColorYellow).
	Bold(true)

// BoxStyle frames the status block.
var BoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorGray).
	Padding(0, 1)

// FormTheme returns the huh theme used by interactive prompts.
func FormTheme() *huh.Theme {
	t := huh.ThemeBase()
	t.Focused.Title = t.Focused.Title.Foreground(ColorBlue).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(ColorGray)
	t.Focused.TextInput.Prompt = t.Focused.TextInput.Prompt.Foreground(ColorBlue)
	t.Focused.TextInput.Placeholder = t.Focused.TextInput.Placeholder.Foreground(ColorGray)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(ColorRed)
	return t
}
