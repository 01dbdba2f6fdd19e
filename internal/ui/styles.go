// Package ui renders terminal output for the tasklist commands: status
// marks, priority colours, task tables and prompts.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// Init picks the colour profile. Colour is off when noColor is set, when
// NO_COLOR is in the environment, or when stdout is not a terminal.
func Init(noColor bool) {
	if noColor || termenv.EnvNoColor() {
		DisableColor()
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

// DisableColor strips all styling from rendered output.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func RenderPass(s string) string   { return passStyle.Render(s) }
func RenderWarn(s string) string   { return warnStyle.Render(s) }
func RenderFail(s string) string   { return failStyle.Render(s) }
func RenderAccent(s string) string { return accentStyle.Render(s) }
func RenderMuted(s string) string  { return mutedStyle.Render(s) }
func RenderHeader(s string) string { return headerStyle.Render(s) }

// PriorityLabel names a priority: 3 High, 2 Medium, 1 Low.
func PriorityLabel(p int) string {
	switch p {
	case 3:
		return "High"
	case 2:
		return "Medium"
	case 1:
		return "Low"
	}
	return "Unknown"
}

// RenderPriority colours a priority label: high red, medium yellow, low green.
func RenderPriority(p int) string {
	label := PriorityLabel(p)
	switch p {
	case 3:
		return failStyle.Render(label)
	case 2:
		return warnStyle.Render(label)
	case 1:
		return passStyle.Render(label)
	}
	return label
}
