package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hejijunhao/jobtray/internal/model"
)

// Theme defines the color palette. All colors use ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	StatusStarted  lipgloss.Color
	StatusFinished lipgloss.Color
	StatusFailed   lipgloss.Color
	StatusIdle     lipgloss.Color

	HeaderForeground lipgloss.Color
	Connected        lipgloss.Color
	Disconnected     lipgloss.Color
	BorderColor      lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("243"),

	StatusStarted:  lipgloss.Color("33"),
	StatusFinished: lipgloss.Color("35"),
	StatusFailed:   lipgloss.Color("196"),
	StatusIdle:     lipgloss.Color("245"),

	HeaderForeground: lipgloss.Color("39"),
	Connected:        lipgloss.Color("35"),
	Disconnected:     lipgloss.Color("214"),
	BorderColor:      lipgloss.Color("238"),
}

// StatusColor returns the color for a job status; idle and unknown values
// get StatusIdle.
func (theme Theme) StatusColor(s model.Status) lipgloss.Color {
	switch s {
	case model.Started:
		return theme.StatusStarted
	case model.Finished:
		return theme.StatusFinished
	case model.Failed:
		return theme.StatusFailed
	}
	return theme.StatusIdle
}
