package ui

import (
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const (
	colorAccent     = lipgloss.Color("#FF8C42")
	colorAccentSoft = lipgloss.Color("#FFB84D")
	colorGradientTo = "#FF9F5A"
	colorMuted      = lipgloss.Color("#6B7280")
	colorText       = lipgloss.Color("#FFFFFF")
	colorError      = lipgloss.Color("#FF4757")
	colorWarning    = lipgloss.Color("#FACC15")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			MarginTop(1)

	LinkStyle = lipgloss.NewStyle().
			Foreground(colorAccentSoft).
			Underline(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	UnselectedStyle = lipgloss.NewStyle().
			Foreground(colorText)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(colorAccentSoft).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)
)

func filePickerStyles() filepicker.Styles {
	s := filepicker.DefaultStyles()
	s.Cursor = lipgloss.NewStyle().Foreground(colorAccent)
	s.Symlink = lipgloss.NewStyle().Foreground(colorAccentSoft)
	s.Directory = lipgloss.NewStyle().Foreground(colorAccentSoft)
	s.File = lipgloss.NewStyle().Foreground(colorText)
	s.Permission = lipgloss.NewStyle().Foreground(colorMuted)
	s.Selected = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	s.FileSize = lipgloss.NewStyle().Foreground(colorMuted)
	return s
}

func previewTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorAccent).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(colorText).
		Background(colorAccent).
		Bold(false)
	return s
}
