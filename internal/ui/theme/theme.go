// Package theme holds the colour palette and shared Lip Gloss styles.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette.
var (
	Primary   = lipgloss.Color("#6366F1") // indigo
	Secondary = lipgloss.Color("#0EA5E9") // sky
	Accent    = lipgloss.Color("#EAB308") // yellow, countdown
	Success   = lipgloss.Color("#10B981") // emerald
	Error     = lipgloss.Color("#EF4444") // red
	Warning   = lipgloss.Color("#F97316") // orange, time running out
	Text      = lipgloss.Color("#E2E8F0")
	TextDim   = lipgloss.Color("#7C8BA1")
	BgCard    = lipgloss.Color("#1B2333")
	Border    = lipgloss.Color("#2F3B52")
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(Primary).Align(lipgloss.Center)
	Body  = lipgloss.NewStyle().Foreground(Text)

	HintKey  = lipgloss.NewStyle().Foreground(Text).Bold(true)
	HintText = lipgloss.NewStyle().Foreground(TextDim)
)

// Answer and verdict states. Correct and Incorrect only follow a server
// verdict; Pending marks a submission in flight.
var (
	Selected  = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	Correct   = lipgloss.NewStyle().Foreground(Success).Bold(true)
	Incorrect = lipgloss.NewStyle().Foreground(Error).Bold(true)
	Pending   = lipgloss.NewStyle().Foreground(Accent)

	ToastInfo  = lipgloss.NewStyle().Foreground(Secondary)
	ToastError = lipgloss.NewStyle().Foreground(Error).Bold(true)
)

// Progress bar segments.
var (
	ProgressFilled  = lipgloss.NewStyle().Background(Secondary)
	ProgressWarning = lipgloss.NewStyle().Background(Warning)
	ProgressEmpty   = lipgloss.NewStyle().Background(Border)
)
