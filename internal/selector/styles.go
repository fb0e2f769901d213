package selector

import "github.com/charmbracelet/lipgloss"

var (
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light text

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	Subtitle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	Success = lipgloss.NewStyle().Bold(true).Foreground(SecondaryColor)
	Warning = lipgloss.NewStyle().Bold(true).Foreground(WarningColor)
	Error   = lipgloss.NewStyle().Bold(true).Foreground(ErrorColor)
	Muted   = lipgloss.NewStyle().Foreground(MutedColor)
	Text    = lipgloss.NewStyle().Foreground(TextColor)

	Cursor = lipgloss.NewStyle().Foreground(SecondaryColor)

	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	Banner = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(0, 2)
)
