package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Color scheme
	PrimaryColor   = lipgloss.Color("39")  // Blue
	SecondaryColor = lipgloss.Color("213") // Pink
	SuccessColor   = lipgloss.Color("42")  // Green
	ErrorColor     = lipgloss.Color("196") // Red
	UnreadColor    = lipgloss.Color("214") // Orange
	MutedColor     = lipgloss.Color("243") // Gray
	BorderColor    = lipgloss.Color("238") // Dark gray
	TextColor      = lipgloss.Color("252")

	BaseStyle = lipgloss.NewStyle()

	// Header
	HeaderStyle = BaseStyle.
			Bold(true).
			Foreground(PrimaryColor).
			Padding(0, 1)

	StatusStyle = BaseStyle.
			Foreground(MutedColor).
			Padding(0, 1)

	StatusErrorStyle = BaseStyle.
				Foreground(ErrorColor).
				Padding(0, 1)

	// Footer
	FooterStyle = BaseStyle.
			Foreground(MutedColor).
			Padding(0, 1)

	// Sidebar
	SidebarPaneStyle = BaseStyle.
				Border(lipgloss.RoundedBorder()).
				BorderForeground(BorderColor).
				Padding(0, 1)

	SidebarFocusedPaneStyle = SidebarPaneStyle.
				BorderForeground(PrimaryColor)

	SidebarTitleStyle = BaseStyle.
				Bold(true).
				Foreground(PrimaryColor)

	SelectedItemStyle = BaseStyle.
				Foreground(PrimaryColor).
				Bold(true)

	UnselectedItemStyle = BaseStyle.
				Foreground(TextColor)

	ActiveItemStyle = BaseStyle.
			Foreground(SuccessColor)

	UnreadDotStyle = BaseStyle.
			Foreground(UnreadColor)

	// Chat pane
	ChatPaneStyle = BaseStyle.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	ChatTitleStyle = BaseStyle.
			Bold(true).
			Foreground(PrimaryColor)

	// Messages
	MessageAuthorStyle = BaseStyle.
				Foreground(SecondaryColor).
				Bold(true)

	MessageOwnAuthorStyle = BaseStyle.
				Foreground(SuccessColor).
				Bold(true)

	MessageTimeStyle = BaseStyle.
				Foreground(MutedColor).
				Italic(true)

	MessagePendingStyle = BaseStyle.
				Foreground(MutedColor).
				Italic(true)

	// Input
	InputFocusedStyle = BaseStyle.
				Border(lipgloss.RoundedBorder()).
				BorderForeground(PrimaryColor).
				Padding(0, 1)

	InputBlurredStyle = BaseStyle.
				Border(lipgloss.RoundedBorder()).
				BorderForeground(BorderColor).
				Foreground(MutedColor).
				Padding(0, 1)

	ErrorStyle = BaseStyle.
			Foreground(ErrorColor).
			Bold(true)

	MutedTextStyle = BaseStyle.
			Foreground(MutedColor)

	SpinnerStyle = BaseStyle.
			Foreground(PrimaryColor)
)

// RenderError renders an error message
func RenderError(msg string) string {
	return ErrorStyle.Render("✗ " + msg)
}
