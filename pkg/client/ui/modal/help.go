package modal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModal lists the keys available in the current context
type HelpModal struct {
	entries [][]string // [key, description] pairs
}

func NewHelpModal(entries [][]string) *HelpModal {
	return &HelpModal{entries: entries}
}

func (m *HelpModal) Type() ModalType {
	return ModalHelp
}

func (m *HelpModal) HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd) {
	switch msg.String() {
	case "esc", "?", "f1", "q":
		return true, nil, nil
	default:
		// Swallow everything else so typing doesn't leak into the input below
		return true, m, nil
	}
}

func (m *HelpModal) Render(width, height int) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginBottom(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("213")).
		Width(18)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	hintStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Italic(true)

	lines := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		lines = append(lines, keyStyle.Render(e[0])+" "+descStyle.Render(e[1]))
	}
	if len(lines) == 0 {
		lines = append(lines, hintStyle.Render("No shortcuts here"))
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		strings.Join(lines, "\n"),
		"",
		hintStyle.Render("[Esc] close"),
	)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("39")).
		Padding(1, 2).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func (m *HelpModal) IsBlockingInput() bool {
	return true
}
