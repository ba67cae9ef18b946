package client

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aeolun/clicklite/pkg/client/ui/modal"
)

// configErrorModel is a tiny program that only shows the config error modal
type configErrorModel struct {
	modal  modal.Modal
	path   string
	width  int
	height int

	resetDone bool
	resetErr  error
}

type configResetMsg struct{ err error }

func newConfigErrorModel(path string, cfgErr *ConfigError) *configErrorModel {
	m := &configErrorModel{path: path, width: 80, height: 24}
	m.modal = modal.NewConfigErrorModal(cfgErr.Path, cfgErr.Message, cfgErr.LineNumber, m.reset, func() tea.Cmd { return tea.Quit })
	return m
}

func (m *configErrorModel) reset(backup bool) tea.Cmd {
	return func() tea.Msg {
		return configResetMsg{err: ResetConfigToDefault(m.path, backup)}
	}
}

func (m *configErrorModel) Init() tea.Cmd {
	return nil
}

func (m *configErrorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		_, next, cmd := m.modal.HandleKey(msg)
		if next != nil {
			m.modal = next
		}
		return m, cmd

	case configResetMsg:
		m.resetDone = true
		m.resetErr = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m *configErrorModel) View() string {
	return m.modal.Render(m.width, m.height)
}

// HandleConfigError shows a TUI for a broken config file. It returns false
// when err is not a *ConfigError so the caller can report it plainly.
func HandleConfigError(path string, err error) bool {
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		return false
	}

	m := newConfigErrorModel(path, cfgErr)
	if _, runErr := tea.NewProgram(m, tea.WithAltScreen()).Run(); runErr != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return true
	}

	switch {
	case m.resetDone && m.resetErr != nil:
		fmt.Fprintf(os.Stderr, "✗ Failed to reset config: %v\n", m.resetErr)
	case m.resetDone:
		fmt.Println("✓ Configuration reset to defaults. Restart clicklite to continue.")
	}
	return true
}
