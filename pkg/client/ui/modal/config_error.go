package modal

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const configErrorWidth = 64

type configErrorStep int

const (
	stepShowError configErrorStep = iota
	stepConfirmBackup
)

// ConfigErrorModal explains a broken config file and offers to reset it
type ConfigErrorModal struct {
	path       string
	message    string
	lineNumber int // 0 unless the file failed to parse
	lines      []string
	step       configErrorStep

	onReset func(backup bool) tea.Cmd
	onQuit  func() tea.Cmd
}

func NewConfigErrorModal(path, message string, lineNumber int, onReset func(backup bool) tea.Cmd, onQuit func() tea.Cmd) *ConfigErrorModal {
	m := &ConfigErrorModal{
		path:       path,
		message:    message,
		lineNumber: lineNumber,
		onReset:    onReset,
		onQuit:     onQuit,
	}
	if lineNumber > 0 {
		m.lines = readLines(path)
	}
	return m
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func (m *ConfigErrorModal) Type() ModalType {
	return ModalConfigError
}

func (m *ConfigErrorModal) HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd) {
	key := strings.ToLower(msg.String())

	if m.step == stepConfirmBackup {
		switch key {
		case "y":
			return true, nil, m.reset(true)
		case "n":
			return true, nil, m.reset(false)
		case "esc", "c":
			m.step = stepShowError
		}
		return true, m, nil
	}

	switch key {
	case "r":
		m.step = stepConfirmBackup
		return true, m, nil
	case "q", "esc", "ctrl+c":
		var cmd tea.Cmd
		if m.onQuit != nil {
			cmd = m.onQuit()
		}
		return true, nil, cmd
	}
	return true, m, nil
}

func (m *ConfigErrorModal) reset(backup bool) tea.Cmd {
	if m.onReset == nil {
		return nil
	}
	return m.onReset(backup)
}

func (m *ConfigErrorModal) Render(width, height int) string {
	accent := lipgloss.Color("39")
	danger := lipgloss.Color("196")
	muted := lipgloss.Color("243")

	center := lipgloss.NewStyle().Align(lipgloss.Center).Width(configErrorWidth)

	var body []string
	if m.step == stepConfirmBackup {
		body = []string{
			center.Bold(true).Foreground(accent).Render("Back up the current config?"),
			"",
			center.Foreground(muted).Render(fmt.Sprintf("%s.backup-%s", m.path, time.Now().Format("2006-01-02"))),
			"",
			center.Foreground(muted).Render("[Y] back up and reset  [N] reset  [C] cancel"),
		}
	} else {
		body = []string{
			center.Bold(true).Foreground(danger).Render("Configuration File Error"),
			center.Foreground(muted).Render(m.path),
			"",
			lipgloss.NewStyle().Foreground(danger).Width(configErrorWidth).Render(m.message),
		}
		if ctx := m.lineContext(); ctx != "" {
			body = append(body, "", ctx)
		}
		body = append(body, "", center.Foreground(muted).Render("[R] reset to defaults  [Q] quit"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, body...))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// lineContext shows the offending line with two lines on either side
func (m *ConfigErrorModal) lineContext() string {
	if m.lineNumber <= 0 || len(m.lines) == 0 {
		return ""
	}

	numStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	start := max(0, m.lineNumber-3)
	end := min(len(m.lines), m.lineNumber+2)

	var out []string
	for i := start; i < end; i++ {
		text := runewidth.Truncate(m.lines[i], configErrorWidth-8, "…")
		prefix := numStyle.Render(fmt.Sprintf("%4d│ ", i+1))
		if i+1 == m.lineNumber {
			out = append(out, prefix+badStyle.Render(text))
		} else {
			out = append(out, prefix+text)
		}
	}
	return strings.Join(out, "\n")
}

func (m *ConfigErrorModal) IsBlockingInput() bool {
	return true
}
