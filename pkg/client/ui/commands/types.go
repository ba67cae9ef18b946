// Package commands maps key presses to actions and derives the footer and
// help text from the same definitions.
package commands

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aeolun/clicklite/pkg/client/ui/modal"
)

// Command is a single key binding
type Command struct {
	// Keys that trigger this command, in bubbletea's KeyMsg.String() form
	Keys []string

	// Name is shown in the footer; commands without one are help-only
	Name string

	HelpText string

	Scope CommandScope

	// ViewStates lists the focus states the command is active in
	ViewStates []int

	// ModalStates lists the modals the command stays active under.
	// Empty means any; []modal.ModalType{modal.ModalNone} means only without a modal.
	ModalStates []modal.ModalType

	// IsAvailable receives the UI model. nil means always available.
	IsAvailable func(interface{}) bool

	// Execute receives the UI model and returns it, possibly modified
	Execute func(interface{}) (interface{}, tea.Cmd)

	// Priority orders footer and help entries, lowest first
	Priority int

	// HideInFooter keeps the command out of the footer but in help
	HideInFooter bool
}

type CommandScope int

const (
	ScopeGlobal CommandScope = iota
	ScopeView
)

// FooterText renders "[keys] Name", e.g. "[Tab] Switch" or "[↑/↓] Navigate"
func (c *Command) FooterText() string {
	if c.Name == "" || len(c.Keys) == 0 || c.HideInFooter {
		return ""
	}
	return "[" + c.KeyDisplay() + "] " + c.Name
}

// KeyDisplay joins the formatted keys with "/"
func (c *Command) KeyDisplay() string {
	formatted := make([]string, len(c.Keys))
	for i, k := range c.Keys {
		formatted[i] = FormatKey(k)
	}
	return strings.Join(formatted, "/")
}

// FormatKey converts a key string to its display form
func FormatKey(key string) string {
	switch key {
	case "up":
		return "↑"
	case "down":
		return "↓"
	case "left":
		return "←"
	case "right":
		return "→"
	case "enter":
		return "Enter"
	case "esc":
		return "Esc"
	case "tab":
		return "Tab"
	case "shift+tab":
		return "Shift+Tab"
	case "pgup":
		return "PgUp"
	case "pgdown":
		return "PgDn"
	case "home":
		return "Home"
	case "end":
		return "End"
	}

	if rest, ok := strings.CutPrefix(key, "ctrl+"); ok {
		return "Ctrl+" + strings.ToUpper(rest)
	}
	if len(key) > 1 && key[0] == 'f' {
		return strings.ToUpper(key)
	}
	return key
}

// CommandBuilder builds a Command fluently
type CommandBuilder struct {
	cmd Command
}

// NewCommand starts a view-scoped command with default priority
func NewCommand() *CommandBuilder {
	return &CommandBuilder{
		cmd: Command{
			Scope:    ScopeView,
			Priority: 100,
		},
	}
}

func (b *CommandBuilder) Keys(keys ...string) *CommandBuilder {
	b.cmd.Keys = keys
	return b
}

func (b *CommandBuilder) Name(name string) *CommandBuilder {
	b.cmd.Name = name
	return b
}

func (b *CommandBuilder) Help(text string) *CommandBuilder {
	b.cmd.HelpText = text
	return b
}

// Global makes the command available in every view
func (b *CommandBuilder) Global() *CommandBuilder {
	b.cmd.Scope = ScopeGlobal
	return b
}

func (b *CommandBuilder) InViews(views ...int) *CommandBuilder {
	b.cmd.ViewStates = views
	return b
}

func (b *CommandBuilder) InModals(modals ...modal.ModalType) *CommandBuilder {
	b.cmd.ModalStates = modals
	return b
}

func (b *CommandBuilder) When(fn func(interface{}) bool) *CommandBuilder {
	b.cmd.IsAvailable = fn
	return b
}

func (b *CommandBuilder) Do(fn func(interface{}) (interface{}, tea.Cmd)) *CommandBuilder {
	b.cmd.Execute = fn
	return b
}

func (b *CommandBuilder) Priority(p int) *CommandBuilder {
	b.cmd.Priority = p
	return b
}

func (b *CommandBuilder) HideInFooter() *CommandBuilder {
	b.cmd.HideInFooter = true
	return b
}

func (b *CommandBuilder) Build() Command {
	return b.cmd
}
