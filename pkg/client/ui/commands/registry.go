package commands

import (
	"slices"
	"sort"
	"strings"

	"github.com/aeolun/clicklite/pkg/client/ui/modal"
)

// Registry holds every command and dispatches keys to them
type Registry struct {
	commands []*Command
	keyMap   map[string][]*Command
}

func NewRegistry() *Registry {
	return &Registry{keyMap: make(map[string][]*Command)}
}

// Register adds a command. When several commands share a key, the first
// registered one that is available wins.
func (r *Registry) Register(cmd Command) {
	c := &cmd
	r.commands = append(r.commands, c)
	for _, key := range c.Keys {
		r.keyMap[key] = append(r.keyMap[key], c)
	}
}

// GetCommand finds the command bound to key in the current context, or nil
func (r *Registry) GetCommand(key string, view int, activeModal modal.ModalType, model interface{}) *Command {
	for _, cmd := range r.keyMap[key] {
		if isAvailable(cmd, view, activeModal, model) {
			return cmd
		}
	}
	return nil
}

func isAvailable(cmd *Command, view int, activeModal modal.ModalType, model interface{}) bool {
	if activeModal != modal.ModalNone && len(cmd.ModalStates) > 0 && !slices.Contains(cmd.ModalStates, activeModal) {
		return false
	}
	if activeModal == modal.ModalNone && len(cmd.ModalStates) > 0 && !slices.Contains(cmd.ModalStates, modal.ModalNone) {
		return false
	}
	if cmd.Scope == ScopeView && len(cmd.ViewStates) > 0 && !slices.Contains(cmd.ViewStates, view) {
		return false
	}
	if cmd.IsAvailable != nil && !cmd.IsAvailable(model) {
		return false
	}
	return true
}

// GetAvailableCommands returns the commands usable right now, by priority
func (r *Registry) GetAvailableCommands(view int, activeModal modal.ModalType, model interface{}) []*Command {
	var available []*Command
	for _, cmd := range r.commands {
		if isAvailable(cmd, view, activeModal, model) {
			available = append(available, cmd)
		}
	}
	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Priority < available[j].Priority
	})
	return available
}

// GenerateFooter renders e.g. "[Tab] Switch  [Enter] Send  [Esc] Back"
func (r *Registry) GenerateFooter(view int, activeModal modal.ModalType, model interface{}) string {
	var parts []string
	seen := make(map[string]bool)
	for _, cmd := range r.GetAvailableCommands(view, activeModal, model) {
		text := cmd.FooterText()
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		parts = append(parts, text)
	}
	return strings.Join(parts, "  ")
}

// GenerateHelp returns [keys, description] pairs for the help modal
func (r *Registry) GenerateHelp(view int, activeModal modal.ModalType, model interface{}) [][]string {
	var help [][]string
	seen := make(map[string]bool)
	for _, cmd := range r.GetAvailableCommands(view, activeModal, model) {
		if len(cmd.Keys) == 0 || cmd.HelpText == "" {
			continue
		}
		keys := strings.Join(cmd.Keys, " / ")
		if seen[keys] {
			continue
		}
		seen[keys] = true
		help = append(help, []string{keys, cmd.HelpText})
	}
	return help
}
