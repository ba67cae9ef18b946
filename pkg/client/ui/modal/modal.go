// Package modal implements the overlays drawn on top of the chat screen.
package modal

import tea "github.com/charmbracelet/bubbletea"

// ModalType identifies a modal for command scoping
type ModalType int

const (
	ModalNone ModalType = iota
	ModalHelp
	ModalConfigError
)

func (t ModalType) String() string {
	switch t {
	case ModalNone:
		return "None"
	case ModalHelp:
		return "Help"
	case ModalConfigError:
		return "ConfigError"
	default:
		return "Unknown"
	}
}

// Modal is an overlay that owns keyboard input while it is on top
type Modal interface {
	Type() ModalType

	// HandleKey returns whether the key was consumed, the modal that should
	// replace this one (nil closes it) and an optional command
	HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd)

	Render(width, height int) string

	// IsBlockingInput reports whether keys must not reach the view below
	IsBlockingInput() bool
}

// ModalStack holds the open modals, last pushed on top
type ModalStack struct {
	modals []Modal
}

func (s *ModalStack) Push(m Modal) {
	s.modals = append(s.modals, m)
}

// Pop removes and returns the top modal, nil when empty
func (s *ModalStack) Pop() Modal {
	if len(s.modals) == 0 {
		return nil
	}
	top := s.modals[len(s.modals)-1]
	s.modals = s.modals[:len(s.modals)-1]
	return top
}

func (s *ModalStack) Top() Modal {
	if len(s.modals) == 0 {
		return nil
	}
	return s.modals[len(s.modals)-1]
}

// TopType returns ModalNone when no modal is open
func (s *ModalStack) TopType() ModalType {
	if top := s.Top(); top != nil {
		return top.Type()
	}
	return ModalNone
}

func (s *ModalStack) IsEmpty() bool {
	return len(s.modals) == 0
}

func (s *ModalStack) Size() int {
	return len(s.modals)
}

// HandleKey routes a key to the top modal and applies the replacement it asks for
func (s *ModalStack) HandleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	top := s.Top()
	if top == nil {
		return false, nil
	}

	handled, next, cmd := top.HandleKey(msg)
	if !handled {
		return top.IsBlockingInput(), cmd
	}

	s.modals = s.modals[:len(s.modals)-1]
	if next != nil {
		s.modals = append(s.modals, next)
	}
	return true, cmd
}
