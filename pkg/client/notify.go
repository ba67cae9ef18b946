package client

import (
	"sync"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

// DesktopNotifier sends notifications through the OS notification service
type DesktopNotifier struct {
	logger *zap.Logger

	mu   sync.Mutex
	icon string // path to an image, "" for the system default
}

func NewDesktopNotifier(logger *zap.Logger) *DesktopNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DesktopNotifier{logger: logger}
}

func (n *DesktopNotifier) Notify(title, message string) error {
	if err := beeep.Notify(title, message, n.iconPath()); err != nil {
		n.logger.Debug("desktop notification failed", zap.Error(err))
		return err
	}
	return nil
}

func (n *DesktopNotifier) SetIcon(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.icon = path
}

func (n *DesktopNotifier) iconPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.icon
}

// Alert is a notification that also plays a sound
func (n *DesktopNotifier) Alert(title, message string) error {
	if err := beeep.Alert(title, message, n.iconPath()); err != nil {
		n.logger.Debug("desktop alert failed", zap.Error(err))
		return err
	}
	return nil
}

// NopNotifier drops every notification
type NopNotifier struct{}

func (NopNotifier) Notify(string, string) error { return nil }
func (NopNotifier) Alert(string, string) error  { return nil }
func (NopNotifier) SetIcon(string)              {}

// NewNotifier returns a desktop notifier when enabled, otherwise a no-op
func NewNotifier(enabled bool, logger *zap.Logger) Notifier {
	if !enabled {
		return NopNotifier{}
	}
	return NewDesktopNotifier(logger)
}
