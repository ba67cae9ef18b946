package ui

import "github.com/aeolun/clicklite/pkg/clickup"

// SafeUsername names the user, or "Not connected" before one is known
func SafeUsername(u *clickup.User) string {
	if u == nil {
		return "Not connected"
	}
	return u.DisplayName()
}

// HasCurrentChannel checks if a channel is open
func (m Model) HasCurrentChannel() bool {
	_, ok := m.session.Channel()
	return ok
}

// CurrentChannelID returns the open channel's id, "" if none
func (m Model) CurrentChannelID() string {
	ch, ok := m.session.Channel()
	if !ok {
		return ""
	}
	return ch.ID
}
