package client

import "time"

// StateInterface defines the interface for client state persistence
// This allows for mocking in tests while the real State implements all these methods
type StateInterface interface {
	// Configuration
	GetConfig(key string) (string, error)
	SetConfig(key, value string) error

	// Session restore
	GetLastChannel() string
	SetLastChannel(channelID string) error
	GetUserID() *uint64
	SetUserID(userID *uint64) error

	// Read state tracking
	GetReadState(channelID string) (time.Time, error)
	UpdateReadState(channelID string, t time.Time) error

	// First run tracking
	GetFirstRun() bool
	SetFirstRunComplete() error

	// State directory
	GetStateDir() string

	Close() error
}

// Notifier shows desktop notifications
type Notifier interface {
	Notify(title, message string) error
	Alert(title, message string) error
	SetIcon(path string)
}
