package client

import (
	"strconv"
	"sync"
	"time"
)

// MockState is an in-memory test implementation of StateInterface
type MockState struct {
	mu sync.RWMutex

	// In-memory storage
	config    map[string]string
	readState map[string]time.Time
	dir       string

	// Error injection
	getConfigErr           error
	setConfigErr           error
	getReadStateErr        error
	updateReadStateErr     error
	setFirstRunCompleteErr error
}

// NewMockState creates a new mock state
func NewMockState() *MockState {
	return &MockState{
		config:    make(map[string]string),
		readState: make(map[string]time.Time),
		dir:       "/tmp/mock-state",
	}
}

func (s *MockState) GetConfig(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.getConfigErr != nil {
		return "", s.getConfigErr
	}
	return s.config[key], nil
}

func (s *MockState) SetConfig(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.setConfigErr != nil {
		return s.setConfigErr
	}
	s.config[key] = value
	return nil
}

func (s *MockState) GetLastChannel() string {
	id, _ := s.GetConfig(keyLastChannel)
	return id
}

func (s *MockState) SetLastChannel(channelID string) error {
	return s.SetConfig(keyLastChannel, channelID)
}

func (s *MockState) GetUserID() *uint64 {
	raw, _ := s.GetConfig(keyUserID)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func (s *MockState) SetUserID(userID *uint64) error {
	if userID == nil {
		return s.SetConfig(keyUserID, "")
	}
	return s.SetConfig(keyUserID, strconv.FormatUint(*userID, 10))
}

func (s *MockState) GetReadState(channelID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.getReadStateErr != nil {
		return time.Time{}, s.getReadStateErr
	}
	return s.readState[channelID], nil
}

// UpdateReadState keeps the newest marker, like the sqlite implementation
func (s *MockState) UpdateReadState(channelID string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updateReadStateErr != nil {
		return s.updateReadStateErr
	}
	if existing, ok := s.readState[channelID]; ok && existing.After(t) {
		return nil
	}
	s.readState[channelID] = t
	return nil
}

func (s *MockState) GetFirstRun() bool {
	val, _ := s.GetConfig(keyFirstRun)
	return val != "true"
}

func (s *MockState) SetFirstRunComplete() error {
	if s.setFirstRunCompleteErr != nil {
		return s.setFirstRunCompleteErr
	}
	return s.SetConfig(keyFirstRun, "true")
}

func (s *MockState) GetStateDir() string {
	return s.dir
}

// Close closes the mock state (no-op for in-memory)
func (s *MockState) Close() error {
	return nil
}

// Test helpers

func (s *MockState) SetGetConfigError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getConfigErr = err
}

func (s *MockState) SetSetConfigError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setConfigErr = err
}

func (s *MockState) SetGetReadStateError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getReadStateErr = err
}

func (s *MockState) SetUpdateReadStateError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateReadStateErr = err
}

// GetAllReadState returns a copy of every read marker (for testing)
func (s *MockState) GetAllReadState() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]time.Time, len(s.readState))
	for k, v := range s.readState {
		result[k] = v
	}
	return result
}

// Verify that MockState implements StateInterface
var _ StateInterface = (*MockState)(nil)
