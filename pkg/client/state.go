package client

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	keyLastChannel = "last_channel_id"
	keyUserID      = "user_id"
	keyFirstRun    = "first_run_complete"
)

// State manages client-side persistent UI state: preferences and read markers.
// Chat content is never written here.
type State struct {
	db  *sql.DB
	dir string // Directory where state is stored
}

// OpenState opens or creates the client state database
func OpenState(path string, logger *zap.Logger) (*State, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	// One connection is plenty for a single UI
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := migrateState(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &State{db: db, dir: dir}, nil
}

func (s *State) Close() error {
	return s.db.Close()
}

// GetConfig retrieves a configuration value, "" when unset
func (s *State) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM Config WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (s *State) SetConfig(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO Config (key, value) VALUES (?, ?)`, key, value)
	return err
}

// GetLastChannel returns the channel selected when the client last exited
func (s *State) GetLastChannel() string {
	id, _ := s.GetConfig(keyLastChannel)
	return id
}

func (s *State) SetLastChannel(channelID string) error {
	return s.SetConfig(keyLastChannel, channelID)
}

// GetUserID returns the id of the last authenticated user
func (s *State) GetUserID() *uint64 {
	raw, _ := s.GetConfig(keyUserID)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func (s *State) SetUserID(userID *uint64) error {
	if userID == nil {
		return s.SetConfig(keyUserID, "")
	}
	return s.SetConfig(keyUserID, strconv.FormatUint(*userID, 10))
}

// GetReadState returns when a channel was last read, zero time if never
func (s *State) GetReadState(channelID string) (time.Time, error) {
	var lastReadAt int64
	err := s.db.QueryRow(`SELECT last_read_at FROM ReadState WHERE channel_id = ?`, channelID).Scan(&lastReadAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(lastReadAt), nil
}

// UpdateReadState records that a channel was read at t. Older markers never
// replace newer ones.
func (s *State) UpdateReadState(channelID string, t time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO ReadState (channel_id, last_read_at) VALUES (?, ?)
		ON CONFLICT(channel_id) DO UPDATE SET last_read_at = MAX(last_read_at, excluded.last_read_at)
	`, channelID, t.UnixMilli())
	return err
}

// GetFirstRun checks if this is the first time running the client
func (s *State) GetFirstRun() bool {
	val, _ := s.GetConfig(keyFirstRun)
	return val != "true"
}

func (s *State) SetFirstRunComplete() error {
	return s.SetConfig(keyFirstRun, "true")
}

// GetStateDir returns the directory where state is stored
func (s *State) GetStateDir() string {
	return s.dir
}

// SaveAvatar stores the current user's profile picture next to the state
// database and returns its path
func SaveAvatar(dir string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty avatar")
	}
	path := filepath.Join(dir, "avatar")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save avatar: %w", err)
	}
	return path, nil
}
