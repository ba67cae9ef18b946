package client

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/aeolun/clicklite/pkg/clickup"
)

const (
	EnvAccessToken = "CLICKUP_ACCESS_TOKEN"
	EnvToken       = "CLICKUP_TOKEN"
	EnvWorkspaceID = "CLICKUP_WORKSPACE_ID"
	EnvTeamID      = "CLICKUP_TEAM_ID"
)

// TOMLConfig represents the structure of the client config file
type TOMLConfig struct {
	ClickUp ClickUpSection `toml:"clickup"`
	Sync    SyncSection    `toml:"sync"`
	Local   LocalSection   `toml:"local"`
	UI      UISection      `toml:"ui"`
	Logging LoggingSection `toml:"logging"`
}

type ClickUpSection struct {
	APIV2URL              string `toml:"api_v2_url"`
	APIV3URL              string `toml:"api_v3_url"`
	WorkspaceID           uint64 `toml:"workspace_id"` // 0 means "take it from the environment"
	ChannelPageSize       int    `toml:"channel_page_size"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	RequestsPerMinute     int    `toml:"requests_per_minute"`
}

type SyncSection struct {
	RefreshIntervalSeconds int `toml:"refresh_interval_seconds"`
}

type LocalSection struct {
	StateDB string `toml:"state_db"`
}

type UISection struct {
	ShowTimestamps       bool   `toml:"show_timestamps"`
	TimestampFormat      string `toml:"timestamp_format"` // 'relative' or 'absolute'
	DesktopNotifications bool   `toml:"desktop_notifications"`
	MarkdownStyle        string `toml:"markdown_style"` // 'auto', 'dark', 'light' or 'notty'
}

type LoggingSection struct {
	File  string `toml:"file"`
	Debug bool   `toml:"debug"`
}

// ConfigError represents a structured configuration error
type ConfigError struct {
	Path       string
	Message    string
	LineNumber int // 0 if not a parse error
}

func (e *ConfigError) Error() string {
	if e.LineNumber > 0 {
		return fmt.Sprintf("%s (line %d)", e.Message, e.LineNumber)
	}
	return e.Message
}

// Credentials are read from the environment only and never written to disk
type Credentials struct {
	Token       string
	WorkspaceID uint64
}

func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(append([]string{homeDir}, fallback...)...)
}

// DefaultConfigPath is $XDG_CONFIG_HOME/clicklite/config.toml
func DefaultConfigPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "clicklite", "config.toml")
}

// DefaultTOMLConfig returns the default TOML configuration
func DefaultTOMLConfig() TOMLConfig {
	dataHome := xdgDir("XDG_DATA_HOME", ".local", "share")
	stateHome := xdgDir("XDG_STATE_HOME", ".local", "state")

	return TOMLConfig{
		ClickUp: ClickUpSection{
			APIV2URL:              clickup.DefaultV2URL,
			APIV3URL:              clickup.DefaultV3URL,
			ChannelPageSize:       clickup.DefaultChannelPageSize,
			RequestTimeoutSeconds: int(clickup.DefaultTimeout / time.Second),
			RequestsPerMinute:     clickup.DefaultRequestsPerMinute,
		},
		Sync: SyncSection{
			RefreshIntervalSeconds: 5,
		},
		Local: LocalSection{
			StateDB: filepath.Join(dataHome, "clicklite", "state.db"),
		},
		UI: UISection{
			ShowTimestamps:       true,
			TimestampFormat:      "relative",
			DesktopNotifications: true,
			MarkdownStyle:        "auto",
		},
		Logging: LoggingSection{
			File: filepath.Join(stateHome, "clicklite", "clicklite.log"),
		},
	}
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, path[2:]), nil
}

// LoadClientConfig loads configuration from a TOML file, creates default if not found.
// Keys missing from the file keep their default values.
func LoadClientConfig(path string) (TOMLConfig, error) {
	path, err := expandHome(path)
	if err != nil {
		return TOMLConfig{}, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		config := DefaultTOMLConfig()
		// An unwritable config dir is not fatal; run with defaults
		_ = writeDefaultConfig(path, config)
		return config, nil
	}

	config := DefaultTOMLConfig()
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return TOMLConfig{}, &ConfigError{
			Path:       path,
			Message:    cleanErrorMessage(err.Error()),
			LineNumber: extractLineNumber(err.Error()),
		}
	}

	if err := validateConfig(&config); err != nil {
		return TOMLConfig{}, &ConfigError{
			Path:    path,
			Message: err.Error(),
		}
	}

	return config, nil
}

var lineNumberPattern = regexp.MustCompile(`line (\d+)`)

// extractLineNumber tries to extract a line number from a TOML parse error
func extractLineNumber(errMsg string) int {
	matches := lineNumberPattern.FindStringSubmatch(errMsg)
	if len(matches) > 1 {
		if num, err := strconv.Atoi(matches[1]); err == nil {
			return num
		}
	}
	return 0
}

func cleanErrorMessage(errMsg string) string {
	return strings.TrimPrefix(errMsg, "toml: ")
}

// validateConfig collects every problem so the user can fix them in one go
func validateConfig(config *TOMLConfig) error {
	var problems []string

	for _, u := range []struct{ name, value string }{
		{"api_v2_url", config.ClickUp.APIV2URL},
		{"api_v3_url", config.ClickUp.APIV3URL},
	} {
		if !strings.HasPrefix(u.value, "http://") && !strings.HasPrefix(u.value, "https://") {
			problems = append(problems, fmt.Sprintf("Invalid %s: %q (must start with http:// or https://)", u.name, u.value))
		}
	}

	if config.ClickUp.ChannelPageSize < 1 || config.ClickUp.ChannelPageSize > 100 {
		problems = append(problems, fmt.Sprintf("Invalid channel page size: %d (must be 1-100)", config.ClickUp.ChannelPageSize))
	}

	if config.ClickUp.RequestTimeoutSeconds < 1 {
		problems = append(problems, "Request timeout must be at least 1 second")
	}

	if config.ClickUp.RequestsPerMinute < 0 {
		problems = append(problems, "Requests per minute cannot be negative")
	}

	if config.Sync.RefreshIntervalSeconds < 1 {
		problems = append(problems, fmt.Sprintf("Invalid refresh interval: %d (must be at least 1 second)", config.Sync.RefreshIntervalSeconds))
	}

	if config.UI.TimestampFormat != "" && config.UI.TimestampFormat != "relative" && config.UI.TimestampFormat != "absolute" {
		problems = append(problems, fmt.Sprintf("Invalid timestamp format: %q (must be 'relative' or 'absolute')", config.UI.TimestampFormat))
	}

	switch config.UI.MarkdownStyle {
	case "", "auto", "dark", "light", "notty":
	default:
		problems = append(problems, fmt.Sprintf("Invalid markdown style: %q (must be 'auto', 'dark', 'light' or 'notty')", config.UI.MarkdownStyle))
	}

	if strings.TrimSpace(config.Local.StateDB) == "" {
		problems = append(problems, "State database path cannot be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("Configuration validation failed:\n  • %s", strings.Join(problems, "\n  • "))
	}

	return nil
}

// writeDefaultConfig writes the default config to a file
func writeDefaultConfig(path string, config TOMLConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	header := `# clicklite configuration
# This file was auto-generated with default values.
# The API token is read from CLICKUP_ACCESS_TOKEN (or CLICKUP_TOKEN) and is never stored here.

`
	if _, err := f.WriteString(header); err != nil {
		return err
	}

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// GetStateDBPath returns the state database path with ~ expanded
func (c *TOMLConfig) GetStateDBPath() (string, error) {
	return expandHome(c.Local.StateDB)
}

// GetLogPath returns the log file path with ~ expanded
func (c *TOMLConfig) GetLogPath() (string, error) {
	return expandHome(c.Logging.File)
}

func (c *TOMLConfig) RequestTimeout() time.Duration {
	return time.Duration(c.ClickUp.RequestTimeoutSeconds) * time.Second
}

func (c *TOMLConfig) RefreshInterval() time.Duration {
	return time.Duration(c.Sync.RefreshIntervalSeconds) * time.Second
}

// ResolveCredentials reads the token and workspace id from the environment.
// The environment workspace id wins over the config file.
func ResolveCredentials(config TOMLConfig) (Credentials, error) {
	token := firstEnv(EnvAccessToken, EnvToken)
	if token == "" {
		return Credentials{}, &ConfigError{Message: "missing CLICKUP_ACCESS_TOKEN (or CLICKUP_TOKEN) in environment"}
	}

	workspaceID := config.ClickUp.WorkspaceID
	if raw := firstEnv(EnvWorkspaceID, EnvTeamID); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Credentials{Token: token}, &ConfigError{Message: fmt.Sprintf("Invalid CLICKUP_WORKSPACE_ID %q (must be numeric)", raw)}
		}
		workspaceID = id
	}
	if workspaceID == 0 {
		return Credentials{Token: token}, &ConfigError{Message: "Missing CLICKUP_WORKSPACE_ID (or CLICKUP_TEAM_ID) in .env"}
	}

	return Credentials{Token: token, WorkspaceID: workspaceID}, nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// ResetConfigToDefault resets the config file to default values.
// If backup is true, the old file is copied aside first.
func ResetConfigToDefault(path string, backup bool) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}

	if backup {
		backupPath := fmt.Sprintf("%s.backup-%s", path, time.Now().Format("2006-01-02"))
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		if err := os.WriteFile(backupPath, data, 0644); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	if err := writeDefaultConfig(path, DefaultTOMLConfig()); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}
