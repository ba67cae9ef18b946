package client

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeolun/clicklite/pkg/clickup"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAccessToken, EnvToken, EnvWorkspaceID, EnvTeamID} {
		t.Setenv(key, "")
	}
}

func TestDefaultTOMLConfig(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")

	cfg := DefaultTOMLConfig()

	assert.Equal(t, clickup.DefaultV2URL, cfg.ClickUp.APIV2URL)
	assert.Equal(t, clickup.DefaultV3URL, cfg.ClickUp.APIV3URL)
	assert.Equal(t, filepath.Join("/data", "clicklite", "state.db"), cfg.Local.StateDB)
	assert.Equal(t, filepath.Join("/state", "clicklite", "clicklite.log"), cfg.Logging.File)
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval())
	assert.Equal(t, clickup.DefaultTimeout, cfg.RequestTimeout())
	assert.Equal(t, "relative", cfg.UI.TimestampFormat)
	assert.Equal(t, "auto", cfg.UI.MarkdownStyle)
	assert.NoError(t, validateConfig(&cfg))
}

func TestLoadClientConfig_WritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTOMLConfig(), cfg)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# clicklite configuration")
	assert.Contains(t, string(data), "[clickup]")
	assert.NotContains(t, strings.ToLower(string(data)), "token =", "the token is never written to disk")

	// The written file loads back to the same values
	again, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadClientConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sync]\nrefresh_interval_seconds = 30\n\n[clickup]\nworkspace_id = 123\n"), 0o644))

	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.RefreshInterval())
	assert.Equal(t, uint64(123), cfg.ClickUp.WorkspaceID)
	assert.Equal(t, clickup.DefaultV3URL, cfg.ClickUp.APIV3URL)
	assert.True(t, cfg.UI.ShowTimestamps)
}

func TestLoadClientConfig_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sync]\nrefresh_interval_seconds = = 3\n"), 0o644))

	_, err := LoadClientConfig(path)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, path, cfgErr.Path)
	assert.Equal(t, 2, cfgErr.LineNumber)
	assert.False(t, strings.HasPrefix(cfgErr.Message, "toml: "))
}

func TestLoadClientConfig_ValidationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[clickup]\napi_v3_url = \"ftp://nope\"\nchannel_page_size = 500\n\n[ui]\ntimestamp_format = \"sometimes\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadClientConfig(path)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Zero(t, cfgErr.LineNumber)
	assert.Contains(t, cfgErr.Message, "api_v3_url")
	assert.Contains(t, cfgErr.Message, "channel page size: 500")
	assert.Contains(t, cfgErr.Message, "timestamp format")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TOMLConfig)
		wantErr string
	}{
		{"zero refresh", func(c *TOMLConfig) { c.Sync.RefreshIntervalSeconds = 0 }, "refresh interval"},
		{"zero timeout", func(c *TOMLConfig) { c.ClickUp.RequestTimeoutSeconds = 0 }, "Request timeout"},
		{"negative rpm", func(c *TOMLConfig) { c.ClickUp.RequestsPerMinute = -1 }, "Requests per minute"},
		{"bad style", func(c *TOMLConfig) { c.UI.MarkdownStyle = "neon" }, "markdown style"},
		{"empty db", func(c *TOMLConfig) { c.Local.StateDB = "  " }, "State database"},
		{"unlimited rpm", func(c *TOMLConfig) { c.ClickUp.RequestsPerMinute = 0 }, ""},
		{"empty timestamp format", func(c *TOMLConfig) { c.UI.TimestampFormat = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTOMLConfig()
			tt.mutate(&cfg)
			err := validateConfig(&cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExtractLineNumber(t *testing.T) {
	assert.Equal(t, 12, extractLineNumber("toml: line 12 (last key \"x\"): expected value"))
	assert.Equal(t, 0, extractLineNumber("something else"))
}

func TestResolveCredentials(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		clearCredentialEnv(t)

		_, err := ResolveCredentials(DefaultTOMLConfig())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CLICKUP_ACCESS_TOKEN")
	})

	t.Run("token fallback and team id", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv(EnvToken, " pk_abc ")
		t.Setenv(EnvTeamID, "77")

		creds, err := ResolveCredentials(DefaultTOMLConfig())
		require.NoError(t, err)
		assert.Equal(t, "pk_abc", creds.Token)
		assert.Equal(t, uint64(77), creds.WorkspaceID)
	})

	t.Run("env workspace wins over file", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv(EnvAccessToken, "pk_main")
		t.Setenv(EnvWorkspaceID, "5")
		cfg := DefaultTOMLConfig()
		cfg.ClickUp.WorkspaceID = 9

		creds, err := ResolveCredentials(cfg)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), creds.WorkspaceID)
	})

	t.Run("file workspace", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv(EnvAccessToken, "pk_main")
		cfg := DefaultTOMLConfig()
		cfg.ClickUp.WorkspaceID = 9

		creds, err := ResolveCredentials(cfg)
		require.NoError(t, err)
		assert.Equal(t, uint64(9), creds.WorkspaceID)
	})

	t.Run("missing workspace keeps token", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv(EnvAccessToken, "pk_main")

		creds, err := ResolveCredentials(DefaultTOMLConfig())
		require.Error(t, err)
		assert.Equal(t, "pk_main", creds.Token)
		assert.Contains(t, err.Error(), "CLICKUP_WORKSPACE_ID")
	})

	t.Run("non numeric workspace", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv(EnvAccessToken, "pk_main")
		t.Setenv(EnvWorkspaceID, "abc")

		creds, err := ResolveCredentials(DefaultTOMLConfig())
		require.Error(t, err)
		assert.Equal(t, "pk_main", creds.Token)
		assert.Contains(t, err.Error(), "must be numeric")
	})
}

func TestResetConfigToDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is not toml ["), 0o644))

	require.NoError(t, ResetConfigToDefault(path, true))

	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTOMLConfig(), cfg)

	backup := path + ".backup-" + time.Now().Format("2006-01-02")
	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "this is not toml [", string(data))
}

func TestConfigError_Error(t *testing.T) {
	assert.Equal(t, "bad value (line 3)", (&ConfigError{Message: "bad value", LineNumber: 3}).Error())
	assert.Equal(t, "bad value", (&ConfigError{Message: "bad value"}).Error())
}
