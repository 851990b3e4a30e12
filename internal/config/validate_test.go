// internal/config/validate_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/taskwatch/internal/screen"
)

// helper to build a valid config quickly
func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{APIID: 12345, APIHash: "abcdef"},
		Monitor: MonitorConfig{
			Target:       "@vankedisicoin_bot",
			PollInterval: 2 * time.Minute,
			LookBack:     3,
			Pause:        2 * time.Second,
			Threshold:    0.6,
			ServiceName:  "Vankedisi",
		},
		Notify:     NotifyConfig{Destination: "https://t.me/+AbCdEf123"},
		Resilience: ResilienceConfig{RetryBound: 5, RetryDelay: 10 * time.Second, RestartCooldown: time.Minute},
		Screens:    ScreensConfig{Markers: screen.DefaultMarkers(), Labels: screen.DefaultLabels()},
	}
}

// ---- Validate ----

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing api id", func(c *Config) { c.Telegram.APIID = 0 }},
		{"missing api hash", func(c *Config) { c.Telegram.APIHash = "  " }},
		{"missing destination", func(c *Config) { c.Notify.Destination = "" }},
		{"bad destination", func(c *Config) { c.Notify.Destination = "not a chat" }},
		{"bad owner", func(c *Config) { c.Notify.Owner = "@x" }},
		{"zero interval", func(c *Config) { c.Monitor.PollInterval = 0 }},
		{"zero look back", func(c *Config) { c.Monitor.LookBack = 0 }},
		{"threshold above one", func(c *Config) { c.Monitor.Threshold = 1.5 }},
		{"zero retry bound", func(c *Config) { c.Resilience.RetryBound = 0 }},
		{"empty marker", func(c *Config) { c.Screens.Markers.Bullet = "" }},
		{"empty label", func(c *Config) { c.Screens.Labels.Tasks = "" }},
		{"non ascii device name", func(c *Config) {
			c.StatusExport = StatusExportConfig{Endpoint: "127.0.0.1:502", DeviceName: "wätcher"}
		}},
		{"status block past register space", func(c *Config) {
			c.StatusExport = StatusExportConfig{Endpoint: "127.0.0.1:502", BaseSlot: 3300}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := validConfig()
	cfg.StatusExport = StatusExportConfig{Endpoint: "127.0.0.1:502", DeviceName: "a-very-long-device-name"}
	before := *cfg

	require.NoError(t, Validate(cfg))
	assert.Equal(t, before, *cfg)
}

// ---- Normalize ----

func TestNormalize_TruncatesDeviceName(t *testing.T) {
	cfg := validConfig()
	cfg.StatusExport = StatusExportConfig{Endpoint: "127.0.0.1:502", DeviceName: "0123456789abcdefXYZ"}
	cfg.Notify.Destination = "  @alerts_room "

	Normalize(cfg)
	assert.Equal(t, "0123456789abcdef", cfg.StatusExport.DeviceName)
	assert.Equal(t, "@alerts_room", cfg.Notify.Destination)
}

// ---- FromViper ----

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	require.NoError(t, BindEnv(v))
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, "@vankedisicoin_bot", cfg.Monitor.Target)
	assert.Equal(t, 2*time.Minute, cfg.Monitor.PollInterval)
	assert.Equal(t, 3, cfg.Monitor.LookBack)
	assert.Equal(t, 0.6, cfg.Monitor.Threshold)
	assert.Equal(t, 5, cfg.Resilience.RetryBound)
	assert.Equal(t, 10*time.Second, cfg.Resilience.RetryDelay)
	assert.Equal(t, time.Minute, cfg.Resilience.RestartCooldown)
	assert.Equal(t, ":8080", cfg.Health.Addr)
	assert.False(t, cfg.StatusExport.Enabled())
	assert.Equal(t, screen.DefaultMarkers(), cfg.Screens.Markers)
}

func TestFromViper_LegacyEnv(t *testing.T) {
	t.Setenv("API_ID", "777")
	t.Setenv("API_HASH", "deadbeef")
	t.Setenv("NOT", "@alerts_room")
	t.Setenv("TASKWATCH_MONITOR_POLL_INTERVAL", "45s")

	cfg, err := FromViper(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, 777, cfg.Telegram.APIID)
	assert.Equal(t, "deadbeef", cfg.Telegram.APIHash)
	assert.Equal(t, "@alerts_room", cfg.Notify.Destination)
	assert.Equal(t, 45*time.Second, cfg.Monitor.PollInterval)
}

func TestFromViper_PrefixedEnvWinsOverLegacy(t *testing.T) {
	t.Setenv("NOT", "@legacy_room")
	t.Setenv("TASKWATCH_NOTIFY_DESTINATION", "@new_room")

	cfg, err := FromViper(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, "@new_room", cfg.Notify.Destination)
}

func TestLoadScreens_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("markers:\n  task_list: \"Open Quests\"\nlabels:\n  tasks: \"quests\"\n"), 0o600))

	sc := ScreensConfig{Markers: screen.DefaultMarkers(), Labels: screen.DefaultLabels()}
	require.NoError(t, LoadScreens(path, &sc))

	assert.Equal(t, "Open Quests", sc.Markers.TaskList)
	assert.Equal(t, "Task Panel", sc.Markers.TaskPanel)
	assert.Equal(t, "quests", sc.Labels.Tasks)
	assert.Equal(t, "main menu", sc.Labels.MainMenu)
}

func TestLoadScreens_MissingFile(t *testing.T) {
	sc := ScreensConfig{}
	assert.Error(t, LoadScreens(filepath.Join(t.TempDir(), "nope.yaml"), &sc))
}

func TestLoadDotEnv_MissingIsFine(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}
