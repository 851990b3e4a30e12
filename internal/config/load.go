// internal/config/load.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tamzrod/taskwatch/internal/screen"
)

// EnvPrefix namespaces environment overrides: TASKWATCH_MONITOR_TARGET, ...
const EnvPrefix = "TASKWATCH"

// legacyEnv keeps the environment names the first deployments used.
var legacyEnv = map[string]string{
	"telegram.api_id":    "API_ID",
	"telegram.api_hash":  "API_HASH",
	"telegram.session":   "SESSION_STRING",
	"notify.destination": "NOT",
}

// SetDefaults registers every key with its default so that environment
// overrides are visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("telegram.api_id", 0)
	v.SetDefault("telegram.api_hash", "")
	v.SetDefault("telegram.session", "")

	v.SetDefault("monitor.target", "@vankedisicoin_bot")
	v.SetDefault("monitor.poll_interval", "2m")
	v.SetDefault("monitor.look_back", 3)
	v.SetDefault("monitor.pause", "2s")
	v.SetDefault("monitor.threshold", 0.6)
	v.SetDefault("monitor.service_name", "Vankedisi")
	v.SetDefault("monitor.start_command", "/start")

	v.SetDefault("notify.destination", "")
	v.SetDefault("notify.owner", "")
	v.SetDefault("notify.bot_token", "")

	v.SetDefault("resilience.retry_bound", 5)
	v.SetDefault("resilience.retry_delay", "10s")
	v.SetDefault("resilience.restart_cooldown", "60s")

	v.SetDefault("health.addr", ":8080")

	v.SetDefault("status_export.endpoint", "")
	v.SetDefault("status_export.unit_id", 1)
	v.SetDefault("status_export.base_slot", 0)
	v.SetDefault("status_export.device_name", "taskwatch")
	v.SetDefault("status_export.timeout", "2s")

	v.SetDefault("screens.file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)
}

// BindEnv wires TASKWATCH_* and the legacy names. The prefixed name wins.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// LoadDotEnv loads a .env file into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// FromViper builds a Config from every source v knows about, then loads
// the screens file if one is configured. It does not validate.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.Screens.Markers = screen.DefaultMarkers()
	cfg.Screens.Labels = screen.DefaultLabels()
	if cfg.Screens.File != "" {
		if err := LoadScreens(cfg.Screens.File, &cfg.Screens); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// screensFile is the on-disk shape of screens.file.
type screensFile struct {
	Markers screen.Markers `yaml:"markers"`
	Labels  screen.Labels  `yaml:"labels"`
}

// LoadScreens overlays markers and labels from a YAML file onto sc.
// Keys missing from the file keep their current value.
func LoadScreens(path string, sc *ScreensConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("screens file: %w", err)
	}

	f := screensFile{Markers: sc.Markers, Labels: sc.Labels}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("screens file %s: %w", path, err)
	}
	sc.Markers = f.Markers
	sc.Labels = f.Labels
	return nil
}
