// internal/config/config.go
package config

import (
	"time"

	"github.com/tamzrod/taskwatch/internal/screen"
)

// Config is the full runtime configuration.
// Keys map 1:1 to viper keys (telegram.api_id, monitor.poll_interval, ...)
// and to the optional YAML config file.
type Config struct {
	Telegram     TelegramConfig     `mapstructure:"telegram" yaml:"telegram"`
	Monitor      MonitorConfig      `mapstructure:"monitor" yaml:"monitor"`
	Notify       NotifyConfig       `mapstructure:"notify" yaml:"notify"`
	Resilience   ResilienceConfig   `mapstructure:"resilience" yaml:"resilience"`
	Health       HealthConfig       `mapstructure:"health" yaml:"health"`
	StatusExport StatusExportConfig `mapstructure:"status_export" yaml:"status_export"`
	Screens      ScreensConfig      `mapstructure:"screens" yaml:"screens"`
}

// ---- TELEGRAM ----

type TelegramConfig struct {
	APIID   int    `mapstructure:"api_id" yaml:"api_id"`
	APIHash string `mapstructure:"api_hash" yaml:"api_hash"`
	// Session is a Telethon string session. Prompted for when empty.
	Session string `mapstructure:"session" yaml:"session"`
}

// ---- MONITOR ----

type MonitorConfig struct {
	// Target is the bot conversation: @handle or numeric id.
	Target       string        `mapstructure:"target" yaml:"target"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	LookBack     int           `mapstructure:"look_back" yaml:"look_back"`
	Pause        time.Duration `mapstructure:"pause" yaml:"pause"`
	Threshold    float64       `mapstructure:"threshold" yaml:"threshold"`
	ServiceName  string        `mapstructure:"service_name" yaml:"service_name"`
	StartCommand string        `mapstructure:"start_command" yaml:"start_command"`
}

// ---- NOTIFY ----

type NotifyConfig struct {
	Destination string `mapstructure:"destination" yaml:"destination"`
	Owner       string `mapstructure:"owner" yaml:"owner"`
	// BotToken switches delivery to the Bot API when set.
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
}

// ---- RESILIENCE ----

type ResilienceConfig struct {
	RetryBound      int           `mapstructure:"retry_bound" yaml:"retry_bound"`
	RetryDelay      time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	RestartCooldown time.Duration `mapstructure:"restart_cooldown" yaml:"restart_cooldown"`
}

// ---- HEALTH ----

type HealthConfig struct {
	// Addr is the listen address; empty disables the endpoint.
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// ---- STATUS EXPORT (optional, opt-in) ----

type StatusExportConfig struct {
	Endpoint   string        `mapstructure:"endpoint" yaml:"endpoint"`
	UnitID     uint8         `mapstructure:"unit_id" yaml:"unit_id"`
	BaseSlot   uint16        `mapstructure:"base_slot" yaml:"base_slot"`
	DeviceName string        `mapstructure:"device_name" yaml:"device_name"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Enabled reports whether the Modbus status export is configured.
func (s StatusExportConfig) Enabled() bool { return s.Endpoint != "" }

// ---- SCREENS ----

type ScreensConfig struct {
	// File is an optional YAML file overriding markers and labels.
	File string `mapstructure:"file" yaml:"file"`

	Markers screen.Markers `mapstructure:"-" yaml:"markers"`
	Labels  screen.Labels  `mapstructure:"-" yaml:"labels"`
}
