// internal/config/normalize.go
package config

import (
	"strings"

	"github.com/tamzrod/taskwatch/internal/status"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Telegram.APIHash = strings.TrimSpace(cfg.Telegram.APIHash)
	cfg.Telegram.Session = strings.TrimSpace(cfg.Telegram.Session)
	cfg.Monitor.Target = strings.TrimSpace(cfg.Monitor.Target)
	cfg.Notify.Destination = strings.TrimSpace(cfg.Notify.Destination)
	cfg.Notify.Owner = strings.TrimSpace(cfg.Notify.Owner)
	cfg.Notify.BotToken = strings.TrimSpace(cfg.Notify.BotToken)

	if cfg.Monitor.ServiceName == "" {
		cfg.Monitor.ServiceName = "the bot"
	}

	// ------------------------------------------------------------
	// STATUS EXPORT NORMALIZATION (OPT-IN)
	// ------------------------------------------------------------

	if !cfg.StatusExport.Enabled() {
		return
	}

	// - ASCII already validated
	// - Truncate to max 16 characters
	if len(cfg.StatusExport.DeviceName) > status.DeviceNameMaxChars {
		cfg.StatusExport.DeviceName = cfg.StatusExport.DeviceName[:status.DeviceNameMaxChars]
	}
}
