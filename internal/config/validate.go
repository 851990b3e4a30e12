// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/taskwatch/internal/notify"
	"github.com/tamzrod/taskwatch/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}

	// ------------------------------------------------------------
	// CREDENTIALS
	// ------------------------------------------------------------

	if cfg.Telegram.APIID <= 0 {
		return errors.New("telegram.api_id is required (API_ID)")
	}
	if strings.TrimSpace(cfg.Telegram.APIHash) == "" {
		return errors.New("telegram.api_hash is required (API_HASH)")
	}

	// ------------------------------------------------------------
	// MONITOR
	// ------------------------------------------------------------

	m := cfg.Monitor
	if strings.TrimSpace(m.Target) == "" {
		return errors.New("monitor.target is required")
	}
	if _, err := notify.ParseDestination(m.Target); err != nil {
		return fmt.Errorf("monitor.target: %w", err)
	}
	if m.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be > 0, got %s", m.PollInterval)
	}
	if m.LookBack < 1 {
		return fmt.Errorf("monitor.look_back must be >= 1, got %d", m.LookBack)
	}
	if m.Pause < 0 {
		return fmt.Errorf("monitor.pause must be >= 0, got %s", m.Pause)
	}
	if m.Threshold <= 0 || m.Threshold > 1 {
		return fmt.Errorf("monitor.threshold must be in (0,1], got %v", m.Threshold)
	}

	// ------------------------------------------------------------
	// NOTIFY
	// ------------------------------------------------------------

	if strings.TrimSpace(cfg.Notify.Destination) == "" {
		return errors.New("notify.destination is required (NOT)")
	}
	if _, err := notify.ParseDestination(cfg.Notify.Destination); err != nil {
		return fmt.Errorf("notify.destination: %w", err)
	}
	if cfg.Notify.Owner != "" {
		if _, err := notify.ParseDestination(cfg.Notify.Owner); err != nil {
			return fmt.Errorf("notify.owner: %w", err)
		}
	}

	// ------------------------------------------------------------
	// RESILIENCE
	// ------------------------------------------------------------

	r := cfg.Resilience
	if r.RetryBound < 1 {
		return fmt.Errorf("resilience.retry_bound must be >= 1, got %d", r.RetryBound)
	}
	if r.RetryDelay < 0 || r.RestartCooldown < 0 {
		return errors.New("resilience delays must be >= 0")
	}

	// ------------------------------------------------------------
	// SCREENS
	// ------------------------------------------------------------

	mk := cfg.Screens.Markers
	for name, v := range map[string]string{
		"welcome":    mk.Welcome,
		"task_panel": mk.TaskPanel,
		"task_list":  mk.TaskList,
		"bullet":     mk.Bullet,
	} {
		if v == "" {
			return fmt.Errorf("screens: marker %q must not be empty", name)
		}
	}
	lb := cfg.Screens.Labels
	if lb.MainMenu == "" || lb.GoToTask == "" || lb.Tasks == "" {
		return errors.New("screens: labels must not be empty")
	}

	// ------------------------------------------------------------
	// STATUS EXPORT (OPT-IN)
	// ------------------------------------------------------------

	se := cfg.StatusExport
	if !se.Enabled() {
		return nil
	}

	// device_name sanity (ASCII only)
	for i := 0; i < len(se.DeviceName); i++ {
		if se.DeviceName[i] > 0x7F {
			return errors.New("status_export.device_name must contain ASCII characters only")
		}
	}

	last := int(se.BaseSlot)*status.SlotsPerDevice + status.SlotsPerDevice - 1
	if last > status.MaxRegister {
		return fmt.Errorf("status_export.base_slot %d puts the block past register %d", se.BaseSlot, status.MaxRegister)
	}
	if se.Timeout < 0 {
		return fmt.Errorf("status_export.timeout must be >= 0, got %s", se.Timeout)
	}

	return nil
}
