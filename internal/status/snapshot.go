// internal/status/snapshot.go
package status

import "time"

// Snapshot is a read-only copy of the monitor state.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health             uint16
	LastTaskCount      int
	LastNotificationAt *time.Time

	Cycles       uint64
	LastCycleAt  time.Time
	LastCycleErr string
	// ErrorSince is set while the monitor keeps failing.
	ErrorSince time.Time
}

// SecondsInError returns how long the monitor has been failing at now,
// saturated to fit one register.
func (s Snapshot) SecondsInError(now time.Time) uint16 {
	if s.Health != HealthError || s.ErrorSince.IsZero() {
		return 0
	}
	secs := int64(now.Sub(s.ErrorSince) / time.Second)
	if secs < 0 {
		return 0
	}
	if secs > MaxRegister {
		return MaxRegister
	}
	return uint16(secs)
}
