// internal/status/state.go
package status

import (
	"sync"
	"time"
)

// State is the process-wide monitor record.
// Exactly one writer (the monitor loop) mutates it; any number of
// readers take Snapshots. Never reset except by restarting the process.
type State struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewState returns a State in the boot condition: count 0, health unknown.
func NewState() *State {
	return &State{snap: Snapshot{Health: HealthUnknown}}
}

// Snapshot returns a copy safe to use without holding any lock.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.snap
	if s.snap.LastNotificationAt != nil {
		at := *s.snap.LastNotificationAt
		out.LastNotificationAt = &at
	}
	return out
}

// LastTaskCount is the count of the last delivered notification.
func (s *State) LastTaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.LastTaskCount
}

// Notified records a delivered notification for count.
func (s *State) Notified(count int, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.LastTaskCount = count
	s.snap.LastNotificationAt = &at
}

// Cleared records a delivered "no tasks" notification.
// The last notification time is left untouched.
func (s *State) Cleared() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.LastTaskCount = 0
}

// CycleOK records a completed cycle.
func (s *State) CycleOK(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Cycles++
	s.snap.LastCycleAt = at
	s.snap.LastCycleErr = ""
	s.snap.Health = HealthOK
	s.snap.ErrorSince = time.Time{}
}

// CycleFailed records a failed cycle. ErrorSince keeps the time of the
// first failure in a row.
func (s *State) CycleFailed(at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Cycles++
	s.snap.LastCycleAt = at
	if err != nil {
		s.snap.LastCycleErr = err.Error()
	}
	if s.snap.Health != HealthError {
		s.snap.ErrorSince = at
	}
	s.snap.Health = HealthError
}
