// internal/status/encode.go
package status

import "time"

// Encode converts a Snapshot into the live slots of a status block.
// Layout is protocol-locked. The name slots are left zero.
// No IO. No side effects.
func Encode(s Snapshot, now time.Time) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = s.Health
	if s.Health == HealthError {
		regs[SlotLastErrorCode] = 1
	}
	regs[SlotSecondsInError] = s.SecondsInError(now)
	regs[SlotTaskCount] = clampRegister(s.LastTaskCount)

	return regs
}

func clampRegister(v int) uint16 {
	switch {
	case v < 0:
		return 0
	case v > MaxRegister:
		return MaxRegister
	default:
		return uint16(v)
	}
}
