// internal/status/constants.go
package status

// Status block layout exported over Modbus.
// These values define the register protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of register slots per monitor.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the monitor health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds 1 while the last cycle failed, else 0.
const SlotLastErrorCode = 1

// SlotSecondsInError holds how long (seconds) the monitor has been failing.
const SlotSecondsInError = 2

// SlotTaskCount holds the last notified task count.
const SlotTaskCount = 3

// ---- RESERVED RANGE ----

// Slots 4-10 are reserved for future use.
const SlotReservedStart = 4
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the monitor name.
// The name always sits at the END of the block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for the name.
const DeviceNameMaxChars = 16

// MaxRegister is the saturation value for counters.
const MaxRegister = 65535

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state before the first cycle.
const HealthUnknown uint16 = 0

// HealthOK represents a monitor whose last cycle completed.
const HealthOK uint16 = 1

// HealthError represents a monitor whose last cycle failed.
const HealthError uint16 = 2

// HealthName renders a health code for logs and JSON.
func HealthName(code uint16) string {
	switch code {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	default:
		return "unknown"
	}
}
