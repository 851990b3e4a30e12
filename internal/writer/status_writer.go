// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tamzrod/taskwatch/internal/status"
)

// StatusWriter is the delivery-only contract for monitor status.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot, now time.Time) error
}

// registerClient is the slice of the Modbus client the writer needs.
type registerClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// StatusPlan locates the status block on the export endpoint.
type StatusPlan struct {
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// liveSlots are the block slots refreshed on incremental writes.
var liveSlots = []struct {
	slot int
	name string
}{
	{status.SlotHealthCode, "health"},
	{status.SlotLastErrorCode, "last_error"},
	{status.SlotSecondsInError, "seconds_in_error"},
	{status.SlotTaskCount, "task_count"},
}

type blockStatusWriter struct {
	plan StatusPlan
	cli  registerClient

	needFull bool
	last     []uint16
	nameRegs []uint16
}

// NewStatusWriter builds the writer for one status block.
func NewStatusWriter(plan StatusPlan, cli registerClient) (StatusWriter, error) {
	if cli == nil {
		return nil, errors.New("status writer: client required")
	}
	if int(plan.BaseSlot)*status.SlotsPerDevice+status.SlotsPerDevice > status.MaxRegister+1 {
		return nil, fmt.Errorf("status writer: base slot %d out of range", plan.BaseSlot)
	}
	return &blockStatusWriter{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		nameRegs: encodeDeviceNameRegs(plan.DeviceName),
	}, nil
}

// WriteStatus delivers a snapshot into the status block.
// On any write failure, the next successful call re-asserts the full block.
func (sw *blockStatusWriter) WriteStatus(s status.Snapshot, now time.Time) error {
	regs := status.Encode(s, now)
	baseAddr := sw.baseAddr()

	if sw.needFull {
		copy(regs[status.SlotDeviceNameStart:status.SlotDeviceNameEnd+1], sw.nameRegs)

		if err := sw.cli.WriteRegisters(sw.plan.UnitID, baseAddr, regs); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = regs
		return nil
	}

	var errs []string
	for _, ls := range liveSlots {
		v := regs[ls.slot]
		if sw.last[ls.slot] == v {
			continue
		}
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, baseAddr+uint16(ls.slot), []uint16{v}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d %s write failed: %v", ls.slot, ls.name, err))
			continue
		}
		sw.last[ls.slot] = v
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt: re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}
	return nil
}

func (sw *blockStatusWriter) baseAddr() uint16 {
	return sw.plan.BaseSlot * status.SlotsPerDevice
}

// encodeDeviceNameRegs packs up to 16 ASCII characters into 8 registers,
// two bytes per register, big-endian.
func encodeDeviceNameRegs(name string) []uint16 {
	out := make([]uint16, status.SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > status.DeviceNameMaxChars {
		b = b[:status.DeviceNameMaxChars]
	}
	for i := range b {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < status.DeviceNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}
	return out
}
