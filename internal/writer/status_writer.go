// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/revpi/internal/status"
)

// StatusWriter is the delivery-only contract for device status.
// It receives a snapshot and writes it verbatim.
// No logic, no state, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// deviceStatusWriter writes one status block copy.
type deviceStatusWriter struct {
	plan StatusPlan
	cli  EndpointClient

	needFull bool
	last     status.Snapshot
}

// NewDeviceStatusWriter builds a status writer for every status block of
// the plan. The result is nil when status is disabled.
func NewDeviceStatusWriter(plan Plan, clients map[string]EndpointClient) StatusWriter {
	if len(plan.Status) == 0 {
		return nil
	}

	var ws statusWriters
	for _, sp := range plan.Status {
		ws = append(ws, &deviceStatusWriter{
			plan:     sp,
			cli:      clients[sp.Endpoint],
			needFull: true, // full re-assert on first successful write
			last:     status.Snapshot{Health: status.HealthUnknown},
		})
	}
	return ws
}

type statusWriters []*deviceStatusWriter

func (ws statusWriters) WriteStatus(s status.Snapshot) error {
	var errs []error
	for _, w := range ws {
		if err := w.WriteStatus(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteStatus delivers a device status snapshot into status memory.
// Only changed slots are written, except that the first write and the
// first after any failure re-assert the full block, device name included.
func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}
	if sw.plan.UnitID > 255 {
		return fmt.Errorf("status writer: unit id %d out of range", sw.plan.UnitID)
	}

	base := sw.plan.BaseSlot * status.SlotsPerDevice
	unitID := uint8(sw.plan.UnitID)

	if sw.needFull {
		if err := sw.cli.WriteRegisters(unitID, base, status.Encode(s, sw.plan.DeviceName)); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = s
		return nil
	}

	slots := []struct {
		name      string
		slot      uint16
		last, cur *uint16
	}{
		{"health", status.SlotHealthCode, &sw.last.Health, &s.Health},
		{"last_error", status.SlotLastErrorCode, &sw.last.LastErrorCode, &s.LastErrorCode},
		{"seconds", status.SlotSecondsInError, &sw.last.SecondsInError, &s.SecondsInError},
	}

	var errs []string
	for _, sl := range slots {
		if *sl.last == *sl.cur {
			continue
		}
		if err := sw.cli.WriteRegisters(unitID, base+sl.slot, []uint16{*sl.cur}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d %s write failed: %v", sl.slot, sl.name, err))
			continue
		}
		*sl.last = *sl.cur
	}

	if len(errs) > 0 {
		// a partial failure leaves the block in doubt
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}
