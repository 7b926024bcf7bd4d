// internal/writer/device_status_writer_test.go
package writer

import (
	"errors"
	"testing"

	"github.com/tamzrod/revpi/internal/status"
)

func statusPlan() Plan {
	return Plan{
		Status: []StatusPlan{{
			Endpoint:   "status-endpoint",
			UnitID:     1,
			BaseSlot:   0,
			DeviceName: "DEV-01",
		}},
	}
}

func TestDeviceNameWrittenOnFullAssertOnly(t *testing.T) {
	cli := &fakeEndpointClient{}
	plan := statusPlan()

	sw := NewDeviceStatusWriter(plan, map[string]EndpointClient{"status-endpoint": cli})
	if sw == nil {
		t.Fatalf("status writer should be enabled")
	}

	// ---- first write: FULL ASSERT ----
	first := status.Snapshot{Health: status.HealthOK}

	if err := sw.WriteStatus(first); err != nil {
		t.Fatalf("initial full assert failed: %v", err)
	}

	if len(cli.lastRegs) != status.SlotsPerDevice {
		t.Fatalf(
			"expected full block write (%d regs), got %d",
			status.SlotsPerDevice,
			len(cli.lastRegs),
		)
	}

	expectedNameRegs := status.EncodeName(plan.Status[0].DeviceName)
	for i := 0; i < status.SlotDeviceNameSlots; i++ {
		slot := status.SlotDeviceNameStart + i
		if cli.lastRegs[slot] != expectedNameRegs[i] {
			t.Fatalf("device name slot %d mismatch: got=%d want=%d", slot, cli.lastRegs[slot], expectedNameRegs[i])
		}
	}

	// ---- second write: INCREMENTAL ONLY ----
	second := status.Snapshot{
		Health:         status.HealthError,
		LastErrorCode:  7,
		SecondsInError: 1,
	}

	before := len(cli.writes)
	if err := sw.WriteStatus(second); err != nil {
		t.Fatalf("incremental write failed: %v", err)
	}

	if got := len(cli.writes) - before; got != 3 {
		t.Fatalf("expected 3 single-slot writes, got %d", got)
	}
	for _, w := range cli.writes[before:] {
		if len(w.regs) != 1 {
			t.Fatalf("device name should not be rewritten on incremental update")
		}
	}
}

func TestSecondsInErrorResetOnRecovery(t *testing.T) {
	cli := &fakeEndpointClient{}
	plan := statusPlan()
	plan.Status[0].BaseSlot = 2

	sw := NewDeviceStatusWriter(plan, map[string]EndpointClient{"status-endpoint": cli})

	// simulate ERROR
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthError, LastErrorCode: 42, SecondsInError: 3}); err != nil {
		t.Fatalf("error snapshot write failed: %v", err)
	}

	// simulate recovery
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK}); err != nil {
		t.Fatalf("recovery snapshot write failed: %v", err)
	}

	expectedAddr := plan.Status[0].BaseSlot*status.SlotsPerDevice + status.SlotSecondsInError

	if cli.lastRegsAddr != expectedAddr {
		t.Fatalf("unexpected write addr: got=%d want=%d", cli.lastRegsAddr, expectedAddr)
	}
	if len(cli.lastRegs) != 1 || cli.lastRegs[0] != 0 {
		t.Fatalf("seconds_in_error not reset: got=%v", cli.lastRegs)
	}
}

func TestFailureForcesFullReassert(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw := NewDeviceStatusWriter(statusPlan(), map[string]EndpointClient{"status-endpoint": cli})

	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cli.fail = errors.New("timeout")
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthError, LastErrorCode: 5}); err == nil {
		t.Fatalf("expected write error")
	}

	cli.fail = nil
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthError, LastErrorCode: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cli.lastRegs) != status.SlotsPerDevice {
		t.Fatalf("expected full block after failure, got %d regs", len(cli.lastRegs))
	}
}

func TestStatusDisabled(t *testing.T) {
	if sw := NewDeviceStatusWriter(Plan{}, nil); sw != nil {
		t.Fatalf("expected nil writer without status plan")
	}
}

func TestMissingStatusClient(t *testing.T) {
	sw := NewDeviceStatusWriter(statusPlan(), map[string]EndpointClient{})
	if err := sw.WriteStatus(status.Snapshot{}); err == nil {
		t.Fatalf("expected error without client")
	}
}
