package picontrol_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tamzrod/revpi/pkg/picontrol"
	"github.com/tamzrod/revpi/pkg/picontrol/kb"
	"github.com/tamzrod/revpi/pkg/picontrol/pisim"
)

func newChannel() (*picontrol.Channel, *pisim.Sim) {
	sim := pisim.New()
	return picontrol.NewChannel(sim), sim
}

func wantKind(t *testing.T, err error, want picontrol.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", want)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected %s, got %v (kind %s)", want, err, picontrol.KindOf(err))
	}
}

func TestChannel_ListDevices(t *testing.T) {
	ch, sim := newChannel()
	sim.AddDevice(kb.DeviceInfo{Address: 0, ModuleType: 95, Active: 1, InputLength: 6, OutputLength: 5})
	sim.AddDevice(kb.DeviceInfo{Address: 31, ModuleType: 96, Active: 1, BaseOffset: 11})

	devs, err := ch.ListDevices()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(devs) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devs))
	}
	if devs[1].Address != 31 || devs[1].BaseOffset != 11 {
		t.Fatalf("unexpected second device: %+v", devs[1])
	}
}

func TestChannel_ListDevicesOverMaximumIsViolation(t *testing.T) {
	ch, sim := newChannel()
	sim.AddDevice(kb.DeviceInfo{Address: 0})
	sim.ReportDeviceCount(kb.MaxDevices + 1)

	devs, err := ch.ListDevices()
	wantKind(t, err, picontrol.ProtocolViolation)
	if devs != nil {
		t.Fatalf("expected no devices, got %d", len(devs))
	}
}

func TestChannel_ListDevicesAtMaximum(t *testing.T) {
	ch, sim := newChannel()
	sim.ReportDeviceCount(kb.MaxDevices)

	devs, err := ch.ListDevices()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(devs) != kb.MaxDevices {
		t.Fatalf("expected %d devices, got %d", kb.MaxDevices, len(devs))
	}
}

func TestChannel_DeviceInfo(t *testing.T) {
	ch, sim := newChannel()
	sim.AddDevice(kb.DeviceInfo{Address: 32, ModuleType: 96, SerialNumber: 1234})

	d, err := ch.DeviceInfo(32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.SerialNumber != 1234 {
		t.Fatalf("expected serial 1234, got %d", d.SerialNumber)
	}

	_, err = ch.DeviceInfo(33)
	wantKind(t, err, picontrol.DeviceNotFound)

	var e *picontrol.Error
	if !errors.As(err, &e) || e.Device != 33 {
		t.Fatalf("expected device 33 in error, got %v", err)
	}
}

func TestChannel_FindVariable(t *testing.T) {
	ch, sim := newChannel()
	sim.AddVar(pisim.Var{Name: "I_1", Address: 11, Bit: 3, Length: 1})
	sim.AddVar(pisim.Var{Name: "RevPiLED", Address: 6, Bit: kb.WholeByte, Length: 8})

	d, err := ch.FindVariable("I_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bit, ok := d.BitPosition(); !ok || bit != 3 || d.Address != 11 || d.Width != picontrol.Width1 {
		t.Fatalf("unexpected descriptor: %s", d)
	}

	d, err = ch.FindVariable("RevPiLED")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Bit != nil || d.Width != picontrol.Width8 {
		t.Fatalf("unexpected descriptor: %s", d)
	}
}

func TestChannel_FindVariableUnknownName(t *testing.T) {
	ch, sim := newChannel()
	sim.AddVar(pisim.Var{Name: "I_1", Address: 11, Length: 1})

	_, err := ch.FindVariable("I_2")
	wantKind(t, err, picontrol.InvalidArgument)
	if !picontrol.IsUnknownName(err) || picontrol.IsNameTooLong(err) {
		t.Fatalf("expected unknown name, got %v", err)
	}
}

func TestChannel_FindVariableNameTooLongIssuesNoTransfer(t *testing.T) {
	ch, sim := newChannel()
	sim.AddVar(pisim.Var{Name: "I_1", Address: 11, Length: 1})

	_, err := ch.FindVariable(strings.Repeat("x", picontrol.MaxNameLen+1))
	if !picontrol.IsNameTooLong(err) {
		t.Fatalf("expected name too long, got %v", err)
	}
	if n := sim.Transfers(); n != 0 {
		t.Fatalf("expected no transfer, got %d", n)
	}

	// exactly 31 bytes reaches the driver
	_, err = ch.FindVariable(strings.Repeat("x", picontrol.MaxNameLen))
	if !picontrol.IsUnknownName(err) {
		t.Fatalf("expected unknown name, got %v", err)
	}
	if n := sim.Requests(kb.FindVariable); n != 1 {
		t.Fatalf("expected 1 request, got %d", n)
	}
}

func TestChannel_FindVariableMultibyteNameLength(t *testing.T) {
	ch, sim := newChannel()

	// 16 runes, 32 bytes
	_, err := ch.FindVariable(strings.Repeat("ä", 16))
	if !picontrol.IsNameTooLong(err) {
		t.Fatalf("expected name too long, got %v", err)
	}
	if n := sim.Transfers(); n != 0 {
		t.Fatalf("expected no transfer, got %d", n)
	}
}

func TestChannel_FindVariableNoEntries(t *testing.T) {
	ch, _ := newChannel()

	_, err := ch.FindVariable("RevPiLED")
	wantKind(t, err, picontrol.NoEntries)
}

func TestChannel_FindVariableBadLengthIsViolation(t *testing.T) {
	ch, sim := newChannel()
	sim.AddVar(pisim.Var{Name: "odd", Address: 0, Bit: kb.WholeByte, Length: 12})
	sim.AddVar(pisim.Var{Name: "badbit", Address: 0, Bit: 9, Length: 1})

	_, err := ch.FindVariable("odd")
	wantKind(t, err, picontrol.ProtocolViolation)

	_, err = ch.FindVariable("badbit")
	wantKind(t, err, picontrol.ProtocolViolation)
}

func TestChannel_ResetCountersZeroBitfieldIssuesNoTransfer(t *testing.T) {
	ch, sim := newChannel()
	sim.AddDevice(kb.DeviceInfo{Address: 31, ModuleType: 96})

	err := ch.ResetCounters(31, 0)
	wantKind(t, err, picontrol.InvalidArgument)
	if n := sim.Transfers(); n != 0 {
		t.Fatalf("expected no transfer, got %d", n)
	}

	if err := ch.ResetCounters(31, 0b101); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sim.CounterResets(31); got != 0b101 {
		t.Fatalf("expected bitfield 0b101, got %b", got)
	}
}

func TestChannel_ResetCountersBadAddress(t *testing.T) {
	ch, _ := newChannel()

	err := ch.ResetCounters(7, 1)
	wantKind(t, err, picontrol.InvalidArgument)

	var e *picontrol.Error
	if !errors.As(err, &e) || e.Arg != picontrol.ArgDIOAddress {
		t.Fatalf("expected dio_address, got %v", err)
	}
}

func TestChannel_ResetErrors(t *testing.T) {
	ch, sim := newChannel()

	if err := ch.Reset(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sim.Fail(kb.Reset, unix.ETIMEDOUT)
	wantKind(t, ch.Reset(), picontrol.Timeout)

	sim.Fail(kb.Reset, unix.EIO)
	wantKind(t, ch.Reset(), picontrol.IoFailure)
}

func TestChannel_BridgeNotRunning(t *testing.T) {
	ch, sim := newChannel()
	sim.Fail(kb.GetValue, unix.EFAULT)

	_, err := ch.GetBitOrByte(0, kb.WholeByte)
	wantKind(t, err, picontrol.IoFailure)
	if !strings.Contains(err.Error(), "bridge not running") {
		t.Fatalf("unexpected message: %v", err)
	}
	if !errors.Is(err, unix.EFAULT) {
		t.Fatalf("expected wrapped EFAULT, got %v", err)
	}
}

func TestChannel_IOMode(t *testing.T) {
	ch, sim := newChannel()

	if err := ch.StopIO(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sim.Stopped() {
		t.Fatalf("expected IO stopped")
	}

	stopped, err := ch.ToggleIO()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stopped || sim.Stopped() {
		t.Fatalf("expected IO running after toggle")
	}

	if err := ch.StopIO(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ch.StartIO(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim.Stopped() {
		t.Fatalf("expected IO running")
	}
}

func TestChannel_SetWatchdog(t *testing.T) {
	ch, sim := newChannel()

	if err := ch.SetWatchdog(1500 * time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sim.Watchdog(); got != 1500 {
		t.Fatalf("expected 1500ms, got %d", got)
	}

	err := ch.SetWatchdog(-time.Second)
	wantKind(t, err, picontrol.InvalidArgument)
}

func TestChannel_LastMessage(t *testing.T) {
	ch, sim := newChannel()
	sim.SetMessage("piControl: config file not found")

	msg, err := ch.LastMessage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "piControl: config file not found" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestChannel_SetExportedOutputs(t *testing.T) {
	ch, sim := newChannel()

	err := ch.SetExportedOutputs(make([]byte, 10))
	wantKind(t, err, picontrol.InvalidArgument)
	if n := sim.Transfers(); n != 0 {
		t.Fatalf("expected no transfer, got %d", n)
	}

	img := make([]byte, kb.ImageLen)
	img[100] = 0x5a
	if err := ch.SetExportedOutputs(img); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sim.Peek(100, 1)[0]; got != 0x5a {
		t.Fatalf("expected 0x5a, got %#x", got)
	}
}

func TestChannel_UpdateFirmware(t *testing.T) {
	ch, sim := newChannel()

	// no module connected
	wantKind(t, ch.UpdateFirmware(0), picontrol.IoFailure)

	sim.AddDevice(kb.DeviceInfo{Address: 32, ModuleType: 96})
	if err := ch.UpdateFirmware(32); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fw := sim.Firmware(); len(fw) != 1 || fw[0] != 32 {
		t.Fatalf("unexpected firmware requests: %v", fw)
	}
}

func TestChannel_WaitForEvent(t *testing.T) {
	ch, sim := newChannel()
	sim.Emit(int32(kb.EventReset))

	ev, err := ch.WaitForEvent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != picontrol.EventReset {
		t.Fatalf("expected reset event, got %s", ev)
	}

	sim.Emit(7)
	_, err = ch.WaitForEvent()
	wantKind(t, err, picontrol.ProtocolViolation)
}

func TestChannel_WaitForEventCancelledByClose(t *testing.T) {
	ch, _ := newChannel()

	done := make(chan error, 1)
	go func() {
		_, err := ch.WaitForEvent()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	if err := ch.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case err := <-done:
		wantKind(t, err, picontrol.IoFailure)
	case <-time.After(time.Second):
		t.Fatalf("WaitForEvent did not return after Close")
	}
}
