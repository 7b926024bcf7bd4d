package picontrol

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/tamzrod/revpi/pkg/picontrol/kb"
)

// Event is a driver event delivered by WaitForEvent.
type Event int32

// EventReset signals that the driver was reset.
const EventReset = Event(kb.EventReset)

func (e Event) String() string {
	if e == EventReset {
		return "reset"
	}
	return fmt.Sprintf("event(%d)", int32(e))
}

// Channel is the single point of contact with the piControl driver.
// Every method performs exactly one request on the underlying handle.
//
// A process normally owns one Channel. Several are possible, but they
// share the driver's state (IO mode, watchdog, the image itself) and
// nothing coordinates them. A Channel performs no locking; callers using
// it from several goroutines serialize access themselves.
type Channel struct {
	tr Transport
}

// Open opens the piControl device at path.
func Open(path string) (*Channel, error) {
	d, err := OpenDevice(path)
	if err != nil {
		return nil, ioFailure("open", err)
	}
	return NewChannel(d), nil
}

// NewChannel wraps an already opened transport.
func NewChannel(tr Transport) *Channel {
	return &Channel{tr: tr}
}

// Transport returns the underlying handle.
func (c *Channel) Transport() Transport { return c.tr }

// Close releases the handle. A WaitForEvent blocked on another goroutine
// returns an IoFailure.
func (c *Channel) Close() error {
	if err := c.tr.Close(); err != nil {
		return ioFailure("close", err)
	}
	return nil
}

func (c *Channel) control(req kb.Request, arg []byte) (int, error) {
	log.WithField("request", req).Debug("picontrol: ioctl")
	return c.tr.Control(req, arg)
}

func errnoOf(err error) unix.Errno {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}

// transportError maps an errno with no operation-specific meaning.
func transportError(op string, err error) *Error {
	e := ioFailure(op, err)
	switch errnoOf(err) {
	case unix.EFAULT:
		e.Msg = "bridge not running"
	case unix.EPERM:
		e.Msg = "not a RevPi Core or Connect"
	case unix.ENOMEM:
		e.Msg = "driver out of memory"
	}
	return e
}

// Reset reinitializes the driver's configuration and communication and
// blocks until the bridge restarts. The caller must make sure the
// configuration is stable, or that changes are taken into account, before
// calling it again after a Timeout.
func (c *Channel) Reset() error {
	const op = "reset"
	if _, err := c.control(kb.Reset, nil); err != nil {
		if errnoOf(err) == unix.ETIMEDOUT {
			return &Error{Kind: Timeout, Op: op, Msg: "bridge did not come up", Err: err}
		}
		return transportError(op, err)
	}
	return nil
}

// ListDevices returns the information of all connected modules.
// A count above MaxDevices is a ProtocolViolation; the list is never
// truncated.
func (c *Channel) ListDevices() ([]kb.DeviceInfo, error) {
	const op = "get_device_info_list"

	buf := make([]byte, kb.MaxDevices*kb.DeviceInfoSize)
	n, err := c.control(kb.GetDeviceInfoList, buf)
	if err != nil {
		return nil, transportError(op, err)
	}
	if n < 0 || n > kb.MaxDevices {
		return nil, violation(op, "driver reported %d devices, maximum is %d", n, kb.MaxDevices)
	}

	devs, err := kb.UnmarshalDeviceList(buf, n)
	if err != nil {
		return nil, violation(op, "%v", err)
	}
	return devs, nil
}

// DeviceInfo returns the information of the module at address.
func (c *Channel) DeviceInfo(address uint8) (kb.DeviceInfo, error) {
	const op = "get_device_info"

	buf := kb.DeviceInfo{Address: address}.Marshal()
	if _, err := c.control(kb.GetDeviceInfo, buf); err != nil {
		if errnoOf(err) == unix.ENXIO {
			return kb.DeviceInfo{}, &Error{Kind: DeviceNotFound, Op: op, Device: address, Err: err}
		}
		return kb.DeviceInfo{}, transportError(op, err)
	}

	d, err := kb.UnmarshalDeviceInfo(buf)
	if err != nil {
		return kb.DeviceInfo{}, violation(op, "%v", err)
	}
	return d, nil
}

// FindVariable looks a variable up by the name given to it in PiCtory.
//
// Names longer than MaxNameLen bytes are rejected with
// InvalidArgument("length of name") before any request is made; unknown
// names fail with InvalidArgument("name"). NoEntries means the driver has
// no variables configured at all.
func (c *Channel) FindVariable(name string) (FieldDescriptor, error) {
	const op = "find_variable"

	if strings.IndexByte(name, 0) >= 0 {
		e := invalid(op, ArgName)
		e.Msg = "contains NUL byte"
		return FieldDescriptor{}, e
	}
	if len(name) > MaxNameLen {
		e := invalid(op, ArgNameLength)
		e.Msg = fmt.Sprintf("%d bytes, maximum is %d", len(name), MaxNameLen)
		return FieldDescriptor{}, e
	}

	var req kb.Variable
	copy(req.Name[:], name)
	buf := req.Marshal()

	_, err := c.control(kb.FindVariable, buf)
	res, derr := kb.UnmarshalVariable(buf)
	if derr != nil {
		return FieldDescriptor{}, violation(op, "%v", derr)
	}
	if err != nil {
		switch errnoOf(err) {
		case unix.EFAULT:
			if res.NotFound() {
				return FieldDescriptor{}, &Error{
					Kind: InvalidArgument, Op: op, Arg: ArgName,
					Msg: fmt.Sprintf("unknown variable %q", name),
				}
			}
		case unix.ENOENT:
			return FieldDescriptor{}, &Error{Kind: NoEntries, Op: op, Err: err}
		}
		return FieldDescriptor{}, transportError(op, err)
	}

	width, ok := WidthOf(res.Length)
	if !ok {
		return FieldDescriptor{}, violation(op, "driver returned bit length %d for %q", res.Length, name)
	}

	d := FieldDescriptor{Name: name, Address: res.Address, Width: width}
	if width == Width1 {
		if res.Bit > 7 {
			return FieldDescriptor{}, violation(op, "driver returned bit position %d for %q", res.Bit, name)
		}
		bit := res.Bit
		d.Bit = &bit
	}

	log.WithField("field", d.String()).Debug("picontrol: resolved")
	return d, nil
}

// GetBitOrByte reads one bit (selector 0-7) or the whole byte (selector
// kb.WholeByte) at address. The address is not validated here.
func (c *Channel) GetBitOrByte(address uint16, selector uint8) (uint8, error) {
	const op = "get_value"

	buf := kb.Value{Address: address, Bit: selector}.Marshal()
	if _, err := c.control(kb.GetValue, buf); err != nil {
		return 0, transportError(op, err)
	}

	v, err := kb.UnmarshalValue(buf)
	if err != nil {
		return 0, violation(op, "%v", err)
	}
	return v.Value, nil
}

// SetBitOrByte writes one bit (selector 0-7, value 0 or 1) or the whole
// byte (selector kb.WholeByte). The address is not validated here.
func (c *Channel) SetBitOrByte(address uint16, selector uint8, value uint8) error {
	const op = "set_value"

	buf := kb.Value{Address: address, Bit: selector, Value: value}.Marshal()
	if _, err := c.control(kb.SetValue, buf); err != nil {
		return transportError(op, err)
	}
	return nil
}

func (c *Channel) stopIO(mode int32) (stopped bool, err error) {
	const op = "stop_io"

	n, err := c.control(kb.StopIO, kb.PutUint32(uint32(mode)))
	if err != nil {
		return false, transportError(op, err)
	}
	return n != 0, nil
}

// StopIO stops IO communication. Outputs are driven to zero and inputs
// are no longer refreshed.
func (c *Channel) StopIO() error {
	_, err := c.stopIO(kb.IOStop)
	return err
}

// StartIO resumes IO communication.
func (c *Channel) StartIO() error {
	_, err := c.stopIO(kb.IOStart)
	return err
}

// ToggleIO flips IO communication and reports whether it is now stopped.
func (c *Channel) ToggleIO() (stopped bool, err error) {
	return c.stopIO(kb.IOToggle)
}

// SetWatchdog arms the output watchdog of this handle: without IO
// activity for period, the driver zeroes all outputs. Zero disarms it.
// The period has millisecond resolution.
func (c *Channel) SetWatchdog(period time.Duration) error {
	const op = "set_output_watchdog"

	ms := period / time.Millisecond
	if period < 0 || ms > math.MaxUint32 {
		e := invalid(op, ArgPeriod)
		e.Msg = period.String()
		return e
	}

	if _, err := c.control(kb.SetOutputWatchdog, kb.PutUint32(uint32(ms))); err != nil {
		return transportError(op, err)
	}
	return nil
}

// WaitForEvent blocks until the driver signals an event. There is no
// timeout; closing the Channel from another goroutine makes it fail.
func (c *Channel) WaitForEvent() (Event, error) {
	const op = "wait_for_event"

	buf := kb.PutUint32(0)
	if _, err := c.control(kb.WaitForEvent, buf); err != nil {
		return 0, transportError(op, err)
	}

	ev := Event(int32(kb.Uint32(buf)))
	if ev != EventReset {
		return 0, violation(op, "unknown event %d", int32(ev))
	}
	return ev, nil
}

// ResetCounters zeroes the counters of the DIO module at address. Each
// set bit of bitfield selects one counter; bitfield must not be zero.
func (c *Channel) ResetCounters(address uint8, bitfield uint16) error {
	const op = "dio_reset_counter"

	if bitfield == 0 {
		return invalid(op, ArgBitfield)
	}

	buf := kb.ResetCounter{Address: address, Bitfield: bitfield}.Marshal()
	if _, err := c.control(kb.DIOResetCounter, buf); err != nil {
		if errnoOf(err) == unix.EINVAL {
			e := invalid(op, ArgDIOAddress)
			e.Err = err
			return e
		}
		return transportError(op, err)
	}
	return nil
}

// LastMessage returns the driver's most recent diagnostic message.
func (c *Channel) LastMessage() (string, error) {
	const op = "get_last_message"

	buf := make([]byte, kb.MessageLen)
	if _, err := c.control(kb.GetLastMessage, buf); err != nil {
		return "", transportError(op, err)
	}

	n := bytes.IndexByte(buf, 0)
	if n < 0 {
		n = len(buf)
	}
	return string(buf[:n]), nil
}

// SetExportedOutputs replaces the exported outputs of the process image
// with image, which must be ImageLen bytes long. Only one process should
// ever do this; nothing here enforces it.
func (c *Channel) SetExportedOutputs(image []byte) error {
	const op = "set_exported_outputs"

	if len(image) != kb.ImageLen {
		e := invalid(op, ArgImage)
		e.Msg = fmt.Sprintf("%d bytes, want %d", len(image), kb.ImageLen)
		return e
	}

	buf := append([]byte(nil), image...)
	if _, err := c.control(kb.SetExportedOutputs, buf); err != nil {
		return transportError(op, err)
	}
	return nil
}

// UpdateFirmware updates the firmware of the module at address module,
// or of the first module found if module is 0. Exactly one module may be
// connected; losing power during the update can brick it.
func (c *Channel) UpdateFirmware(module uint32) error {
	const op = "update_device_firmware"

	if _, err := c.control(kb.UpdateDeviceFirmware, kb.PutUint32(module)); err != nil {
		e := transportError(op, err)
		if errnoOf(err) == unix.EFAULT {
			e.Msg = "bridge not running or not exactly one module connected"
		}
		return e
	}
	return nil
}
