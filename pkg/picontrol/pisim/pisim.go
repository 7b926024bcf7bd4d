// Package pisim simulates the piControl driver in memory.
//
// Sim implements the transport contract of package picontrol: positioned
// reads and writes on a 4096-byte image plus the ioctl requests of
// package kb, answering with the same errno values the kernel module uses.
// It also counts every transfer, so tests can prove that a request was
// never issued.
package pisim

import (
	"bytes"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/tamzrod/revpi/pkg/picontrol/kb"
)

// Var is one entry of the simulated variable table.
type Var struct {
	Name    string
	Address uint16
	Bit     uint8 // 0-7 for 1-bit variables, kb.WholeByte otherwise
	Length  uint16
}

// Sim is an in-memory piControl driver. The zero value is not usable;
// call New.
type Sim struct {
	mu sync.Mutex

	image   [kb.ImageLen]byte
	vars    []Var
	devices []kb.DeviceInfo

	reportCount *int
	stopped     bool
	watchdog    uint32
	message     string
	counters    map[uint8]uint16
	exported    int
	firmware    []uint32

	faults map[kb.Request]unix.Errno

	requests map[kb.Request]int
	reads    int
	writes   int

	events chan int32
	closed chan struct{}
	once   sync.Once
}

func New() *Sim {
	return &Sim{
		counters: make(map[uint8]uint16),
		faults:   make(map[kb.Request]unix.Errno),
		requests: make(map[kb.Request]int),
		events:   make(chan int32, 16),
		closed:   make(chan struct{}),
	}
}

// ---- setup ----

// AddVar appends a variable. Lookups return the first match.
func (s *Sim) AddVar(v Var) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars = append(s.vars, v)
}

func (s *Sim) AddDevice(d kb.DeviceInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append(s.devices, d)
}

// ReportDeviceCount makes GetDeviceInfoList return n regardless of the
// devices actually added.
func (s *Sim) ReportDeviceCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportCount = &n
}

func (s *Sim) SetMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
}

// Fail makes the next req fail with errno.
func (s *Sim) Fail(req kb.Request, errno unix.Errno) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[req] = errno
}

// Emit queues an event for WaitForEvent.
func (s *Sim) Emit(ev int32) {
	s.events <- ev
}

// Poke writes raw bytes into the image without counting a transfer.
func (s *Sim) Poke(address int, p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.image[address:], p)
}

// Peek returns a copy of n raw image bytes without counting a transfer.
func (s *Sim) Peek(address, n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.image[address:address+n]...)
}

// ---- observation ----

// Requests returns how many times req was issued.
func (s *Sim) Requests(req kb.Request) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[req]
}

// Transfers returns the total number of requests, reads and writes.
func (s *Sim) Transfers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.reads + s.writes
	for _, c := range s.requests {
		n += c
	}
	return n
}

func (s *Sim) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Sim) Watchdog() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watchdog
}

// CounterResets returns the accumulated bitfield of counter resets of
// the module at address.
func (s *Sim) CounterResets(address uint8) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[address]
}

// Firmware returns the modules a firmware update was requested for.
func (s *Sim) Firmware() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint32(nil), s.firmware...)
}

// ---- transport ----

func (s *Sim) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Sim) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed() {
		return 0, os.ErrClosed
	}
	s.reads++

	if off < 0 {
		return 0, unix.EINVAL
	}
	if off >= kb.ImageLen {
		return 0, io.EOF
	}
	n := copy(p, s.image[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt rejects transfers that do not fit the image entirely.
func (s *Sim) WriteAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed() {
		return 0, os.ErrClosed
	}
	s.writes++

	if off < 0 || off+int64(len(p)) > kb.ImageLen {
		return 0, unix.EINVAL
	}
	return copy(s.image[off:], p), nil
}

func (s *Sim) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *Sim) Control(req kb.Request, arg []byte) (int, error) {
	if req == kb.WaitForEvent {
		return s.waitForEvent(arg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isClosed() {
		return -1, unix.EBADF
	}
	s.requests[req]++

	if errno, ok := s.faults[req]; ok {
		delete(s.faults, req)
		if req == kb.FindVariable && errno == unix.EFAULT {
			fillNotFound(arg)
		}
		return -1, errno
	}

	switch req {
	case kb.Reset:
		return 0, nil
	case kb.GetDeviceInfoList:
		return s.deviceList(arg)
	case kb.GetDeviceInfo:
		return s.deviceInfo(arg)
	case kb.GetValue:
		return s.getValue(arg)
	case kb.SetValue:
		return s.setValue(arg)
	case kb.FindVariable:
		return s.findVariable(arg)
	case kb.SetExportedOutputs:
		if len(arg) < kb.ImageLen {
			return -1, unix.EFAULT
		}
		copy(s.image[:], arg)
		s.exported++
		return 0, nil
	case kb.UpdateDeviceFirmware:
		if len(s.devices) != 1 {
			return -1, unix.EFAULT
		}
		s.firmware = append(s.firmware, kb.Uint32(arg))
		return 0, nil
	case kb.DIOResetCounter:
		return s.resetCounter(arg)
	case kb.GetLastMessage:
		if len(arg) < kb.MessageLen {
			return -1, unix.EFAULT
		}
		msg := s.message
		if len(msg) > kb.MessageLen-1 {
			msg = msg[:kb.MessageLen-1]
		}
		n := copy(arg, msg)
		arg[n] = 0
		return 0, nil
	case kb.StopIO:
		return s.stopIO(arg)
	case kb.SetOutputWatchdog:
		if len(arg) < 4 {
			return -1, unix.EFAULT
		}
		s.watchdog = kb.Uint32(arg)
		return 0, nil
	default:
		return -1, unix.ENOTTY
	}
}

func (s *Sim) deviceList(arg []byte) (int, error) {
	if len(arg) < kb.MaxDevices*kb.DeviceInfoSize {
		return -1, unix.EFAULT
	}
	copy(arg, kb.MarshalDeviceList(s.devices))
	if s.reportCount != nil {
		return *s.reportCount, nil
	}
	return len(s.devices), nil
}

func (s *Sim) deviceInfo(arg []byte) (int, error) {
	req, err := kb.UnmarshalDeviceInfo(arg)
	if err != nil {
		return -1, unix.EFAULT
	}
	for _, d := range s.devices {
		if d.Address == req.Address {
			copy(arg, d.Marshal())
			return 0, nil
		}
	}
	return -1, unix.ENXIO
}

func (s *Sim) getValue(arg []byte) (int, error) {
	v, err := kb.UnmarshalValue(arg)
	if err != nil || int(v.Address) >= kb.ImageLen {
		return -1, unix.EFAULT
	}
	b := s.image[v.Address]
	if v.Bit >= kb.WholeByte {
		v.Value = b
	} else {
		v.Value = (b >> v.Bit) & 1
	}
	copy(arg, v.Marshal())
	return 0, nil
}

func (s *Sim) setValue(arg []byte) (int, error) {
	v, err := kb.UnmarshalValue(arg)
	if err != nil || int(v.Address) >= kb.ImageLen {
		return -1, unix.EFAULT
	}
	switch {
	case v.Bit >= kb.WholeByte:
		s.image[v.Address] = v.Value
	case v.Value != 0:
		s.image[v.Address] |= 1 << v.Bit
	default:
		s.image[v.Address] &^= 1 << v.Bit
	}
	return 0, nil
}

func (s *Sim) findVariable(arg []byte) (int, error) {
	req, err := kb.UnmarshalVariable(arg)
	if err != nil {
		return -1, unix.EFAULT
	}
	if len(s.vars) == 0 {
		return -1, unix.ENOENT
	}
	name := req.NameString()
	for _, v := range s.vars {
		if v.Name == name {
			req.Address = v.Address
			req.Bit = v.Bit
			req.Length = v.Length
			copy(arg, req.Marshal())
			return 0, nil
		}
	}
	fillNotFound(arg)
	return -1, unix.EFAULT
}

func fillNotFound(arg []byte) {
	req, err := kb.UnmarshalVariable(arg)
	if err != nil {
		return
	}
	req.Address = 0xffff
	req.Bit = 0xff
	req.Length = 0xffff
	copy(arg, req.Marshal())
}

func (s *Sim) resetCounter(arg []byte) (int, error) {
	rc, err := kb.UnmarshalResetCounter(arg)
	if err != nil {
		return -1, unix.EFAULT
	}
	if rc.Bitfield == 0 {
		return -1, unix.EINVAL
	}
	for _, d := range s.devices {
		if d.Address == rc.Address {
			s.counters[rc.Address] |= rc.Bitfield
			return 0, nil
		}
	}
	return -1, unix.EINVAL
}

func (s *Sim) stopIO(arg []byte) (int, error) {
	switch int32(kb.Uint32(arg)) {
	case kb.IOStart:
		s.stopped = false
	case kb.IOStop:
		s.stopped = true
	case kb.IOToggle:
		s.stopped = !s.stopped
	default:
		return -1, unix.EINVAL
	}
	if s.stopped {
		return 1, nil
	}
	return 0, nil
}

// waitForEvent blocks without holding the lock, so Close can interrupt it.
func (s *Sim) waitForEvent(arg []byte) (int, error) {
	s.mu.Lock()
	if s.isClosed() {
		s.mu.Unlock()
		return -1, unix.EBADF
	}
	s.requests[kb.WaitForEvent]++
	s.mu.Unlock()

	select {
	case ev := <-s.events:
		if len(arg) >= 4 {
			kb.Order.PutUint32(arg, uint32(ev))
		}
		return 0, nil
	case <-s.closed:
		return -1, unix.EBADF
	}
}

// Image returns a copy of the whole image.
func (s *Sim) Image() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.image[:])
}
