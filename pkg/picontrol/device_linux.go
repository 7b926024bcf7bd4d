//go:build linux

package picontrol

import (
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/tamzrod/revpi/pkg/picontrol/kb"
)

// Device is the Transport backed by the piControl character device.
type Device struct {
	f *os.File
}

// OpenDevice opens the piControl character device at path.
func OpenDevice(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Device{f: f}, nil
}

func (d *Device) ReadAt(p []byte, off int64) (int, error) { return d.f.ReadAt(p, off) }
func (d *Device) WriteAt(p []byte, off int64) (int, error) { return d.f.WriteAt(p, off) }

// Close releases the handle. A WaitForEvent blocked on another goroutine
// fails once the driver drops the file.
func (d *Device) Close() error { return d.f.Close() }

func (d *Device) Control(req kb.Request, arg []byte) (int, error) {
	fd := d.f.Fd()

	var (
		r     uintptr
		errno unix.Errno
	)
	switch {
	case req.ByValue():
		r, _, errno = unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(kb.Uint32(arg)))
	case len(arg) == 0:
		r, _, errno = unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), 0)
	default:
		r, _, errno = unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(unsafe.Pointer(&arg[0])))
	}
	runtime.KeepAlive(arg)
	runtime.KeepAlive(d.f)

	if errno != 0 {
		return -1, errno
	}
	return int(int32(r)), nil
}
