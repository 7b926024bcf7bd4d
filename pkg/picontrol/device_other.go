//go:build !linux

package picontrol

import (
	"errors"

	"github.com/tamzrod/revpi/pkg/picontrol/kb"
)

var errUnsupported = errors.New("piControl is only available on linux")

// Device is unavailable on this platform; use a simulator transport.
type Device struct{}

func OpenDevice(path string) (*Device, error) { return nil, errUnsupported }

func (d *Device) ReadAt(p []byte, off int64) (int, error) { return 0, errUnsupported }
func (d *Device) WriteAt(p []byte, off int64) (int, error) { return 0, errUnsupported }
func (d *Device) Control(req kb.Request, arg []byte) (int, error) { return -1, errUnsupported }
func (d *Device) Close() error { return nil }
