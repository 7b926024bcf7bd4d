package picontrol

import "github.com/tamzrod/revpi/pkg/picontrol/kb"

// DefaultDevice is the character device of the piControl driver.
const DefaultDevice = "/dev/piControl0"

// ImageLen is the length of the process image in bytes.
const ImageLen = kb.ImageLen

// MaxDevices is the maximum number of modules the driver reports.
const MaxDevices = kb.MaxDevices

// MaxNameLen is the longest variable name, in bytes, FindVariable accepts.
const MaxNameLen = kb.VarNameLen - 1

// Transport is the handle to the process image resource.
//
// ReadAt and WriteAt are positioned transfers on the image. Control issues
// one ioctl request; arg is the request record, updated in place with the
// driver's answer. For requests where req.ByValue() is true, arg holds a
// host-order uint32 (or is nil for zero). The returned int is the ioctl
// return value; failures are reported as unix.Errno.
type Transport interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	Control(req kb.Request, arg []byte) (int, error)
	Close() error
}
