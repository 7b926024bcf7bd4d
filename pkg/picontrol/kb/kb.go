// Package kb describes the piControl ioctl protocol: request codes,
// fixed-layout parameter records and the limits of the process image.
//
// Records are encoded in host byte order with natural C alignment, the
// way the kernel module reads them. Data in the process image itself is
// always little-endian; that encoding lives in package picontrol.
package kb

import (
	"encoding/binary"
	"fmt"
)

// ---- LIMITS ----

// ImageLen is the length of the process image in bytes.
const ImageLen = 4096

// MaxDevices is the maximum number of devices the driver reports.
const MaxDevices = 64

// FirstRightDevice is the first address of a module right of the base module.
const FirstRightDevice = 32

// MessageLen is the size of the buffer filled by GetLastMessage.
const MessageLen = 256

// VarNameLen is the size of the name field of a Variable record,
// terminating NUL included.
const VarNameLen = 32

// WholeByte is the bit selector meaning "the whole byte".
// Selectors 0-7 address a single bit.
const WholeByte = 8

// ---- REQUESTS ----

const magic = 'K'

// Request is a piControl ioctl request code, _IO('K', n).
type Request uint32

const (
	Reset                Request = magic<<8 | 12
	GetDeviceInfoList    Request = magic<<8 | 13
	GetDeviceInfo        Request = magic<<8 | 14
	GetValue             Request = magic<<8 | 15
	SetValue             Request = magic<<8 | 16
	FindVariable         Request = magic<<8 | 17
	SetExportedOutputs   Request = magic<<8 | 18
	UpdateDeviceFirmware Request = magic<<8 | 19
	DIOResetCounter      Request = magic<<8 | 20
	GetLastMessage       Request = magic<<8 | 21
	StopIO               Request = magic<<8 | 22
	SetOutputWatchdog    Request = magic<<8 | 26
	WaitForEvent         Request = magic<<8 | 50
)

var requestNames = map[Request]string{
	Reset:                "reset",
	GetDeviceInfoList:    "get_device_info_list",
	GetDeviceInfo:        "get_device_info",
	GetValue:             "get_value",
	SetValue:             "set_value",
	FindVariable:         "find_variable",
	SetExportedOutputs:   "set_exported_outputs",
	UpdateDeviceFirmware: "update_device_firmware",
	DIOResetCounter:      "dio_reset_counter",
	GetLastMessage:       "get_last_message",
	StopIO:               "stop_io",
	SetOutputWatchdog:    "set_output_watchdog",
	WaitForEvent:         "wait_for_event",
}

func (r Request) String() string {
	if s, ok := requestNames[r]; ok {
		return s
	}
	return fmt.Sprintf("request(0x%04x)", uint32(r))
}

// ByValue reports whether the request argument is passed as an integer
// instead of a pointer to a record. For these requests the argument
// buffer holds a 4-byte host-order integer, or nothing for zero.
func (r Request) ByValue() bool {
	return r == Reset || r == UpdateDeviceFirmware
}

// ---- STOP IO MODES ----

const (
	IOStart  int32 = 0
	IOStop   int32 = 1
	IOToggle int32 = 2
)

// ---- EVENTS ----

// EventReset is delivered by WaitForEvent after a driver reset.
const EventReset int32 = 1

// Order is the byte order of ioctl records.
var Order = binary.NativeEndian

func short(what string, got, want int) error {
	return fmt.Errorf("kb: short %s record: got %d bytes, want %d", what, got, want)
}

// PutUint32 encodes a by-value or int-pointer argument.
func PutUint32(v uint32) []byte {
	b := make([]byte, 4)
	Order.PutUint32(b, v)
	return b
}

// Uint32 decodes a by-value or int-pointer argument. A nil or short
// buffer decodes as zero.
func Uint32(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return Order.Uint32(b)
}
