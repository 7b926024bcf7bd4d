package kb

import "bytes"

// ---- SPIValue ----

// ValueSize is the encoded size of a Value record.
const ValueSize = 4

// Value is the SPIValue record used by GetValue and SetValue.
//
//	0  u16 address
//	2  u8  bit (0-7, >= 8 whole byte)
//	3  u8  value
type Value struct {
	Address uint16
	Bit     uint8
	Value   uint8
}

func (v Value) Marshal() []byte {
	b := make([]byte, ValueSize)
	Order.PutUint16(b[0:2], v.Address)
	b[2] = v.Bit
	b[3] = v.Value
	return b
}

func UnmarshalValue(b []byte) (Value, error) {
	if len(b) < ValueSize {
		return Value{}, short("value", len(b), ValueSize)
	}
	return Value{
		Address: Order.Uint16(b[0:2]),
		Bit:     b[2],
		Value:   b[3],
	}, nil
}

// ---- SPIVariable ----

// VariableSize is the encoded size of a Variable record.
const VariableSize = 38

// Variable is the SPIVariable record used by FindVariable.
//
//	0   [32]u8 NUL-terminated name
//	32  u16    address
//	34  u8     bit
//	35  pad
//	36  u16    length in bits
type Variable struct {
	Name    [VarNameLen]byte
	Address uint16
	Bit     uint8
	Length  uint16
}

// NotFound reports whether the driver filled the record with the
// all-ones pattern it uses for an unknown name.
func (v Variable) NotFound() bool {
	return v.Address == 0xffff && v.Bit == 0xff && v.Length == 0xffff
}

// NameString returns the name up to the first NUL.
func (v Variable) NameString() string {
	n := bytes.IndexByte(v.Name[:], 0)
	if n < 0 {
		n = len(v.Name)
	}
	return string(v.Name[:n])
}

func (v Variable) Marshal() []byte {
	b := make([]byte, VariableSize)
	copy(b[0:VarNameLen], v.Name[:])
	Order.PutUint16(b[32:34], v.Address)
	b[34] = v.Bit
	Order.PutUint16(b[36:38], v.Length)
	return b
}

func UnmarshalVariable(b []byte) (Variable, error) {
	var v Variable
	if len(b) < VariableSize {
		return v, short("variable", len(b), VariableSize)
	}
	copy(v.Name[:], b[0:VarNameLen])
	v.Address = Order.Uint16(b[32:34])
	v.Bit = b[34]
	v.Length = Order.Uint16(b[36:38])
	return v, nil
}

// ---- SDIOResetCounter ----

// ResetCounterSize is the encoded size of a ResetCounter record.
const ResetCounterSize = 4

// ResetCounter is the SDIOResetCounter record.
//
//	0  u8  module address
//	1  pad
//	2  u16 counter bitfield
type ResetCounter struct {
	Address  uint8
	Bitfield uint16
}

func (r ResetCounter) Marshal() []byte {
	b := make([]byte, ResetCounterSize)
	b[0] = r.Address
	Order.PutUint16(b[2:4], r.Bitfield)
	return b
}

func UnmarshalResetCounter(b []byte) (ResetCounter, error) {
	if len(b) < ResetCounterSize {
		return ResetCounter{}, short("reset counter", len(b), ResetCounterSize)
	}
	return ResetCounter{
		Address:  b[0],
		Bitfield: Order.Uint16(b[2:4]),
	}, nil
}

// ---- SDeviceInfo ----

// DeviceInfoSize is the encoded size of a DeviceInfo record.
const DeviceInfoSize = 68

// DeviceInfo is the SDeviceInfo record describing one module.
//
//	0   u8  address        20  u16 input length
//	4   u32 serial number  22  u16 output length
//	8   u16 module type    24  u16 config length
//	10  u16 hw revision    26  u16 base offset
//	12  u16 sw major       28  u16 input offset
//	14  u16 sw minor       30  u16 output offset
//	16  u32 svn revision   32  u16 config offset
//	                       34  u16 first entry
//	                       36  u8  module state
//	                       37  u8  active
//	                       38  [30]u8 reserved
type DeviceInfo struct {
	Address      uint8
	SerialNumber uint32
	ModuleType   uint16
	HWRevision   uint16
	SWMajor      uint16
	SWMinor      uint16
	SVNRevision  uint32
	InputLength  uint16
	OutputLength uint16
	ConfigLength uint16
	BaseOffset   uint16
	InputOffset  uint16
	OutputOffset uint16
	ConfigOffset uint16
	FirstEntry   uint16
	ModuleState  uint8
	Active       uint8
	Reserved     [30]byte
}

// IsActive reports whether the module is configured and present.
func (d DeviceInfo) IsActive() bool { return d.Active != 0 }

func (d DeviceInfo) Marshal() []byte {
	b := make([]byte, DeviceInfoSize)
	d.put(b)
	return b
}

func (d DeviceInfo) put(b []byte) {
	b[0] = d.Address
	Order.PutUint32(b[4:8], d.SerialNumber)
	Order.PutUint16(b[8:10], d.ModuleType)
	Order.PutUint16(b[10:12], d.HWRevision)
	Order.PutUint16(b[12:14], d.SWMajor)
	Order.PutUint16(b[14:16], d.SWMinor)
	Order.PutUint32(b[16:20], d.SVNRevision)
	Order.PutUint16(b[20:22], d.InputLength)
	Order.PutUint16(b[22:24], d.OutputLength)
	Order.PutUint16(b[24:26], d.ConfigLength)
	Order.PutUint16(b[26:28], d.BaseOffset)
	Order.PutUint16(b[28:30], d.InputOffset)
	Order.PutUint16(b[30:32], d.OutputOffset)
	Order.PutUint16(b[32:34], d.ConfigOffset)
	Order.PutUint16(b[34:36], d.FirstEntry)
	b[36] = d.ModuleState
	b[37] = d.Active
	copy(b[38:68], d.Reserved[:])
}

func UnmarshalDeviceInfo(b []byte) (DeviceInfo, error) {
	var d DeviceInfo
	if len(b) < DeviceInfoSize {
		return d, short("device info", len(b), DeviceInfoSize)
	}
	d.Address = b[0]
	d.SerialNumber = Order.Uint32(b[4:8])
	d.ModuleType = Order.Uint16(b[8:10])
	d.HWRevision = Order.Uint16(b[10:12])
	d.SWMajor = Order.Uint16(b[12:14])
	d.SWMinor = Order.Uint16(b[14:16])
	d.SVNRevision = Order.Uint32(b[16:20])
	d.InputLength = Order.Uint16(b[20:22])
	d.OutputLength = Order.Uint16(b[22:24])
	d.ConfigLength = Order.Uint16(b[24:26])
	d.BaseOffset = Order.Uint16(b[26:28])
	d.InputOffset = Order.Uint16(b[28:30])
	d.OutputOffset = Order.Uint16(b[30:32])
	d.ConfigOffset = Order.Uint16(b[32:34])
	d.FirstEntry = Order.Uint16(b[34:36])
	d.ModuleState = b[36]
	d.Active = b[37]
	copy(d.Reserved[:], b[38:68])
	return d, nil
}

// MarshalDeviceList encodes devices into a list buffer sized for
// MaxDevices entries. Entries beyond the buffer are dropped.
func MarshalDeviceList(devs []DeviceInfo) []byte {
	b := make([]byte, MaxDevices*DeviceInfoSize)
	for i, d := range devs {
		if i >= MaxDevices {
			break
		}
		d.put(b[i*DeviceInfoSize : (i+1)*DeviceInfoSize])
	}
	return b
}

// UnmarshalDeviceList decodes the first n entries of a list buffer.
func UnmarshalDeviceList(b []byte, n int) ([]DeviceInfo, error) {
	if len(b) < n*DeviceInfoSize {
		return nil, short("device list", len(b), n*DeviceInfoSize)
	}
	out := make([]DeviceInfo, 0, n)
	for i := 0; i < n; i++ {
		d, err := UnmarshalDeviceInfo(b[i*DeviceInfoSize:])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
