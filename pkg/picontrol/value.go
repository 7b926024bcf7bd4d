package picontrol

import "fmt"

// Width is the bit length of a field. Only the four constants below exist.
type Width uint8

const (
	Width1  Width = 1
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
)

// Valid reports whether w is one of 1, 8, 16 or 32.
func (w Width) Valid() bool {
	switch w {
	case Width1, Width8, Width16, Width32:
		return true
	}
	return false
}

// Bytes is the number of image bytes a field of this width touches.
func (w Width) Bytes() int {
	switch w {
	case Width16:
		return 2
	case Width32:
		return 4
	default:
		return 1
	}
}

func (w Width) String() string {
	switch w {
	case Width1:
		return "bit"
	case Width8:
		return "byte"
	case Width16:
		return "word"
	case Width32:
		return "dword"
	default:
		return fmt.Sprintf("width(%d)", uint8(w))
	}
}

// WidthOf converts a bit length reported by the driver or a
// configuration file. ok is false for anything but 1, 8, 16 and 32.
func WidthOf(bits uint16) (w Width, ok bool) {
	if bits > 32 {
		return 0, false
	}
	w = Width(bits)
	return w, w.Valid()
}

// Value is one of Bit, Byte, Word or DWord. The set is closed: values
// are only built through the constructors below, so Width always
// reports one of the four widths.
type Value struct {
	width Width
	raw   uint32
}

func BitValue(b bool) Value {
	var raw uint32
	if b {
		raw = 1
	}
	return Value{width: Width1, raw: raw}
}

func ByteValue(b uint8) Value { return Value{width: Width8, raw: uint32(b)} }
func WordValue(w uint16) Value { return Value{width: Width16, raw: uint32(w)} }
func DWordValue(d uint32) Value { return Value{width: Width32, raw: d} }

// Width is the bit length implied by the variant. The zero Value has
// width 0 and matches no field.
func (v Value) Width() Width { return v.width }

func (v Value) Bool() bool { return v.raw != 0 }
func (v Value) Uint8() uint8 { return uint8(v.raw) }
func (v Value) Uint16() uint16 { return uint16(v.raw) }
func (v Value) Uint32() uint32 { return v.raw }

func (v Value) String() string {
	switch v.width {
	case Width1:
		return fmt.Sprintf("Bit(%t)", v.Bool())
	case Width8:
		return fmt.Sprintf("Byte(%d)", v.Uint8())
	case Width16:
		return fmt.Sprintf("Word(%d)", v.Uint16())
	case Width32:
		return fmt.Sprintf("DWord(%d)", v.Uint32())
	default:
		return "Value(invalid)"
	}
}

// FieldDescriptor locates one field in the process image.
// Bit is set iff Width is Width1.
type FieldDescriptor struct {
	Name    string
	Address uint16
	Width   Width
	Bit     *uint8
}

// Validate checks the width and the bit invariant. Image bounds are
// left to the accessor.
func (d FieldDescriptor) Validate() error {
	if !d.Width.Valid() {
		return fmt.Errorf("field %q: invalid bit length %d", d.Name, d.Width)
	}
	if d.Width == Width1 {
		if d.Bit == nil {
			return fmt.Errorf("field %q: bit field without bit position", d.Name)
		}
		if *d.Bit > 7 {
			return fmt.Errorf("field %q: bit position %d out of range", d.Name, *d.Bit)
		}
	} else if d.Bit != nil {
		return fmt.Errorf("field %q: %s field with bit position", d.Name, d.Width)
	}
	return nil
}

// BitPosition returns the bit within the byte at Address.
func (d FieldDescriptor) BitPosition() (uint8, bool) {
	if d.Bit == nil {
		return 0, false
	}
	return *d.Bit, true
}

func (d FieldDescriptor) String() string {
	if b, ok := d.BitPosition(); ok {
		return fmt.Sprintf("%s@%d.%d(%s)", d.Name, d.Address, b, d.Width)
	}
	return fmt.Sprintf("%s@%d(%s)", d.Name, d.Address, d.Width)
}

// NewField builds a validated descriptor. bit is ignored unless width is
// Width1.
func NewField(name string, address uint16, width Width, bit uint8) (FieldDescriptor, error) {
	d := FieldDescriptor{Name: name, Address: address, Width: width}
	if width == Width1 {
		d.Bit = &bit
	}
	if err := d.Validate(); err != nil {
		return FieldDescriptor{}, err
	}
	return d, nil
}
