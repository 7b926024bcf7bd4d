package picontrol

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tamzrod/revpi/pkg/picontrol/kb"
)

// Accessor performs single typed transfers against the process image.
//
// Bits and bytes go through the control path, which knows how to address
// a single bit; words and double words are plain positioned transfers of
// contiguous little-endian bytes. Nothing is cached: every call is a fresh
// transfer.
type Accessor struct {
	ch *Channel
}

func NewAccessor(ch *Channel) *Accessor {
	return &Accessor{ch: ch}
}

// Channel returns the control channel the accessor transfers through.
func (a *Accessor) Channel() *Channel { return a.ch }

func checkAddress(op string, address uint16) error {
	if int(address) >= kb.ImageLen {
		e := invalid(op, ArgAddress)
		e.Msg = fmt.Sprintf("%d is outside the image (%d bytes)", address, kb.ImageLen)
		return e
	}
	return nil
}

func checkBit(op string, bit uint8) error {
	if bit > 7 {
		e := invalid(op, ArgBit)
		e.Msg = fmt.Sprintf("%d is not a bit position", bit)
		return e
	}
	return nil
}

// ---- bit / byte ----

func (a *Accessor) GetBit(address uint16, bit uint8) (bool, error) {
	if err := checkAddress("get_bit", address); err != nil {
		return false, err
	}
	if err := checkBit("get_bit", bit); err != nil {
		return false, err
	}
	v, err := a.ch.GetBitOrByte(address, bit)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (a *Accessor) SetBit(address uint16, bit uint8, value bool) error {
	if err := checkAddress("set_bit", address); err != nil {
		return err
	}
	if err := checkBit("set_bit", bit); err != nil {
		return err
	}
	var v uint8
	if value {
		v = 1
	}
	return a.ch.SetBitOrByte(address, bit, v)
}

func (a *Accessor) GetByte(address uint16) (uint8, error) {
	if err := checkAddress("get_byte", address); err != nil {
		return 0, err
	}
	return a.ch.GetBitOrByte(address, kb.WholeByte)
}

func (a *Accessor) SetByte(address uint16, value uint8) error {
	if err := checkAddress("set_byte", address); err != nil {
		return err
	}
	return a.ch.SetBitOrByte(address, kb.WholeByte, value)
}

// ---- word / dword ----
// Bounds are enforced by the transfer itself.

func (a *Accessor) read(op string, address uint16, p []byte) error {
	n, err := a.ch.tr.ReadAt(p, int64(address))
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &Error{Kind: IoFailure, Op: op, Msg: fmt.Sprintf("address %d", address), Err: err}
}

func (a *Accessor) write(op string, address uint16, p []byte) error {
	n, err := a.ch.tr.WriteAt(p, int64(address))
	if n == len(p) && err == nil {
		return nil
	}
	if err == nil {
		err = io.ErrShortWrite
	}
	return &Error{Kind: IoFailure, Op: op, Msg: fmt.Sprintf("address %d", address), Err: err}
}

// GetWord reads a little-endian 16-bit value at address.
func (a *Accessor) GetWord(address uint16) (uint16, error) {
	var b [2]byte
	if err := a.read("get_word", address, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// SetWord writes value as little-endian 16-bit at address.
func (a *Accessor) SetWord(address uint16, value uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], value)
	return a.write("set_word", address, b[:])
}

// GetDWord reads a little-endian 32-bit value at address.
func (a *Accessor) GetDWord(address uint16) (uint32, error) {
	var b [4]byte
	if err := a.read("get_dword", address, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// SetDWord writes value as little-endian 32-bit at address.
func (a *Accessor) SetDWord(address uint16, value uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], value)
	return a.write("set_dword", address, b[:])
}

// ---- descriptor dispatch ----

// Read transfers the field described by d and wraps it in the matching
// Value variant.
func (a *Accessor) Read(d FieldDescriptor) (Value, error) {
	if err := d.Validate(); err != nil {
		e := invalid("read", ArgField)
		e.Err = err
		return Value{}, e
	}

	switch d.Width {
	case Width1:
		b, err := a.GetBit(d.Address, *d.Bit)
		return BitValue(b), err
	case Width8:
		b, err := a.GetByte(d.Address)
		return ByteValue(b), err
	case Width16:
		w, err := a.GetWord(d.Address)
		return WordValue(w), err
	default:
		dw, err := a.GetDWord(d.Address)
		return DWordValue(dw), err
	}
}

// Write transfers v into the field described by d. The width of v must
// equal the width of the field.
func (a *Accessor) Write(d FieldDescriptor, v Value) error {
	if err := d.Validate(); err != nil {
		e := invalid("write", ArgField)
		e.Err = err
		return e
	}
	if v.Width() != d.Width {
		e := invalid("write", ArgValue)
		e.Msg = fmt.Sprintf("%s does not fit %s field %q", v, d.Width, d.Name)
		return e
	}

	switch d.Width {
	case Width1:
		return a.SetBit(d.Address, *d.Bit, v.Bool())
	case Width8:
		return a.SetByte(d.Address, v.Uint8())
	case Width16:
		return a.SetWord(d.Address, v.Uint16())
	default:
		return a.SetDWord(d.Address, v.Uint32())
	}
}
