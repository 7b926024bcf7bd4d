package picontrol_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tamzrod/revpi/pkg/picontrol"
	"github.com/tamzrod/revpi/pkg/picontrol/kb"
	"github.com/tamzrod/revpi/pkg/picontrol/pisim"
)

func newAccessor() (*picontrol.Accessor, *pisim.Sim) {
	sim := pisim.New()
	return picontrol.NewAccessor(picontrol.NewChannel(sim)), sim
}

func wantArg(t *testing.T, err error, arg string) {
	t.Helper()
	var e *picontrol.Error
	if !errors.As(err, &e) || e.Kind != picontrol.InvalidArgument || e.Arg != arg {
		t.Fatalf("expected InvalidArgument(%s), got %v", arg, err)
	}
}

func TestAccessor_BitRoundTrip(t *testing.T) {
	acc, sim := newAccessor()

	for bit := uint8(0); bit < 8; bit++ {
		if err := acc.SetBit(200, bit, true); err != nil {
			t.Fatalf("bit %d: unexpected error: %v", bit, err)
		}
		got, err := acc.GetBit(200, bit)
		if err != nil || !got {
			t.Fatalf("bit %d: expected true, got %v (%v)", bit, got, err)
		}
	}
	if b := sim.Peek(200, 1)[0]; b != 0xff {
		t.Fatalf("expected 0xff, got %#x", b)
	}

	if err := acc.SetBit(200, 4, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b := sim.Peek(200, 1)[0]; b != 0xef {
		t.Fatalf("expected 0xef, got %#x", b)
	}
}

func TestAccessor_ByteRoundTrip(t *testing.T) {
	acc, _ := newAccessor()

	for _, v := range []uint8{0, 1, 42, 0x80, 0xff} {
		if err := acc.SetByte(17, v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := acc.GetByte(17)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != v {
			t.Fatalf("expected %d, got %d", v, got)
		}
	}
}

func TestAccessor_WordLittleEndian(t *testing.T) {
	acc, sim := newAccessor()

	if err := acc.SetWord(10, 0x1234); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw := sim.Peek(10, 2); !bytes.Equal(raw, []byte{0x34, 0x12}) {
		t.Fatalf("expected [34 12], got % x", raw)
	}

	got, err := acc.GetWord(10)
	if err != nil || got != 0x1234 {
		t.Fatalf("expected 0x1234, got %#x (%v)", got, err)
	}
}

func TestAccessor_DWordLittleEndian(t *testing.T) {
	acc, sim := newAccessor()

	if err := acc.SetDWord(20, 0xAABBCCDD); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw := sim.Peek(20, 4); !bytes.Equal(raw, []byte{0xDD, 0xCC, 0xBB, 0xAA}) {
		t.Fatalf("expected [dd cc bb aa], got % x", raw)
	}

	got, err := acc.GetDWord(20)
	if err != nil || got != 0xAABBCCDD {
		t.Fatalf("expected 0xaabbccdd, got %#x (%v)", got, err)
	}
}

func TestAccessor_BitByteAddressBoundary(t *testing.T) {
	acc, sim := newAccessor()
	last := uint16(kb.ImageLen - 1)
	past := uint16(kb.ImageLen)

	if err := acc.SetByte(last, 7); err != nil {
		t.Fatalf("set_byte at last address: %v", err)
	}
	if _, err := acc.GetByte(last); err != nil {
		t.Fatalf("get_byte at last address: %v", err)
	}
	if err := acc.SetBit(last, 7, true); err != nil {
		t.Fatalf("set_bit at last address: %v", err)
	}
	if _, err := acc.GetBit(last, 7); err != nil {
		t.Fatalf("get_bit at last address: %v", err)
	}

	before := sim.Transfers()

	_, err := acc.GetByte(past)
	wantArg(t, err, picontrol.ArgAddress)
	wantArg(t, acc.SetByte(past, 1), picontrol.ArgAddress)
	_, err = acc.GetBit(past, 0)
	wantArg(t, err, picontrol.ArgAddress)
	wantArg(t, acc.SetBit(0xffff, 0, true), picontrol.ArgAddress)

	if n := sim.Transfers(); n != before {
		t.Fatalf("expected no transfer for rejected addresses, got %d", n-before)
	}
}

func TestAccessor_BitPositionChecked(t *testing.T) {
	acc, sim := newAccessor()

	_, err := acc.GetBit(0, 8)
	wantArg(t, err, picontrol.ArgBit)
	wantArg(t, acc.SetBit(0, 8, true), picontrol.ArgBit)

	if n := sim.Transfers(); n != 0 {
		t.Fatalf("expected no transfer, got %d", n)
	}
}

func TestAccessor_WordDWordPastEndIsIoFailure(t *testing.T) {
	acc, _ := newAccessor()

	if _, err := acc.GetWord(kb.ImageLen - 2); err != nil {
		t.Fatalf("word at end: %v", err)
	}
	if err := acc.SetDWord(kb.ImageLen-4, 1); err != nil {
		t.Fatalf("dword at end: %v", err)
	}

	_, err := acc.GetWord(kb.ImageLen - 1)
	wantKind(t, err, picontrol.IoFailure)
	wantKind(t, acc.SetWord(kb.ImageLen-1, 1), picontrol.IoFailure)
	_, err = acc.GetDWord(kb.ImageLen - 3)
	wantKind(t, err, picontrol.IoFailure)
	wantKind(t, acc.SetDWord(kb.ImageLen, 1), picontrol.IoFailure)
}

func TestAccessor_ReadWriteRoundTripAllWidths(t *testing.T) {
	acc, _ := newAccessor()

	bit, _ := picontrol.NewField("b", 30, picontrol.Width1, 5)
	byt, _ := picontrol.NewField("B", 31, picontrol.Width8, 0)
	word, _ := picontrol.NewField("W", 32, picontrol.Width16, 0)
	dword, _ := picontrol.NewField("D", 34, picontrol.Width32, 0)

	cases := []struct {
		field picontrol.FieldDescriptor
		value picontrol.Value
	}{
		{bit, picontrol.BitValue(true)},
		{byt, picontrol.ByteValue(0xa5)},
		{word, picontrol.WordValue(0xbeef)},
		{dword, picontrol.DWordValue(0xdeadbeef)},
	}

	for _, c := range cases {
		if err := acc.Write(c.field, c.value); err != nil {
			t.Fatalf("%s: unexpected error: %v", c.field, err)
		}
		got, err := acc.Read(c.field)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.field, err)
		}
		if got != c.value {
			t.Fatalf("%s: expected %s, got %s", c.field, c.value, got)
		}
	}
}

func TestAccessor_InvalidDescriptor(t *testing.T) {
	acc, sim := newAccessor()

	_, err := acc.Read(picontrol.FieldDescriptor{Name: "x", Width: 12})
	wantArg(t, err, picontrol.ArgField)

	err = acc.Write(picontrol.FieldDescriptor{Name: "x", Width: picontrol.Width1}, picontrol.BitValue(true))
	wantArg(t, err, picontrol.ArgField)

	if n := sim.Transfers(); n != 0 {
		t.Fatalf("expected no transfer, got %d", n)
	}
}
