// internal/writer/modbus/client_test.go
package modbus

import (
	"bytes"
	"testing"
)

func TestPackBits_LSBFirst(t *testing.T) {
	got := packBits([]bool{true, false, true, false, false, false, false, false, true})
	if !bytes.Equal(got, []byte{0x05, 0x01}) {
		t.Fatalf("unexpected packing % x", got)
	}
}

func TestPackRegisters_BigEndian(t *testing.T) {
	got := packRegisters([]uint16{0xAABB, 0xCCDD})
	if !bytes.Equal(got, []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Fatalf("unexpected packing % x", got)
	}
}

func TestCoilValue(t *testing.T) {
	if coilValue(true) != 0xFF00 || coilValue(false) != 0 {
		t.Fatalf("unexpected single coil encoding")
	}
}

func TestNewEndpointClient_RequiresEndpoint(t *testing.T) {
	if _, err := NewEndpointClient(Config{}); err == nil {
		t.Fatalf("expected error without endpoint")
	}
}
