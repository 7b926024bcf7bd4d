package picontrol_test

import (
	"testing"

	"github.com/tamzrod/revpi/pkg/picontrol"
	"github.com/tamzrod/revpi/pkg/picontrol/kb"
	"github.com/tamzrod/revpi/pkg/picontrol/pisim"
)

func newClient() (*picontrol.Client, *pisim.Sim) {
	sim := pisim.New()
	sim.AddVar(pisim.Var{Name: "LED", Address: 0, Bit: kb.WholeByte, Length: 8})
	sim.AddVar(pisim.Var{Name: "I_1", Address: 1, Bit: 2, Length: 1})
	sim.AddVar(pisim.Var{Name: "AnalogOut", Address: 2, Bit: kb.WholeByte, Length: 16})
	sim.AddVar(pisim.Var{Name: "Counter", Address: 4, Bit: kb.WholeByte, Length: 32})
	return picontrol.NewClient(picontrol.NewChannel(sim)), sim
}

func TestClient_SetValueLED(t *testing.T) {
	c, sim := newClient()

	if err := c.SetValue("LED", picontrol.ByteValue(42)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b := sim.Peek(0, 1)[0]; b != 42 {
		t.Fatalf("expected 42 at address 0, got %d", b)
	}

	v, err := c.GetValue("LED")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Width() != picontrol.Width8 || v.Uint8() != 42 {
		t.Fatalf("expected Byte(42), got %s", v)
	}
}

func TestClient_GetValueVariantFollowsField(t *testing.T) {
	c, sim := newClient()
	sim.Poke(1, []byte{0b100})
	sim.Poke(2, []byte{0x34, 0x12})
	sim.Poke(4, []byte{0xDD, 0xCC, 0xBB, 0xAA})

	want := map[string]picontrol.Value{
		"I_1":       picontrol.BitValue(true),
		"AnalogOut": picontrol.WordValue(0x1234),
		"Counter":   picontrol.DWordValue(0xAABBCCDD),
	}
	for name, w := range want {
		got, err := c.GetValue(name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if got != w {
			t.Fatalf("%s: expected %s, got %s", name, w, got)
		}
	}
}

func TestClient_SetValueRejectsEveryMismatch(t *testing.T) {
	c, sim := newClient()

	fields := map[picontrol.Width]string{
		picontrol.Width1:  "I_1",
		picontrol.Width8:  "LED",
		picontrol.Width16: "AnalogOut",
		picontrol.Width32: "Counter",
	}
	values := []picontrol.Value{
		picontrol.BitValue(true),
		picontrol.ByteValue(1),
		picontrol.WordValue(1),
		picontrol.DWordValue(1),
	}

	for width, name := range fields {
		for _, v := range values {
			before := sim.Transfers()

			err := c.SetValue(name, v)
			if v.Width() == width {
				if err != nil {
					t.Fatalf("%s <- %s: unexpected error: %v", name, v, err)
				}
				continue
			}
			wantArg(t, err, picontrol.ArgValue)
			// only the lookup
			if got := sim.Transfers() - before; got != 1 {
				t.Fatalf("%s <- %s: expected 1 transfer, got %d", name, v, got)
			}
		}
	}
}

func TestClient_UnknownName(t *testing.T) {
	c, _ := newClient()

	_, err := c.GetValue("nope")
	if !picontrol.IsUnknownName(err) {
		t.Fatalf("expected unknown name, got %v", err)
	}
}

func TestClient_ResolvesOnEveryCall(t *testing.T) {
	c, sim := newClient()

	for i := 0; i < 3; i++ {
		if _, err := c.GetValue("LED"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := sim.Requests(kb.FindVariable); n != 3 {
		t.Fatalf("expected 3 lookups, got %d", n)
	}
}
