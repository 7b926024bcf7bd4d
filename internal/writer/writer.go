// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/revpi/internal/poller"
	"github.com/tamzrod/revpi/pkg/picontrol"
)

type modbusWriter struct {
	plan    Plan
	clients map[string]EndpointClient
}

func New(plan Plan, clients map[string]EndpointClient) Writer {
	return &modbusWriter{
		plan:    plan,
		clients: clients,
	}
}

// Registers converts a value into its Modbus holding register form.
// Bytes and words take one register; a double word takes two, high word
// first.
func Registers(v picontrol.Value) []uint16 {
	switch v.Width() {
	case picontrol.Width32:
		d := v.Uint32()
		return []uint16{uint16(d >> 16), uint16(d)}
	default:
		return []uint16{uint16(v.Uint32())}
	}
}

// Write delivers the fields of a successful poll to every target. A failed
// poll writes nothing; its state travels through the status block.
func (w *modbusWriter) Write(res poller.PollResult) error {
	if res.Err != nil {
		return nil
	}

	var errs []string

	for _, tgt := range w.plan.Targets {
		cli := w.clients[tgt.Endpoint]
		if cli == nil {
			errs = append(errs, fmt.Sprintf(
				"writer: missing client for endpoint %s",
				tgt.Endpoint,
			))
			continue
		}

		for _, f := range res.Fields {
			var (
				err  error
				area string
				dst  uint16
			)

			if f.Value.Width() == picontrol.Width1 {
				area = "coil"
				dst = tgt.CoilOffset + f.Register
				err = cli.WriteCoils(tgt.UnitID, dst, []bool{f.Value.Bool()})
			} else {
				area = "register"
				dst = tgt.RegisterOffset + f.Register
				err = cli.WriteRegisters(tgt.UnitID, dst, Registers(f.Value))
			}

			if err != nil {
				errs = append(errs, fmt.Sprintf(
					"writer: ep=%s unit=%d field=%s %s=%d err=%v",
					tgt.Endpoint, tgt.UnitID, f.Name, area, dst, err,
				))
			}
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}

	return nil
}
