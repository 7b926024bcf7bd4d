// internal/writer/types.go
package writer

import "github.com/tamzrod/revpi/internal/poller"

// TargetEndpoint is one Modbus TCP memory that receives a unit's fields.
type TargetEndpoint struct {
	Endpoint       string
	UnitID         uint8
	CoilOffset     uint16
	RegisterOffset uint16
}

// StatusPlan locates one copy of the unit's device status block.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint16
	BaseSlot   uint16
	DeviceName string
}

// Plan is the fully-built write plan for one unit.
type Plan struct {
	UnitID  string
	Targets []TargetEndpoint
	Status  []StatusPlan // one per target; empty: status disabled
}

// Writer writes poll snapshots into targets.
type Writer interface {
	Write(res poller.PollResult) error
}

// EndpointClient is the exact contract the writers use.
// *modbus.EndpointClient satisfies it.
type EndpointClient interface {
	WriteCoils(unitID uint8, addr uint16, bits []bool) error
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
