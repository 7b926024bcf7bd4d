// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/revpi/pkg/picontrol"
)

// FieldRead is one resolved field and the register it is mirrored to.
// Geometry only: no semantics.
type FieldRead struct {
	Field    picontrol.FieldDescriptor
	Register uint16
}

// FieldResult is the value of a single field read.
type FieldResult struct {
	Name     string
	Register uint16
	Value    picontrol.Value
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	UnitID string
	At     time.Time

	Fields []FieldResult
	Err    error // non-nil means the poll cycle failed
}
