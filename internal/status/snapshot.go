// internal/status/snapshot.go
package status

import "errors"

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
}

// Tracker owns the status of one unit and applies the transitions
// driven by poll results and the 1 Hz clock.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in HealthUnknown.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe records the outcome of a poll cycle and reports whether the
// snapshot changed.
// seconds_in_error only moves on Tick.
func (t *Tracker) Observe(err error) bool {
	next := t.snap

	if err == nil {
		// Recovery / OK
		next.Health = HealthOK
		next.LastErrorCode = 0
		next.SecondsInError = 0
	} else {
		next.Health = HealthError
		next.LastErrorCode = ErrorCode(err)
	}

	changed := next != t.snap
	t.snap = next
	return changed
}

// Tick advances seconds_in_error while not OK. It saturates at 65535 and
// reports whether the snapshot changed.
func (t *Tracker) Tick() bool {
	if t.snap.Health == HealthOK || t.snap.SecondsInError == 0xFFFF {
		return false
	}
	t.snap.SecondsInError++
	return true
}

// ErrorCode extracts a best-effort uint16 code from an error without
// assuming concrete types. Errors that expose no code map to 1.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		if code := c.Code(); code != 0 {
			return code
		}
	}
	return 1
}
