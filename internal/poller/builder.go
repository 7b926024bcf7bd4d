// internal/poller/builder.go
package poller

import (
	"fmt"
	"time"

	cfg "github.com/tamzrod/revpi/internal/config"
	"github.com/tamzrod/revpi/pkg/picontrol"
)

// Build resolves the unit's field names once and constructs its Poller.
// Names are never resolved again at poll time.
func Build(u cfg.UnitConfig, lookup picontrol.Lookup, client Client) (*Poller, error) {
	reads := make([]FieldRead, 0, len(u.Fields))
	for _, f := range u.Fields {
		d, err := lookup.Resolve(f.Name)
		if err != nil {
			return nil, fmt.Errorf("poller: unit %q: %w", u.ID, err)
		}
		reads = append(reads, FieldRead{
			Field:    d,
			Register: f.Register,
		})
	}

	return New(
		Config{
			UnitID:   u.ID,
			Interval: time.Duration(u.Poll.IntervalMs) * time.Millisecond,
			Reads:    reads,
		},
		client,
	)
}
