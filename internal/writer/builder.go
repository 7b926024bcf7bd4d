// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/revpi/internal/config"
	wmodbus "github.com/tamzrod/revpi/internal/writer/modbus"
)

// BuildPlan converts one unit config into a Writer Plan.
// Assumes config has already passed validation.
func BuildPlan(u cfg.UnitConfig, statusEndpoint string) (Plan, error) {
	if u.ID == "" {
		return Plan{}, errors.New("writer: unit.id required")
	}

	plan := Plan{UnitID: u.ID}

	for _, t := range u.Targets {
		plan.Targets = append(plan.Targets, TargetEndpoint{
			Endpoint:       t.Endpoint,
			UnitID:         t.UnitID,
			CoilOffset:     t.CoilOffset,
			RegisterOffset: t.RegisterOffset,
		})
	}

	if u.StatusSlot == nil {
		return plan, nil
	}

	for _, t := range u.Targets {
		if t.StatusUnitID == nil {
			return Plan{}, errors.New("writer: status_slot set but target has no status_unit_id")
		}
		plan.Status = append(plan.Status, StatusPlan{
			Endpoint:   statusEndpoint,
			UnitID:     uint16(*t.StatusUnitID),
			BaseSlot:   *u.StatusSlot,
			DeviceName: u.DeviceName,
		})
	}

	return plan, nil
}

// BuildEndpointClients creates one TCP client per unique endpoint,
// the status endpoint included when the unit reports status.
func BuildEndpointClients(u cfg.UnitConfig, statusEndpoint string) (map[string]EndpointClient, func() error, error) {
	unique := map[string]struct{}{}
	for _, t := range u.Targets {
		unique[t.Endpoint] = struct{}{}
	}
	if u.StatusSlot != nil && statusEndpoint != "" {
		unique[statusEndpoint] = struct{}{}
	}

	clients := make(map[string]EndpointClient)
	var closers []func() error

	for endpoint := range unique {
		c, err := wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: endpoint,
			Timeout:  time.Duration(u.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			for _, fn := range closers {
				_ = fn()
			}
			return nil, nil, err
		}
		clients[endpoint] = c
		closers = append(closers, c.Close)
	}

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	return clients, closeAll, nil
}
