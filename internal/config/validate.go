// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil || len(cfg.Mirror.Units) == 0 {
		return errors.New("config: no units defined")
	}

	// ------------------------------------------------------------
	// UNIT SHAPE
	// ------------------------------------------------------------

	ids := make(map[string]bool)

	for _, u := range cfg.Mirror.Units {
		if u.ID == "" {
			return errors.New("config: unit without id")
		}
		if ids[u.ID] {
			return fmt.Errorf("unit %q: duplicate id", u.ID)
		}
		ids[u.ID] = true

		if u.Poll.IntervalMs <= 0 {
			return fmt.Errorf("unit %q: poll.interval_ms must be > 0", u.ID)
		}
		if len(u.Fields) == 0 {
			return fmt.Errorf("unit %q: no fields", u.ID)
		}

		names := make(map[string]bool)
		for _, f := range u.Fields {
			if f.Name == "" {
				return fmt.Errorf("unit %q: field without name", u.ID)
			}
			if names[f.Name] {
				return fmt.Errorf("unit %q: field %q listed twice", u.ID, f.Name)
			}
			names[f.Name] = true
		}

		for _, t := range u.Targets {
			if t.Endpoint == "" {
				return fmt.Errorf("unit %q: target without endpoint", u.ID)
			}
		}
	}

	// ------------------------------------------------------------
	// DEVICE STATUS BLOCK VALIDATION (PER-TARGET, OPT-IN)
	// ------------------------------------------------------------

	// key = endpoint | status_unit_id | status_slot
	statusOwner := make(map[string]string)

	for _, u := range cfg.Mirror.Units {
		// device_name sanity (ASCII only)
		for i := 0; i < len(u.DeviceName); i++ {
			if u.DeviceName[i] > 0x7F {
				return fmt.Errorf(
					"unit %q: device_name must contain ASCII characters only",
					u.ID,
				)
			}
		}

		// status is opt-in
		if u.StatusSlot == nil {
			continue
		}

		if cfg.Mirror.StatusMemory.Endpoint == "" {
			return fmt.Errorf(
				"unit %q: status_slot is set but status_memory.endpoint is empty",
				u.ID,
			)
		}

		// status requires at least one target
		if len(u.Targets) == 0 {
			return fmt.Errorf(
				"unit %q: status_slot is set but no targets are defined",
				u.ID,
			)
		}

		slot := *u.StatusSlot

		for _, t := range u.Targets {
			// each target must declare status_unit_id
			if t.StatusUnitID == nil {
				return fmt.Errorf(
					"unit %q: status_slot is set but target %q has no status_unit_id",
					u.ID,
					t.Endpoint,
				)
			}

			key := fmt.Sprintf(
				"%s|%d|%d",
				cfg.Mirror.StatusMemory.Endpoint,
				*t.StatusUnitID,
				slot,
			)

			if prev, exists := statusOwner[key]; exists {
				return fmt.Errorf(
					"status_slot collision: endpoint=%s status_unit_id=%d slot=%d used by units %q and %q",
					cfg.Mirror.StatusMemory.Endpoint,
					*t.StatusUnitID,
					slot,
					prev,
					u.ID,
				)
			}

			statusOwner[key] = u.ID
		}
	}

	return nil
}

// WidthFunc returns the bit length (1, 8, 16 or 32) of a field name.
type WidthFunc func(name string) (uint8, error)

// Area names the Modbus memory a field is mirrored into.
type Area string

const (
	AreaCoils     Area = "coils"
	AreaRegisters Area = "registers"
)

// Placement returns where a field of the given bit length lands and how
// many coils or registers it takes.
func Placement(bits uint8) (Area, uint16) {
	switch bits {
	case 1:
		return AreaCoils, 1
	case 32:
		return AreaRegisters, 2
	default:
		return AreaRegisters, 1
	}
}

// ValidateLayout checks that no two fields share a coil or register of
// the same target memory. It needs the field widths, so it runs once the
// names can be resolved.
// It MUST NOT mutate configuration.
func ValidateLayout(cfg *Config, width WidthFunc) error {
	type span struct {
		start uint32
		end   uint32
		unit  string
		field string
	}

	// key = endpoint | unit_id | area
	spans := make(map[string][]span)

	for _, u := range cfg.Mirror.Units {
		for _, f := range u.Fields {
			bits, err := width(f.Name)
			if err != nil {
				return fmt.Errorf("unit %q: field %q: %w", u.ID, f.Name, err)
			}
			area, n := Placement(bits)

			for _, t := range u.Targets {
				offset := t.RegisterOffset
				if area == AreaCoils {
					offset = t.CoilOffset
				}

				start := uint32(offset) + uint32(f.Register)
				end := start + uint32(n) - 1
				if end > 0xFFFF {
					return fmt.Errorf(
						"unit %q: field %q: %s %d-%d exceed the address space of %s",
						u.ID, f.Name, area, start, end, t.Endpoint,
					)
				}

				key := fmt.Sprintf("%s|%d|%s", t.Endpoint, t.UnitID, area)

				for _, s := range spans[key] {
					// overlap check (inclusive)
					if !(end < s.start || start > s.end) {
						return fmt.Errorf(
							"memory overlap: endpoint=%s unit_id=%d %s range=%d-%d (unit=%s field=%s) overlaps with unit=%s field=%s range=%d-%d",
							t.Endpoint,
							t.UnitID,
							area,
							start,
							end,
							u.ID,
							f.Name,
							s.unit,
							s.field,
							s.start,
							s.end,
						)
					}
				}

				spans[key] = append(spans[key], span{
					start: start,
					end:   end,
					unit:  u.ID,
					field: f.Name,
				})
			}
		}
	}

	return nil
}
