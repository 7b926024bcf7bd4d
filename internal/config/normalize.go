// internal/config/normalize.go
package config

// DefaultTimeoutMs is the Modbus endpoint timeout when a unit sets none.
const DefaultTimeoutMs = 1000

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	for ui := range cfg.Mirror.Units {
		u := &cfg.Mirror.Units[ui]

		if u.TimeoutMs <= 0 {
			u.TimeoutMs = DefaultTimeoutMs
		}

		// Skip units that did not opt in
		if u.StatusSlot == nil {
			continue
		}

		// device_name is ASCII (validated) and stored in 16 characters
		if len(u.DeviceName) > 16 {
			u.DeviceName = u.DeviceName[:16]
		}
	}
}
