// internal/config/config.go
package config

type Config struct {
	Mirror MirrorConfig `yaml:"mirror"`
}

type MirrorConfig struct {
	// Device is the piControl character device; empty means the default.
	Device string `yaml:"device"`

	// RSC, when set, resolves field names from this PiCtory file once at
	// startup instead of asking the driver.
	RSC string `yaml:"rsc"`

	StatusMemory StatusMemoryConfig `yaml:"status_memory"`
	Units        []UnitConfig       `yaml:"units"`
}

type StatusMemoryConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// ---- UNIT ----

type UnitConfig struct {
	ID        string         `yaml:"id"`
	Fields    []FieldConfig  `yaml:"fields"`
	Targets   []TargetConfig `yaml:"targets"`
	Poll      PollConfig     `yaml:"poll"`
	TimeoutMs int            `yaml:"timeout_ms"`

	// Device status block (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
	DeviceName string  `yaml:"device_name"`
}

// ---- FIELD ----

// FieldConfig names one process image field and the coil or register it
// lands on, relative to the target's offsets. Bits become coils, wider
// fields holding registers; a 32-bit field takes two registers.
type FieldConfig struct {
	Name     string `yaml:"name"`
	Register uint16 `yaml:"register"`
}

// ---- TARGET ----

type TargetConfig struct {
	Endpoint       string `yaml:"endpoint"`
	UnitID         uint8  `yaml:"unit_id"`        // data memory
	StatusUnitID   *uint8 `yaml:"status_unit_id"` // per-target status memory (optional)
	CoilOffset     uint16 `yaml:"coil_offset"`
	RegisterOffset uint16 `yaml:"register_offset"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}
