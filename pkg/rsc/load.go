package rsc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// DefaultPaths are the locations of the running configuration, newest
// layout first.
var DefaultPaths = []string{
	"/etc/revpi/config.rsc",
	"/opt/KUNBUS/config.rsc",
}

// Load reads and parses the rsc file at path.
func Load(path string) (*RSC, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rsc: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// LoadDefault loads the first existing file of DefaultPaths.
func LoadDefault() (*RSC, string, error) {
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		r, err := Load(p)
		return r, p, err
	}
	return nil, "", fmt.Errorf("rsc: no configuration in %v: %w", DefaultPaths, fs.ErrNotExist)
}
