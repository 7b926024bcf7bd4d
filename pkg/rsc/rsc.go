// Package rsc models the PiCtory configuration file (config.rsc) that
// describes the modules of a RevPi and the fields of their process image.
//
// Most integers in an rsc file are wrapped in strings, and the entries of
// the inp, out and mem sections are positional arrays rather than objects.
// The types below read and write that encoding unchanged.
package rsc

import (
	"encoding/json"
	"fmt"
	"sort"
)

// App is the "App" section: the tool that saved the file.
type App struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	SaveTS   string          `json:"saveTS"`
	Language string          `json:"language"`
	Layout   json.RawMessage `json:"layout"`
}

// Summary is the "Summary" section.
type Summary struct {
	InpTotal int `json:"inpTotal"`
	OutTotal int `json:"outTotal"`
}

// Device is one module. Offset is the base address of its fields in the
// process image.
type Device struct {
	GUID        string          `json:"GUID"`
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	ProductType uint64          `json:"productType,string"`
	Position    uint64          `json:"position,string"`
	Name        string          `json:"name"`
	BMK         string          `json:"bmk"`
	InpVariant  uint64          `json:"inpVariant"`
	OutVariant  uint64          `json:"outVariant"`
	Comment     string          `json:"comment"`
	Offset      uint64          `json:"offset"`
	Inp         Fields          `json:"inp"`
	Out         Fields          `json:"out"`
	Mem         Fields          `json:"mem"`
	Extend      json.RawMessage `json:"extend"`
	Active      *bool           `json:"active,omitempty"`
}

// RSC is a whole configuration file.
type RSC struct {
	App         App             `json:"App"`
	Summary     Summary         `json:"Summary"`
	Devices     []Device        `json:"Devices"`
	Connections json.RawMessage `json:"Connections,omitempty"`
}

// Fields maps the positional index of an entry to the entry.
type Fields map[uint64]Entry

// Keys returns the indices in ascending order.
func (f Fields) Keys() []uint64 {
	keys := make([]uint64, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Section names one of the three field collections of a device.
type Section string

const (
	Inputs  Section = "inp"
	Outputs Section = "out"
	Memory  Section = "mem"
)

// Sections lists the collections in the order they are laid out.
var Sections = []Section{Inputs, Outputs, Memory}

// Fields returns the collection s of d.
func (d Device) Fields(s Section) Fields {
	switch s {
	case Inputs:
		return d.Inp
	case Outputs:
		return d.Out
	case Memory:
		return d.Mem
	}
	return nil
}

// Find returns the first entry named name, in device order.
func (r *RSC) Find(name string) (dev *Device, sec Section, e Entry, ok bool) {
	for i := range r.Devices {
		d := &r.Devices[i]
		for _, s := range Sections {
			fields := d.Fields(s)
			for _, k := range fields.Keys() {
				if fields[k].Name == name {
					return d, s, fields[k], true
				}
			}
		}
	}
	return nil, "", Entry{}, false
}

// Parse decodes an rsc document.
func Parse(data []byte) (*RSC, error) {
	var r RSC
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("rsc: %w", err)
	}
	return &r, nil
}
