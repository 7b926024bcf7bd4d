// Package gen turns a PiCtory configuration into fixed-address field
// accessors, either as generated Go source or as a lookup table built at
// startup. Both skip the per-call name lookup through the driver.
package gen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tamzrod/revpi/pkg/picontrol"
	"github.com/tamzrod/revpi/pkg/rsc"
)

// Dir is the direction of a field, from the program's point of view.
type Dir uint8

const (
	Input Dir = iota
	Output
	Memory
)

func (d Dir) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	case Memory:
		return "memory"
	}
	return fmt.Sprintf("Dir(%d)", uint8(d))
}

// Writable reports whether fields of this direction get a setter.
func (d Dir) Writable() bool { return d != Input }

var sectionDir = map[rsc.Section]Dir{
	rsc.Inputs:  Input,
	rsc.Outputs: Output,
	rsc.Memory:  Memory,
}

// Field is one planned accessor with its absolute address.
type Field struct {
	Name    string
	Ident   string // Go identifier suffix of Get/Set
	Address uint16
	Bit     uint8 // only meaningful for 1-bit fields
	Width   picontrol.Width
	Dir     Dir
	Device  string
	Comment string
}

// Descriptor returns the field as the accessor addresses it.
func (f Field) Descriptor() picontrol.FieldDescriptor {
	d := picontrol.FieldDescriptor{Name: f.Name, Address: f.Address, Width: f.Width}
	if f.Width == picontrol.Width1 {
		bit := f.Bit
		d.Bit = &bit
	}
	return d
}

// Plan lists the fields of r in emission order: devices as they appear in
// the document, and per device its inputs, outputs and memory, each by
// ascending index.
//
// A bit length other than 1, 8, 16 or 32, a 1-bit field without a bit
// position, a field outside the image, or two names that map to the same
// identifier abort the plan.
func Plan(r *rsc.RSC) ([]Field, error) {
	var (
		out    []Field
		idents = make(map[string]string)
	)

	for _, dev := range r.Devices {
		for _, sec := range rsc.Sections {
			entries := dev.Fields(sec)
			for _, k := range entries.Keys() {
				f, err := planEntry(dev, sectionDir[sec], entries[k])
				if err != nil {
					return nil, fmt.Errorf("gen: device %q %s[%d]: %w", dev.Name, sec, k, err)
				}
				if prev, dup := idents[f.Ident]; dup {
					return nil, fmt.Errorf("gen: device %q %s[%d]: %q and %q both map to %s", dev.Name, sec, k, prev, f.Name, f.Ident)
				}
				idents[f.Ident] = f.Name
				out = append(out, f)
			}
		}
	}
	return out, nil
}

func planEntry(dev rsc.Device, dir Dir, e rsc.Entry) (Field, error) {
	width, ok := picontrol.WidthOf(uint16(e.BitLength))
	if !ok {
		return Field{}, fmt.Errorf("%q: invalid bit length %d", e.Name, e.BitLength)
	}
	if e.Name == "" {
		return Field{}, fmt.Errorf("field without name")
	}

	addr := dev.Offset + e.Offset
	var bit uint8
	if width == picontrol.Width1 {
		if e.BitPosition == nil {
			return Field{}, fmt.Errorf("%q: bit field without bit position", e.Name)
		}
		// DIO-style modules number the bits of a multi-byte field
		// continuously from the entry offset.
		addr += uint64(*e.BitPosition / 8)
		bit = *e.BitPosition % 8
	}
	if addr+uint64(width.Bytes()) > picontrol.ImageLen {
		return Field{}, fmt.Errorf("%q: address %d outside the image", e.Name, addr)
	}

	return Field{
		Name:    e.Name,
		Ident:   Ident(e.Name),
		Address: uint16(addr),
		Bit:     bit,
		Width:   width,
		Dir:     dir,
		Device:  dev.Name,
		Comment: oneLine(e.Comment),
	}, nil
}

// Ident maps a field name to the identifier suffix used after Get and
// Set. Characters not allowed in identifiers become underscores.
func Ident(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, name)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
