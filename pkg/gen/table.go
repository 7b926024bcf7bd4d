package gen

import (
	"fmt"

	"github.com/tamzrod/revpi/pkg/picontrol"
)

// Handle indexes a field of a Table.
type Handle int

// Table is the run-time counterpart of the generated accessors: fields
// are resolved once, when the table is built, and afterwards addressed by
// handle.
type Table struct {
	acc    *picontrol.Accessor
	fields []Field
	descs  []picontrol.FieldDescriptor
	index  map[string]Handle
}

var _ picontrol.Lookup = (*Table)(nil)

// NewTable builds a table over fields. acc may be nil when the table only
// serves Resolve. For repeated names the first field wins, as in the
// driver's own table.
func NewTable(acc *picontrol.Accessor, fields []Field) *Table {
	t := &Table{
		acc:    acc,
		fields: fields,
		descs:  make([]picontrol.FieldDescriptor, len(fields)),
		index:  make(map[string]Handle, len(fields)),
	}
	for i, f := range fields {
		t.descs[i] = f.Descriptor()
		if _, ok := t.index[f.Name]; !ok {
			t.index[f.Name] = Handle(i)
		}
	}
	return t
}

func (t *Table) Len() int { return len(t.fields) }

// Index returns the handle of name.
func (t *Table) Index(name string) (Handle, bool) {
	h, ok := t.index[name]
	return h, ok
}

// Field returns the planned field behind h.
func (t *Table) Field(h Handle) (Field, bool) {
	if h < 0 || int(h) >= len(t.fields) {
		return Field{}, false
	}
	return t.fields[h], true
}

// Resolve returns the descriptor of name without asking the driver.
func (t *Table) Resolve(name string) (picontrol.FieldDescriptor, error) {
	h, ok := t.index[name]
	if !ok {
		return picontrol.FieldDescriptor{}, &picontrol.Error{
			Kind: picontrol.InvalidArgument, Op: "resolve", Arg: picontrol.ArgName,
			Msg: fmt.Sprintf("unknown variable %q", name),
		}
	}
	return t.descs[h], nil
}

func (t *Table) handle(op string, h Handle) error {
	if h < 0 || int(h) >= len(t.fields) {
		return &picontrol.Error{
			Kind: picontrol.InvalidArgument, Op: op, Arg: picontrol.ArgField,
			Msg: fmt.Sprintf("no field with handle %d", h),
		}
	}
	if t.acc == nil {
		return &picontrol.Error{Kind: picontrol.IoFailure, Op: op, Msg: "table has no accessor"}
	}
	return nil
}

// Get reads the field h.
func (t *Table) Get(h Handle) (picontrol.Value, error) {
	if err := t.handle("get", h); err != nil {
		return picontrol.Value{}, err
	}
	return t.acc.Read(t.descs[h])
}

// Set writes v into the field h. Inputs are read-only.
func (t *Table) Set(h Handle, v picontrol.Value) error {
	if err := t.handle("set", h); err != nil {
		return err
	}
	if !t.fields[h].Dir.Writable() {
		return &picontrol.Error{
			Kind: picontrol.InvalidArgument, Op: "set", Arg: picontrol.ArgReadOnly,
			Msg: fmt.Sprintf("%q is an input", t.fields[h].Name),
		}
	}
	return t.acc.Write(t.descs[h], v)
}

// GetValue reads the field name.
func (t *Table) GetValue(name string) (picontrol.Value, error) {
	h, ok := t.index[name]
	if !ok {
		_, err := t.Resolve(name)
		return picontrol.Value{}, err
	}
	return t.Get(h)
}

// SetValue writes v into the field name.
func (t *Table) SetValue(name string, v picontrol.Value) error {
	h, ok := t.index[name]
	if !ok {
		_, err := t.Resolve(name)
		return err
	}
	return t.Set(h, v)
}
