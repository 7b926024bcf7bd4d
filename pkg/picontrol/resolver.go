package picontrol

// Lookup turns a field name into a descriptor. Resolver does it through
// the driver on every call; a registration table built from the
// configuration does it from memory.
type Lookup interface {
	Resolve(name string) (FieldDescriptor, error)
}

// Resolver translates field names into descriptors through the driver's
// variable table.
type Resolver struct {
	ch *Channel
}

var _ Lookup = (*Resolver)(nil)

func NewResolver(ch *Channel) *Resolver {
	return &Resolver{ch: ch}
}

// Resolve returns the descriptor of name. An oversized name and an
// unknown name are both InvalidArgument and are told apart with
// IsNameTooLong and IsUnknownName. A bit length outside 1, 8, 16 and 32
// is a ProtocolViolation.
func (r *Resolver) Resolve(name string) (FieldDescriptor, error) {
	d, err := r.ch.FindVariable(name)
	if err != nil {
		return FieldDescriptor{}, err
	}
	if err := d.Validate(); err != nil {
		return FieldDescriptor{}, violation("resolve", "%v", err)
	}
	return d, nil
}
