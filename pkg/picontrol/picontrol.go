// Package picontrol gives typed, name-addressable access to the process
// image of the RevPi piControl driver.
//
//	c, err := picontrol.New(picontrol.DefaultDevice)
//	if err != nil { ... }
//	defer c.Close()
//	err = c.SetValue("RevPiLED", picontrol.ByteValue(42))
//
// Client resolves the name on every call. For hot paths, generate
// accessors with pigen, or build a gen.Table once at startup.
//
// Channel exposes every driver request, including the pass-through ones
// (SetExportedOutputs, UpdateFirmware) that bypass all safety checks.
package picontrol

// Client reads and writes fields by name.
type Client struct {
	ch  *Channel
	acc *Accessor
	res *Resolver
}

// New opens the device at path.
func New(path string) (*Client, error) {
	ch, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewClient(ch), nil
}

// NewClient builds a Client on an open channel.
func NewClient(ch *Channel) *Client {
	return &Client{
		ch:  ch,
		acc: NewAccessor(ch),
		res: NewResolver(ch),
	}
}

func (c *Client) Channel() *Channel { return c.ch }
func (c *Client) Accessor() *Accessor { return c.acc }
func (c *Client) Resolver() *Resolver { return c.res }

func (c *Client) Close() error { return c.ch.Close() }

// GetValue reads the field name. The variant of the result follows the
// bit length of the field.
func (c *Client) GetValue(name string) (Value, error) {
	d, err := c.res.Resolve(name)
	if err != nil {
		return Value{}, err
	}
	return c.acc.Read(d)
}

// SetValue writes v into the field name. The width of v must match the
// bit length of the field, otherwise InvalidArgument("value or str").
func (c *Client) SetValue(name string, v Value) error {
	d, err := c.res.Resolve(name)
	if err != nil {
		return err
	}
	return c.acc.Write(d, v)
}
