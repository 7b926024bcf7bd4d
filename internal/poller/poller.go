// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tamzrod/revpi/pkg/picontrol"
)

// Client reads one field of the process image. *picontrol.Accessor
// satisfies it.
type Client interface {
	Read(d picontrol.FieldDescriptor) (picontrol.Value, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	UnitID   string
	Interval time.Duration
	Reads    []FieldRead
}

// Poller is a dumb, clock-driven reader.
type Poller struct {
	cfg    Config
	client Client
}

// New creates a poller with immutable config.
func New(cfg Config, client Client) (*Poller, error) {
	if cfg.UnitID == "" {
		return nil, errors.New("poller: unit id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Reads) == 0 {
		return nil, errors.New("poller: at least one field required")
	}
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	return &Poller{cfg: cfg, client: client}, nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
func (p *Poller) PollOnce() PollResult {
	res := PollResult{
		UnitID: p.cfg.UnitID,
		At:     time.Now(),
	}

	fields := make([]FieldResult, 0, len(p.cfg.Reads))

	for _, r := range p.cfg.Reads {
		v, err := p.client.Read(r.Field)
		if err != nil {
			res.Err = fmt.Errorf("poller: %s: %w", r.Field.Name, err)
			return res
		}
		fields = append(fields, FieldResult{
			Name:     r.Field.Name,
			Register: r.Register,
			Value:    v,
		})
	}

	// Commit only if all reads succeeded
	res.Fields = fields
	return res
}

type serialized struct {
	mu     sync.Mutex
	client Client
}

// Serialized guards client with a mutex so that several pollers can share
// one piControl handle.
func Serialized(client Client) Client {
	return &serialized{client: client}
}

func (s *serialized) Read(d picontrol.FieldDescriptor) (picontrol.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.Read(d)
}
