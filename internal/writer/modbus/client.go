// internal/writer/modbus/client.go
package modbus

import (
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	log "github.com/sirupsen/logrus"
)

// EndpointClient is a single TCP connection to one Modbus memory.
// It serializes requests because it mutates SlaveId per write.
type EndpointClient struct {
	mu       sync.Mutex
	endpoint string
	handler  *modbus.TCPClientHandler
	client   modbus.Client
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer modbus: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &EndpointClient{
		endpoint: cfg.Endpoint,
		handler:  h,
		client:   modbus.NewClient(h),
	}, nil
}

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// WriteCoils writes bits starting at addr. A single bit goes out as
// Write Single Coil (FC 5), more as Write Multiple Coils (FC 15).
func (c *EndpointClient) WriteCoils(unitID uint8, addr uint16, bits []bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID

	var err error
	if len(bits) == 1 {
		_, err = c.client.WriteSingleCoil(addr, coilValue(bits[0]))
	} else {
		_, err = c.client.WriteMultipleCoils(addr, uint16(len(bits)), packBits(bits))
	}
	c.trace("coils", unitID, addr, len(bits), err)
	return err
}

// WriteRegisters writes holding registers starting at addr. A single
// register goes out as Write Single Register (FC 6), more as Write
// Multiple Registers (FC 16).
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID

	var err error
	if len(regs) == 1 {
		_, err = c.client.WriteSingleRegister(addr, regs[0])
	} else {
		_, err = c.client.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs))
	}
	c.trace("registers", unitID, addr, len(regs), err)
	return err
}

func (c *EndpointClient) trace(area string, unitID uint8, addr uint16, qty int, err error) {
	log.WithFields(log.Fields{
		"endpoint": c.endpoint,
		"unit":     unitID,
		"area":     area,
		"addr":     addr,
		"qty":      qty,
		"err":      err,
	}).Debug("modbus: write")
}

func coilValue(on bool) uint16 {
	if on {
		return 0xFF00
	}
	return 0x0000
}

func packBits(bits []bool) []byte {
	n := (len(bits) + 7) / 8
	out := make([]byte, n)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
