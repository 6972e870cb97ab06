// Package wiz dispatches standalone state to WiZ lamps over their UDP
// setPilot protocol.
package wiz

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Port is the fixed WiZ control port.
const Port = 38899

// Defaults for the firmware-reliability resend loop.
const (
	DefaultResends       = 3
	DefaultResendSpacing = 40 * time.Millisecond
)

// Pilot is the setPilot parameter block. Either Temp (kelvin) or R/G/B is
// set.
type Pilot struct {
	State   bool   `json:"state"`
	Dimming int    `json:"dimming,omitempty"`
	Temp    *int   `json:"temp,omitempty"`
	R       *uint8 `json:"r,omitempty"`
	G       *uint8 `json:"g,omitempty"`
	B       *uint8 `json:"b,omitempty"`
}

type setPilotMessage struct {
	ID     int    `json:"id"`
	Method string `json:"method"`
	Params Pilot  `json:"params"`
}

// EncodeSetPilot builds the wire payload for a pilot.
func EncodeSetPilot(p Pilot) ([]byte, error) {
	return json.Marshal(setPilotMessage{ID: 1, Method: "setPilot", Params: p})
}

// Adapter is the stateful UDP client for one fixture. It is recreated when
// the fixture's ip changes and closed on removal or disable.
type Adapter struct {
	ip      string
	conn    *net.UDPConn
	resends int
	spacing time.Duration

	// seq guards the resend loop: a resend belonging to an older send stops
	// as soon as a newer pilot has been written for the same fixture.
	seq atomic.Uint64

	mu     sync.Mutex
	closed bool
}

// Dial opens an adapter to a WiZ lamp.
func Dial(ip string) (*Adapter, error) {
	return DialWithRetransmit(ip, DefaultResends, DefaultResendSpacing)
}

// DialWithRetransmit opens an adapter with a custom resend schedule.
func DialWithRetransmit(ip string, resends int, spacing time.Duration) (*Adapter, error) {
	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", ip, Port))
	if err != nil {
		return nil, fmt.Errorf("resolve wiz %s: %w", ip, err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial wiz %s: %w", ip, err)
	}
	if resends < 1 {
		resends = 1
	}
	if spacing <= 0 {
		spacing = DefaultResendSpacing
	}
	return &Adapter{ip: ip, conn: conn, resends: resends, spacing: spacing}, nil
}

// IP returns the lamp address this adapter is bound to.
func (a *Adapter) IP() string { return a.ip }

// Send writes the pilot once synchronously, then retransmits it in the
// background for firmware reliability. A retransmission aborts as soon as a
// newer send has claimed the adapter, so a stale repeat can never overwrite
// a newer color.
func (a *Adapter) Send(ctx context.Context, p Pilot) error {
	payload, err := EncodeSetPilot(p)
	if err != nil {
		return fmt.Errorf("encode setPilot: %w", err)
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return fmt.Errorf("wiz adapter %s is closed", a.ip)
	}
	seq := a.seq.Add(1)
	if _, err := a.conn.Write(payload); err != nil {
		a.mu.Unlock()
		return fmt.Errorf("wiz %s: %w", a.ip, err)
	}
	a.mu.Unlock()

	if a.resends > 1 {
		go a.retransmit(seq, payload)
	}
	return nil
}

func (a *Adapter) retransmit(seq uint64, payload []byte) {
	for i := 1; i < a.resends; i++ {
		time.Sleep(a.spacing)
		if a.seq.Load() != seq {
			return
		}
		a.mu.Lock()
		if a.closed || a.seq.Load() != seq {
			a.mu.Unlock()
			return
		}
		if _, err := a.conn.Write(payload); err != nil {
			a.mu.Unlock()
			log.Debug().Err(err).Str("ip", a.ip).Msg("WiZ retransmit failed")
			return
		}
		a.mu.Unlock()
	}
}

// Close shuts the UDP socket. Further sends fail fast.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.conn.Close()
}
