// Package hue dispatches standalone state to Philips Hue bridges over the
// v1 REST API.
package hue

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds every bridge call.
const DefaultTimeout = 1800 * time.Millisecond

// Target addresses one light on one bridge.
type Target struct {
	FixtureID string
	BridgeIP  string
	Username  string
	LightID   string
}

// LightState is the v1 light state body. Either Ct or Hue/Sat is set, never
// both.
type LightState struct {
	On             bool    `json:"on"`
	Bri            uint8   `json:"bri"`
	TransitionTime uint16  `json:"transitiontime"`
	Ct             *int    `json:"ct,omitempty"`
	Hue            *uint16 `json:"hue,omitempty"`
	Sat            *uint8  `json:"sat,omitempty"`
}

// TLSProvider optionally supplies a per-fixture TLS configuration, e.g. for
// bridges with pinned certificates.
type TLSProvider interface {
	TLSConfigFor(fixtureID string) *tls.Config
}

// Client talks to Hue bridges. Calls are rate limited globally; the bridge
// drops commands when flooded.
type Client struct {
	timeout time.Duration
	limiter *rate.Limiter
	tlsFor  TLSProvider

	base *http.Client
}

// NewClient creates a Hue dispatch client. rps caps bridge calls per
// second; zero disables the limiter. tlsFor may be nil, in which case the
// bridge's self-signed certificate is accepted.
func NewClient(timeout time.Duration, rps float64, tlsFor TLSProvider) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	return &Client{
		timeout: timeout,
		limiter: limiter,
		tlsFor:  tlsFor,
		base: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// SetLightState PUTs the state onto the target light. The call is bounded
// by the client timeout regardless of the caller's context.
func (c *Client) SetLightState(ctx context.Context, target Target, state LightState) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode light state: %w", err)
	}

	url := fmt.Sprintf("https://%s/api/%s/lights/%s/state", target.BridgeIP, target.Username, target.LightID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.clientFor(target.FixtureID).Do(req)
	if err != nil {
		return fmt.Errorf("hue bridge %s: %w", target.BridgeIP, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hue bridge %s returned %d: %s", target.BridgeIP, resp.StatusCode, string(msg))
	}

	log.Debug().
		Str("fixture", target.FixtureID).
		Str("bridge", target.BridgeIP).
		Str("light", target.LightID).
		Msg("Hue state applied")
	return nil
}

// clientFor returns the shared client, or one carrying the fixture's TLS
// configuration when a provider supplies it.
func (c *Client) clientFor(fixtureID string) *http.Client {
	if c.tlsFor == nil {
		return c.base
	}
	cfg := c.tlsFor.TLSConfigFor(fixtureID)
	if cfg == nil {
		return c.base
	}
	return &http.Client{
		Transport: &http.Transport{TLSClientConfig: cfg},
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.base.CloseIdleConnections()
	return nil
}
