package standalone

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ravekit/raved/internal/fixture"
	hueapi "github.com/ravekit/raved/internal/transport/hue"
	"github.com/ravekit/raved/internal/transport/wiz"
)

// TransportError reports a failure talking to a device: unreachable,
// timed out, or not configured for dispatch at all.
type TransportError struct {
	FixtureID string
	Reason    string
	Err       error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fixture %q: %s: %v", e.FixtureID, e.Reason, e.Err)
	}
	return fmt.Sprintf("fixture %q: %s", e.FixtureID, e.Reason)
}

func (e *TransportError) Unwrap() error { return e.Err }

// dispatch sends a state to the fixture's device over its brand transport.
// Both branches pre-check transport readiness and fail fast with a
// descriptive error instead of attempting the call.
func (r *Runtime) dispatch(ctx context.Context, f fixture.Fixture, st State) error {
	switch f.Brand {
	case fixture.BrandHue:
		return r.sendHue(ctx, f, st)
	case fixture.BrandWiz:
		return r.sendWiz(ctx, f, st)
	default:
		return &TransportError{
			FixtureID: f.ID,
			Reason:    fmt.Sprintf("no standalone transport for brand %q", f.Brand),
		}
	}
}

func (r *Runtime) sendHue(ctx context.Context, f fixture.Fixture, st State) error {
	h := f.Hue
	switch {
	case r.hue == nil:
		return &TransportError{FixtureID: f.ID, Reason: "hue transport not wired"}
	case fixture.NormalizePrivateIPv4(h.BridgeIP) == "":
		return &TransportError{FixtureID: f.ID, Reason: "hue bridge address missing or not on the private LAN"}
	case h.Username == "" || h.LightID == "":
		return &TransportError{FixtureID: f.ID, Reason: "hue bridge credentials incomplete"}
	}

	body := hueapi.LightState{
		On:             st.On,
		Bri:            briTo254(EffectiveBri(st)),
		TransitionTime: uint16(st.TransitionMs / 100),
	}
	if st.ColorMode == ColorCCT {
		ct := KelvinToMired(CurrentCctKelvin(st))
		body.Ct = &ct
	} else {
		hue16 := uint16(math.Round(st.Hue / 360 * 65535))
		sat := uint8(math.Round(clamp(st.Sat, 0, 100) / 100 * 254))
		body.Hue = &hue16
		body.Sat = &sat
	}

	sendID := uuid.NewString()
	err := r.hue.SetLightState(ctx, hueapi.Target{
		FixtureID: f.ID,
		BridgeIP:  h.BridgeIP,
		Username:  h.Username,
		LightID:   h.LightID,
	}, body)
	if err != nil {
		return &TransportError{FixtureID: f.ID, Reason: "hue dispatch failed", Err: err}
	}
	log.Debug().Str("fixture", f.ID).Str("send_id", sendID).Bool("on", st.On).Msg("Hue dispatch complete")
	return nil
}

func (r *Runtime) sendWiz(ctx context.Context, f fixture.Fixture, st State) error {
	if fixture.NormalizePrivateIPv4(f.Wiz.IP) == "" {
		return &TransportError{FixtureID: f.ID, Reason: "wiz address missing or not on the private LAN"}
	}

	r.mu.Lock()
	adapter := r.adapters[f.ID]
	r.mu.Unlock()
	if adapter == nil {
		return &TransportError{FixtureID: f.ID, Reason: "wiz adapter not open"}
	}

	pilot := wiz.Pilot{
		State:   st.On,
		Dimming: int(math.Round(clamp(EffectiveBri(st), 1, 100))),
	}
	if st.ColorMode == ColorCCT {
		temp := int(math.Round(CurrentCctKelvin(st)))
		pilot.Temp = &temp
	} else {
		cr, cg, cb := HsvToRgb(st.Hue, st.Sat, 100)
		pilot.R, pilot.G, pilot.B = &cr, &cg, &cb
	}

	sendID := uuid.NewString()
	if err := adapter.Send(ctx, pilot); err != nil {
		return &TransportError{FixtureID: f.ID, Reason: "wiz dispatch failed", Err: err}
	}
	log.Debug().Str("fixture", f.ID).Str("send_id", sendID).Bool("on", st.On).Msg("WiZ dispatch complete")
	return nil
}

// sendWithRetry dispatches with up to RetryAttempts attempts and a fixed
// inter-attempt delay. Used only for fire-and-forget lifecycle broadcasts,
// never for interactive calls.
func (r *Runtime) sendWithRetry(ctx context.Context, f fixture.Fixture, st State) error {
	var lastErr error
	for attempt := 1; attempt <= r.opts.RetryAttempts; attempt++ {
		lastErr = r.dispatch(ctx, f, st)
		if lastErr == nil {
			return nil
		}
		if attempt < r.opts.RetryAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.opts.RetryDelay):
			}
		}
	}
	return lastErr
}

func briTo254(bri float64) uint8 {
	v := math.Round(clamp(bri, 1, 100) / 100 * 254)
	if v < 1 {
		v = 1
	}
	return uint8(v)
}
