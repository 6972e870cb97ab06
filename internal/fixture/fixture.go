// Package fixture implements the fixture registry: the config-driven device
// model, validation and normalization rules, intent routing, persistence with
// backup rotation, and hot reload.
package fixture

import (
	"regexp"
)

// Builtin brands with first-class transports.
const (
	BrandHue = "hue"
	BrandWiz = "wiz"
)

// Control modes.
const (
	ControlModeEngine     = "engine"
	ControlModeStandalone = "standalone"
)

// BindingStandalone is the engine binding of a fixture not coupled to the
// engine.
const BindingStandalone = "standalone"

// modBrandPattern validates brand names contributed by mods: lowercase,
// 2-32 chars, letter first.
var modBrandPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,31}$`)

// HueTransport carries the Hue bridge credentials for one fixture.
type HueTransport struct {
	BridgeIP            string `json:"bridgeIp,omitempty"`
	Username            string `json:"username,omitempty"`
	LightID             string `json:"lightId,omitempty"`
	BridgeID            string `json:"bridgeId,omitempty"`
	ClientKey           string `json:"clientKey,omitempty"`
	EntertainmentAreaID string `json:"entertainmentAreaId,omitempty"`
}

// WizTransport carries the WiZ lamp address for one fixture.
type WizTransport struct {
	IP string `json:"ip,omitempty"`
}

// Fixture is one addressable lighting device or group.
type Fixture struct {
	ID            string `json:"id"`
	Brand         string `json:"brand"`
	Zone          string `json:"zone"`
	Enabled       bool   `json:"enabled"`
	ControlMode   string `json:"controlMode"`
	EngineBinding string `json:"engineBinding"`
	EngineEnabled bool   `json:"engineEnabled"`
	TwitchEnabled bool   `json:"twitchEnabled"`
	CustomEnabled bool   `json:"customEnabled"`

	Hue HueTransport `json:"hue,omitempty"`
	Wiz WizTransport `json:"wiz,omitempty"`

	// Ext carries passthrough fields for mod brands. Builtin brands keep it
	// empty.
	Ext map[string]any `json:"ext,omitempty"`
}

// IsBuiltinBrand reports whether brand has a first-class transport.
func IsBuiltinBrand(brand string) bool {
	return brand == BrandHue || brand == BrandWiz
}

// IsValidBrand reports whether brand is builtin or a well-formed mod brand.
func IsValidBrand(brand string) bool {
	if IsBuiltinBrand(brand) {
		return true
	}
	return modBrandPattern.MatchString(brand)
}

// EngineCoupled reports whether the fixture is currently driven by the engine
// rather than the standalone runtime.
func (f *Fixture) EngineCoupled() bool {
	return f.ControlMode == ControlModeEngine
}

// TransportConfigured reports whether the fixture carries enough transport
// data to be dispatched to.
func (f *Fixture) TransportConfigured() bool {
	switch f.Brand {
	case BrandHue:
		return f.Hue.BridgeIP != "" && f.Hue.Username != "" && f.Hue.LightID != ""
	case BrandWiz:
		return f.Wiz.IP != ""
	default:
		// Mod brands dispatch through their own handlers; any extension
		// payload counts as configured.
		return len(f.Ext) > 0
	}
}

// Clone returns a deep copy of the fixture.
func (f *Fixture) Clone() Fixture {
	c := *f
	if f.Ext != nil {
		c.Ext = make(map[string]any, len(f.Ext))
		for k, v := range f.Ext {
			c.Ext[k] = v
		}
	}
	return c
}

// brandHandler dispatches per-brand normalization concerns. Builtin brands
// get dedicated handlers; everything matching the mod pattern shares the
// generic one.
type brandHandler struct {
	canonicalZone string
	hydrate       func(f *Fixture, raw map[string]any)
	validate      func(f *Fixture) error
}

var brandHandlers = map[string]brandHandler{
	BrandHue: {
		canonicalZone: "front",
		hydrate:       hydrateHue,
		validate:      validateHue,
	},
	BrandWiz: {
		canonicalZone: "rear",
		hydrate:       hydrateWiz,
		validate:      validateWiz,
	},
}

// genericHandler serves mod brands: free-form extension fields, zone
// defaults to "custom", no transport validation.
var genericHandler = brandHandler{
	canonicalZone: "custom",
	hydrate:       hydrateGeneric,
	validate:      func(*Fixture) error { return nil },
}

func handlerFor(brand string) brandHandler {
	if h, ok := brandHandlers[brand]; ok {
		return h
	}
	return genericHandler
}
