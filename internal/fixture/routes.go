package fixture

import (
	"os"
	"sort"
	"strings"
)

// The four fixed intents external triggers are routed by. Each intent binds
// one brand (or any) and one control surface.
const (
	IntentHueState    = "HUE_STATE"
	IntentWizState    = "WIZ_STATE"
	IntentRavePulse   = "RAVE_PULSE"
	IntentAmbientFade = "AMBIENT_FADE"
)

// RouteNone is serialized when an intent resolves to no zones.
const RouteNone = "none"

type intentBinding struct {
	brand string // empty = any brand
	mode  string // engine|twitch|custom
}

var intentBindings = map[string]intentBinding{
	IntentHueState:    {brand: BrandHue, mode: "engine"},
	IntentWizState:    {brand: BrandWiz, mode: "engine"},
	IntentRavePulse:   {mode: "custom"},
	IntentAmbientFade: {mode: "twitch"},
}

// IntentNames returns the fixed intent set in stable order.
func IntentNames() []string {
	return []string{IntentHueState, IntentWizState, IntentRavePulse, IntentAmbientFade}
}

// routeEnvVar is the per-intent environment override, e.g.
// ROUTE_HUE_STATE_ZONE.
func routeEnvVar(intent string) string {
	return "ROUTE_" + intent + "_ZONE"
}

// DeriveIntentRoutes computes the intent to zone routing for a fixture set.
// A per-intent environment override wins outright; otherwise the route is
// the distinct zones of enabled fixtures matching the intent's bound
// brand and mode, joined with ",", or "none" when empty.
func DeriveIntentRoutes(fixtures []Fixture) map[string]string {
	routes := make(map[string]string, len(intentBindings))
	for _, intent := range IntentNames() {
		if override := strings.TrimSpace(os.Getenv(routeEnvVar(intent))); override != "" {
			routes[intent] = override
			continue
		}
		routes[intent] = joinZones(zonesForIntent(fixtures, intentBindings[intent]))
	}
	return routes
}

func zonesForIntent(fixtures []Fixture, b intentBinding) []string {
	seen := make(map[string]struct{})
	var zones []string
	for i := range fixtures {
		f := &fixtures[i]
		if !f.Enabled {
			continue
		}
		if b.brand != "" && f.Brand != b.brand {
			continue
		}
		if !matchesMode(f, b.mode) {
			continue
		}
		if _, ok := seen[f.Zone]; ok {
			continue
		}
		seen[f.Zone] = struct{}{}
		zones = append(zones, f.Zone)
	}
	sort.Strings(zones)
	return zones
}

func matchesMode(f *Fixture, mode string) bool {
	switch mode {
	case "engine":
		return f.EngineEnabled
	case "twitch":
		return f.TwitchEnabled
	case "custom":
		return f.CustomEnabled
	default:
		return false
	}
}

func joinZones(zones []string) string {
	if len(zones) == 0 {
		return RouteNone
	}
	return strings.Join(zones, ",")
}
