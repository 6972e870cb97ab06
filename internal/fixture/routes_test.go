package fixture

import (
	"testing"
)

func routeFixture(id, brand, zone string, engine, twitch, custom bool) Fixture {
	return Fixture{
		ID: id, Brand: brand, Zone: zone, Enabled: true,
		EngineEnabled: engine, TwitchEnabled: twitch, CustomEnabled: custom,
	}
}

func clearRouteEnv(t *testing.T) {
	t.Helper()
	for _, intent := range IntentNames() {
		t.Setenv(routeEnvVar(intent), "")
	}
}

func TestDeriveIntentRoutes(t *testing.T) {
	clearRouteEnv(t)

	fixtures := []Fixture{
		routeFixture("h1", "hue", "front", true, false, false),
		routeFixture("h2", "hue", "booth", true, false, false),
		routeFixture("h3", "hue", "front", true, false, false), // duplicate zone
		routeFixture("w1", "wiz", "rear", true, false, false),
		routeFixture("c1", "wiz", "rear", false, false, true),
		routeFixture("c2", "nanoleaf", "custom", false, false, true),
		routeFixture("t1", "hue", "front", false, true, false),
	}

	routes := DeriveIntentRoutes(fixtures)

	if got := routes[IntentHueState]; got != "booth,front" {
		t.Errorf("HUE_STATE = %q, want booth,front", got)
	}
	if got := routes[IntentWizState]; got != "rear" {
		t.Errorf("WIZ_STATE = %q, want rear", got)
	}
	if got := routes[IntentRavePulse]; got != "custom,rear" {
		t.Errorf("RAVE_PULSE = %q, want custom,rear", got)
	}
	if got := routes[IntentAmbientFade]; got != "front" {
		t.Errorf("AMBIENT_FADE = %q, want front", got)
	}
}

func TestDeriveIntentRoutesNone(t *testing.T) {
	clearRouteEnv(t)

	routes := DeriveIntentRoutes(nil)
	for _, intent := range IntentNames() {
		if routes[intent] != RouteNone {
			t.Errorf("%s = %q, want none", intent, routes[intent])
		}
	}
}

func TestDeriveIntentRoutesSkipsDisabled(t *testing.T) {
	clearRouteEnv(t)

	f := routeFixture("h1", "hue", "front", true, false, false)
	f.Enabled = false
	routes := DeriveIntentRoutes([]Fixture{f})
	if routes[IntentHueState] != RouteNone {
		t.Errorf("HUE_STATE = %q, want none for disabled fixture", routes[IntentHueState])
	}
}

func TestDeriveIntentRoutesEnvOverride(t *testing.T) {
	clearRouteEnv(t)
	t.Setenv("ROUTE_HUE_STATE_ZONE", "stage")

	fixtures := []Fixture{routeFixture("h1", "hue", "front", true, false, false)}
	routes := DeriveIntentRoutes(fixtures)

	if routes[IntentHueState] != "stage" {
		t.Errorf("HUE_STATE = %q, want env override stage", routes[IntentHueState])
	}
	// Other intents are unaffected by the override.
	if routes[IntentWizState] != RouteNone {
		t.Errorf("WIZ_STATE = %q, want none", routes[IntentWizState])
	}
}
