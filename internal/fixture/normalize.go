package fixture

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// Environment variables consulted when a transport field is absent from the
// config file.
const (
	envHueBridgeIP = "HUE_BRIDGE_IP"
	envHueUsername = "HUE_BRIDGE_USERNAME"
	envHueLightID  = "HUE_LIGHT_ID"
	envWizIP       = "WIZ_LIGHT_IP"
)

// looseBool parses the permissive boolean encodings that show up in
// hand-edited configs: bool, numbers, "true"/"1"/"yes"/"on".
func looseBool(v any, def bool) bool {
	switch t := v.(type) {
	case nil:
		return def
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off", "":
			return false
		}
		return def
	default:
		return def
	}
}

func rawString(raw map[string]any, key string) string {
	if v, ok := raw[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
		if f, ok := v.(float64); ok {
			return strings.TrimSuffix(fmt.Sprintf("%v", f), ".0")
		}
	}
	return ""
}

// NormalizePrivateIPv4 returns ip when it is a well-formed private or
// loopback IPv4 address, and the empty string otherwise. Addresses outside
// the LAN silently normalize away rather than erroring; the strict mutation
// path rejects them instead.
func NormalizePrivateIPv4(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil {
		return ""
	}
	if parsed.IsLoopback() || parsed.IsPrivate() {
		return ip
	}
	return ""
}

// hydrate order for transport fields: explicit config value, then
// environment variable, then empty.
func pickField(explicit, envVar string) string {
	if explicit != "" {
		return explicit
	}
	return strings.TrimSpace(os.Getenv(envVar))
}

func hydrateHue(f *Fixture, raw map[string]any) {
	h := &f.Hue
	h.BridgeIP = NormalizePrivateIPv4(pickField(h.BridgeIP, envHueBridgeIP))
	h.Username = pickField(h.Username, envHueUsername)
	h.LightID = pickField(h.LightID, envHueLightID)
	f.Wiz = WizTransport{}
	f.Ext = nil
}

func hydrateWiz(f *Fixture, raw map[string]any) {
	f.Wiz.IP = NormalizePrivateIPv4(pickField(f.Wiz.IP, envWizIP))
	f.Hue = HueTransport{}
	f.Ext = nil
}

func hydrateGeneric(f *Fixture, raw map[string]any) {
	f.Hue = HueTransport{}
	f.Wiz = WizTransport{}
	if f.Ext == nil {
		f.Ext = map[string]any{}
	}
	// Carry unknown top-level keys through so mod handlers keep their
	// settings across rewrites.
	for k, v := range raw {
		switch k {
		case "id", "brand", "zone", "enabled", "controlMode", "engineBinding",
			"engineEnabled", "twitchEnabled", "customEnabled", "hue", "wiz", "ext":
			continue
		}
		f.Ext[k] = v
	}
}

// NormalizeFixture turns a loosely-typed fixture record into a canonical
// Fixture. It never errors: unknown brands fall back to wiz, unreachable mode
// combinations are rescued, and non-private addresses normalize to empty.
// The index is only used for fallback ids.
func NormalizeFixture(raw map[string]any, index int) Fixture {
	f := decodeRaw(raw)

	if f.ID == "" {
		f.ID = fmt.Sprintf("fixture-%d", index)
	}

	f.Brand = strings.ToLower(strings.TrimSpace(f.Brand))
	if !IsValidBrand(f.Brand) {
		f.Brand = BrandWiz
	}

	f.EngineEnabled = looseBool(raw["engineEnabled"], false)
	f.TwitchEnabled = looseBool(raw["twitchEnabled"], false)
	f.CustomEnabled = looseBool(raw["customEnabled"], false)
	f.Enabled = looseBool(raw["enabled"], true)

	// Engine and custom are mutually exclusive; engine wins.
	if f.EngineEnabled && f.CustomEnabled {
		f.CustomEnabled = false
	}
	// Never produce an unreachable fixture: with no mode at all, rescue it
	// into custom.
	if !f.EngineEnabled && !f.TwitchEnabled && !f.CustomEnabled {
		f.CustomEnabled = true
	}

	if f.EngineEnabled {
		f.ControlMode = ControlModeEngine
		f.EngineBinding = f.Brand
	} else {
		f.ControlMode = ControlModeStandalone
		binding := strings.ToLower(strings.TrimSpace(f.EngineBinding))
		switch binding {
		case "", f.Brand, BindingStandalone:
			f.EngineBinding = BindingStandalone
		default:
			// Lenient path: a foreign binding on a decoupled fixture is kept
			// as requested. The strict sanitize path rejects the same input.
			f.EngineBinding = binding
		}
	}

	h := handlerFor(f.Brand)
	f.Zone = strings.TrimSpace(f.Zone)
	if f.Zone == "" {
		f.Zone = h.canonicalZone
	}
	h.hydrate(&f, raw)

	return f
}

// decodeRaw maps the loosely-typed record onto a Fixture without applying
// any rules yet.
func decodeRaw(raw map[string]any) Fixture {
	f := Fixture{
		ID:            rawString(raw, "id"),
		Brand:         rawString(raw, "brand"),
		Zone:          rawString(raw, "zone"),
		EngineBinding: rawString(raw, "engineBinding"),
	}
	if sub, ok := raw["hue"].(map[string]any); ok {
		f.Hue = HueTransport{
			BridgeIP:            rawString(sub, "bridgeIp"),
			Username:            rawString(sub, "username"),
			LightID:             rawString(sub, "lightId"),
			BridgeID:            rawString(sub, "bridgeId"),
			ClientKey:           rawString(sub, "clientKey"),
			EntertainmentAreaID: rawString(sub, "entertainmentAreaId"),
		}
	}
	if sub, ok := raw["wiz"].(map[string]any); ok {
		f.Wiz = WizTransport{IP: rawString(sub, "ip")}
	}
	if sub, ok := raw["ext"].(map[string]any); ok {
		f.Ext = sub
	}
	return f
}

// RawFromFixture converts a Fixture back into the loose record form used by
// NormalizeFixture and the mutation API.
func RawFromFixture(f Fixture) map[string]any {
	raw := map[string]any{
		"id":            f.ID,
		"brand":         f.Brand,
		"zone":          f.Zone,
		"enabled":       f.Enabled,
		"controlMode":   f.ControlMode,
		"engineBinding": f.EngineBinding,
		"engineEnabled": f.EngineEnabled,
		"twitchEnabled": f.TwitchEnabled,
		"customEnabled": f.CustomEnabled,
	}
	if f.Brand == BrandHue {
		raw["hue"] = map[string]any{
			"bridgeIp":            f.Hue.BridgeIP,
			"username":            f.Hue.Username,
			"lightId":             f.Hue.LightID,
			"bridgeId":            f.Hue.BridgeID,
			"clientKey":           f.Hue.ClientKey,
			"entertainmentAreaId": f.Hue.EntertainmentAreaID,
		}
	}
	if f.Brand == BrandWiz {
		raw["wiz"] = map[string]any{"ip": f.Wiz.IP}
	}
	if len(f.Ext) > 0 {
		ext := make(map[string]any, len(f.Ext))
		for k, v := range f.Ext {
			ext[k] = v
		}
		raw["ext"] = ext
	}
	return raw
}
