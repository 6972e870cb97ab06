package fixture

import (
	"fmt"
	"strings"
)

// SanitizeOptions controls how strict the mutation-path validator is.
type SanitizeOptions struct {
	// Strict enables the rejections used on the mutation path: invalid
	// brands, coupling violations, malformed addresses and incomplete Hue
	// entertainment setups all become errors instead of being silently
	// normalized away.
	Strict bool
}

// SanitizeFixtureForConfig validates and normalizes a fixture record before
// it is written into the config. The lenient path is identical to
// NormalizeFixture; strict mode layers the mutation-path rejections on top.
// Strict coupling checks run against the raw record, before normalization
// has a chance to repair the violation it would otherwise rescue.
func SanitizeFixtureForConfig(raw map[string]any, index int, opts SanitizeOptions) (Fixture, error) {
	if opts.Strict {
		brand := strings.ToLower(rawString(raw, "brand"))
		if !IsValidBrand(brand) {
			return Fixture{}, &ValidationError{Field: "brand", Reason: fmt.Sprintf("invalid brand %q", brand)}
		}
		if err := validateRawAddresses(brand, raw); err != nil {
			return Fixture{}, err
		}
		if err := validateRawCoupling(brand, raw); err != nil {
			return Fixture{}, err
		}
	}

	f := NormalizeFixture(raw, index)

	if opts.Strict {
		if err := ValidateFixtureCoupling(f); err != nil {
			return Fixture{}, err
		}
		if err := handlerFor(f.Brand).validate(&f); err != nil {
			return Fixture{}, err
		}
	}
	return f, nil
}

// validateRawCoupling enforces the mode-coupling rules on the record as
// submitted. The lenient path rescues each of these; the mutation path must
// reject them instead of persisting a silently rewritten fixture.
func validateRawCoupling(brand string, raw map[string]any) error {
	engine := looseBool(raw["engineEnabled"], false)
	twitch := looseBool(raw["twitchEnabled"], false)
	custom := looseBool(raw["customEnabled"], false)

	if !engine && !twitch && !custom {
		return &ValidationError{Field: "modes", Reason: "fixture has no enabled control surface"}
	}
	if engine && custom {
		return &ValidationError{Field: "modes", Reason: "engine and custom modes are mutually exclusive"}
	}

	binding := strings.ToLower(strings.TrimSpace(rawString(raw, "engineBinding")))
	if engine && binding != "" && binding != brand {
		return &ValidationError{
			Field:  "engineBinding",
			Reason: fmt.Sprintf("engine fixture bound to foreign brand %q", binding),
		}
	}
	return nil
}

// ValidateFixtureCoupling enforces the mutual-exclusion rules between the
// engine, twitch and custom control surfaces.
func ValidateFixtureCoupling(f Fixture) error {
	if !f.EngineEnabled && !f.TwitchEnabled && !f.CustomEnabled {
		return &ValidationError{Field: "modes", Reason: "fixture has no enabled control surface"}
	}
	if f.EngineEnabled && f.CustomEnabled {
		return &ValidationError{Field: "modes", Reason: "engine and custom modes are mutually exclusive"}
	}
	if f.EngineEnabled && f.EngineBinding != f.Brand {
		return &ValidationError{
			Field:  "engineBinding",
			Reason: fmt.Sprintf("engine fixture bound to foreign brand %q", f.EngineBinding),
		}
	}
	if !f.EngineEnabled && f.EngineBinding != BindingStandalone {
		// The lenient normalize path keeps this binding as requested; the
		// strict path refuses to persist it.
		return &ValidationError{
			Field:  "engineBinding",
			Reason: fmt.Sprintf("decoupled fixture carries binding %q", f.EngineBinding),
		}
	}
	return nil
}

// validateRawAddresses rejects transport addresses that are present but not
// private/loopback IPv4. The lenient path blanks these instead.
func validateRawAddresses(brand string, raw map[string]any) error {
	check := func(field, ip string) error {
		if ip != "" && NormalizePrivateIPv4(ip) == "" {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a private LAN IPv4 address", ip)}
		}
		return nil
	}
	switch brand {
	case BrandHue:
		if sub, ok := raw["hue"].(map[string]any); ok {
			return check("hue.bridgeIp", rawString(sub, "bridgeIp"))
		}
	case BrandWiz:
		if sub, ok := raw["wiz"].(map[string]any); ok {
			return check("wiz.ip", rawString(sub, "ip"))
		}
	}
	return nil
}

// validateHue requires an entertainment area whenever the fixture carries
// bridge transport or entertainment credentials.
func validateHue(f *Fixture) error {
	h := f.Hue
	hasTransport := h.BridgeIP != "" && h.Username != ""
	hasEntertainment := h.ClientKey != "" || h.BridgeID != ""
	if (hasTransport || hasEntertainment) && h.EntertainmentAreaID == "" {
		return &ValidationError{
			Field:  "hue.entertainmentAreaId",
			Reason: "entertainment area id required when bridge credentials are configured",
		}
	}
	return nil
}

func validateWiz(*Fixture) error { return nil }
