package standalone

import (
	"math"
	"strings"
)

// NormalizeState merges a patch onto the previous state for a fixture of the
// given brand. Field precedence: explicit patch value (clamped to its
// domain), then previous value, then brand default. The previous state may
// be nil on first contact.
func NormalizeState(p Patch, prev *State, brand string) State {
	st := DefaultState(brand)
	if prev != nil {
		st = *prev
	}

	if p.On != nil {
		st.On = *p.On
	}

	modeSet := ""
	if p.Mode != nil {
		if m := normalizeEnum(*p.Mode, ModeRGB, ModeScene, ModeAuto); m != "" {
			modeSet = m
			st.Mode = m
		}
	}
	if p.Scene != nil {
		if s := normalizeEnum(*p.Scene, SceneSweep, SceneBounce, ScenePulse, SceneSpark); s != "" {
			st.Scene = s
		}
	}

	if p.Bri != nil {
		st.Bri = clamp(*p.Bri, 1, 100)
	}
	if p.Hue != nil {
		st.Hue = clamp(*p.Hue, 0, 360)
	}
	if p.Sat != nil {
		st.Sat = clamp(*p.Sat, 0, 100)
	}
	if p.TransitionMs != nil {
		st.TransitionMs = int(clamp(float64(*p.TransitionMs), 0, 60000))
	}

	if p.UpdateOnRaveStart != nil {
		st.UpdateOnRaveStart = *p.UpdateOnRaveStart
	}
	if p.UpdateOnRaveStop != nil {
		st.UpdateOnRaveStop = *p.UpdateOnRaveStop
	}
	if p.RaveStopBri != nil {
		st.RaveStopBri = clamp(*p.RaveStopBri, 1, 100)
	}

	if p.SpeedMode != nil {
		if m := normalizeEnum(*p.SpeedMode, SpeedFixed, SpeedAudio); m != "" {
			st.SpeedMode = m
		}
	}
	if p.SpeedHz != nil {
		st.SpeedHz = clamp(*p.SpeedHz, MinHz, MaxHz)
	}
	if p.SpeedHzMin != nil {
		st.SpeedHzMin = clamp(*p.SpeedHzMin, MinHz, MaxHz)
	}
	if p.SpeedHzMax != nil {
		st.SpeedHzMax = clamp(*p.SpeedHzMax, MinHz, MaxHz)
	}

	if p.HueMin != nil {
		st.HueMin = clamp(*p.HueMin, 0, 360)
	}
	if p.HueMax != nil {
		st.HueMax = clamp(*p.HueMax, 0, 360)
	}
	if p.SatMin != nil {
		st.SatMin = clamp(*p.SatMin, 0, 100)
	}
	if p.SatMax != nil {
		st.SatMax = clamp(*p.SatMax, 0, 100)
	}
	if p.CctMinKelvin != nil {
		st.CctMinKelvin = clamp(*p.CctMinKelvin, 1000, 10000)
	}
	if p.CctMaxKelvin != nil {
		st.CctMaxKelvin = clamp(*p.CctMaxKelvin, 1000, 10000)
	}

	if p.ColorMode != nil {
		if m := normalizeEnum(*p.ColorMode, ColorHSV, ColorCCT); m != "" {
			st.ColorMode = m
		}
	}

	// Mode implications. Selecting an animated mode turns animation on
	// unless the caller explicitly says otherwise; rgb always kills it.
	if modeSet == ModeScene || modeSet == ModeAuto {
		st.Animate = true
		st.Static = false
	}
	if p.Animate != nil {
		st.Animate = *p.Animate
	}
	if p.Static != nil {
		st.Static = *p.Static
	}
	if st.Mode == ModeRGB {
		st.Animate = false
	}

	// Paired ranges hold min<=max regardless of input order.
	st.SpeedHzMin, st.SpeedHzMax = sortPair(st.SpeedHzMin, st.SpeedHzMax)
	st.HueMin, st.HueMax = sortPair(st.HueMin, st.HueMax)
	st.SatMin, st.SatMax = sortPair(st.SatMin, st.SatMax)
	st.CctMinKelvin, st.CctMaxKelvin = sortPair(st.CctMinKelvin, st.CctMaxKelvin)

	st.MotionPhase = wrapPhase(st.MotionPhase)
	if st.MotionDirection >= 0 {
		st.MotionDirection = 1
	} else {
		st.MotionDirection = -1
	}

	return st
}

func normalizeEnum(v string, allowed ...string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return a
		}
	}
	return ""
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

func sortPair(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}

func wrapPhase(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	p = math.Mod(p, 1)
	if p < 0 {
		p += 1
	}
	return p
}

func lerp(lo, hi, t float64) float64 {
	return lo + (hi-lo)*t
}
