// Package standalone implements the standalone animation runtime: the pure
// state-machine logic that evolves per-fixture animation state, and the
// stateful orchestrator that schedules ticks and dispatches state over the
// brand transports.
package standalone

import "github.com/ravekit/raved/internal/fixture"

// Modes.
const (
	ModeRGB   = "rgb"
	ModeScene = "scene"
	ModeAuto  = "auto"
)

// Scene algorithms.
const (
	SceneSweep  = "sweep"
	SceneBounce = "bounce"
	ScenePulse  = "pulse"
	SceneSpark  = "spark"
)

// Speed modes.
const (
	SpeedFixed = "fixed"
	SpeedAudio = "audio"
)

// Color modes.
const (
	ColorHSV = "hsv"
	ColorCCT = "cct"
)

// Hz bounds every resolved animation frequency is clamped into.
const (
	MinHz = 0.2
	MaxHz = 12.0
)

// State is the runtime-owned animation state of one fixture. It is merged
// with API patches, advanced by animation ticks, and persisted after each
// successful dispatch.
type State struct {
	On    bool   `json:"on"`
	Mode  string `json:"mode"`
	Scene string `json:"scene"`

	Bri float64 `json:"bri"` // 1-100
	Hue float64 `json:"hue"` // 0-360
	Sat float64 `json:"sat"` // 0-100

	TransitionMs int  `json:"transitionMs"`
	Animate      bool `json:"animate"`
	Static       bool `json:"static"`

	UpdateOnRaveStart bool    `json:"updateOnRaveStart"`
	UpdateOnRaveStop  bool    `json:"updateOnRaveStop"`
	RaveStopBri       float64 `json:"raveStopBri"`

	SpeedMode  string  `json:"speedMode"` // fixed|audio
	SpeedHz    float64 `json:"speedHz"`
	SpeedHzMin float64 `json:"speedHzMin"`
	SpeedHzMax float64 `json:"speedHzMax"`

	HueMin float64 `json:"hueMin"`
	HueMax float64 `json:"hueMax"`
	SatMin float64 `json:"satMin"`
	SatMax float64 `json:"satMax"`

	CctMinKelvin float64 `json:"cctMinKelvin"`
	CctMaxKelvin float64 `json:"cctMaxKelvin"`

	ColorMode string `json:"colorMode"` // hsv|cct

	MotionPhase     float64 `json:"motionPhase"`     // [0,1)
	MotionDirection int     `json:"motionDirection"` // -1 or 1
}

// Patch is a partial state update; nil fields keep the previous value.
type Patch struct {
	On    *bool   `json:"on,omitempty"`
	Mode  *string `json:"mode,omitempty"`
	Scene *string `json:"scene,omitempty"`

	Bri *float64 `json:"bri,omitempty"`
	Hue *float64 `json:"hue,omitempty"`
	Sat *float64 `json:"sat,omitempty"`

	TransitionMs *int  `json:"transitionMs,omitempty"`
	Animate      *bool `json:"animate,omitempty"`
	Static       *bool `json:"static,omitempty"`

	UpdateOnRaveStart *bool    `json:"updateOnRaveStart,omitempty"`
	UpdateOnRaveStop  *bool    `json:"updateOnRaveStop,omitempty"`
	RaveStopBri       *float64 `json:"raveStopBri,omitempty"`

	SpeedMode  *string  `json:"speedMode,omitempty"`
	SpeedHz    *float64 `json:"speedHz,omitempty"`
	SpeedHzMin *float64 `json:"speedHzMin,omitempty"`
	SpeedHzMax *float64 `json:"speedHzMax,omitempty"`

	HueMin *float64 `json:"hueMin,omitempty"`
	HueMax *float64 `json:"hueMax,omitempty"`
	SatMin *float64 `json:"satMin,omitempty"`
	SatMax *float64 `json:"satMax,omitempty"`

	CctMinKelvin *float64 `json:"cctMinKelvin,omitempty"`
	CctMaxKelvin *float64 `json:"cctMaxKelvin,omitempty"`

	ColorMode *string `json:"colorMode,omitempty"`
}

// DefaultState returns the brand default animation state used when a
// fixture has neither in-memory nor persisted state.
func DefaultState(brand string) State {
	st := State{
		On:              false,
		Mode:            ModeRGB,
		Scene:           SceneSweep,
		Bri:             75,
		Hue:             30,
		Sat:             90,
		TransitionMs:    200,
		RaveStopBri:     35,
		SpeedMode:       SpeedFixed,
		SpeedHz:         1.2,
		SpeedHzMin:      0.6,
		SpeedHzMax:      3.2,
		HueMin:          0,
		HueMax:          360,
		SatMin:          60,
		SatMax:          100,
		CctMinKelvin:    2200,
		CctMaxKelvin:    6500,
		ColorMode:       ColorHSV,
		MotionDirection: 1,
	}
	if brand == fixture.BrandHue {
		// Bridge round-trips are slower than LAN UDP; default to a gentler
		// transition.
		st.TransitionMs = 400
	}
	return st
}
