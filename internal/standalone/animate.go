package standalone

import (
	"math"
	"math/rand"
	"sync"

	"github.com/ravekit/raved/internal/telemetry"
)

// Per-tick phase step bounds. A very slow frequency still moves visibly; a
// very fast one never jumps more than most of the range at once.
const (
	minStep = 0.01
	maxStep = 0.8
)

// Animator advances animation states. It is the pure core of the runtime:
// no I/O, just telemetry reads and arithmetic.
type Animator struct {
	tele  telemetry.Provider
	drive telemetry.DriveProvider

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewAnimator creates an animator. drive may be nil when no external
// reactivity profile is wired. rnd may be nil; a time-seeded source is used
// then.
func NewAnimator(tele telemetry.Provider, drive telemetry.DriveProvider, rnd *rand.Rand) *Animator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Animator{tele: tele, drive: drive, rnd: rnd}
}

func (a *Animator) driveValue() *float64 {
	if a.drive == nil {
		return nil
	}
	v, ok := a.drive.Drive()
	if !ok {
		return nil
	}
	return &v
}

func (a *Animator) snapshot() telemetry.Snapshot {
	if a.tele == nil {
		return telemetry.Snapshot{}
	}
	return a.tele.Snapshot()
}

// Hz resolves the current animation frequency for a state from live
// telemetry.
func (a *Animator) Hz(st State) float64 {
	return ResolveDynamicHz(st, a.snapshot(), a.driveValue())
}

// Next advances one animation tick. The phase step is hz*interval clamped
// into [0.01,0.8]; the scene algorithm decides how phase maps onto color.
func (a *Animator) Next(st State, intervalMs int) State {
	hz := a.Hz(st)
	step := clamp(hz*float64(intervalMs)/1000, minStep, maxStep)

	switch st.Scene {
	case SceneBounce:
		st = nextBounce(st, step)
	case ScenePulse:
		st = nextPulse(st, step)
	case SceneSpark:
		st = a.nextSpark(st, step)
	default:
		st = nextSweep(st, step)
	}

	applyColorAt(&st, st.MotionPhase)
	return st
}

// nextSweep sweeps linearly across the configured range, wrapping 1 -> 0.
func nextSweep(st State, step float64) State {
	st.MotionPhase = wrapPhase(st.MotionPhase + step)
	return st
}

// nextBounce reflects at the [0,1] boundaries, flipping direction instead
// of overshooting.
func nextBounce(st State, step float64) State {
	dir := float64(st.MotionDirection)
	p := st.MotionPhase + step*dir
	if p > 1 || p < 0 {
		st.MotionDirection = -st.MotionDirection
		dir = -dir
		p = st.MotionPhase + step*dir
	}
	st.MotionPhase = clamp01(p)
	return st
}

// nextPulse advances the phase like a sweep; brightness and color are
// derived from the phase at dispatch time (EffectiveBri, pulseColorPhase).
func nextPulse(st State, step float64) State {
	st.MotionPhase = wrapPhase(st.MotionPhase + step)
	return st
}

// nextSpark jumps to a random point in the range with a probability scaled
// by reactive energy and step size, and otherwise continues the linear
// sweep.
func (a *Animator) nextSpark(st State, step float64) State {
	energy := ReactiveEnergy(a.snapshot(), a.driveValue())
	jumpP := clamp01((0.1 + 0.8*energy) * (step / maxStep))

	a.mu.Lock()
	roll := a.rnd.Float64()
	jumpTo := a.rnd.Float64()
	a.mu.Unlock()

	if roll < jumpP {
		st.MotionPhase = wrapPhase(jumpTo)
	} else {
		st.MotionPhase = wrapPhase(st.MotionPhase + step)
	}
	return st
}

// applyColorAt maps a phase onto the configured color ranges. CCT mode
// pins saturation to the range floor; the temperature itself is derived at
// dispatch time from the same phase.
func applyColorAt(st *State, phase float64) {
	colorPhase := phase
	if st.Scene == ScenePulse {
		colorPhase = pulseColorPhase(phase)
	}
	st.Hue = lerp(st.HueMin, st.HueMax, colorPhase)
	if st.ColorMode == ColorCCT {
		st.Sat = st.SatMin
	} else {
		st.Sat = lerp(st.SatMin, st.SatMax, colorPhase)
	}
}

// pulseColorPhase is the damped sub-sweep the pulse scene rides: a narrow
// oscillation around the middle of the range.
func pulseColorPhase(phase float64) float64 {
	return clamp01(0.5 + 0.35*math.Sin(2*math.Pi*phase))
}

// EffectiveBri is the brightness actually dispatched. The pulse scene
// follows a sine wave between a floor (35% of configured brightness, at
// least 8) and the configured brightness; everything else sends Bri as-is.
func EffectiveBri(st State) float64 {
	if st.Mode != ModeRGB && st.Scene == ScenePulse && st.Animate {
		floor := math.Max(8, 0.35*st.Bri)
		wave := (math.Sin(2*math.Pi*st.MotionPhase) + 1) / 2
		return floor + (st.Bri-floor)*wave
	}
	return st.Bri
}

// CurrentCctKelvin is the color temperature dispatched in CCT mode, swept
// across the configured kelvin range by the motion phase.
func CurrentCctKelvin(st State) float64 {
	colorPhase := st.MotionPhase
	if st.Scene == ScenePulse {
		colorPhase = pulseColorPhase(st.MotionPhase)
	}
	return lerp(st.CctMinKelvin, st.CctMaxKelvin, colorPhase)
}
