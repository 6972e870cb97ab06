package standalone

import (
	"github.com/ravekit/raved/internal/telemetry"
)

// Reactive-energy blend weights. Telemetry carries three loudness-ish
// signals; the drive profile, when active, pulls the blend toward the
// externally supplied curve.
const (
	energyWeight = 0.5
	rmsWeight    = 0.3
	fluxWeight   = 0.2
	driveBlend   = 0.35
)

// Auto-mode shaping constants: BPM Hz clamps, motion/energy blend, the calm
// cap and the intense floor.
const (
	bpmDivisor   = 96.0
	bpmHzMin     = 0.35
	bpmHzMax     = 12.0
	bpmShare     = 0.45
	calmEnergy   = 0.18
	calmMotion   = 0.15
	calmCapLo    = 2.4
	calmCapHi    = 3.8
	intenseGate  = 0.85
	intenseFloLo = 6.2
	intenseFloHi = 11.4
)

// ReactiveEnergy reduces a telemetry snapshot (and an optional drive
// profile) to a single [0,1] intensity scalar.
func ReactiveEnergy(snap telemetry.Snapshot, drive *float64) float64 {
	base := clamp01(energyWeight*clamp01(snap.Energy) + rmsWeight*clamp01(snap.RMS) + fluxWeight*clamp01(snap.Flux))
	if drive == nil {
		return base
	}
	return clamp01((1-driveBlend)*base + driveBlend*clamp01(*drive))
}

// ResolveDynamicHz computes the animation frequency for a state. Fixed
// speed returns SpeedHz; audio speed interpolates the configured range by
// reactive energy; auto mode (which overrides speedMode) blends BPM-derived
// and telemetry-driven frequencies so calm passages animate slowly and
// intense peaks burst. The result is always within [MinHz, MaxHz].
func ResolveDynamicHz(st State, snap telemetry.Snapshot, drive *float64) float64 {
	if st.Mode == ModeAuto {
		return autoHz(snap, drive)
	}

	switch st.SpeedMode {
	case SpeedAudio:
		lo, hi := sortPair(st.SpeedHzMin, st.SpeedHzMax)
		return clamp(lerp(lo, hi, ReactiveEnergy(snap, drive)), MinHz, MaxHz)
	default:
		return clamp(st.SpeedHz, MinHz, MaxHz)
	}
}

func autoHz(snap telemetry.Snapshot, drive *float64) float64 {
	bpmHz := clamp(snap.BPM/bpmDivisor, bpmHzMin, bpmHzMax)

	energy := ReactiveEnergy(snap, drive)
	motion := clamp01(0.5*clamp01(snap.Beat) + 0.3*clamp01(snap.Transient) + 0.2*clamp01(snap.Flux))
	dynamicHz := MinHz + motion*6.0 + energy*5.8

	hz := bpmShare*bpmHz + (1-bpmShare)*dynamicHz

	// Calm passages stay gentle even when the BPM estimate runs hot.
	if energy < calmEnergy && motion < calmMotion {
		cap := lerp(calmCapLo, calmCapHi, clamp01(energy/calmEnergy))
		if hz > cap {
			hz = cap
		}
	}
	// Intense peaks never animate sluggishly.
	if energy > intenseGate {
		floor := lerp(intenseFloLo, intenseFloHi, clamp01((energy-intenseGate)/(1-intenseGate)))
		if hz < floor {
			hz = floor
		}
	}

	return clamp(hz, MinHz, MaxHz)
}
