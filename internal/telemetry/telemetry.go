// Package telemetry defines the narrow interface through which the audio
// feature pipeline feeds the animation runtime. The pipeline itself lives
// outside this process; raved only consumes snapshots.
package telemetry

import "sync"

// Snapshot is one frame of audio features, all normalized to [0,1] except
// BPM.
type Snapshot struct {
	Energy    float64 // broadband energy
	RMS       float64 // short-window RMS level
	Flux      float64 // spectral flux
	Beat      float64 // beat detector confidence
	Transient float64 // transient/onset strength
	BPM       float64 // tempo estimate, 0 when unknown
}

// Provider supplies the most recent audio snapshot. Implementations must be
// safe for concurrent use; the runtime reads on every animation tick.
type Provider interface {
	Snapshot() Snapshot
}

// DriveProvider optionally supplies an external "audio reactivity drive"
// profile, a [0,1] scalar blended into reactive energy.
type DriveProvider interface {
	// Drive returns the current drive value and whether a profile is active.
	Drive() (float64, bool)
}

// Store is the in-process Provider fed by the external pipeline through
// Update. It doubles as a DriveProvider when a drive value is pushed.
type Store struct {
	mu       sync.RWMutex
	snap     Snapshot
	drive    float64
	hasDrive bool
}

// NewStore returns an empty telemetry store. With no updates it reports
// silence, which the speed resolver maps to the slow end of every range.
func NewStore() *Store {
	return &Store{}
}

// Update replaces the current snapshot.
func (s *Store) Update(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Snapshot implements Provider.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// SetDrive installs an external drive profile value.
func (s *Store) SetDrive(v float64) {
	s.mu.Lock()
	s.drive = clamp01(v)
	s.hasDrive = true
	s.mu.Unlock()
}

// ClearDrive removes the drive profile.
func (s *Store) ClearDrive() {
	s.mu.Lock()
	s.hasDrive = false
	s.mu.Unlock()
}

// Drive implements DriveProvider.
func (s *Store) Drive() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drive, s.hasDrive
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
