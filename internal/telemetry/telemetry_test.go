package telemetry

import "testing"

func TestStoreSnapshot(t *testing.T) {
	s := NewStore()

	if snap := s.Snapshot(); snap != (Snapshot{}) {
		t.Errorf("fresh store snapshot = %+v, want silence", snap)
	}

	s.Update(Snapshot{Energy: 0.5, RMS: 0.4, Flux: 0.3, Beat: 1, Transient: 0.2, BPM: 128})
	snap := s.Snapshot()
	if snap.Energy != 0.5 || snap.BPM != 128 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestStoreDrive(t *testing.T) {
	s := NewStore()

	if _, ok := s.Drive(); ok {
		t.Error("fresh store must report no drive profile")
	}

	s.SetDrive(0.6)
	v, ok := s.Drive()
	if !ok || v != 0.6 {
		t.Errorf("drive = %v %v, want 0.6 active", v, ok)
	}

	// Out-of-range values clamp on the way in.
	s.SetDrive(3)
	if v, _ := s.Drive(); v != 1 {
		t.Errorf("drive = %v, want clamped to 1", v)
	}
	s.SetDrive(-1)
	if v, _ := s.Drive(); v != 0 {
		t.Errorf("drive = %v, want clamped to 0", v)
	}

	s.ClearDrive()
	if _, ok := s.Drive(); ok {
		t.Error("drive still active after clear")
	}
}
