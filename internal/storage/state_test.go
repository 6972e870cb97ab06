package storage

import (
	"path/filepath"
	"testing"

	"github.com/ravekit/raved/internal/db"
	"github.com/ravekit/raved/internal/standalone"
)

func newTestStore(t *testing.T) *FixtureStateStore {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewFixtureStateStore(database.DB)
}

func TestFixtureStateRoundTrip(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get("w1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown fixture, got %+v", got)
	}
	has, err := store.Has("w1")
	if err != nil || has {
		t.Fatalf("has = %v err = %v, want false", has, err)
	}

	st := standalone.DefaultState("wiz")
	st.On = true
	st.Bri = 42
	st.Scene = standalone.SceneBounce
	st.MotionPhase = 0.75
	st.MotionDirection = -1
	if err := store.Set("w1", st); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err = store.Get("w1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected state after set")
	}
	if !got.On || got.Bri != 42 || got.Scene != standalone.SceneBounce {
		t.Errorf("got = %+v", got)
	}
	if got.MotionPhase != 0.75 || got.MotionDirection != -1 {
		t.Errorf("motion = phase %v dir %d", got.MotionPhase, got.MotionDirection)
	}
}

func TestFixtureStateUpsert(t *testing.T) {
	store := newTestStore(t)

	st := standalone.DefaultState("wiz")
	st.Bri = 10
	if err := store.Set("w1", st); err != nil {
		t.Fatalf("set: %v", err)
	}
	st.Bri = 90
	if err := store.Set("w1", st); err != nil {
		t.Fatalf("second set: %v", err)
	}

	got, err := store.Get("w1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Bri != 90 {
		t.Errorf("bri = %v, want latest 90", got.Bri)
	}
}

func TestFixtureStateDeleteAndClear(t *testing.T) {
	store := newTestStore(t)

	st := standalone.DefaultState("wiz")
	store.Set("w1", st)
	store.Set("w2", st)

	if err := store.Delete("w1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if has, _ := store.Has("w1"); has {
		t.Error("w1 still present after delete")
	}
	if has, _ := store.Has("w2"); !has {
		t.Error("w2 should survive w1 delete")
	}

	// Deleting a missing id is a no-op.
	if err := store.Delete("ghost"); err != nil {
		t.Errorf("delete missing: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if has, _ := store.Has("w2"); has {
		t.Error("w2 still present after clear")
	}
}
