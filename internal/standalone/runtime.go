package standalone

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ravekit/raved/internal/fixture"
	hueapi "github.com/ravekit/raved/internal/transport/hue"
	"github.com/ravekit/raved/internal/transport/wiz"
)

// Per-fixture timer interval bounds.
const (
	minIntervalMs = 80
	maxIntervalMs = 2000
	autoSeedHz    = 8.0
)

// RegistryView is the read-only slice of the fixture registry the runtime
// consumes.
type RegistryView interface {
	List(fixture.Filter) []fixture.Fixture
	ByID(id string) (fixture.Fixture, bool)
}

// StateStore persists the last applied animation state per fixture id, for
// restart continuity.
type StateStore interface {
	Get(id string) (*State, error)
	Has(id string) (bool, error)
	Set(id string, st State) error
	Delete(id string) error
}

// HueSender dispatches a light state to a Hue bridge.
type HueSender interface {
	SetLightState(ctx context.Context, target hueapi.Target, state hueapi.LightState) error
}

// WizAdapter is the stateful protocol client for one WiZ fixture.
type WizAdapter interface {
	IP() string
	Send(ctx context.Context, p wiz.Pilot) error
	Close() error
}

// AdapterFactory opens a WiZ adapter for an ip.
type AdapterFactory func(ip string) (WizAdapter, error)

// Options tunes dispatch behavior.
type Options struct {
	RetryAttempts int           // lifecycle broadcast retries, default 3
	RetryDelay    time.Duration // fixed inter-attempt delay, default 250ms
}

func (o Options) withDefaults() Options {
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 250 * time.Millisecond
	}
	return o
}

// Runtime orchestrates live per-fixture animation state, timers and
// protocol adapters, reconciling them against the registry on every access.
type Runtime struct {
	reg        RegistryView
	store      StateStore
	hue        HueSender
	newAdapter AdapterFactory
	anim       *Animator
	opts       Options

	mu       sync.Mutex
	states   map[string]*State
	timers   map[string]*fixtureTimer
	adapters map[string]WizAdapter

	// inflight serializes sends per fixture: at most one outstanding send,
	// identified by a token so only the owning send can release the guard.
	inflight map[string]uint64
	sendSeq  uint64
}

// NewRuntime wires a runtime from its collaborators. store, hue and
// newAdapter may be nil in reduced setups (tests, transport-less boxes);
// the corresponding paths then fail fast with transport errors.
func NewRuntime(reg RegistryView, store StateStore, hueSender HueSender, newAdapter AdapterFactory, anim *Animator, opts Options) *Runtime {
	return &Runtime{
		reg:        reg,
		store:      store,
		hue:        hueSender,
		newAdapter: newAdapter,
		anim:       anim,
		opts:       opts.withDefaults(),
		states:     make(map[string]*State),
		timers:     make(map[string]*fixtureTimer),
		inflight:   make(map[string]uint64),
		adapters:   make(map[string]WizAdapter),
	}
}

// Snapshot is a read-only fixture+state view.
type Snapshot struct {
	Fixture fixture.Fixture `json:"fixture"`
	State   State           `json:"state"`
}

// Sync reconciles runtime maps against the registry. It is idempotent and
// runs before every externally observable operation.
func (r *Runtime) Sync() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncLocked()
}

func (r *Runtime) syncLocked() {
	live := make(map[string]fixture.Fixture)
	for _, f := range r.reg.List(fixture.Filter{}) {
		live[f.ID] = f
	}

	// Prune everything belonging to ids that are gone or engine-coupled.
	// In-flight results for pruned ids are discarded on resolution by the
	// same existence checks.
	for id := range r.states {
		if f, ok := live[id]; !ok || f.EngineCoupled() {
			delete(r.states, id)
			r.stopTimerLocked(id)
			r.closeAdapterLocked(id)
		}
	}
	for id := range r.timers {
		if _, ok := r.states[id]; !ok {
			r.stopTimerLocked(id)
		}
	}
	for id := range r.adapters {
		if _, ok := r.states[id]; !ok {
			r.closeAdapterLocked(id)
		}
	}

	for id, f := range live {
		if f.EngineCoupled() {
			continue
		}
		st := r.states[id]
		if st == nil {
			st = r.seedState(f)
			r.states[id] = st
		}
		r.syncAdapterLocked(f)
		r.syncTimerLocked(f, st)
	}
}

// seedState resolves initial state: persisted snapshot when one exists,
// brand defaults otherwise.
func (r *Runtime) seedState(f fixture.Fixture) *State {
	if r.store != nil {
		persisted, err := r.store.Get(f.ID)
		if err != nil {
			log.Warn().Err(err).Str("fixture", f.ID).Msg("Failed to read persisted state, using defaults")
		} else if persisted != nil {
			st := NormalizeState(Patch{}, persisted, f.Brand)
			return &st
		}
	}
	st := DefaultState(f.Brand)
	return &st
}

// syncAdapterLocked opens or closes the WiZ adapter for one fixture. The
// adapter exists only while the fixture is a configured, enabled WiZ
// device; an ip change recreates it.
func (r *Runtime) syncAdapterLocked(f fixture.Fixture) {
	want := f.Brand == fixture.BrandWiz && f.Enabled && f.Wiz.IP != ""

	if existing, ok := r.adapters[f.ID]; ok {
		if want && existing.IP() == f.Wiz.IP {
			return
		}
		r.closeAdapterLocked(f.ID)
	}
	if !want || r.newAdapter == nil {
		return
	}

	adapter, err := r.newAdapter(f.Wiz.IP)
	if err != nil {
		log.Warn().Err(err).Str("fixture", f.ID).Str("ip", f.Wiz.IP).Msg("Failed to open WiZ adapter")
		return
	}
	r.adapters[f.ID] = adapter
	log.Debug().Str("fixture", f.ID).Str("ip", f.Wiz.IP).Msg("WiZ adapter opened")
}

func (r *Runtime) closeAdapterLocked(id string) {
	if adapter, ok := r.adapters[id]; ok {
		if err := adapter.Close(); err != nil {
			log.Warn().Err(err).Str("fixture", id).Msg("Failed to close WiZ adapter")
		}
		delete(r.adapters, id)
	}
}

// fixtureTimer is one entry in the timer arena: a stop handle plus the
// interval it was started with.
type fixtureTimer struct {
	intervalMs int
	stop       chan struct{}
}

// syncTimerLocked starts or stops the animation timer for one fixture. An
// unchanged computed interval leaves a running timer untouched.
func (r *Runtime) syncTimerLocked(f fixture.Fixture, st *State) {
	want := f.Enabled && !f.EngineCoupled() && st.Animate && !st.Static
	interval := computeIntervalMs(*st)

	if t, ok := r.timers[f.ID]; ok {
		if want && t.intervalMs == interval {
			return
		}
		r.stopTimerLocked(f.ID)
	}
	if !want {
		return
	}

	t := &fixtureTimer{intervalMs: interval, stop: make(chan struct{})}
	r.timers[f.ID] = t
	go r.runTimer(f.ID, t)
	log.Debug().Str("fixture", f.ID).Int("interval_ms", interval).Msg("Animation timer started")
}

// claimInflightLocked takes the send guard for a fixture. It fails when a
// send is already outstanding; the returned token is required to release.
func (r *Runtime) claimInflightLocked(id string) (uint64, bool) {
	if _, busy := r.inflight[id]; busy {
		return 0, false
	}
	r.sendSeq++
	r.inflight[id] = r.sendSeq
	return r.sendSeq, true
}

// releaseInflightLocked frees the guard only for its owning send, so a
// stale release can never unblock the fixture under a newer send.
func (r *Runtime) releaseInflightLocked(id string, token uint64) {
	if r.inflight[id] == token {
		delete(r.inflight, id)
	}
}

func (r *Runtime) stopTimerLocked(id string) {
	if t, ok := r.timers[id]; ok {
		close(t.stop)
		delete(r.timers, id)
		log.Debug().Str("fixture", id).Msg("Animation timer stopped")
	}
}

// computeIntervalMs derives the tick interval from the speed config once at
// timer start: audio speed paces at its upper bound, auto mode seeds at
// 8Hz, fixed speed uses SpeedHz. Live telemetry still shapes every tick
// because Hz is re-derived per tick; only the tick cadence is fixed.
func computeIntervalMs(st State) int {
	var hz float64
	switch {
	case st.Mode == ModeAuto:
		hz = autoSeedHz
	case st.SpeedMode == SpeedAudio:
		hz = st.SpeedHzMax
	default:
		hz = st.SpeedHz
	}
	if hz < MinHz {
		hz = MinHz
	}
	interval := int(math.Round(1000 / hz))
	if interval < minIntervalMs {
		return minIntervalMs
	}
	if interval > maxIntervalMs {
		return maxIntervalMs
	}
	return interval
}

func (r *Runtime) runTimer(id string, t *fixtureTimer) {
	ticker := time.NewTicker(time.Duration(t.intervalMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			r.tick(id, t.intervalMs)
		}
	}
}

// tick advances one animation frame. It re-resolves the live fixture and
// authoritative state at fire time; nothing is captured at timer start.
func (r *Runtime) tick(id string, intervalMs int) {
	r.mu.Lock()
	f, ok := r.reg.ByID(id)
	if !ok || !f.Enabled || f.EngineCoupled() {
		// Fixture changed under the timer; reconcile and bail.
		r.syncLocked()
		r.mu.Unlock()
		return
	}
	st := r.states[id]
	if st == nil || !st.Animate || st.Static {
		r.mu.Unlock()
		return
	}
	token, ok := r.claimInflightLocked(id)
	if !ok {
		// A send is outstanding; skip this tick rather than queueing. Slow
		// devices throttle their own effective rate this way.
		r.mu.Unlock()
		return
	}

	next := r.anim.Next(*st, intervalMs)
	*st = next
	r.mu.Unlock()

	err := r.dispatch(context.Background(), f, next)

	r.mu.Lock()
	r.releaseInflightLocked(id, token)
	_, stillLive := r.states[id]
	r.mu.Unlock()

	if err != nil {
		log.Debug().Err(err).Str("fixture", id).Msg("Animation tick dispatch failed")
		return
	}
	if stillLive {
		r.persist(id, next)
	}
}

func (r *Runtime) persist(id string, st State) {
	if r.store == nil {
		return
	}
	if err := r.store.Set(id, st); err != nil {
		log.Warn().Err(err).Str("fixture", id).Msg("Failed to persist animation state")
	}
}

// ApplyByID merges a patch into a fixture's state, dispatches it once, and
// persists on success. Unknown fixtures are 404s; disabled,
// engine-coupled, or already-sending ones 409s. Interactive sends never
// retry; transport errors surface immediately.
func (r *Runtime) ApplyByID(ctx context.Context, id string, p Patch) (State, error) {
	r.mu.Lock()
	r.syncLocked()

	f, ok := r.reg.ByID(id)
	if !ok {
		r.mu.Unlock()
		return State{}, &fixture.NotFoundError{ID: id}
	}
	if !f.Enabled {
		r.mu.Unlock()
		return State{}, &fixture.ConflictError{ID: id, Reason: "fixture is disabled"}
	}
	if f.EngineCoupled() {
		r.mu.Unlock()
		return State{}, &fixture.ConflictError{ID: id, Reason: "fixture is engine-coupled"}
	}

	token, free := r.claimInflightLocked(id)
	if !free {
		r.mu.Unlock()
		return State{}, &fixture.ConflictError{ID: id, Reason: "a send is already in flight"}
	}

	next := NormalizeState(p, r.states[id], f.Brand)
	r.mu.Unlock()

	err := r.dispatch(ctx, f, next)

	r.mu.Lock()
	r.releaseInflightLocked(id, token)
	if err != nil {
		r.mu.Unlock()
		return State{}, err
	}
	if cur := r.states[id]; cur != nil {
		*cur = next
	} else {
		r.states[id] = &next
	}
	r.syncTimerLocked(f, &next)
	r.mu.Unlock()

	r.persist(id, next)
	return next, nil
}

// Snapshots returns read-only fixture+state views for every fixture the
// runtime currently owns, in registry order.
func (r *Runtime) Snapshots() []Snapshot {
	r.mu.Lock()
	r.syncLocked()
	fixtures := r.reg.List(fixture.Filter{})
	var out []Snapshot
	for _, f := range fixtures {
		if st, ok := r.states[f.ID]; ok {
			out = append(out, Snapshot{Fixture: f, State: *st})
		}
	}
	r.mu.Unlock()
	return out
}

// SnapshotByID returns the fixture+state view for one fixture.
func (r *Runtime) SnapshotByID(id string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncLocked()
	f, ok := r.reg.ByID(id)
	if !ok {
		return Snapshot{}, &fixture.NotFoundError{ID: id}
	}
	st, ok := r.states[id]
	if !ok {
		return Snapshot{}, &fixture.ConflictError{ID: id, Reason: "fixture is engine-coupled"}
	}
	return Snapshot{Fixture: f, State: *st}, nil
}

// Shutdown stops every timer and closes every adapter.
func (r *Runtime) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.timers {
		r.stopTimerLocked(id)
	}
	for id := range r.adapters {
		r.closeAdapterLocked(id)
	}
}
