package standalone

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ravekit/raved/internal/fixture"
)

// ReapplyStartupState pushes the persisted snapshot of every eligible
// fixture back to its device, restoring continuity after a restart.
// Individual fixture failures are logged and never abort the batch.
func (r *Runtime) ReapplyStartupState(ctx context.Context) {
	r.broadcast(ctx, "startup_reapply", func(f fixture.Fixture, st State) (State, bool) {
		if r.store == nil {
			return st, false
		}
		has, err := r.store.Has(f.ID)
		if err != nil {
			log.Warn().Err(err).Str("fixture", f.ID).Msg("Failed to check persisted state")
			return st, false
		}
		return st, has
	})
}

// BroadcastRaveStart pushes current state to every fixture opted in via
// updateOnRaveStart, forcing it on.
func (r *Runtime) BroadcastRaveStart(ctx context.Context) {
	r.broadcast(ctx, "rave_start", func(f fixture.Fixture, st State) (State, bool) {
		if !st.UpdateOnRaveStart {
			return st, false
		}
		st.On = true
		return st, true
	})
}

// BroadcastRaveStop pushes state to every fixture opted in via
// updateOnRaveStop, overriding brightness to the configured rave-stop
// level.
func (r *Runtime) BroadcastRaveStop(ctx context.Context) {
	r.broadcast(ctx, "rave_stop", func(f fixture.Fixture, st State) (State, bool) {
		if !st.UpdateOnRaveStop {
			return st, false
		}
		st.Bri = clamp(st.RaveStopBri, 1, 100)
		return st, true
	})
}

// broadcast walks every eligible enabled fixture, lets pick decide (and
// adjust) what to send, and dispatches with retry. Successful sends commit
// the pushed state to memory and disk.
func (r *Runtime) broadcast(ctx context.Context, kind string, pick func(fixture.Fixture, State) (State, bool)) {
	r.mu.Lock()
	r.syncLocked()

	type job struct {
		f     fixture.Fixture
		st    State
		token uint64
	}
	var jobs []job
	for _, f := range r.reg.List(fixture.Filter{}) {
		st, ok := r.states[f.ID]
		if !ok || !f.Enabled {
			continue
		}
		out, send := pick(f, *st)
		if !send {
			continue
		}
		token, free := r.claimInflightLocked(f.ID)
		if !free {
			log.Debug().Str("fixture", f.ID).Str("broadcast", kind).Msg("Send in flight, skipping fixture")
			continue
		}
		jobs = append(jobs, job{f: f, st: out, token: token})
	}
	r.mu.Unlock()

	sent := 0
	for _, j := range jobs {
		err := r.sendWithRetry(ctx, j.f, j.st)

		r.mu.Lock()
		r.releaseInflightLocked(j.f.ID, j.token)
		if err == nil {
			if cur := r.states[j.f.ID]; cur != nil {
				*cur = j.st
			}
		}
		r.mu.Unlock()

		if err != nil {
			log.Warn().Err(err).Str("fixture", j.f.ID).Str("broadcast", kind).Msg("Broadcast dispatch failed")
			continue
		}
		r.persist(j.f.ID, j.st)
		sent++
	}

	log.Info().Str("broadcast", kind).Int("sent", sent).Int("eligible", len(jobs)).Msg("Lifecycle broadcast complete")
}
