package fixture

import (
	"context"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultPollInterval is the polling fallback cadence for external config
// edits.
const DefaultPollInterval = 600 * time.Millisecond

// Watch observes the config file for external edits and reloads the
// registry on change. Native FS events are used where available, with a
// polling fallback comparing modification times; either source triggers the
// same reload path. A reload that fails to parse keeps the previous
// in-memory registry.
//
// Watch blocks until the context is cancelled.
func (r *Registry) Watch(ctx context.Context, pollInterval time.Duration) error {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	var events chan fsnotify.Event
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		if addErr := watcher.Add(r.path); addErr == nil {
			events = make(chan fsnotify.Event)
			go forwardEvents(ctx, watcher, events)
		} else {
			log.Debug().Err(addErr).Str("path", r.path).Msg("FS watch unavailable, polling only")
			watcher.Close()
			watcher = nil
		}
	} else {
		log.Debug().Err(err).Msg("fsnotify unavailable, polling only")
		watcher = nil
	}
	if watcher != nil {
		defer watcher.Close()
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	lastMod := r.modTime()
	log.Info().Str("path", r.path).Dur("poll_interval", pollInterval).Msg("Watching fixtures config")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Fixtures config watch stopping")
			return nil

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			lastMod = r.modTime()
			r.reloadExternal()

		case <-ticker.C:
			mod := r.modTime()
			if mod.IsZero() || mod.Equal(lastMod) {
				continue
			}
			lastMod = mod
			r.reloadExternal()
		}
	}
}

func forwardEvents(ctx context.Context, watcher *fsnotify.Watcher, out chan<- fsnotify.Event) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
			// Keep watching; the poll fallback covers missed events.
		}
	}
}

func (r *Registry) modTime() time.Time {
	info, err := os.Stat(r.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func (r *Registry) reloadExternal() {
	log.Info().Str("path", r.path).Msg("Fixtures config changed externally, reloading")
	if err := r.Load(); err != nil {
		// Load already kept the previous registry; just surface the cause.
		log.Error().Err(err).Msg("External reload failed")
	}
}
