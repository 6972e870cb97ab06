package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ravekit/raved/internal/config"
	"github.com/ravekit/raved/internal/db"
	"github.com/ravekit/raved/internal/eventbus"
	"github.com/ravekit/raved/internal/fixture"
	"github.com/ravekit/raved/internal/standalone"
	"github.com/ravekit/raved/internal/storage"
	"github.com/ravekit/raved/internal/telemetry"
	hueapi "github.com/ravekit/raved/internal/transport/hue"
	"github.com/ravekit/raved/internal/transport/wiz"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB    *db.DB
	Store *storage.FixtureStateStore

	// Fixture registry
	Registry *fixture.Registry

	// Animation runtime and its collaborators
	Telemetry *telemetry.Store
	HueClient *hueapi.Client
	Runtime   *standalone.Runtime

	// Intent routing
	Bus *eventbus.Bus

	wg sync.WaitGroup
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	// Initialize database
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database

	// Persisted last-applied state per fixture
	s.Store = storage.NewFixtureStateStore(database.DB)

	// Fixture registry; a missing config file starts from defaults
	s.Registry = fixture.NewRegistry(cfg.Fixtures.Path, cfg.Fixtures.BackupDir)
	if err := s.Registry.Load(); err != nil {
		s.Close()
		return nil, err
	}

	// Telemetry store doubles as snapshot provider and drive profile source
	s.Telemetry = telemetry.NewStore()

	// Brand transports
	s.HueClient = hueapi.NewClient(
		cfg.Standalone.HueTimeout.Duration(),
		cfg.Standalone.HueRateLimitRPS,
		nil,
	)
	newAdapter := func(ip string) (standalone.WizAdapter, error) {
		return wiz.DialWithRetransmit(ip, cfg.Standalone.WizResends, cfg.Standalone.WizResendSpacing.Duration())
	}

	// Animation runtime
	anim := standalone.NewAnimator(s.Telemetry, s.Telemetry, nil)
	s.Runtime = standalone.NewRuntime(s.Registry, s.Store, s.HueClient, newAdapter, anim, standalone.Options{
		RetryAttempts: cfg.Standalone.RetryAttempts,
		RetryDelay:    cfg.Standalone.RetryDelay.Duration(),
	})

	// Intent bus
	s.Bus = eventbus.NewWithConfig(cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())

	return s, nil
}

// Start starts all services in the correct order.
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	// Route intents into the runtime
	s.registerIntentHandlers(ctx)

	// Watch the fixtures config for external edits
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Registry.Watch(ctx, s.cfg.Fixtures.PollInterval.Duration()); err != nil {
			onFatalError(err)
		}
	}()

	// Restore last-applied state to the devices
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Runtime.ReapplyStartupState(ctx)
	}()

	return nil
}

// registerIntentHandlers subscribes the runtime to the intent bus.
func (s *Services) registerIntentHandlers(ctx context.Context) {
	s.Bus.Subscribe(eventbus.EventTypeRaveStart, func(eventbus.Event) {
		s.Runtime.BroadcastRaveStart(ctx)
	})
	s.Bus.Subscribe(eventbus.EventTypeRaveStop, func(eventbus.Event) {
		s.Runtime.BroadcastRaveStop(ctx)
	})
	s.Bus.Subscribe(eventbus.EventTypeApply, func(ev eventbus.Event) {
		s.handleApplyIntent(ctx, ev)
	})
	s.Bus.Subscribe(eventbus.EventTypeTelemetry, func(ev eventbus.Event) {
		s.handleTelemetryIntent(ev)
	})
}

func (s *Services) handleApplyIntent(ctx context.Context, ev eventbus.Event) {
	id, _ := ev.Data["fixture_id"].(string)
	if id == "" {
		log.Warn().Msg("Apply intent without fixture_id, ignoring")
		return
	}
	patch, err := standalone.PatchFromRecord(ev.Data)
	if err != nil {
		log.Warn().Err(err).Str("fixture", id).Msg("Apply intent with malformed patch, ignoring")
		return
	}
	if _, err := s.Runtime.ApplyByID(ctx, id, patch); err != nil {
		log.Warn().Err(err).Str("fixture", id).Msg("Apply intent failed")
	}
}

func (s *Services) handleTelemetryIntent(ev eventbus.Event) {
	snap := telemetry.Snapshot{}
	read := func(key string) float64 {
		v, _ := ev.Data[key].(float64)
		return v
	}
	snap.Energy = read("energy")
	snap.RMS = read("rms")
	snap.Flux = read("flux")
	snap.Beat = read("beat")
	snap.Transient = read("transient")
	snap.BPM = read("bpm")
	s.Telemetry.Update(snap)

	if drive, ok := ev.Data["drive"].(float64); ok {
		s.Telemetry.SetDrive(drive)
	}
}

// ClearState clears all persisted fixture state.
func (s *Services) ClearState() error {
	return s.Store.Clear()
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
	defer cancel()

	if s.Bus != nil {
		s.Bus.Close(shutdownCtx)
	}
	if s.Runtime != nil {
		s.Runtime.Shutdown()
	}
	s.wg.Wait()
	s.Close()
	return nil
}

// Close releases all resources.
func (s *Services) Close() {
	if s.HueClient != nil {
		s.HueClient.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
