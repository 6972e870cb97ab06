package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config is the on-disk shape of the fixtures config file.
type Config struct {
	IntentRoutes map[string]string `json:"intentRoutes"`
	Fixtures     []map[string]any  `json:"fixtures"`
}

// DefaultConfig is the hardcoded first-boot fallback: no fixtures, every
// intent routed to "none".
func DefaultConfig() *Config {
	routes := make(map[string]string)
	for _, intent := range IntentNames() {
		routes[intent] = RouteNone
	}
	return &Config{IntentRoutes: routes}
}

// ReadConfig reads and parses a fixtures config file.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Filter selects fixtures on the query surface. Nil/empty fields match
// everything.
type Filter struct {
	Enabled             *bool
	Brand               string
	Zone                string
	TransportConfigured *bool
	Mode                string // engine|twitch|custom
}

func (flt Filter) matches(f *Fixture) bool {
	if flt.Enabled != nil && f.Enabled != *flt.Enabled {
		return false
	}
	if flt.Brand != "" && f.Brand != flt.Brand {
		return false
	}
	if flt.Zone != "" && f.Zone != flt.Zone {
		return false
	}
	if flt.TransportConfigured != nil && f.TransportConfigured() != *flt.TransportConfigured {
		return false
	}
	if flt.Mode != "" && !matchesMode(f, flt.Mode) {
		return false
	}
	return true
}

// Summary aggregates per-brand and per-mode fixture counts.
type Summary struct {
	Total          int            `json:"total"`
	Enabled        int            `json:"enabled"`
	TransportReady int            `json:"transportReady"`
	Engine         int            `json:"engine"`
	Twitch         int            `json:"twitch"`
	Custom         int            `json:"custom"`
	ByBrand        map[string]int `json:"byBrand"`
}

// Registry owns the in-memory fixture set, its intent routes, and the
// persistence of both. All mutation goes through the strict sanitize path;
// a failed mutation leaves the registry and its version untouched.
type Registry struct {
	mu        sync.RWMutex
	path      string
	backupDir string

	fixtures []Fixture
	routes   map[string]string
	version  int64
	loadedAt time.Time
}

// NewRegistry creates a registry bound to a config file path. Backups are
// rotated under backupDir.
func NewRegistry(path, backupDir string) *Registry {
	return &Registry{
		path:      path,
		backupDir: backupDir,
		routes:    map[string]string{},
	}
}

// Path returns the config file path the registry is bound to.
func (r *Registry) Path() string { return r.path }

// Load reads the config file and applies it. A missing file falls back to
// the hardcoded defaults; a parse failure after a previous successful load
// keeps the in-memory registry intact and returns the error.
func (r *Registry) Load() error {
	cfg, err := ReadConfig(r.path)
	if err != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.version > 0 {
			// Hot reload of a broken file: keep the last good registry.
			log.Error().Err(err).Str("path", r.path).Msg("Fixtures config reload failed, keeping previous registry")
			return err
		}
		log.Warn().Err(err).Str("path", r.path).Msg("Fixtures config unavailable, starting from defaults")
		r.applyLocked(fixturesFromConfig(DefaultConfig()))
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyLocked(fixturesFromConfig(cfg))
	log.Info().
		Int("fixtures", len(r.fixtures)).
		Int64("version", r.version).
		Msg("Fixtures config loaded")
	return nil
}

func fixturesFromConfig(cfg *Config) []Fixture {
	out := make([]Fixture, 0, len(cfg.Fixtures))
	for i, raw := range cfg.Fixtures {
		out = append(out, NormalizeFixture(raw, i))
	}
	return out
}

// applyLocked installs a fixture set: every apply re-runs normalization,
// re-derives routes and bumps the version.
func (r *Registry) applyLocked(fixtures []Fixture) {
	normalized := make([]Fixture, 0, len(fixtures))
	for i := range fixtures {
		normalized = append(normalized, NormalizeFixture(RawFromFixture(fixtures[i]), i))
	}
	r.fixtures = normalized
	r.routes = DeriveIntentRoutes(normalized)
	r.version++
	r.loadedAt = time.Now()
}

// Version returns the monotonic registry version.
func (r *Registry) Version() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// LoadedAt returns the time of the last successful apply.
func (r *Registry) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}

// List returns fixtures matching the filter, in config order.
func (r *Registry) List(flt Filter) []Fixture {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Fixture
	for i := range r.fixtures {
		if flt.matches(&r.fixtures[i]) {
			out = append(out, r.fixtures[i].Clone())
		}
	}
	return out
}

// ByID returns a fixture by id.
func (r *Registry) ByID(id string) (Fixture, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.fixtures {
		if r.fixtures[i].ID == id {
			return r.fixtures[i].Clone(), true
		}
	}
	return Fixture{}, false
}

// Routes returns the current intent routing table.
func (r *Registry) Routes() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.routes))
	for k, v := range r.routes {
		out[k] = v
	}
	return out
}

// Summary aggregates per-brand, per-mode and readiness counts.
func (r *Registry) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Summary{ByBrand: make(map[string]int)}
	for i := range r.fixtures {
		f := &r.fixtures[i]
		s.Total++
		s.ByBrand[f.Brand]++
		if f.Enabled {
			s.Enabled++
		}
		if f.TransportConfigured() {
			s.TransportReady++
		}
		if f.EngineEnabled {
			s.Engine++
		}
		if f.TwitchEnabled {
			s.Twitch++
		}
		if f.CustomEnabled {
			s.Custom++
		}
	}
	return s
}

// UpsertFixture inserts or replaces the fixture identified by id with the
// given record. The record may carry a different id, which renames the
// fixture in place; a rename that collides with any other fixture is
// rejected. Failures leave the registry and its version unchanged.
func (r *Registry) UpsertFixture(id string, record map[string]any) (Fixture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	newID := rawString(record, "id")
	if newID == "" {
		newID = id
		record = cloneRecord(record)
		record["id"] = id
	}

	oldIdx := r.indexOf(id)
	if newID != id {
		if r.indexOf(newID) >= 0 {
			return Fixture{}, &ConflictError{ID: newID, Reason: "id already in use by another fixture"}
		}
	} else if oldIdx < 0 && r.indexOf(newID) >= 0 {
		return Fixture{}, &ConflictError{ID: newID, Reason: "id already in use by another fixture"}
	}

	idx := oldIdx
	if idx < 0 {
		idx = len(r.fixtures)
	}
	f, err := SanitizeFixtureForConfig(record, idx, SanitizeOptions{Strict: true})
	if err != nil {
		return Fixture{}, err
	}

	next := make([]Fixture, len(r.fixtures))
	copy(next, r.fixtures)
	if oldIdx >= 0 {
		// Rename is remove-then-insert at the same position, atomic under
		// the registry lock.
		next[oldIdx] = f
	} else {
		next = append(next, f)
	}

	if err := r.persistLocked(next); err != nil {
		return Fixture{}, err
	}
	r.applyLocked(next)
	log.Info().Str("fixture", f.ID).Int64("version", r.version).Msg("Fixture upserted")
	return f.Clone(), nil
}

// RemoveFixture deletes a fixture by id and persists the result.
func (r *Registry) RemoveFixture(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return &NotFoundError{ID: id}
	}

	next := make([]Fixture, 0, len(r.fixtures)-1)
	next = append(next, r.fixtures[:idx]...)
	next = append(next, r.fixtures[idx+1:]...)

	if err := r.persistLocked(next); err != nil {
		return err
	}
	r.applyLocked(next)
	log.Info().Str("fixture", id).Int64("version", r.version).Msg("Fixture removed")
	return nil
}

func (r *Registry) indexOf(id string) int {
	for i := range r.fixtures {
		if r.fixtures[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneRecord(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}

// snapshotConfig builds the on-disk config for a fixture set.
func snapshotConfig(fixtures []Fixture) *Config {
	cfg := &Config{
		IntentRoutes: DeriveIntentRoutes(fixtures),
		Fixtures:     make([]map[string]any, 0, len(fixtures)),
	}
	for i := range fixtures {
		cfg.Fixtures = append(cfg.Fixtures, RawFromFixture(fixtures[i]))
	}
	return cfg
}

func (r *Registry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("Registry(fixtures=%d, version=%d)", len(r.fixtures), r.version)
}
