package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// maxBackups caps the backup rotation; oldest files by mtime are pruned.
const maxBackups = 40

// persistLocked writes a fixture set to disk: backup the current file,
// prune the rotation, then write pretty JSON. The caller re-applies the set
// in memory only after this succeeds.
func (r *Registry) persistLocked(fixtures []Fixture) error {
	if err := r.backupCurrent(); err != nil {
		return err
	}

	cfg := snapshotConfig(fixtures)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixtures config: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write fixtures config: %w", err)
	}
	return nil
}

// backupCurrent copies the live config file into the timestamped backup
// rotation. A missing config file (first write) is not an error.
func (r *Registry) backupCurrent() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config for backup: %w", err)
	}

	dir := r.backupPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("fixtures.config.%d.json", time.Now().UnixMilli())
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	pruneBackups(dir, maxBackups)
	return nil
}

func (r *Registry) backupPath() string {
	return filepath.Join(r.backupDir, "backups", "fixtures")
}

// pruneBackups keeps the `keep` most recent backups by modification time.
// Pruning failures are logged, never fatal.
func pruneBackups(dir string, keep int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Failed to list backups for pruning")
		return
	}

	type backup struct {
		name string
		mod  time.Time
	}
	var backups []backup
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{name: e.Name(), mod: info.ModTime()})
	}
	if len(backups) <= keep {
		return
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].mod.After(backups[j].mod) })
	for _, b := range backups[keep:] {
		if err := os.Remove(filepath.Join(dir, b.name)); err != nil {
			log.Warn().Err(err).Str("backup", b.name).Msg("Failed to prune backup")
		}
	}
}
