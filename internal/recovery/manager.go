// Package recovery persists the room snapshot across process restarts.
package recovery

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mxchen/turtlesoup-server/internal/core"
)

// DefaultTTL is how long a snapshot remains recoverable.
const DefaultTTL = 24 * time.Hour

// Manager reads and writes the snapshot file. All failures are logged and
// swallowed: persistence is best-effort and must never stall gameplay.
type Manager struct {
	path string
	ttl  time.Duration
	log  *zerolog.Logger
	now  func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a Manager writing to path. A non-positive ttl falls back
// to DefaultTTL.
func NewManager(path string, ttl time.Duration, logger *zerolog.Logger, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{path: path, ttl: ttl, log: logger, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load returns the persisted snapshot if one exists and is still inside the
// validity window. Expired files are deleted; malformed or unreadable files
// are treated as absence.
func (m *Manager) Load() *core.Snapshot {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.log.Warn().Err(err).Str("path", m.path).Msg("failed to read snapshot")
		}
		return nil
	}

	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		m.log.Warn().Err(err).Str("path", m.path).Msg("malformed snapshot, ignoring")
		return nil
	}

	age := m.now().UnixMilli() - snap.SavedAt
	if age >= m.ttl.Milliseconds() {
		m.log.Info().Str("path", m.path).Msg("snapshot expired, deleting")
		m.Clear()
		return nil
	}

	// Everyone is offline until they reconnect.
	for _, p := range snap.Players {
		p.IsOnline = false
	}

	m.log.Info().Time("savedAt", time.UnixMilli(snap.SavedAt)).Msg("recoverable snapshot found")
	return &snap
}

// Save writes the snapshot atomically (temp file then rename).
func (m *Manager) Save(snap *core.Snapshot) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		m.log.Error().Err(err).Msg("failed to encode snapshot")
		return
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		m.log.Error().Err(err).Str("path", m.path).Msg("failed to create snapshot dir")
		return
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		m.log.Error().Err(err).Str("path", tmp).Msg("failed to write snapshot")
		return
	}
	if err := os.Rename(tmp, m.path); err != nil {
		m.log.Error().Err(err).Str("path", m.path).Msg("failed to replace snapshot")
	}
}

// Clear removes the snapshot file if present.
func (m *Manager) Clear() {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.log.Warn().Err(err).Str("path", m.path).Msg("failed to remove snapshot")
	}
}
