package config

import (
	"path/filepath"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	DataDir           string        `mapstructure:"data_dir" yaml:"data_dir"`
	SnapshotTTL       time.Duration `mapstructure:"snapshot_ttl" yaml:"snapshot_ttl"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DataDir:           "data",
		SnapshotTTL:       24 * time.Hour,
	}
}

// SnapshotPath is where the recovery snapshot lives.
func (c Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, "game_state.json")
}

// LibraryPath is the puzzle library database file.
func (c Config) LibraryPath() string {
	return filepath.Join(c.DataDir, "puzzles.db")
}

// SeedPath is the optional JSON file imported into an empty library.
func (c Config) SeedPath() string {
	return filepath.Join(c.DataDir, "puzzles.json")
}
