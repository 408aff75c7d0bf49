package blockview

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml"
)

// Config tunes the engine's background-domain cadence and registry
// sizing, mirroring redstone.Config.withDefaults and server.Config: a
// struct of plain fields with a defaulting constructor, optionally
// hydrated from an on-disk TOML file.
type Config struct {
	// DigTickPeriod is how often the background domain advances dig
	// sessions (spec §5 "one-tick granularity"), expressed as a duration
	// rather than a raw tick count so hosts with a non-20-TPS tick rate
	// can still express "once per tick".
	DigTickPeriod time.Duration
	// DigSyncPeriod is the coarser cadence DigManager.Sync runs at (spec
	// §5 "≈ every minute").
	DigSyncPeriod time.Duration
	// FlushPeriod is how often the Packet Dispatcher flushes pending
	// bundles (spec §4.7, §5 "packet flush").
	FlushPeriod time.Duration
	// RegistryCapacity overrides blockdata.MaxID for hosts that want a
	// smaller cap than the wire format's theoretical maximum; 0 means use
	// the default.
	RegistryCapacity int

	Log *slog.Logger
}

// DefaultConfig returns a Config with dragonfly-style defaults: one-tick
// dig advancement, a one-minute sync cadence, and per-tick dispatcher
// flush.
func DefaultConfig() Config {
	return Config{
		DigTickPeriod: 50 * time.Millisecond,
		DigSyncPeriod: time.Minute,
		FlushPeriod:   50 * time.Millisecond,
		Log:           slog.Default(),
	}
}

// withDefaults fills any zero-valued field of c with DefaultConfig's
// value, following redstone.Config.withDefaults.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DigTickPeriod <= 0 {
		c.DigTickPeriod = d.DigTickPeriod
	}
	if c.DigSyncPeriod <= 0 {
		c.DigSyncPeriod = d.DigSyncPeriod
	}
	if c.FlushPeriod <= 0 {
		c.FlushPeriod = d.FlushPeriod
	}
	if c.Log == nil {
		c.Log = d.Log
	}
	return c
}

// tomlConfig is the on-disk shape Config.LoadFile hydrates, following
// spec's restriction that only registry/dig tuning (not collaborator
// wiring) is file-configurable.
type tomlConfig struct {
	DigTickMS        int64 `toml:"dig_tick_ms"`
	DigSyncSeconds   int64 `toml:"dig_sync_seconds"`
	FlushMS          int64 `toml:"flush_ms"`
	RegistryCapacity int   `toml:"registry_capacity"`
}

// LoadConfigFile reads dig/flush tuning from a TOML file, layering it over
// DefaultConfig. Missing fields in the file fall back to their default.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("blockview: read config: %w", err)
	}
	var tc tomlConfig
	if err := toml.Unmarshal(data, &tc); err != nil {
		return Config{}, fmt.Errorf("blockview: parse config: %w", err)
	}

	cfg := DefaultConfig()
	if tc.DigTickMS > 0 {
		cfg.DigTickPeriod = time.Duration(tc.DigTickMS) * time.Millisecond
	}
	if tc.DigSyncSeconds > 0 {
		cfg.DigSyncPeriod = time.Duration(tc.DigSyncSeconds) * time.Second
	}
	if tc.FlushMS > 0 {
		cfg.FlushPeriod = time.Duration(tc.FlushMS) * time.Millisecond
	}
	if tc.RegistryCapacity > 0 {
		cfg.RegistryCapacity = tc.RegistryCapacity
	}
	return cfg.withDefaults(), nil
}
