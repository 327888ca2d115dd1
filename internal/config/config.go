package config

import "fmt"

// Config is the root engine configuration.
type Config struct {
	History HistoryConfig `toml:"history"`
	Collab  CollabConfig  `toml:"collab"`
	Plugin  PluginConfig  `toml:"plugin"`
}

// HistoryConfig configures the undo history.
type HistoryConfig struct {
	// MaxEntries bounds the undo stack; oldest batches are evicted.
	MaxEntries int `toml:"max_entries"`
}

// CollabConfig configures the collaboration layer.
type CollabConfig struct {
	// OpLogCap bounds the applied-operation log kept for transforming late
	// remote envelopes.
	OpLogCap int `toml:"op_log_cap"`

	// Origin is this replica's identity. Empty means generate a UUID at
	// startup. Two live replicas must never share an origin.
	Origin string `toml:"origin"`
}

// PluginConfig configures the Lua macro bridge.
type PluginConfig struct {
	// Enabled turns the macro bridge on.
	Enabled bool `toml:"enabled"`

	// MaxMacroOps bounds the operations a single macro may apply. Zero
	// means unlimited.
	MaxMacroOps int `toml:"max_macro_ops"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		History: HistoryConfig{
			MaxEntries: 1000,
		},
		Collab: CollabConfig{
			OpLogCap: 100,
		},
		Plugin: PluginConfig{
			Enabled:     true,
			MaxMacroOps: 10000,
		},
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.History.MaxEntries <= 0 {
		return fmt.Errorf("history.max_entries must be positive, got %d", c.History.MaxEntries)
	}
	if c.Collab.OpLogCap <= 0 {
		return fmt.Errorf("collab.op_log_cap must be positive, got %d", c.Collab.OpLogCap)
	}
	if c.Plugin.MaxMacroOps < 0 {
		return fmt.Errorf("plugin.max_macro_ops must be non-negative, got %d", c.Plugin.MaxMacroOps)
	}
	return nil
}
