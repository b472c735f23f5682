// Package config loads optional TOML defaults for the memhex CLI. The core
// library itself takes no configuration — callers fill a plain Go struct
// directly, keeping anything environment-sourced out of the library proper.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config holds CLI-level defaults that would otherwise have to be repeated
// on every invocation as flags.
type Config struct {
	// BlankData is the byte used to fill unimplemented positions in newly
	// created memory maps (default 0xFF, matching MemoryMap's own default).
	BlankData uint8 `toml:"blank_data"`
	// InvalidChecksumWarning demotes checksum-mismatch faults to warnings
	// during load, the same toggle DataFile.InvalidChecksumWarning exposes.
	InvalidChecksumWarning bool `toml:"invalid_checksum_warning"`
	// DefaultSaveFormat names a wire format (by the extension table's
	// names, e.g. "hex", "s19") used when neither a flag nor a target file
	// extension pins one down.
	DefaultSaveFormat string `toml:"default_save_format"`
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithBlankData overrides the default blank-data byte.
func WithBlankData(b uint8) Option {
	return func(c *Config) { c.BlankData = b }
}

// WithInvalidChecksumWarning sets the checksum-mismatch error/warning
// toggle.
func WithInvalidChecksumWarning(v bool) Option {
	return func(c *Config) { c.InvalidChecksumWarning = v }
}

// WithDefaultSaveFormat overrides the fallback save format name.
func WithDefaultSaveFormat(name string) Option {
	return func(c *Config) { c.DefaultSaveFormat = name }
}

// Default returns the built-in defaults before any file or flag override.
func Default(opts ...Option) *Config {
	c := &Config{BlankData: 0xFF, InvalidChecksumWarning: false}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads a TOML config file at path into a fresh Config seeded with
// Default's values, so a partial file only overrides the fields it sets.
func Load(path string) (*Config, error) {
	c := Default()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	return c, nil
}
