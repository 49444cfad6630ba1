// Package config loads ember's runtime configuration, the knobs a host
// embedding the interpreter wants to set without writing Go code: GC
// pacing, stress-testing toggles, and script search paths.
package config

import "github.com/caarlos0/env/v6"

// RuntimeConfig controls allocator pacing and debug behavior. Every
// field has a sane zero-ish default (see Defaults); a host overlays
// environment variables on top with Load.
type RuntimeConfig struct {
	// InitialHeapBytes is the byte count the allocator runs to before
	// its first collection.
	InitialHeapBytes int64 `env:"EMBER_INITIAL_HEAP_BYTES" envDefault:"1048576"`

	// MinHeapBytes is the floor the collection threshold never drops
	// below after a collection, even if the live set shrank to almost
	// nothing.
	MinHeapBytes int64 `env:"EMBER_MIN_HEAP_BYTES" envDefault:"1048576"`

	// HeapGrowthPercent is how much NextGC grows, as a percentage of
	// bytes that survived the last collection.
	HeapGrowthPercent int64 `env:"EMBER_HEAP_GROWTH_PERCENT" envDefault:"50"`

	// GCStress, when true, forces a full collection before every single
	// allocation - far too slow for production use, invaluable for
	// shaking out missed roots in tests.
	GCStress bool `env:"EMBER_GC_STRESS" envDefault:"false"`

	// GCLog, when true and Config.DebugLog is set, reports every
	// collection's freed/live/next-threshold byte counts through
	// DebugLog, human-formatted.
	GCLog bool `env:"EMBER_GC_LOG" envDefault:"false"`

	// ModulePath is a list of directories loaded for a host's own module
	// resolver; nothing in this module reads it.
	ModulePath []string `env:"EMBER_MODULE_PATH" envSeparator:":"`
}

// Defaults returns a RuntimeConfig with the same defaults the struct
// tags declare, ignoring the environment entirely. Used by tests and by
// Load as a fallback if parsing the environment fails.
func Defaults() RuntimeConfig {
	return RuntimeConfig{
		InitialHeapBytes:  1 << 20,
		MinHeapBytes:      1 << 20,
		HeapGrowthPercent: 50,
	}
}

// Load reads RuntimeConfig fields from the process environment,
// starting from Defaults for anything unset.
func Load() (RuntimeConfig, error) {
	cfg := RuntimeConfig{}
	if err := env.Parse(&cfg); err != nil {
		return Defaults(), err
	}
	return cfg, nil
}
