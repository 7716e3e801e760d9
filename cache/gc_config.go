package cache

import "time"

// Default collection bounds. Tuned for a long-lived interactive client:
// roomy enough that a busy session never notices eviction, tight enough that
// a week-old cache does not hold the process hostage.
const (
	DefaultMaxTotalCost = 100_000          // aggregate field/triple budget
	DefaultMaxAge       = 24 * time.Hour   // entities untouched longer are dropped
	DefaultMaxEntities  = 10_000           // ledger entry ceiling
	DefaultGCInterval   = 60 * time.Second // time between automatic passes
)

// GCConfig holds the collector's bounds. Immutable once the collector starts.
//
// A zero or negative value disables the corresponding bound: MaxAge <= 0
// means no age eviction, MaxEntities <= 0 no count bound, MaxTotalCost == 0
// no cost bound, and Interval <= 0 no periodic loop (manual RunGC only).
type GCConfig struct {
	// MaxTotalCost bounds the sum of per-entity costs across the ledger
	MaxTotalCost uint64

	// MaxAge bounds how long an entity may go untouched before eviction
	MaxAge time.Duration

	// MaxEntities bounds the number of ledger entries. Sacred entities are
	// exempt, so the bound is knowingly exceeded when sacred entities alone
	// outnumber it.
	MaxEntities int

	// Interval is the time between automatic collection passes
	Interval time.Duration
}

// DefaultGCConfig returns the standard bounds
func DefaultGCConfig() GCConfig {
	return GCConfig{
		MaxTotalCost: DefaultMaxTotalCost,
		MaxAge:       DefaultMaxAge,
		MaxEntities:  DefaultMaxEntities,
		Interval:     DefaultGCInterval,
	}
}

// AggressiveGCConfig returns tight bounds for memory-constrained hosts
func AggressiveGCConfig() GCConfig {
	return GCConfig{
		MaxTotalCost: 10_000,
		MaxAge:       time.Hour,
		MaxEntities:  1_000,
		Interval:     15 * time.Second,
	}
}

// DisabledGCConfig returns a configuration with every bound and the periodic
// loop disabled. RunGC still performs orphan cleanup when called manually.
func DisabledGCConfig() GCConfig {
	return GCConfig{}
}
