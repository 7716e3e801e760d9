package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Cache defaults mirror cache.DefaultGCConfig; zero-valued overrides
	// fall back to the preset
	v.SetDefault("cache.preset", "default")
	v.SetDefault("cache.max_entities", 0)
	v.SetDefault("cache.max_age_seconds", 0)
	v.SetDefault("cache.max_total_cost", 0)
	v.SetDefault("cache.gc_interval_seconds", 0)

	// Transport defaults
	v.SetDefault("transport.url", "")
	v.SetDefault("transport.ack_timeout_seconds", 30)
	v.SetDefault("transport.dial_period_seconds", 5)

	// Logging defaults
	v.SetDefault("log.json", false)
}
