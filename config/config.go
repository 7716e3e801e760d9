// Package config loads the Ember client configuration from TOML files and
// EMBER_-prefixed environment variables.
package config

import (
	"time"

	"github.com/emberbase/ember-go/cache"
)

// Config represents the Ember client configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Transport TransportConfig `mapstructure:"transport"`
	Log       LogConfig       `mapstructure:"log"`
}

// AppConfig identifies the application against the server
type AppConfig struct {
	ID string `mapstructure:"id"` // app id issued by the server
}

// CacheConfig configures the entity cache garbage collector.
// Preset selects a named baseline ("default", "aggressive", "disabled");
// explicit values override individual fields of the preset. Zero means
// disabled for every bound, matching cache.GCConfig semantics.
type CacheConfig struct {
	Preset            string `mapstructure:"preset"`
	MaxEntities       int    `mapstructure:"max_entities"`
	MaxAgeSeconds     int    `mapstructure:"max_age_seconds"`
	MaxTotalCost      uint64 `mapstructure:"max_total_cost"`
	GCIntervalSeconds int    `mapstructure:"gc_interval_seconds"`
}

// TransportConfig configures the websocket transport
type TransportConfig struct {
	URL               string `mapstructure:"url"`                 // ws:// or wss:// endpoint
	AckTimeoutSeconds int    `mapstructure:"ack_timeout_seconds"` // server confirm deadline
	DialPeriodSeconds int    `mapstructure:"dial_period_seconds"` // reconnect rate limit
}

// LogConfig configures logging output
type LogConfig struct {
	JSON bool `mapstructure:"json"` // structured JSON instead of console format
}

// GCConfig resolves the cache section into collector bounds: the preset
// supplies the baseline and any explicitly set field overrides it
func (c *CacheConfig) GCConfig() cache.GCConfig {
	var gc cache.GCConfig
	switch c.Preset {
	case "aggressive":
		gc = cache.AggressiveGCConfig()
	case "disabled":
		gc = cache.DisabledGCConfig()
	default:
		gc = cache.DefaultGCConfig()
	}

	if c.MaxEntities != 0 {
		gc.MaxEntities = c.MaxEntities
	}
	if c.MaxAgeSeconds != 0 {
		gc.MaxAge = time.Duration(c.MaxAgeSeconds) * time.Second
	}
	if c.MaxTotalCost != 0 {
		gc.MaxTotalCost = c.MaxTotalCost
	}
	if c.GCIntervalSeconds != 0 {
		gc.Interval = time.Duration(c.GCIntervalSeconds) * time.Second
	}

	return gc
}
