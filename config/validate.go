package config

import (
	"strings"

	"github.com/emberbase/ember-go/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Cache.Preset {
	case "", "default", "aggressive", "disabled":
	default:
		return errors.Newf("cache.preset must be default, aggressive, or disabled, got %q", c.Cache.Preset)
	}

	// Negative bounds are invalid; zero disables the bound
	if c.Cache.MaxEntities < 0 {
		return errors.Newf("cache.max_entities must be >= 0, got %d", c.Cache.MaxEntities)
	}
	if c.Cache.MaxAgeSeconds < 0 {
		return errors.Newf("cache.max_age_seconds must be >= 0, got %d", c.Cache.MaxAgeSeconds)
	}
	if c.Cache.GCIntervalSeconds < 0 {
		return errors.Newf("cache.gc_interval_seconds must be >= 0, got %d", c.Cache.GCIntervalSeconds)
	}

	if c.Transport.URL != "" &&
		!strings.HasPrefix(c.Transport.URL, "ws://") &&
		!strings.HasPrefix(c.Transport.URL, "wss://") {
		return errors.Newf("transport.url must be a ws:// or wss:// endpoint, got %q", c.Transport.URL)
	}
	if c.Transport.AckTimeoutSeconds < 0 {
		return errors.Newf("transport.ack_timeout_seconds must be >= 0, got %d", c.Transport.AckTimeoutSeconds)
	}

	return nil
}
