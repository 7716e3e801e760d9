package cache

// CacheWarning reports a cache dimension approaching its configured bound.
// Warnings fire between 50% and 100% full: below that there is nothing to
// say, and at or past the limit the collector is already evicting.
type CacheWarning struct {
	// Dimension is "entity_count" or "total_cost"
	Dimension   string
	Current     uint64
	Limit       uint64
	FillPercent float64
}

const warnLowWatermark = 0.5

// CheckPressure returns warnings for bounds the cache is approaching.
// Pure observation; never mutates collector state.
func (c *Collector) CheckPressure() []*CacheWarning {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pressureWarnings()
}

// pressureWarnings computes warnings. Caller holds mu.
func (c *Collector) pressureWarnings() []*CacheWarning {
	var warnings []*CacheWarning

	if c.config.MaxEntities > 0 {
		if w := pressureWarning("entity_count", uint64(len(c.entries)), uint64(c.config.MaxEntities)); w != nil {
			warnings = append(warnings, w)
		}
	}
	if c.config.MaxTotalCost > 0 {
		if w := pressureWarning("total_cost", c.entries.totalCost(), c.config.MaxTotalCost); w != nil {
			warnings = append(warnings, w)
		}
	}

	return warnings
}

func pressureWarning(dimension string, current, limit uint64) *CacheWarning {
	fill := float64(current) / float64(limit)
	if fill < warnLowWatermark || fill >= 1.0 {
		return nil
	}
	return &CacheWarning{
		Dimension:   dimension,
		Current:     current,
		Limit:       limit,
		FillPercent: fill,
	}
}

// warnOnPressure logs a structured warning for each dimension under
// pressure after a pass. Caller holds mu.
func (c *Collector) warnOnPressure() {
	for _, w := range c.pressureWarnings() {
		c.log.Warnw("Cache approaching configured bound",
			"dimension", w.Dimension,
			"current", w.Current,
			"limit", w.Limit,
			"fill_percent", w.FillPercent)
	}
}
