package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/emberbase/ember-go/types"
)

// SacredRefreshFunc returns the authoritative set of entity ids currently in
// active use. The collector does not know how "in use" is computed — a live
// query registry, open views, whatever the application considers current — it
// only consumes the resulting set.
type SacredRefreshFunc func(ctx context.Context) (map[types.EntityID]struct{}, error)

// GCResult reports what one collection pass removed. Orphan removal is
// ledger bookkeeping cleanup, not store eviction, so Total excludes it.
type GCResult struct {
	OrphanedRemoved int
	AgedOut         int
	LRUEvicted      int
	SizeEvicted     int
}

// Total returns the number of entities evicted from the store
func (r GCResult) Total() int {
	return r.AgedOut + r.LRUEvicted + r.SizeEvicted
}

// GCStats holds cumulative statistics across collection passes
type GCStats struct {
	Runs                 uint64
	TotalOrphanedRemoved uint64
	TotalAgedOut         uint64
	TotalLRUEvicted      uint64
	TotalSizeEvicted     uint64
	LastRunAt            time.Time
	LastRunDuration      time.Duration
	LastResult           GCResult
}

// Diagnostics is a read-only snapshot of the collector's state
type Diagnostics struct {
	Running            bool
	TrackedEntities    int
	EstimatedTotalCost uint64
	SacredCount        int
	Config             GCConfig
	Stats              GCStats
}

// Collector keeps the access ledger and the store within the configured
// bounds without evicting entities that are actively in use.
//
// All operations are serialized against the internal ledger and sacred set:
// callers may invoke the collector freely from concurrent goroutines. No
// operation returns an error; ledger/store disagreement is self-healed by
// the orphan phase of the next pass rather than surfaced.
type Collector struct {
	store  Store
	config GCConfig
	log    *zap.SugaredLogger

	// passMu serializes collection passes; concurrent RunGC calls queue
	// rather than interleave
	passMu sync.Mutex

	// mu guards everything below
	mu            sync.Mutex
	entries       ledger
	sacred        map[types.EntityID]struct{}
	refreshSacred SacredRefreshFunc
	stats         GCStats
	running       bool
	cancel        context.CancelFunc

	wg sync.WaitGroup

	// now is swappable in tests
	now func() time.Time
}

// NewCollector creates a collector over the given store. Pass a nil logger
// to log through a nop logger.
func NewCollector(store Store, config GCConfig, log *zap.SugaredLogger) *Collector {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Collector{
		store:   store,
		config:  config,
		log:     log,
		entries: make(ledger),
		sacred:  make(map[types.EntityID]struct{}),
		now:     time.Now,
	}
}

// Config returns the collector's bounds
func (c *Collector) Config() GCConfig {
	return c.config
}

// RecordAccess refreshes the entity's last-access time, extending its
// lifetime under the age policy. A record is created on first access; its
// cost is estimated from the stored entity's field count when resolvable.
func (c *Collector) RecordAccess(id types.EntityID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch(id, nil)
}

// RecordAccessWithCost refreshes the entity's last-access time and replaces
// its cost estimate
func (c *Collector) RecordAccessWithCost(id types.EntityID, cost uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch(id, &cost)
}

// RecordAccessBulk refreshes timestamps for many entities touched by one
// read (e.g. a query result page). Costs of existing records are preserved.
func (c *Collector) RecordAccessBulk(ids []types.EntityID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.touch(id, nil)
	}
}

// touch creates or refreshes a record. Caller holds mu.
func (c *Collector) touch(id types.EntityID, cost *uint64) {
	rec, ok := c.entries[id]
	if !ok {
		rec = &AccessRecord{EntityID: id, Cost: c.estimateCost(id)}
		c.entries[id] = rec
	}
	rec.LastAccessedAt = c.now()
	if cost != nil {
		rec.Cost = *cost
	}
}

// estimateCost resolves an initial cost for an entity with no record yet
func (c *Collector) estimateCost(id types.EntityID) uint64 {
	if e, ok := c.store.Get(id); ok {
		return e.Cost()
	}
	return 1
}

// MarkSacred adds entities to the in-use set, exempting them from every
// eviction phase regardless of age, count, or cost pressure
func (c *Collector) MarkSacred(ids ...types.EntityID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.sacred[id] = struct{}{}
	}
}

// UnmarkSacred removes entities from the in-use set
func (c *Collector) UnmarkSacred(ids ...types.EntityID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.sacred, id)
	}
}

// SetSacredRefreshFunc registers the authoritative in-use source. When set,
// every pass replaces the sacred set wholesale with the function's result
// before evicting anything; MarkSacred calls made between refreshes are
// superseded.
func (c *Collector) SetSacredRefreshFunc(fn SacredRefreshFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshSacred = fn
}

// Start launches the periodic collection loop. No-op when already running or
// when the configured interval disables the loop. Never blocks on a pass.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	if c.config.Interval <= 0 {
		c.log.Debugw("Cache GC loop disabled", "interval", c.config.Interval)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.running = true

	c.wg.Add(1)
	go c.run(ctx)

	c.log.Infow("Cache GC started",
		"interval", c.config.Interval,
		"max_entities", c.config.MaxEntities,
		"max_age", c.config.MaxAge,
		"max_total_cost", c.config.MaxTotalCost)
}

// Stop cancels the periodic loop and waits for it to exit. Safe to call
// multiple times or before Start.
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
	c.log.Infow("Cache GC stopped")
}

// run is the periodic loop: sleep, collect, repeat
func (c *Collector) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := c.RunGC(ctx)
			if result.Total() > 0 || result.OrphanedRemoved > 0 {
				c.log.Debugw("Cache GC pass complete",
					"orphaned", result.OrphanedRemoved,
					"aged_out", result.AgedOut,
					"lru_evicted", result.LRUEvicted,
					"size_evicted", result.SizeEvicted)
			}
		}
	}
}

// RunGC executes one collection pass. Callable directly (tests, manual
// triggers) as well as from the loop; a direct call against the same ledger
// state produces identical results to a loop-triggered one. Concurrent calls
// are serialized, never run in parallel.
//
// The four phases run in strict order because later phases depend on the
// ledger state produced by earlier ones: orphan removal, age eviction, LRU
// count eviction, aggregate-cost eviction. All phases always run — the
// result reflects every applicable correction from one snapshot of the
// ledger.
func (c *Collector) RunGC(ctx context.Context) GCResult {
	c.passMu.Lock()
	defer c.passMu.Unlock()

	started := time.Now()

	// Refresh the sacred set outside the state lock: the callback is
	// application code and may block.
	c.mu.Lock()
	refresh := c.refreshSacred
	c.mu.Unlock()

	var freshSacred map[types.EntityID]struct{}
	if refresh != nil {
		set, err := refresh(ctx)
		if err != nil {
			// Keep the previous sacred set; failing open here could evict
			// entities that are still on screen.
			c.log.Warnw("Sacred set refresh failed, keeping previous set", "error", err)
		} else {
			freshSacred = set
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if freshSacred != nil {
		c.sacred = make(map[types.EntityID]struct{}, len(freshSacred))
		for id := range freshSacred {
			c.sacred[id] = struct{}{}
		}
	}

	var result GCResult

	// Phase 1: drop ledger records whose entity left the store out-of-band
	storeIDs := c.store.AllEntityIDs()
	for id := range c.entries {
		if _, present := storeIDs[id]; !present {
			delete(c.entries, id)
			result.OrphanedRemoved++
		}
	}

	// Phase 2: age out non-sacred entities untouched past MaxAge
	if c.config.MaxAge > 0 {
		cutoff := c.now().Add(-c.config.MaxAge)
		for id, rec := range c.entries {
			if _, sacred := c.sacred[id]; sacred {
				continue
			}
			if rec.LastAccessedAt.Before(cutoff) {
				c.evict(id)
				result.AgedOut++
			}
		}
	}

	// Phase 3: LRU eviction down to the entity count bound. Sacred entries
	// are excluded from both the sort and the removal target, so the bound
	// is knowingly exceeded when sacred entries alone exceed it.
	if c.config.MaxEntities > 0 && len(c.entries) > c.config.MaxEntities {
		excess := len(c.entries) - c.config.MaxEntities
		for _, rec := range c.entries.oldestFirst(c.sacred) {
			if excess == 0 {
				break
			}
			c.evict(rec.EntityID)
			result.LRUEvicted++
			excess--
		}
	}

	// Phase 4: evict oldest non-sacred entries until the aggregate cost fits
	// or nothing evictable remains
	if c.config.MaxTotalCost > 0 && c.entries.totalCost() > c.config.MaxTotalCost {
		total := c.entries.totalCost()
		for _, rec := range c.entries.oldestFirst(c.sacred) {
			if total <= c.config.MaxTotalCost {
				break
			}
			total -= rec.Cost
			c.evict(rec.EntityID)
			result.SizeEvicted++
		}
	}

	c.stats.Runs++
	c.stats.TotalOrphanedRemoved += uint64(result.OrphanedRemoved)
	c.stats.TotalAgedOut += uint64(result.AgedOut)
	c.stats.TotalLRUEvicted += uint64(result.LRUEvicted)
	c.stats.TotalSizeEvicted += uint64(result.SizeEvicted)
	c.stats.LastRunAt = c.now()
	c.stats.LastRunDuration = time.Since(started)
	c.stats.LastResult = result

	c.logEvictionEvents(result)
	c.warnOnPressure()

	return result
}

// evict removes an entity from both the store and the ledger. Store deletion
// is fire-and-forget: if the store disagrees, the next orphan phase settles
// it. Caller holds mu.
func (c *Collector) evict(id types.EntityID) {
	c.store.Delete(id)
	delete(c.entries, id)
}

// logEvictionEvents records one structured event per phase that evicted,
// for observability
func (c *Collector) logEvictionEvents(result GCResult) {
	if result.AgedOut > 0 {
		c.log.Debugw("Cache bound enforced (max age)",
			"event_type", "age_eviction",
			"evicted", result.AgedOut,
			"limit", c.config.MaxAge)
	}
	if result.LRUEvicted > 0 {
		c.log.Debugw("Cache bound enforced (entity count)",
			"event_type", "lru_eviction",
			"evicted", result.LRUEvicted,
			"limit", c.config.MaxEntities)
	}
	if result.SizeEvicted > 0 {
		c.log.Debugw("Cache bound enforced (aggregate cost)",
			"event_type", "size_eviction",
			"evicted", result.SizeEvicted,
			"limit", c.config.MaxTotalCost)
	}
}

// Diagnostics returns a read-only snapshot of the collector's state.
// Never mutates.
func (c *Collector) Diagnostics() Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Diagnostics{
		Running:            c.running,
		TrackedEntities:    len(c.entries),
		EstimatedTotalCost: c.entries.totalCost(),
		SacredCount:        len(c.sacred),
		Config:             c.config,
		Stats:              c.stats,
	}
}
