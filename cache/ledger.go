package cache

import (
	"sort"
	"time"

	"github.com/emberbase/ember-go/types"
)

// AccessRecord is the per-entity bookkeeping the collector maintains,
// separate from the entity's actual field data: when the entity was last
// touched and roughly how much it contributes to the aggregate budget.
type AccessRecord struct {
	EntityID       types.EntityID
	LastAccessedAt time.Time
	// Cost approximates the entity's field/triple count
	Cost uint64
}

// ledger is the in-memory access table. It is owned exclusively by the
// collector; all access goes through the collector's mutex.
type ledger map[types.EntityID]*AccessRecord

// totalCost sums the cost of every record
func (l ledger) totalCost() uint64 {
	var total uint64
	for _, rec := range l {
		total += rec.Cost
	}
	return total
}

// oldestFirst returns the records not in the exempt set, ordered by last
// access ascending. Ties break on entity id so eviction order is
// deterministic.
func (l ledger) oldestFirst(exempt map[types.EntityID]struct{}) []*AccessRecord {
	records := make([]*AccessRecord, 0, len(l))
	for id, rec := range l {
		if _, sacred := exempt[id]; sacred {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].LastAccessedAt.Equal(records[j].LastAccessedAt) {
			return records[i].EntityID < records[j].EntityID
		}
		return records[i].LastAccessedAt.Before(records[j].LastAccessedAt)
	})
	return records
}
