// Package diff computes minimal field-level change sets between two
// snapshots of the same entity.
//
// Field-level diffing is what makes concurrent updates to disjoint fields of
// one entity commutative: each update ships only the fields it actually
// changed, so applying two racing updates in either order yields the same
// merged entity on the server. Updates to the same field remain
// last-write-wins by arrival order — that is accepted behavior, not something
// this package tries to solve.
package diff

import (
	"github.com/emberbase/ember-go/types"
)

// Fields computes the minimal change set between two flat field snapshots of
// one entity.
//
// Every field present in after that is new or structurally different from
// before appears in the result with its after value. Every field present in
// before but missing from after appears as a tombstone, so an intentional
// deletion is never silently dropped. Fields with equal values are excluded.
//
// An empty result means the entity did not change; callers must build no
// transaction and send no traffic for it.
func Fields(before, after map[string]types.Value) map[string]types.Value {
	changes := make(map[string]types.Value)

	for field, afterVal := range after {
		beforeVal, existed := before[field]
		if !existed || !beforeVal.Equal(afterVal) {
			changes[field] = afterVal
		}
	}

	for field := range before {
		if _, present := after[field]; !present {
			changes[field] = types.Tombstone()
		}
	}

	return changes
}

// Entities diffs two entity snapshots. A nil before is treated as an empty
// snapshot, so diffing against nil yields the full after field set (the
// create case).
func Entities(before, after *types.Entity) map[string]types.Value {
	var beforeFields map[string]types.Value
	if before != nil {
		beforeFields = before.Fields
	}
	var afterFields map[string]types.Value
	if after != nil {
		afterFields = after.Fields
	}
	return Fields(beforeFields, afterFields)
}
