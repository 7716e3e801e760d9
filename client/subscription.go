package client

import (
	"sync"

	"github.com/emberbase/ember-go/types"
)

// Subscription represents a live interest in a set of entities — typically
// the result set a view is rendering. While open, its entities are sacred:
// the collector will not evict them under any pressure.
type Subscription struct {
	set  *subscriptionSet
	ids  []types.EntityID
	once sync.Once
}

// EntityIDs returns a copy of the subscribed ids. The subscription's own set
// is fixed at Subscribe time; mutating the returned slice changes nothing.
func (s *Subscription) EntityIDs() []types.EntityID {
	return append([]types.EntityID(nil), s.ids...)
}

// Close releases the subscription. The entities become evictable again on
// the next sacred-set refresh. Safe to call multiple times.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.set.remove(s)
	})
}

// subscriptionSet tracks a client's live subscriptions and derives the
// sacred entity set from them
type subscriptionSet struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{
		subs: make(map[*Subscription]struct{}),
	}
}

func (ss *subscriptionSet) add(ids []types.EntityID) *Subscription {
	sub := &Subscription{
		set: ss,
		ids: append([]types.EntityID(nil), ids...),
	}
	ss.mu.Lock()
	ss.subs[sub] = struct{}{}
	ss.mu.Unlock()
	return sub
}

func (ss *subscriptionSet) remove(sub *Subscription) {
	ss.mu.Lock()
	delete(ss.subs, sub)
	ss.mu.Unlock()
}

// entityIDs returns the union of all live subscriptions' entity ids
func (ss *subscriptionSet) entityIDs() map[types.EntityID]struct{} {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	ids := make(map[types.EntityID]struct{})
	for sub := range ss.subs {
		for _, id := range sub.ids {
			ids[id] = struct{}{}
		}
	}
	return ids
}
