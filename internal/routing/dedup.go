package routing

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultDedupEntries bounds the deduper when no size is configured.
const DefaultDedupEntries = 10000

// Deduper remembers recently handled event IDs so platform redeliveries
// are acknowledged without running the turn twice.
type Deduper struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

// NewDeduper remembers up to size IDs for window each.
func NewDeduper(size int, window time.Duration) *Deduper {
	if size <= 0 {
		size = DefaultDedupEntries
	}
	return &Deduper{seen: expirable.NewLRU[string, struct{}](size, nil, window)}
}

// Claim records id and reports whether it was new. Empty IDs are always
// new.
func (d *Deduper) Claim(id string) bool {
	if id == "" {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen.Contains(id) {
		return false
	}
	d.seen.Add(id, struct{}{})
	return true
}

// Forget drops id so a later delivery is processed again.
func (d *Deduper) Forget(id string) {
	if id == "" {
		return
	}
	d.seen.Remove(id)
}

// Len returns the number of remembered IDs.
func (d *Deduper) Len() int {
	return d.seen.Len()
}
