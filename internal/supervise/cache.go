package supervise

import (
	"context"
	"fmt"
	"time"

	"github.com/thermosentry/thermosentry/internal/device"
)

// StateCache is a TTL-bounded cache over one adapter's zone state reads.
//
// The vendor services behind most adapters are rate-limited and slow, so
// every poll tick refreshes through this cache instead of hitting the
// device directly. Within the TTL window a refresh costs zero underlying
// calls.
//
// A StateCache belongs to exactly one zone worker. Ownership is exclusive,
// so no locking is required.
type StateCache struct {
	adapter device.Adapter
	ttl     time.Duration

	state     device.ZoneState
	fetchedAt time.Time
	primed    bool

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewStateCache creates a cache over the given adapter session.
// A non-positive ttl disables caching entirely: every refresh queries the
// device.
func NewStateCache(adapter device.Adapter, ttl time.Duration) *StateCache {
	return &StateCache{
		adapter: adapter,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Refresh returns the zone state, querying the device only when the cached
// value has expired or force is set.
//
// Exactly one underlying query is issued per miss; a hit issues none.
func (c *StateCache) Refresh(ctx context.Context, force bool) (device.ZoneState, error) {
	if !force && c.primed && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.state, nil
	}

	state, err := c.adapter.State(ctx, force)
	if err != nil {
		return device.ZoneState{}, fmt.Errorf("refreshing zone state: %w", err)
	}

	c.state = state
	c.fetchedAt = c.now()
	c.primed = true
	return state, nil
}

// Age returns how old the cached value is, or zero if nothing is cached.
func (c *StateCache) Age() time.Duration {
	if !c.primed {
		return 0
	}
	return c.now().Sub(c.fetchedAt)
}
