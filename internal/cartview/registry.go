package cartview

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type registryEntry struct {
	view     *View
	lastSeen time.Time
}

// Registry keeps one View per shopper and drops views left idle.
type Registry struct {
	mu    sync.Mutex
	views map[string]*registryEntry
	ttl   time.Duration
	log   *logrus.Entry
	now   func() time.Time
}

func NewRegistry(ttl time.Duration, log *logrus.Entry) *Registry {
	return &Registry{
		views: make(map[string]*registryEntry),
		ttl:   ttl,
		log:   log,
		now:   time.Now,
	}
}

// Acquire returns the shopper's view, creating it on first use. An existing
// view is rebound to deps.API so rotated credentials take effect. Mounting is
// left to the caller: every page visit mounts.
func (r *Registry) Acquire(userID string, deps Deps) *View {
	r.mu.Lock()
	entry, ok := r.views[userID]
	if ok {
		entry.lastSeen = r.now()
		r.mu.Unlock()
		entry.view.rebind(deps.API)
		return entry.view
	}

	view := NewView(deps, r.log.WithField("user_id", userID))
	r.views[userID] = &registryEntry{view: view, lastSeen: r.now()}
	r.mu.Unlock()
	return view
}

// Forget drops a shopper's view, e.g. on logout.
func (r *Registry) Forget(userID string) {
	r.mu.Lock()
	delete(r.views, userID)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Sweep removes views idle for longer than the TTL and returns how many went.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for userID, entry := range r.views {
		if entry.lastSeen.Before(cutoff) {
			delete(r.views, userID)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	interval := r.ttl / 2
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.WithField("evicted", n).Debug("evicted idle cart views")
			}
		}
	}
}
