package blob

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Cleaner deletes uploaded images that were never attached to a post within
// the TTL. Uploads are tracked in-process: an upload that hasn't been claimed
// by a post creation is orphaned the moment its deadline passes.
type Cleaner struct {
	store Store
	ttl   time.Duration
	log   *zap.SugaredLogger

	mu      sync.Mutex
	pending map[string]time.Time // ref -> delete-after deadline
	stop    chan struct{}
}

// NewCleaner tracks uploads against store with the given claim TTL.
func NewCleaner(store Store, ttl time.Duration, log *zap.SugaredLogger) *Cleaner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cleaner{
		store:   store,
		ttl:     ttl,
		log:     log,
		pending: make(map[string]time.Time),
		stop:    make(chan struct{}),
	}
}

// Track registers a fresh upload for cleanup unless claimed in time.
func (c *Cleaner) Track(ref string) {
	c.mu.Lock()
	c.pending[ref] = time.Now().Add(c.ttl)
	c.mu.Unlock()
}

// Claim marks the reference as attached to a post; it will not be cleaned.
func (c *Cleaner) Claim(ref string) {
	if ref == "" {
		return
	}
	c.mu.Lock()
	delete(c.pending, ref)
	c.mu.Unlock()
}

// Start launches the background sweep loop. Best-effort: failures are logged
// and retried on the next round.
func (c *Cleaner) Start(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep(time.Now())
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep loop.
func (c *Cleaner) Stop() {
	close(c.stop)
}

func (c *Cleaner) sweep(now time.Time) {
	c.mu.Lock()
	var expired []string
	for ref, deadline := range c.pending {
		if !deadline.After(now) {
			expired = append(expired, ref)
			delete(c.pending, ref)
		}
	}
	c.mu.Unlock()

	for _, ref := range expired {
		if err := c.store.Delete(context.Background(), ref); err != nil {
			if c.log != nil {
				c.log.Warnf("orphan upload cleanup failed ref=%s err=%v", ref, err)
			}
			continue
		}
		if c.log != nil {
			c.log.Infof("removed orphan upload ref=%s", ref)
		}
	}
}
