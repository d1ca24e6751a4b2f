package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mediakit/mediakit/errors"
	"github.com/mediakit/mediakit/media"
)

// DefaultMaxBytes is the memory budget applied when none is configured.
const DefaultMaxBytes = 256 * 1024 * 1024

// Cache is a thread-safe, size-budgeted LRU over computed stage outputs.
// It is the only mutable state shared across concurrent pipeline
// workers; all mutation goes through GetOrCompute.
type Cache struct {
	mu         sync.Mutex
	ll         *list.List
	items      map[string]*list.Element
	maxBytes   int
	totalBytes int

	group singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type entry struct {
	fingerprint string
	payload     media.Payload
	size        int
	lastAccess  time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
	Bytes     int
}

// New creates a Cache with the given memory budget in bytes.
// A non-positive budget falls back to DefaultMaxBytes.
func New(maxBytes int) *Cache {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Cache{
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		maxBytes: maxBytes,
	}
}

// GetOrCompute returns the cached output for key, computing it at most
// once across concurrent callers. Concurrent callers for the same key
// block until the single in-flight computation finishes and then share
// its result; a failed computation is propagated to every waiter and
// never cached, so a later call retries.
//
// Cancellation only detaches callers that joined a flight someone else
// started. The computing caller waits its own flight out and returns
// the natural result.
//
// The returned payload is a shared read-only view; callers must not
// mutate it.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, compute func() (media.Payload, error)) (media.Payload, error) {
	fp := key.Fingerprint()

	if out, ok := c.lookup(fp); ok {
		c.hits.Add(1)
		return out, nil
	}

	// owner flips when this call's closure is the one computing, as
	// opposed to joining a flight another caller started.
	var owner atomic.Bool
	ch := c.group.DoChan(fp, func() (any, error) {
		owner.Store(true)

		// A concurrent winner may have stored the entry while this call
		// waited for the flight slot.
		if out, ok := c.lookup(fp); ok {
			c.hits.Add(1)
			return out, nil
		}
		c.misses.Add(1)

		out, err := compute()
		if err != nil {
			return media.Payload{}, errors.New(errors.ErrCodeComputeFailed, "cache compute failed").WithCause(err).
				WithDetail("capability", key.Capability)
		}
		c.store(fp, out)
		return out, nil
	})

	select {
	case res := <-ch:
		return unwrapResult(res)
	case <-ctx.Done():
		if owner.Load() {
			// This call's own computation is in flight; it runs to
			// completion and its natural outcome is reported, even
			// under cancellation.
			return unwrapResult(<-ch)
		}
		// A joined flight keeps running for the other waiters; this
		// caller just stops waiting.
		return media.Payload{}, ctx.Err()
	}
}

func unwrapResult(res singleflight.Result) (media.Payload, error) {
	if res.Err != nil {
		return media.Payload{}, res.Err
	}
	return res.Val.(media.Payload), nil
}

// Get returns the cached output for key without computing.
func (c *Cache) Get(key Key) (media.Payload, bool) {
	out, ok := c.lookup(key.Fingerprint())
	if ok {
		c.hits.Add(1)
	}
	return out, ok
}

// Len returns the number of completed entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Bytes returns the tracked size estimate of all entries.
func (c *Cache) Bytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalBytes
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries := c.ll.Len()
	bytes := c.totalBytes
	c.mu.Unlock()
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   entries,
		Bytes:     bytes,
	}
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll = list.New()
	c.items = make(map[string]*list.Element)
	c.totalBytes = 0
}

func (c *Cache) lookup(fp string) (media.Payload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ele, ok := c.items[fp]
	if !ok {
		return media.Payload{}, false
	}
	ent := ele.Value.(*entry)
	ent.lastAccess = time.Now()
	c.ll.MoveToFront(ele)
	return ent.payload, true
}

func (c *Cache) store(fp string, out media.Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ele, ok := c.items[fp]; ok {
		// Lost a race with an identical store; keep the existing entry.
		c.ll.MoveToFront(ele)
		return
	}

	ent := &entry{
		fingerprint: fp,
		payload:     out,
		size:        out.SizeEstimate(),
		lastAccess:  time.Now(),
	}
	ele := c.ll.PushFront(ent)
	c.items[fp] = ele
	c.totalBytes += ent.size
	c.evictLocked()
}

// evictLocked drops least-recently-used entries until the budget holds.
// Only completed entries live in the list, so an in-flight computation
// can never be reclaimed.
func (c *Cache) evictLocked() {
	for c.totalBytes > c.maxBytes && c.ll.Len() > 0 {
		ele := c.ll.Back()
		ent := ele.Value.(*entry)
		c.ll.Remove(ele)
		delete(c.items, ent.fingerprint)
		c.totalBytes -= ent.size
		c.evictions.Add(1)
	}
	if c.totalBytes < 0 {
		c.totalBytes = 0
	}
}
