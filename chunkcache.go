package gaiacat

import (
	"container/list"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultMaxCachedChunks is the default chunk cache capacity used when
// a configuration blob omits max_cached_chunks.
const DefaultMaxCachedChunks = 200

// ChunkLoader materialises a decoded chunk from wherever it actually
// lives (disk, in the multifile case). Called with the cache lock not
// held, so it may block on I/O freely.
type ChunkLoader func(chunkID uint32) ([]Record, error)

// chunkEntry is one resident chunk: its decoded records, how many
// in-flight queries currently hold a reference (pins), and its
// position in the LRU list.
type chunkEntry struct {
	records []Record
	pins    int
	elem    *list.Element // elem.Value is the chunk id
}

// ChunkCache is a bounded LRU over decoded record chunks, keyed by
// chunk id. Completes the TODO left in the teacher's page cache
// ("make this into LRU/LFU/ARC cache to reduce nondeterministic
// thrashing") with true LRU ordering plus the pinning and single-flight
// semantics a concurrently-queried catalog requires: an entry currently
// being read by any in-flight query is never evicted, and concurrent
// misses on the same chunk id collapse into a single disk load.
type ChunkCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[uint32]*chunkEntry
	order    *list.List // front = most recently used
	released chan struct{}

	timeout time.Duration
	loader  ChunkLoader
	group   singleflight.Group

	hits   uint64
	misses uint64
}

// NewChunkCache creates a cache with the given capacity (at least 1),
// a loader used on every miss, and a pin-wait timeout (0 means wait
// forever).
func NewChunkCache(capacity int, timeout time.Duration, loader ChunkLoader) *ChunkCache {
	if capacity < 1 {
		capacity = 1
	}
	return &ChunkCache{
		capacity: capacity,
		entries:  make(map[uint32]*chunkEntry),
		order:    list.New(),
		released: make(chan struct{}),
		timeout:  timeout,
		loader:   loader,
	}
}

// Acquire returns chunkID's decoded records, pinning the entry so it
// cannot be evicted. The caller MUST invoke the returned release func
// exactly once when done reading. On a cache miss this performs a
// blocking disk read via the configured ChunkLoader; concurrent misses
// for the same chunk id share that single read. Returns BusyError if
// the cache stays full of pinned entries past the configured timeout.
func (c *ChunkCache) Acquire(chunkID uint32) (records []Record, release func(), err error) {
	c.mu.Lock()
	if e, ok := c.entries[chunkID]; ok {
		e.pins++
		c.order.MoveToFront(e.elem)
		atomic.AddUint64(&c.hits, 1)
		c.mu.Unlock()
		return e.records, c.releaseFunc(chunkID), nil
	}
	atomic.AddUint64(&c.misses, 1)
	c.mu.Unlock()

	// Disk I/O happens with the cache lock released. Concurrent
	// requests for the same chunk id collapse into one load.
	key := strconv.FormatUint(uint64(chunkID), 10)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.loader(chunkID)
	})
	if err != nil {
		return nil, nil, err
	}
	loaded := v.([]Record)

	if err := c.insert(chunkID, loaded); err != nil {
		return nil, nil, err
	}
	return loaded, c.releaseFunc(chunkID), nil
}

// insert adds chunkID/records to the cache, pinned once, evicting an
// unpinned LRU entry first if the cache is full. If every resident
// entry is pinned, it waits for one to be released, up to c.timeout.
func (c *ChunkCache) insert(chunkID uint32, records []Record) error {
	var deadline time.Time
	if c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}

	for {
		c.mu.Lock()
		if e, ok := c.entries[chunkID]; ok {
			// Someone else's singleflight call already inserted it.
			e.pins++
			c.order.MoveToFront(e.elem)
			c.mu.Unlock()
			return nil
		}
		if len(c.entries) < c.capacity || c.evictOneLocked() {
			elem := c.order.PushFront(chunkID)
			c.entries[chunkID] = &chunkEntry{records: records, pins: 1, elem: elem}
			c.mu.Unlock()
			return nil
		}
		waitCh := c.released
		c.mu.Unlock()

		if c.timeout <= 0 {
			<-waitCh
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return NewBusyError(chunkID)
		}
		timer := time.NewTimer(remaining)
		select {
		case <-waitCh:
			timer.Stop()
		case <-timer.C:
			return NewBusyError(chunkID)
		}
	}
}

// evictOneLocked removes the least-recently-used unpinned entry, if
// any, returning whether one was found. Must be called with c.mu held.
func (c *ChunkCache) evictOneLocked() bool {
	for e := c.order.Back(); e != nil; e = e.Prev() {
		chunkID := e.Value.(uint32)
		entry := c.entries[chunkID]
		if entry.pins == 0 {
			c.order.Remove(e)
			delete(c.entries, chunkID)
			return true
		}
	}
	return false
}

func (c *ChunkCache) releaseFunc(chunkID uint32) func() {
	var once sync.Once
	return func() {
		once.Do(func() { c.release(chunkID) })
	}
}

func (c *ChunkCache) release(chunkID uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[chunkID]
	if !ok || e.pins == 0 {
		return
	}
	e.pins--
	if e.pins == 0 {
		close(c.released)
		c.released = make(chan struct{})
	}
}

// Len returns the number of chunks currently resident in the cache.
func (c *ChunkCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the cache's configured maximum resident chunk count.
func (c *ChunkCache) Capacity() int {
	return c.capacity
}

// HitRate returns the fraction (0-1) of Acquire calls satisfied without
// a disk load, since the cache was created.
func (c *ChunkCache) HitRate() float64 {
	hits := atomic.LoadUint64(&c.hits)
	misses := atomic.LoadUint64(&c.misses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
