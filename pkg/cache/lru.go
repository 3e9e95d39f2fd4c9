package cache

import (
	"sync"
	"sync/atomic"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
)

// DefaultMaxSize is the default compressed-size budget of a DefinitionCache (64 MB).
const DefaultMaxSize = 64 * 1024 * 1024

// bytesPerKB is the number of bytes in a kilobyte.
const bytesPerKB = 1024.0

// DefinitionCache is an LRU cache of compiled definitions. Entries are held
// as lz4-compressed payloads and the size budget counts compressed bytes.
type DefinitionCache struct {
	mu          sync.Mutex
	entries     map[Key]*lruEntry
	head        *lruEntry // Most recently used.
	tail        *lruEntry // Least recently used.
	maxSize     int64
	currentSize int64

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type lruEntry struct {
	key         Key
	payload     []byte
	rawSize     int
	accessCount int64
	prev        *lruEntry
	next        *lruEntry
}

func (e *lruEntry) size() int64 {
	return int64(len(e.payload))
}

// evictionCost favors evicting large, rarely used entries.
func (e *lruEntry) evictionCost() float64 {
	sizeKB := max(float64(e.size())/bytesPerKB, 1)

	return float64(e.accessCount) / sizeKB
}

// NewDefinitionCache creates a cache bounded to maxSize compressed bytes.
func NewDefinitionCache(maxSize int64) *DefinitionCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	return &DefinitionCache{
		entries: make(map[Key]*lruEntry),
		maxSize: maxSize,
	}
}

// Get returns the definition stored under key. Each call decodes a fresh
// copy, so callers may not affect each other.
func (c *DefinitionCache) Get(key Key) (compdef.Definition, bool) {
	c.mu.Lock()

	entry, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		c.misses.Add(1)

		return compdef.Definition{}, false
	}

	entry.accessCount++
	c.moveToFront(entry)
	payload, rawSize := entry.payload, entry.rawSize
	c.mu.Unlock()

	def, err := decode(payload, rawSize)
	if err != nil {
		c.misses.Add(1)

		return compdef.Definition{}, false
	}

	c.hits.Add(1)

	return def, true
}

// Put stores def under key. Definitions whose compressed form exceeds the
// whole budget are not cached.
func (c *DefinitionCache) Put(key Key, def compdef.Definition) error {
	payload, rawSize, err := encode(def)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.insert(key, payload, rawSize, 1)

	return nil
}

// insert stores an encoded payload as the most recently used entry. It
// reports false when the payload exceeds the whole budget. Callers hold mu.
func (c *DefinitionCache) insert(key Key, payload []byte, rawSize int, accessCount int64) bool {
	size := int64(len(payload))
	if size > c.maxSize {
		return false
	}

	if entry, ok := c.entries[key]; ok {
		c.currentSize += size - entry.size()
		entry.payload, entry.rawSize = payload, rawSize
		entry.accessCount += accessCount
		c.moveToFront(entry)

		return true
	}

	for c.currentSize+size > c.maxSize && c.tail != nil {
		c.evictLowestCost()
	}

	entry := &lruEntry{key: key, payload: payload, rawSize: rawSize, accessCount: accessCount}
	c.entries[key] = entry
	c.currentSize += size
	c.addToFront(entry)

	return true
}

// Stats holds cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Entries     int
	CurrentSize int64
	MaxSize     int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}

	return float64(s.Hits) / float64(total)
}

// Stats returns a snapshot of the cache counters.
func (c *DefinitionCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
		Entries:     len(c.entries),
		CurrentSize: c.currentSize,
		MaxSize:     c.maxSize,
	}
}

// Clear removes all entries. Counters are kept.
func (c *DefinitionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]*lruEntry)
	c.head = nil
	c.tail = nil
	c.currentSize = 0
}

func (c *DefinitionCache) moveToFront(entry *lruEntry) {
	if entry == c.head {
		return
	}

	c.removeFromList(entry)
	c.addToFront(entry)
}

func (c *DefinitionCache) addToFront(entry *lruEntry) {
	entry.prev = nil
	entry.next = c.head

	if c.head != nil {
		c.head.prev = entry
	}

	c.head = entry

	if c.tail == nil {
		c.tail = entry
	}
}

func (c *DefinitionCache) removeFromList(entry *lruEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}

	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}
}

// evictionSampleSize is the number of tail entries compared per eviction.
const evictionSampleSize = 5

// evictLowestCost evicts the cheapest of the least recently used entries.
func (c *DefinitionCache) evictLowestCost() {
	victim := c.tail
	if victim == nil {
		return
	}

	lowest := victim.evictionCost()

	entry := victim.prev
	for i := 1; entry != nil && i < evictionSampleSize; i++ {
		if cost := entry.evictionCost(); cost < lowest {
			lowest, victim = cost, entry
		}

		entry = entry.prev
	}

	c.removeFromList(victim)
	delete(c.entries, victim.key)
	c.currentSize -= victim.size()
	c.evictions.Add(1)
}
