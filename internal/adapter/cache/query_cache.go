package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"
	"time"

	"fuzzydex/internal/domain"
)

// QueryCache is an LRU of resolved queries. Entries expire after ttl or as
// soon as the index is invalidated.
type QueryCache struct {
	mu       sync.RWMutex
	entries  map[string]*cacheEntry
	order    []string
	maxSize  int
	ttl      time.Duration
	indexGen uint64
}

type cacheEntry struct {
	results   []domain.ScoredFact
	timestamp time.Time
	indexGen  uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// cacheKey hashes every field of req. Strings are length-prefixed so
// distinct term lists cannot collide.
func cacheKey(req domain.ResolveRequest) string {
	h := sha256.New()
	var buf [8]byte

	writeString := func(s string) {
		binary.BigEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write([]byte(s))
	}
	writeUint := func(v uint64) {
		binary.BigEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	writeString(string(req.Mode))
	writeUint(math.Float64bits(req.Threshold))
	writeUint(uint64(req.TopK))
	writeUint(uint64(req.Query.Kind))
	for _, t := range req.Query.Terms {
		writeString(t.Dimension)
		writeString(t.Key)
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

func (c *QueryCache) Get(req domain.ResolveRequest) ([]domain.ScoredFact, bool) {
	c.mu.RLock()
	key := cacheKey(req)
	entry, exists := c.entries[key]
	currentGen := c.indexGen
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl || entry.indexGen != currentGen {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return entry.results, true
}

func (c *QueryCache) Put(req domain.ResolveRequest, results []domain.ScoredFact) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(req)
	entry := &cacheEntry{
		results:   results,
		timestamp: time.Now(),
		indexGen:  c.indexGen,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every entry. Call it whenever facts are added.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.indexGen++
}

func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Resolver answers resolve requests.
type Resolver interface {
	Resolve(req domain.ResolveRequest) ([]domain.ScoredFact, error)
}

// CachedResolver serves repeated requests from a QueryCache.
type CachedResolver struct {
	resolver Resolver
	cache    *QueryCache
}

func NewCachedResolver(resolver Resolver, cache *QueryCache) *CachedResolver {
	return &CachedResolver{
		resolver: resolver,
		cache:    cache,
	}
}

func (r *CachedResolver) Resolve(req domain.ResolveRequest) ([]domain.ScoredFact, error) {
	if results, hit := r.cache.Get(req); hit {
		return results, nil
	}

	results, err := r.resolver.Resolve(req)
	if err != nil {
		return nil, err
	}

	r.cache.Put(req, results)

	return results, nil
}
