package plancache

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/roach88/plansql/internal/querysql"
)

// ComputeFunc produces the format result for a key on a miss.
type ComputeFunc func() (*querysql.Result, error)

type entry struct {
	key    Key
	result *querysql.Result
}

// Cache maps plan keys to reusable format results.
//
// Thread-safe: all methods can be called concurrently. Compute functions
// run outside the lock, so two goroutines missing on the same key may both
// compute; formatting is deterministic and either store is correct.
type Cache struct {
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string][]entry // fingerprint -> entries sharing it

	hits   atomic.Int64
	misses atomic.Int64
	stores atomic.Int64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Stores  int64 `json:"stores"`
	Entries int   `json:"entries"`
}

// New creates an empty Cache. A nil logger disables logging.
func New(logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		logger:  logger,
		entries: make(map[string][]entry),
	}
}

// Get returns the stored result for key, if any.
func (c *Cache) Get(key Key) (*querysql.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries[key.hash] {
		if e.key.Equal(key) {
			return e.result, true
		}
	}
	return nil, false
}

// GetOrCompute returns the stored result for key, or calls compute and
// stores its result when it is reusable. hit reports whether the result
// came from the cache; a cached result carries the constants it was first
// formatted with and must be rebound by the caller.
//
// Errors from compute are returned unchanged and nothing is stored.
func (c *Cache) GetOrCompute(key Key, compute ComputeFunc) (res *querysql.Result, hit bool, err error) {
	if cached, ok := c.Get(key); ok {
		c.hits.Add(1)
		c.logger.Debug("plan cache hit", zap.String("fingerprint", key.hash))
		return cached, true, nil
	}

	c.misses.Add(1)
	c.logger.Debug("plan cache miss", zap.String("fingerprint", key.hash))

	res, err = compute()
	if err != nil {
		return nil, false, err
	}
	if res.Reusable() {
		c.put(key, res)
	} else {
		c.logger.Debug("plan not reusable, not stored", zap.String("fingerprint", key.hash))
	}
	return res, false, nil
}

func (c *Cache) put(key Key, res *querysql.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bucket := c.entries[key.hash]
	for i, e := range bucket {
		if e.key.Equal(key) {
			bucket[i].result = res
			return
		}
	}
	c.entries[key.hash] = append(bucket, entry{key: key, result: res})
	c.stores.Add(1)
	c.logger.Debug("plan stored",
		zap.String("fingerprint", key.hash),
		zap.Int("parameters", len(res.Parameters)))
}

// Len returns the number of stored plans.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, bucket := range c.entries {
		n += len(bucket)
	}
	return n
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Stores:  c.stores.Load(),
		Entries: c.Len(),
	}
}

// Clear removes every stored plan. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string][]entry)
}
