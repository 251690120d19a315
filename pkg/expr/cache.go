package expr

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/linkschema-go/linkschema/pkg/value"
)

// cacheKey identifies one (expression, context) evaluation: the AST's
// identity (its pointer, since a parsed *Expr is never mutated after
// Parse returns) combined with a stable hash of the variable context, per
// §4.7's "Cache transparency" requirement that a hit be indistinguishable
// from a fresh evaluation.
type cacheKey struct {
	expr *Expr
	ctx  string
}

// Cache memoizes Eval results. A disabled or nil *Cache behaves as a
// pass-through: EvalCached always evaluates and never stores.
type Cache struct {
	enabled bool
	mu      sync.Mutex
	lru     *lru.Cache[cacheKey, cacheEntry]
	lookups int64
	hits    int64
}

type cacheEntry struct {
	val value.Value
	err error
}

// NewCache builds an evaluation cache with the given entry capacity. A
// non-positive capacity disables caching entirely.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		return &Cache{enabled: false}
	}
	c, _ := lru.New[cacheKey, cacheEntry](capacity)
	return &Cache{enabled: true, lru: c}
}

func contextHash(vars Context) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	// sort for determinism regardless of map iteration order
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	out := ""
	for _, k := range keys {
		out += k + "=" + value.Stable(vars[k]) + ";"
	}
	return out
}

// EvalCached evaluates expr against vars, serving a cached result when the
// cache is enabled and holds an entry for this exact (expr, context) pair.
func (c *Cache) EvalCached(expr *Expr, vars Context, opts Options) (value.Value, error) {
	if c == nil || !c.enabled {
		return Eval(expr, vars, opts)
	}
	key := cacheKey{expr: expr, ctx: contextHash(vars)}

	c.mu.Lock()
	c.lookups++
	if entry, ok := c.lru.Get(key); ok {
		c.hits++
		c.mu.Unlock()
		return entry.val, entry.err
	}
	c.mu.Unlock()

	val, err := Eval(expr, vars, opts)

	c.mu.Lock()
	c.lru.Add(key, cacheEntry{val: val, err: err})
	c.mu.Unlock()

	return val, err
}

// HitRate reports the fraction of EvalCached calls served from the cache
// since construction; 0 when disabled or never consulted.
func (c *Cache) HitRate() float64 {
	if c == nil || !c.enabled {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lookups == 0 {
		return 0
	}
	return float64(c.hits) / float64(c.lookups)
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	if c == nil || !c.enabled {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
