// Package intern implements the process-wide string intern pool (spec §4.1).
// It deduplicates identifier strings behind shared handles so that repeated
// class/slot/type names parsed across a schema (and its imports) share
// storage, and so that handle equality can fall back to pointer equality
// when two handles came from the same pool.
package intern

import (
	"sync"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Handle is a shared, immutable interned string. The zero Handle is invalid;
// always obtain one via Pool.Intern or Pool.InternOrFallback.
type Handle struct {
	s *string
}

func (h Handle) String() string {
	if h.s == nil {
		return ""
	}
	return *h.s
}

// Same reports whether two handles are the pointer-identical allocation.
// Handles minted by different pools (or via InternOrFallback overflow) are
// never Same even if their text is equal; compare .String() for that.
func Same(a, b Handle) bool { return a.s == b.s }

// ErrStringTooLarge is returned by Intern when a string exceeds the pool's
// per-string length cap.
var ErrStringTooLarge = errors.New("intern: string too large")

// ErrCacheFull is returned by Intern when the pool is at its entry cap
// and the string is not already present.
var ErrCacheFull = errors.New("intern: cache full")

const (
	defaultMaxEntries  = 100_000
	defaultMaxStringLen = 10_000
)

// Pool is a concurrent string intern table capped by entry count and
// per-string length. The zero value is not usable; use New.
type Pool struct {
	maxEntries  int
	maxStrLen   int
	mu          sync.RWMutex
	table       map[string]Handle
}

// New creates a Pool with the given caps. A zero or negative value selects
// the spec's default (100,000 entries / 10,000 chars per string).
func New(maxEntries, maxStringLen int) *Pool {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if maxStringLen <= 0 {
		maxStringLen = defaultMaxStringLen
	}
	return &Pool{
		maxEntries: maxEntries,
		maxStrLen:  maxStringLen,
		table:      make(map[string]Handle, 1024),
	}
}

// Intern returns a shared Handle for s, or an error if s exceeds the
// per-string length cap or the pool is full of distinct entries.
func (p *Pool) Intern(s string) (Handle, error) {
	if n := utf8.RuneCountInString(s); n > p.maxStrLen {
		return Handle{}, errors.Wrapf(ErrStringTooLarge, "len=%d max=%d", n, p.maxStrLen)
	}

	p.mu.RLock()
	if h, ok := p.table[s]; ok {
		p.mu.RUnlock()
		return h, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	// Re-check: another writer may have inserted while we waited for the lock.
	if h, ok := p.table[s]; ok {
		return h, nil
	}
	if len(p.table) >= p.maxEntries {
		return Handle{}, errors.Wrapf(ErrCacheFull, "entries=%d max=%d", len(p.table), p.maxEntries)
	}
	cp := s
	h := Handle{s: &cp}
	p.table[s] = h
	return h, nil
}

// InternOrFallback never fails: on overflow (either cap) it allocates an
// unshared handle rather than reporting an error, matching §4.1's fallback
// contract. Fallback handles are never Same as a pooled handle for the same
// text; callers that need deduplication must use Intern.
func (p *Pool) InternOrFallback(s string) Handle {
	h, err := p.Intern(s)
	if err == nil {
		return h
	}
	cp := s
	return Handle{s: &cp}
}

// Len reports the number of distinct strings currently pooled.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.table)
}

// primitiveSeed lists the names that process-wide global pool pre-populates
// so that schema parsing hits the pool immediately for the most common
// identifiers (spec §4.1).
var primitiveSeed = []string{
	"string", "integer", "float", "double", "boolean", "date", "datetime",
	"time", "uri", "uriorcurie", "curie", "ncname", "nodeidentifier",
	"id", "name", "description", "range", "required", "identifier",
	"multivalued", "pattern", "minimum_value", "maximum_value",
	"permissible_values", "any_of", "all_of", "exactly_one_of", "none_of",
	"is_a", "mixins", "abstract", "slot_usage", "attributes", "rules",
	"unique_keys", "if_required",
}

// global is the sanctioned process-wide mutable state called out in §5
// ("the global intern pool ... is the only sanctioned process-wide mutable
// state"). It is pre-populated once at package init.
var global = func() *Pool {
	p := New(0, 0)
	for _, s := range primitiveSeed {
		_, _ = p.Intern(s)
	}
	return p
}()

// Global returns the process-wide intern pool.
func Global() *Pool { return global }
