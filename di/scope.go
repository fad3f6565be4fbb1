package di

import (
	"sync"
	"sync/atomic"
)

// Scope names a lifetime. A component that declares a scope caches at most
// one instance per key bound in that scope.
type Scope string

// Singleton is the conventional scope of a root component.
const Singleton Scope = "Singleton"

// ScopeCache memoizes scoped instances for the scopes one component owns.
// Caches form a chain from a component up to the unscoped root, which never
// memoizes.
//
// Each key has its own entry and lock, so constructing one scoped instance
// never blocks construction of another.
type ScopeCache struct {
	scopes  []Scope
	parent  *ScopeCache
	entries sync.Map // Key -> *cacheEntry
}

// NewRootCache returns the unscoped cache at the top of a chain.
func NewRootCache() *ScopeCache { return &ScopeCache{} }

// Child returns a cache owning scopes whose lookups delegate to c.
func (c *ScopeCache) Child(scopes ...Scope) *ScopeCache {
	owned := make([]Scope, len(scopes))
	copy(owned, scopes)
	return &ScopeCache{scopes: owned, parent: c}
}

// Parent returns the next cache up the chain, or nil for the root.
func (c *ScopeCache) Parent() *ScopeCache { return c.parent }

// Scopes returns the scopes owned by c.
func (c *ScopeCache) Scopes() []Scope {
	out := make([]Scope, len(c.scopes))
	copy(out, c.scopes)
	return out
}

// Owns reports whether c itself owns s.
func (c *ScopeCache) Owns(s Scope) bool {
	for _, own := range c.scopes {
		if own == s {
			return true
		}
	}
	return false
}

// Owner walks the chain from c and returns the first cache owning s.
func (c *ScopeCache) Owner(s Scope) (*ScopeCache, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.Owns(s) {
			return cur, true
		}
	}
	return nil, false
}

// Get returns the instance cached for key, calling build on first use.
// A cache that owns no scope calls build every time. Failed builds are not
// cached.
func (c *ScopeCache) Get(key Key, build func() (any, error)) (any, error) {
	v, _, err := c.get(key, build)
	return v, err
}

func (c *ScopeCache) get(key Key, build func() (any, error)) (any, bool, error) {
	if len(c.scopes) == 0 {
		v, err := build()
		return v, err == nil, err
	}
	raw, _ := c.entries.LoadOrStore(key, &cacheEntry{})
	return raw.(*cacheEntry).get(build)
}

// Len returns the number of instances published in c.
func (c *ScopeCache) Len() int {
	n := 0
	c.entries.Range(func(_, raw any) bool {
		if raw.(*cacheEntry).done.Load() {
			n++
		}
		return true
	})
	return n
}

type cacheEntry struct {
	mu    sync.Mutex
	done  atomic.Bool
	value any
}

// get publishes value before done, so readers that observe done also
// observe value.
func (e *cacheEntry) get(build func() (any, error)) (any, bool, error) {
	if e.done.Load() {
		return e.value, false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done.Load() {
		return e.value, false, nil
	}
	v, err := build()
	if err != nil {
		return nil, false, err
	}
	e.value = v
	e.done.Store(true)
	return v, true, nil
}
