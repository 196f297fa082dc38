package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Releaser is a loaded resource that must be freed when evicted
type Releaser interface {
	Release() error
}

// HandleCache keeps loaded model handles for reuse. There is no background
// janitor: expired handles are released by Sweep, so a handle is never
// released while a caller holds it between Get and the next Sweep.
type HandleCache struct {
	cache     *gocache.Cache
	onRelease func(key string, err error)
}

// NewHandleCache creates a cache that keeps handles for ttl after last use.
// onRelease, if set, observes every release and its error.
func NewHandleCache(ttl time.Duration, onRelease func(key string, err error)) *HandleCache {
	h := &HandleCache{
		cache:     gocache.New(ttl, 0),
		onRelease: onRelease,
	}
	h.cache.OnEvicted(func(key string, v interface{}) {
		r, ok := v.(Releaser)
		if !ok {
			return
		}
		err := r.Release()
		if h.onRelease != nil {
			h.onRelease(key, err)
		}
	})
	return h
}

// Get returns the handle stored under key and restarts its ttl
func (h *HandleCache) Get(key string) (Releaser, bool) {
	v, found := h.cache.Get(key)
	if !found {
		return nil, false
	}
	h.cache.SetDefault(key, v)
	return v.(Releaser), true
}

// Put stores a loaded handle, releasing any handle it replaces
func (h *HandleCache) Put(key string, r Releaser) {
	h.cache.Delete(key)
	h.cache.SetDefault(key, r)
}

// Sweep releases expired handles
func (h *HandleCache) Sweep() {
	h.cache.DeleteExpired()
}

// Len reports how many handles are held, expired ones included
func (h *HandleCache) Len() int {
	return h.cache.ItemCount()
}

// Close releases every handle
func (h *HandleCache) Close() {
	h.cache.DeleteExpired()
	for key := range h.cache.Items() {
		h.cache.Delete(key)
	}
}
