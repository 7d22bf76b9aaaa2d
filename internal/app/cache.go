package app

import "container/list"

// ResultCache memoizes results of side-effect-free tools (reads, searches,
// listings) within a session, keyed by the call signature. Bounded LRU so a
// long session cannot grow it without limit. Accessed only from the engine's
// coordinating goroutine, so it carries no lock.
type ResultCache struct {
	cap     int
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	key    string
	result ToolResult
}

func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &ResultCache{
		cap:     capacity,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Get returns a copy of the cached result marked Cached, if present.
func (c *ResultCache) Get(call ToolCall) (ToolResult, bool) {
	elem, ok := c.entries[call.Signature()]
	if !ok {
		return ToolResult{}, false
	}
	c.order.MoveToFront(elem)
	result := elem.Value.(*cacheEntry).result
	result.Call = call
	result.Cached = true
	return result, true
}

// Put stores a result, evicting the least recently used entry when full.
func (c *ResultCache) Put(call ToolCall, result ToolResult) {
	key := call.Signature()
	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).result = result
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, result: result})
	if c.order.Len() > c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// Len reports the number of cached results.
func (c *ResultCache) Len() int {
	return c.order.Len()
}
