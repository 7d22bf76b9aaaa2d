package app

import (
	"fmt"
	"testing"
)

func TestResultCacheGetMarksCopy(t *testing.T) {
	cache := NewResultCache(4)
	call := ToolCall{Name: "read_file", Args: map[string]any{"path": "a.go"}}

	if _, ok := cache.Get(call); ok {
		t.Fatalf("empty cache should miss")
	}

	cache.Put(call, ToolResult{Call: call, Success: true, Output: "contents"})
	hit, ok := cache.Get(call)
	if !ok {
		t.Fatalf("expected hit")
	}
	if !hit.Cached {
		t.Errorf("hit must be marked cached")
	}
	if hit.Output != "contents" {
		t.Errorf("unexpected output %q", hit.Output)
	}
}

func TestResultCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewResultCache(2)
	calls := make([]ToolCall, 3)
	for i := range calls {
		calls[i] = ToolCall{Name: "read_file", Args: map[string]any{"path": fmt.Sprintf("f%d.go", i)}}
	}

	cache.Put(calls[0], ToolResult{Success: true, Output: "0"})
	cache.Put(calls[1], ToolResult{Success: true, Output: "1"})
	// Touch the first entry so the second becomes the eviction candidate.
	cache.Get(calls[0])
	cache.Put(calls[2], ToolResult{Success: true, Output: "2"})

	if cache.Len() != 2 {
		t.Fatalf("cache over capacity: %d", cache.Len())
	}
	if _, ok := cache.Get(calls[1]); ok {
		t.Errorf("least recently used entry should have been evicted")
	}
	if _, ok := cache.Get(calls[0]); !ok {
		t.Errorf("recently used entry should survive")
	}
}
