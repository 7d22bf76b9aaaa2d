package app

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testEngine(t *testing.T, registry *ToolRegistry, timeout time.Duration) *Engine {
	t.Helper()
	return NewEngine(registry, NewResultCache(16), testValidator(), nil, nil, 3, timeout)
}

func sleepTool(d time.Duration, output string) ToolFunc {
	return func(ctx context.Context, args map[string]any) (ToolOutput, error) {
		select {
		case <-time.After(d):
			return ToolOutput{Text: output}, nil
		case <-ctx.Done():
			return ToolOutput{}, ctx.Err()
		}
	}
}

func TestEngineRunsGroupMembersConcurrently(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(ToolSpec{Name: "slow_probe"}, sleepTool(100*time.Millisecond, "done"))

	engine := testEngine(t, registry, 30*time.Second)
	group := []ToolCall{
		{Name: "slow_probe", Args: map[string]any{"id": "1"}},
		{Name: "slow_probe", Args: map[string]any{"id": "2"}},
		{Name: "slow_probe", Args: map[string]any{"id": "3"}},
	}

	start := time.Now()
	results := engine.Execute(context.Background(), [][]ToolCall{group}, nil)
	elapsed := time.Since(start)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Success {
			t.Errorf("unexpected failure: %s", r.Error)
		}
	}
	// Three 100ms members across a width-3 pool approximate the slowest
	// member, not the sum.
	if elapsed > 250*time.Millisecond {
		t.Errorf("group did not run concurrently: took %s", elapsed)
	}
}

func TestEngineTimeoutIsolatesSlowCall(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(ToolSpec{Name: "hang"}, sleepTool(5*time.Second, "never"))
	registry.Register(ToolSpec{Name: "quick"}, sleepTool(5*time.Millisecond, "fast"))

	engine := testEngine(t, registry, 100*time.Millisecond)
	group := []ToolCall{
		{Name: "hang", Args: map[string]any{"x": 1}},
		{Name: "quick", Args: map[string]any{"x": 2}},
	}

	start := time.Now()
	results := engine.Execute(context.Background(), [][]ToolCall{group}, nil)
	elapsed := time.Since(start)

	var hangResult, quickResult *ToolResult
	for i := range results {
		switch results[i].Call.Name {
		case "hang":
			hangResult = &results[i]
		case "quick":
			quickResult = &results[i]
		}
	}
	if hangResult == nil || quickResult == nil {
		t.Fatalf("missing results: %v", results)
	}
	if hangResult.Success {
		t.Errorf("hung call should fail")
	}
	if !strings.Contains(hangResult.Error, "timed out") {
		t.Errorf("timeout error expected, got %q", hangResult.Error)
	}
	if !quickResult.Success || quickResult.Output != "fast" {
		t.Errorf("fast call should be unaffected: %+v", quickResult)
	}
	if elapsed > time.Second {
		t.Errorf("batch should return near the timeout, took %s", elapsed)
	}
}

func TestEngineCachesReadTypeResults(t *testing.T) {
	var executions atomic.Int32
	registry := NewToolRegistry()
	registry.Register(ToolSpec{Name: "probe_read"}, func(ctx context.Context, args map[string]any) (ToolOutput, error) {
		executions.Add(1)
		return ToolOutput{Text: "value"}, nil
	})
	registry.MarkCacheable("probe_read")

	engine := testEngine(t, registry, time.Second)
	call := ToolCall{Name: "probe_read", Args: map[string]any{"path": "a.go"}}

	first := engine.Execute(context.Background(), [][]ToolCall{{call}}, nil)
	second := engine.Execute(context.Background(), [][]ToolCall{{call}}, nil)

	if executions.Load() != 1 {
		t.Fatalf("expected exactly one real execution, got %d", executions.Load())
	}
	if first[0].Cached {
		t.Errorf("first result must not be cached")
	}
	if !second[0].Cached {
		t.Errorf("second result must be cached")
	}
	if second[0].Output != first[0].Output {
		t.Errorf("cached output differs: %q vs %q", second[0].Output, first[0].Output)
	}
}

func TestEngineUnknownToolFailsCleanly(t *testing.T) {
	engine := testEngine(t, NewToolRegistry(), time.Second)
	results := engine.Execute(context.Background(), [][]ToolCall{{{Name: "nonexistent"}}}, nil)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Success {
		t.Errorf("unknown tool must fail")
	}
	if !strings.Contains(results[0].Error, "unknown tool") {
		t.Errorf("descriptive error expected, got %q", results[0].Error)
	}
}

func TestEngineChainPreservesOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	registry := NewToolRegistry()
	registry.Register(ToolSpec{Name: "step"}, func(ctx context.Context, args map[string]any) (ToolOutput, error) {
		mu.Lock()
		order = append(order, args["id"].(string))
		mu.Unlock()
		return ToolOutput{Text: "ok"}, nil
	})

	engine := testEngine(t, registry, time.Second)
	chain := []ToolCall{
		{Name: "step", Args: map[string]any{"id": "first"}},
		{Name: "step", Args: map[string]any{"id": "second"}},
		{Name: "step", Args: map[string]any{"id": "third"}},
	}
	results := engine.Execute(context.Background(), nil, [][]ToolCall{chain})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	want := []string{"first", "second", "third"}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("chain ran out of order: %v", order)
		}
		if results[i].Call.Args["id"] != id {
			t.Fatalf("results out of order: %v", results)
		}
	}
}

func TestEngineRecoversToolPanic(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(ToolSpec{Name: "boom"}, func(ctx context.Context, args map[string]any) (ToolOutput, error) {
		panic("kaboom")
	})

	engine := testEngine(t, registry, time.Second)
	results := engine.Execute(context.Background(), [][]ToolCall{{{Name: "boom", Args: map[string]any{"x": 1}}}}, nil)
	if results[0].Success {
		t.Fatalf("panicking tool must yield a failed result")
	}
	if !strings.Contains(results[0].Error, "kaboom") {
		t.Errorf("panic message should surface: %q", results[0].Error)
	}
}
