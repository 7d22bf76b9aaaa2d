package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Telemetry receives best-effort notifications about executed tool calls.
// Implementations must be safe for concurrent use and must never let a
// storage failure escape.
type Telemetry interface {
	RecordToolCall(result ToolResult)
}

// Engine runs validated tool calls: independent groups on a bounded worker
// pool, dependent chains strictly in order afterwards. Cache lookups, cache
// writes, and validator bookkeeping all happen on the coordinating goroutine
// around the pool boundary, never inside a worker.
type Engine struct {
	registry    *ToolRegistry
	cache       *ResultCache
	validator   *Validator
	tracker     Telemetry
	logger      *Logger
	maxParallel int
	timeout     time.Duration
}

func NewEngine(registry *ToolRegistry, cache *ResultCache, validator *Validator, tracker Telemetry, logger *Logger, maxParallel int, timeout time.Duration) *Engine {
	if maxParallel <= 0 {
		maxParallel = 3
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{
		registry:    registry,
		cache:       cache,
		validator:   validator,
		tracker:     tracker,
		logger:      logger,
		maxParallel: maxParallel,
		timeout:     timeout,
	}
}

// Execute runs every call in groups and chains exactly once and returns one
// result per call. Group members run concurrently up to the pool width;
// chain members run sequentially in submission order after the groups.
func (e *Engine) Execute(ctx context.Context, groups, chains [][]ToolCall) []ToolResult {
	var results []ToolResult

	var pending []ToolCall
	for _, group := range groups {
		pending = append(pending, group...)
	}

	slots := make([]ToolResult, len(pending))
	cached := make([]bool, len(pending))
	for i, call := range pending {
		if hit, ok := e.lookupCache(call); ok {
			slots[i] = hit
			cached[i] = true
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)
	for i, call := range pending {
		if cached[i] {
			continue
		}
		g.Go(func() error {
			slots[i] = e.runOne(gctx, call)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in their slots

	for i, result := range slots {
		results = append(results, result)
		if !cached[i] {
			e.finish(pending[i], result)
		}
	}

	for _, chain := range chains {
		for _, call := range chain {
			if hit, ok := e.lookupCache(call); ok {
				results = append(results, hit)
				continue
			}
			result := e.runOne(ctx, call)
			results = append(results, result)
			e.finish(call, result)
		}
	}

	return results
}

// runOne executes a single call under the per-call timeout. A timeout or a
// worker panic becomes a failed result, never an escaping error. The tool
// goroutine is not preempted on timeout; tools that honor their context stop
// early, the rest finish into the void.
func (e *Engine) runOne(ctx context.Context, call ToolCall) ToolResult {
	start := time.Now()

	fn, ok := e.registry.Lookup(call.Name)
	if !ok {
		return ToolResult{
			Call:     call,
			Success:  false,
			Error:    fmt.Sprintf("unknown tool: %s", call.Name),
			Duration: time.Since(start),
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		output ToolOutput
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		output, err := fn(callCtx, call.Args)
		done <- outcome{output: output, err: err}
	}()

	select {
	case out := <-done:
		result := ToolResult{
			Call:     call,
			Success:  out.err == nil,
			Output:   out.output.Text,
			Detail:   out.output.Detail,
			Duration: time.Since(start),
		}
		if out.err != nil {
			result.Error = out.err.Error()
			result.Output = ""
			result.Detail = nil
		}
		return result
	case <-callCtx.Done():
		return ToolResult{
			Call:     call,
			Success:  false,
			Error:    fmt.Sprintf("%s timed out after %s", call.Name, e.timeout),
			Duration: time.Since(start),
		}
	}
}

func (e *Engine) lookupCache(call ToolCall) (ToolResult, bool) {
	if e.cache == nil || !e.registry.IsCacheable(call.Name) {
		return ToolResult{}, false
	}
	hit, ok := e.cache.Get(call)
	if ok && e.logger != nil {
		e.logger.Debug("engine.cache_hit", map[string]any{"tool": call.Name})
	}
	return hit, ok
}

// finish runs the coordinator-side bookkeeping for a freshly executed call.
func (e *Engine) finish(call ToolCall, result ToolResult) {
	if result.Success && e.cache != nil && e.registry.IsCacheable(call.Name) {
		e.cache.Put(call, result)
	}
	if e.validator != nil {
		e.validator.Record(call, result, result.Duration)
	}
	if e.tracker != nil {
		e.tracker.RecordToolCall(result)
	}
	if e.logger != nil && !result.Success {
		e.logger.Warn("engine.call_failed", map[string]any{
			"tool":  call.Name,
			"error": result.Error,
		})
	}
}
