package app

import (
	"context"
)

// Corrector gives the model a chance to fix failed tool calls. Each round
// sends a failure report, parses the corrected batch, and re-runs it through
// the full engine; corrected results replace only the failed subset.
type Corrector struct {
	client   LLMClient
	engine   *Engine
	registry *ToolRegistry
	logger   *Logger
}

func NewCorrector(client LLMClient, engine *Engine, registry *ToolRegistry, logger *Logger) *Corrector {
	return &Corrector{client: client, engine: engine, registry: registry, logger: logger}
}

// Correct retries the failed portion of a batch until everything succeeds,
// the model gives up, or the retry cap is reached. Prior successes are never
// re-run. Returns the merged result set.
func (c *Corrector) Correct(ctx context.Context, ec *ExecutionContext, results []ToolResult) []ToolResult {
	failures := failedResults(results)
	if len(failures) == 0 || ec.RetryCount >= ec.MaxRetries {
		return results
	}
	ec.RetryCount++

	prompt := CorrectionPrompt(c.registry, ec.UserInput, failures)
	response, err := c.client.Complete(ctx, []Message{
		{Role: RoleSystem, Content: SystemPrompt(c.registry)},
		{Role: RoleUser, Content: prompt},
	})
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("corrector.model_failed", map[string]any{"error": err.Error()})
		}
		return results
	}

	corrected := ParseToolCalls(response, c.logger)
	if len(corrected) == 0 {
		if c.logger != nil {
			c.logger.Info("corrector.no_correction", map[string]any{"retry": ec.RetryCount})
		}
		return results
	}

	groups, chains := AnalyzeConflicts(corrected)
	retried := c.engine.Execute(ctx, groups, chains)
	retried = c.Correct(ctx, ec, retried)

	merged := make([]ToolResult, 0, len(results))
	for _, r := range results {
		if r.Success {
			merged = append(merged, r)
		}
	}
	return append(merged, retried...)
}

func failedResults(results []ToolResult) []ToolResult {
	var failures []ToolResult
	for _, r := range results {
		if !r.Success {
			failures = append(failures, r)
		}
	}
	return failures
}
