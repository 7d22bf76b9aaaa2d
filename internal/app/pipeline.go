package app

import (
	"context"
	"fmt"
)

// Pipeline drives one user turn end to end: force-keyword shortcut, intent
// check, tool-call extraction, validation, conflict analysis, execution,
// correction, and the final summary. It never panics out to the caller.
type Pipeline struct {
	cfg       Config
	client    LLMClient
	registry  *ToolRegistry
	validator *Validator
	engine    *Engine
	corrector *Corrector
	detector  *IntentDetector
	tracker   Telemetry
	logger    *Logger

	history []Message
}

func NewPipeline(cfg Config, client LLMClient, registry *ToolRegistry, validator *Validator, engine *Engine, tracker Telemetry, logger *Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		client:    client,
		registry:  registry,
		validator: validator,
		engine:    engine,
		corrector: NewCorrector(client, engine, registry, logger),
		detector:  NewIntentDetector(client, logger),
		tracker:   tracker,
		logger:    logger,
		history:   []Message{{Role: RoleSystem, Content: SystemPrompt(registry)}},
	}
}

// ProcessRequest handles one user input and returns the final response text
// plus the tool results it was built from. onChunk, when non-nil, receives
// streamed fragments of model output for incremental display.
func (p *Pipeline) ProcessRequest(ctx context.Context, input string, onChunk func(string)) (response string, results []ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			if p.logger != nil {
				p.logger.Error("pipeline.panic", map[string]any{"panic": fmt.Sprint(r)})
			}
			if p.tracker != nil {
				p.tracker.RecordToolCall(ToolResult{
					Call:    ToolCall{Name: "pipeline"},
					Success: false,
					Error:   fmt.Sprintf("panic: %v", r),
				})
			}
			response = "Something went wrong while processing that request. Please try again."
		}
	}()

	p.validator.ResetTurn()

	if call, ok := ForcedCall(input); ok {
		return p.runForced(ctx, input, call)
	}

	initial := p.complete(ctx, input, onChunk)

	calls := ParseToolCalls(initial, p.logger)
	if len(calls) == 0 {
		intent := p.detector.Analyze(ctx, input)
		if !intent.NeedsTools {
			p.remember(input, initial)
			return initial, nil
		}
		if p.logger != nil {
			p.logger.Info("pipeline.tools_needed", map[string]any{"reasoning": intent.Reasoning})
		}
		explicit, err := p.client.Complete(ctx, []Message{
			{Role: RoleSystem, Content: SystemPrompt(p.registry)},
			{Role: RoleUser, Content: ToolRequestPrompt(p.registry, input)},
		})
		if err == nil {
			calls = ParseToolCalls(explicit, p.logger)
		} else if p.logger != nil {
			p.logger.Warn("pipeline.tool_request_failed", map[string]any{"error": err.Error()})
		}
		if len(calls) == 0 {
			p.remember(input, initial)
			return initial, nil
		}
	}

	var allowed []ToolCall
	for _, call := range calls {
		ok, reason := p.validator.Validate(call)
		if ok {
			allowed = append(allowed, call)
			continue
		}
		if suggestion := p.validator.SuggestAlternative(call); suggestion != "" {
			reason += ". " + suggestion
		}
		results = append(results, ToolResult{Call: call, Success: false, Error: reason})
	}

	groups, chains := AnalyzeConflicts(allowed)
	results = append(results, p.engine.Execute(ctx, groups, chains)...)

	ec := &ExecutionContext{UserInput: input, Calls: calls, MaxRetries: p.cfg.MaxRetries}
	results = p.corrector.Correct(ctx, ec, results)

	summary := p.summarize(ctx, input, results, onChunk)
	p.remember(input, summary)
	return summary, results
}

// History returns the conversation so far, system prompt included.
func (p *Pipeline) History() []Message {
	return p.history
}

// runForced executes a single pre-mapped call and answers with a minimal
// acknowledgement rather than a full summary.
func (p *Pipeline) runForced(ctx context.Context, input string, call ToolCall) (string, []ToolResult) {
	if len(call.Args) == 0 {
		return "Force command needs an argument (e.g., !read main.go)", nil
	}
	results := p.engine.Execute(ctx, [][]ToolCall{{call}}, nil)
	result := results[0]
	response := fmt.Sprintf("Executed %s:\n%s", call.Name, result.Output)
	if !result.Success {
		response = fmt.Sprintf("Failed to execute %s: %s", call.Name, result.Error)
	}
	p.remember(input, response)
	return response, results
}

// complete streams the initial response for the turn against the running
// conversation history.
func (p *Pipeline) complete(ctx context.Context, input string, onChunk func(string)) string {
	messages := append(append([]Message{}, p.history...), Message{Role: RoleUser, Content: input})
	var (
		text string
		err  error
	)
	if onChunk != nil {
		text, err = p.client.CompleteStreaming(ctx, messages, onChunk)
	} else {
		text, err = p.client.Complete(ctx, messages)
	}
	if err != nil {
		if p.logger != nil {
			p.logger.Error("pipeline.completion_failed", map[string]any{"error": err.Error()})
		}
		return "I'm having trouble reaching the model right now."
	}
	return text
}

func (p *Pipeline) summarize(ctx context.Context, input string, results []ToolResult, onChunk func(string)) string {
	messages := []Message{
		{Role: RoleSystem, Content: SystemPrompt(p.registry)},
		{Role: RoleUser, Content: SummaryPrompt(input, results)},
	}
	var (
		text string
		err  error
	)
	if onChunk != nil {
		text, err = p.client.CompleteStreaming(ctx, messages, onChunk)
	} else {
		text, err = p.client.Complete(ctx, messages)
	}
	if err != nil {
		if p.logger != nil {
			p.logger.Error("pipeline.summary_failed", map[string]any{"error": err.Error()})
		}
		return summaryFallback(results)
	}
	return text
}

// summaryFallback renders a plain report when the summary model call fails,
// so tool output is never silently lost.
func summaryFallback(results []ToolResult) string {
	report := "Tool execution finished, but the summary step failed.\n"
	for _, r := range results {
		if r.Success {
			report += fmt.Sprintf("\n%s succeeded:\n%s\n", r.Call.Name, truncateForPrompt(r.Output, 2000))
		} else {
			report += fmt.Sprintf("\n%s failed: %s\n", r.Call.Name, r.Error)
		}
	}
	return report
}

func (p *Pipeline) remember(input, response string) {
	p.history = append(p.history,
		Message{Role: RoleUser, Content: input},
		Message{Role: RoleAssistant, Content: response},
	)
}
