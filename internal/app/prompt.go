package app

import (
	"fmt"
	"strings"
)

// Prompt construction for every stage of the pipeline. All prompts share the
// same tool catalogue so the model always sees a consistent surface.

func toolCatalogue(registry *ToolRegistry) string {
	var b strings.Builder
	for _, spec := range registry.Specs() {
		fmt.Fprintf(&b, "- %s: %s\n", spec.Name, spec.Description)
		for arg, desc := range spec.Args {
			fmt.Fprintf(&b, "    %s: %s\n", arg, desc)
		}
	}
	return b.String()
}

// SystemPrompt is the base instruction set sent with every conversation.
func SystemPrompt(registry *ToolRegistry) string {
	return fmt.Sprintf(`You are clokai, a coding assistant that works inside the user's project directory.

When you need to inspect or change files, request tools using this exact format:

TOOL_CALL: tool_name
ARGS: {"param": "value"}

Available tools:
%s
Rules:
- Request a tool only when you need its output. If you can answer directly, do so.
- Multiple tool calls in one response are executed together.
- Never invent file contents; read files before editing them.`, toolCatalogue(registry))
}

// ToolRequestPrompt asks the model explicitly which tools it needs, used when
// the initial response contained no tool calls but intent analysis says tools
// are required.
func ToolRequestPrompt(registry *ToolRegistry, userInput string) string {
	return fmt.Sprintf(`The user asked: %s

You need tools to answer this. Respond with ONLY a JSON array of tool calls, no prose:

[{"tool": "tool_name", "args": {"param": "value"}}]

Available tools:
%s`, userInput, toolCatalogue(registry))
}

// CorrectionPrompt reports failed calls back to the model and asks for a
// corrected batch.
func CorrectionPrompt(registry *ToolRegistry, userInput string, failures []ToolResult) string {
	var report strings.Builder
	for _, f := range failures {
		fmt.Fprintf(&report, "- %s: %s\n", f.Call.Name, f.Error)
	}
	return fmt.Sprintf(`Some tool calls failed:
%s
The original request was: %s

Respond with ONLY a JSON array of corrected tool calls that fix these failures, no prose. Respond with [] if no correction is possible.

[{"tool": "tool_name", "args": {"param": "value"}}]

Available tools:
%s`, report.String(), userInput, toolCatalogue(registry))
}

// SummaryPrompt asks the model to answer the user from the collected tool
// results.
func SummaryPrompt(userInput string, results []ToolResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user asked: %s\n\nTool results:\n", userInput)
	for _, r := range results {
		switch {
		case r.Success:
			fmt.Fprintf(&b, "--- %s (ok) ---\n%s\n", r.Call.Name, truncateForPrompt(r.Output, 4000))
		default:
			fmt.Fprintf(&b, "--- %s (failed) ---\n%s\n", r.Call.Name, r.Error)
		}
	}
	b.WriteString("\nAnswer the user's request based on these results. Be direct and concrete. Do not request more tools.")
	return b.String()
}

// IntentPrompt asks the model whether the request needs tool access.
func IntentPrompt(userInput string) string {
	return fmt.Sprintf(`Does this request require reading files, searching the project, editing files, or running commands?

Request: %s

Respond with ONLY this JSON, no prose:
{"needs_tools": true or false, "reasoning": "one short sentence"}`, userInput)
}

func truncateForPrompt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (truncated)"
}
