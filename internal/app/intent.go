package app

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// IntentAnalysis is the outcome of deciding whether a request needs tools.
type IntentAnalysis struct {
	NeedsTools bool
	Reasoning  string
	ForceTools bool
}

// forceKeywords map bang shortcuts to tools, bypassing intent analysis and
// parsing entirely.
var forceKeywords = map[string]string{
	"!read":   "read_file",
	"!write":  "write_file",
	"!edit":   "edit_file",
	"!run":    "run_command",
	"!exec":   "run_command",
	"!find":   "find_files",
	"!search": "find_files",
	"!list":   "list_directory",
	"!ls":     "list_directory",
}

// toolHintPatterns catch requests the model's intent check tends to miss.
var toolHintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(read|show|display|view|see|check|examine)\s+.*\.(go|py|js|json|txt|md|yml|yaml|toml|cfg|ini|log)`),
	regexp.MustCompile(`(?i)\b(create|write|make|generate|add)\s+.*\.(go|py|js|json|txt|md|yml|yaml|toml|cfg|ini)`),
	regexp.MustCompile(`(?i)\b(run|execute|start|launch)\s+.*\b(command|script|test|build|install)`),
	regexp.MustCompile(`(?i)\b(find|search|locate)\s+.*\b(file|pattern|function|class|variable)`),
	regexp.MustCompile(`(?i)\b(list|show|display)\s+.*\b(directory|folder|files)`),
	regexp.MustCompile(`(?i)\bwhat.*in.*\b(directory|folder)`),
	regexp.MustCompile(`(?i)\b(analyze|review|check|examine)\s+.*\b(code|file|project)`),
}

// IntentDetector decides whether a user request needs tool access, using the
// model first and regex fallbacks when the model says no.
type IntentDetector struct {
	client LLMClient
	logger *Logger
}

func NewIntentDetector(client LLMClient, logger *Logger) *IntentDetector {
	return &IntentDetector{client: client, logger: logger}
}

// ForcedCall maps a force keyword at the start of input to a ready-made tool
// call. The second return is false when the input carries no force keyword.
func ForcedCall(input string) (ToolCall, bool) {
	keyword, argument, _ := strings.Cut(strings.TrimSpace(input), " ")
	tool, ok := forceKeywords[strings.ToLower(keyword)]
	if !ok {
		return ToolCall{}, false
	}
	argument = strings.TrimSpace(argument)
	if argument == "" {
		return ToolCall{Name: tool, Args: map[string]any{}}, true
	}
	var args map[string]any
	switch tool {
	case "read_file", "list_directory", "edit_file":
		args = map[string]any{"path": argument}
	case "write_file":
		args = map[string]any{"path": argument, "content": ""}
	case "run_command":
		args = map[string]any{"cmd": argument}
	case "find_files":
		args = map[string]any{"pattern": argument}
	}
	return ToolCall{Name: tool, Args: args}, true
}

// Analyze asks the model whether the request needs tools, falling back to
// hint patterns when the model answers no or fails to answer.
func (d *IntentDetector) Analyze(ctx context.Context, input string) IntentAnalysis {
	analysis, err := d.askModel(ctx, input)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("intent.model_failed", map[string]any{"error": err.Error()})
		}
		return d.fallback(input, "intent model unavailable")
	}
	if !analysis.NeedsTools {
		if pattern := matchToolHint(input); pattern != "" {
			return IntentAnalysis{NeedsTools: true, Reasoning: "Fallback pattern detected: " + pattern}
		}
	}
	return analysis
}

func (d *IntentDetector) askModel(ctx context.Context, input string) (IntentAnalysis, error) {
	response, err := d.client.Complete(ctx, []Message{
		{Role: RoleUser, Content: IntentPrompt(input)},
	})
	if err != nil {
		return IntentAnalysis{}, err
	}
	var parsed struct {
		NeedsTools bool   `json:"needs_tools"`
		Reasoning  string `json:"reasoning"`
	}
	// The model may wrap the JSON in prose; take the first object.
	raw := response
	if start := strings.Index(response, "{"); start >= 0 {
		if end := strings.LastIndex(response, "}"); end > start {
			raw = response[start : end+1]
		}
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return IntentAnalysis{}, err
	}
	return IntentAnalysis{NeedsTools: parsed.NeedsTools, Reasoning: parsed.Reasoning}, nil
}

func (d *IntentDetector) fallback(input, cause string) IntentAnalysis {
	if pattern := matchToolHint(input); pattern != "" {
		return IntentAnalysis{NeedsTools: true, Reasoning: cause + "; " + pattern}
	}
	return IntentAnalysis{NeedsTools: false, Reasoning: cause}
}

func matchToolHint(input string) string {
	names := []string{
		"file read pattern",
		"file creation pattern",
		"command execution pattern",
		"file search pattern",
		"directory listing pattern",
		"directory contents pattern",
		"code analysis pattern",
	}
	for i, re := range toolHintPatterns {
		if re.MatchString(input) {
			return names[i]
		}
	}
	return ""
}
