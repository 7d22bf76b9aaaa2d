package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ToolCall is a structured tool invocation extracted from model output.
// Immutable once constructed.
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Signature returns a stable identity for deduplication and cache keying:
// the tool name plus an order-independent hash of the argument pairs.
func (c ToolCall) Signature() string {
	return c.Name + "_" + hashArgs(c.Args)
}

// CommandDetail carries the structured outcome of a shell command so
// downstream consumers never have to parse it back out of display text.
type CommandDetail struct {
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// ToolOutput is what a tool function returns on success: display text
// plus optional structured detail.
type ToolOutput struct {
	Text   string
	Detail *CommandDetail
}

// ToolResult is the outcome of one execution attempt. Retries produce
// new results, never mutations.
type ToolResult struct {
	Call     ToolCall       `json:"call"`
	Success  bool           `json:"success"`
	Output   string         `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Detail   *CommandDetail `json:"detail,omitempty"`
	Duration time.Duration  `json:"duration"`
	Cached   bool           `json:"cached"`
}

// ExecutionContext is the per-turn scratch state for one user request.
// Created at the start of a turn, discarded at the end.
type ExecutionContext struct {
	UserInput  string
	Calls      []ToolCall
	Results    []ToolResult
	RetryCount int
	MaxRetries int
}

// Message is a role-tagged chat message exchanged with the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

func hashArgs(args map[string]any) string {
	if len(args) == 0 {
		return "empty"
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		v, err := json.Marshal(args[k])
		if err != nil {
			v = []byte(fmt.Sprintf("%v", args[k]))
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.Write(v)
		b.WriteByte(';')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

// stringArg returns the first non-empty string value among the given keys.
// Models are loose with parameter names, so tools accept fallbacks like
// "file_path" for "path".
func stringArg(args map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := args[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// intArg returns the first integer-coercible value among the given keys.
func intArg(args map[string]any, fallback int, keys ...string) int {
	for _, k := range keys {
		v, ok := args[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		case string:
			var parsed int
			if _, err := fmt.Sscanf(n, "%d", &parsed); err == nil {
				return parsed
			}
		}
	}
	return fallback
}
