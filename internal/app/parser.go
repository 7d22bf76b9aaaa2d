package app

import (
	"encoding/json"
	"regexp"
	"strings"
)

// The model can emit tool calls in several textual shapes depending on how it
// was trained and prompted. ParseToolCalls accepts all of them:
//
//	TOOL_CALL: read_file
//	ARGS: {"path": "main.go"}
//
//	<invoke name="read_file"><parameter name="path">main.go</parameter></invoke>
//
//	```json
//	[{"tool": "read_file", "args": {"path": "main.go"}}]
//	```
//
// plus the bare-array variant of the last form outside a code fence.
var (
	markerCallRe  = regexp.MustCompile(`TOOL_CALL:\s*(\w+)\s*[\r\n]+\s*ARGS:\s*(\{[\s\S]*?\})`)
	fencedCallRe  = regexp.MustCompile("```tool_call\\s*[\\r\\n]+\\s*TOOL_CALL:\\s*(\\w+)\\s*[\\r\\n]+\\s*ARGS:\\s*(\\{[\\s\\S]*?\\})\\s*[\\r\\n]+\\s*```")
	invokeRe      = regexp.MustCompile(`(?s)<invoke name="([^"]+)"[^>]*>(.*?)</invoke>`)
	parameterRe   = regexp.MustCompile(`(?s)<parameter name="([^"]+)">(.*?)</parameter>`)
	jsonFenceRe   = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")
	bareArrayRe   = regexp.MustCompile(`\[[\s\S]*?\]`)
	escapeCtrl   = strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`)
	unescapeCtrl = strings.NewReplacer(`\n`, "\n", `\r`, "\r", `\t`, "\t")
)

// ParseToolCalls extracts tool calls from raw model text. Malformed candidates
// are logged and skipped, never fatal. Duplicates (same tool, same args) are
// collapsed to the first occurrence, preserving order.
func ParseToolCalls(text string, logger *Logger) []ToolCall {
	var calls []ToolCall

	for _, m := range markerCallRe.FindAllStringSubmatch(text, -1) {
		args, err := safeJSONParse(m[2])
		if err != nil {
			if logger != nil {
				logger.Warn("parse.marker_call_failed", map[string]any{"tool": m[1], "error": err.Error()})
			}
			continue
		}
		calls = append(calls, ToolCall{Name: m[1], Args: args})
	}

	for _, m := range fencedCallRe.FindAllStringSubmatch(text, -1) {
		args, err := safeJSONParse(m[2])
		if err != nil {
			if logger != nil {
				logger.Warn("parse.fenced_call_failed", map[string]any{"tool": m[1], "error": err.Error()})
			}
			continue
		}
		calls = append(calls, ToolCall{Name: m[1], Args: args})
	}

	for _, m := range invokeRe.FindAllStringSubmatch(text, -1) {
		calls = append(calls, ToolCall{Name: m[1], Args: parseInvokeParameters(m[2])})
	}

	// Fenced json blocks are stripped before the bare-array scan so the same
	// array is not counted twice.
	candidates := make([]string, 0, 4)
	for _, m := range jsonFenceRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	withoutFences := jsonFenceRe.ReplaceAllString(text, "")
	candidates = append(candidates, bareArrayRe.FindAllString(withoutFences, -1)...)

	for _, candidate := range candidates {
		var elements []map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &elements); err != nil {
			continue
		}
		for _, element := range elements {
			name, _ := element["tool"].(string)
			args, _ := element["args"].(map[string]any)
			if name == "" || args == nil {
				continue
			}
			calls = append(calls, ToolCall{Name: name, Args: args})
		}
	}

	return dedupeCalls(calls)
}

func dedupeCalls(calls []ToolCall) []ToolCall {
	seen := make(map[string]bool, len(calls))
	unique := make([]ToolCall, 0, len(calls))
	for _, call := range calls {
		sig := call.Signature()
		if seen[sig] {
			continue
		}
		seen[sig] = true
		unique = append(unique, call)
	}
	return unique
}

// safeJSONParse parses an argument object, retrying with literal control
// characters escaped. Models routinely emit multi-line file content inside
// JSON strings without escaping the newlines.
func safeJSONParse(raw string) (map[string]any, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		return args, nil
	}
	escaped := escapeCtrl.Replace(raw)
	if err := json.Unmarshal([]byte(escaped), &args); err != nil {
		return nil, err
	}
	for key, value := range args {
		if s, ok := value.(string); ok {
			args[key] = unescapeCtrl.Replace(s)
		}
	}
	return args, nil
}

func parseInvokeParameters(block string) map[string]any {
	args := make(map[string]any)
	for _, m := range parameterRe.FindAllStringSubmatch(block, -1) {
		value := strings.TrimSpace(m[2])
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			args[m[1]] = parsed
		} else {
			args[m[1]] = value
		}
	}
	return args
}
