package app

import (
	"strings"
	"time"
)

const recentSearchWindow = 5

// Validator gates tool calls before execution. It tracks per-session state:
// how many times the same tool ran in a row, which searches already happened,
// and which files those searches surfaced. It is only ever called from the
// single-threaded path before and after the worker pool, so it needs no lock.
type Validator struct {
	cfg    ValidationConfig
	logger *Logger

	consecutiveCounts map[string]int
	recentSearches    []string
	searchCache       map[string]string
	knownFiles        map[string]bool
}

// ValidationConfig mirrors the validation block of Config.
type ValidationConfig struct {
	Enabled                  bool
	BlockEmptyArgs           bool
	PreventRedundantSearches bool
	LogBlockedCalls          bool
	MaxConsecutiveSameTool   int
}

func NewValidator(cfg ValidationConfig, logger *Logger) *Validator {
	if cfg.MaxConsecutiveSameTool <= 0 {
		cfg.MaxConsecutiveSameTool = 2
	}
	return &Validator{
		cfg:               cfg,
		logger:            logger,
		consecutiveCounts: make(map[string]int),
		searchCache:       make(map[string]string),
		knownFiles:        make(map[string]bool),
	}
}

// Validate reports whether the call should execute. When blocked, the reason
// explains why in text the model can react to.
func (v *Validator) Validate(call ToolCall) (bool, string) {
	if !v.cfg.Enabled {
		return true, ""
	}
	if v.cfg.BlockEmptyArgs && v.hasEmptyArgs(call) {
		return false, v.block(call, "Blocked "+call.Name+": Empty or invalid arguments")
	}
	if v.consecutiveCounts[call.Name] >= v.cfg.MaxConsecutiveSameTool {
		return false, v.block(call, "Blocked "+call.Name+": Exceeded consecutive call limit")
	}
	if v.cfg.PreventRedundantSearches && v.isRedundantSearch(call) {
		return false, v.block(call, "Blocked "+call.Name+": Redundant file search")
	}
	return true, ""
}

// Record updates session state after an executed (non-blocked) call.
func (v *Validator) Record(call ToolCall, result ToolResult, elapsed time.Duration) {
	if v.consecutiveCounts[call.Name] > 0 {
		v.consecutiveCounts[call.Name]++
	} else {
		// A different tool breaks every streak.
		v.consecutiveCounts = map[string]int{call.Name: 1}
	}

	if call.Name == "find_files" && strings.Contains(result.Output, "Found") {
		pattern := stringArg(call.Args, "pattern", "arg1")
		if pattern != "" {
			v.searchCache[pattern] = result.Output
			v.extractFoundFiles(result.Output)
		}
	}
}

// ResetTurn clears turn-local repetition state at the start of a user turn.
// Known files and cached search results persist: they are session knowledge,
// not repetition state.
func (v *Validator) ResetTurn() {
	v.consecutiveCounts = make(map[string]int)
	v.recentSearches = v.recentSearches[:0]
}

// SuggestAlternative returns a hint for a blocked call, pointing at results
// the session already has. Empty when nothing useful is known.
func (v *Validator) SuggestAlternative(call ToolCall) string {
	if call.Name != "find_files" {
		return ""
	}
	pattern := stringArg(call.Args, "pattern", "arg1")
	if cached, ok := v.searchCache[pattern]; ok {
		return "File search for '" + pattern + "' was already performed. Previous result: " + cached
	}
	var matching []string
	needle := strings.ToLower(pattern)
	for file := range v.knownFiles {
		if strings.Contains(strings.ToLower(file), needle) {
			matching = append(matching, file)
		}
	}
	if len(matching) > 0 {
		return "Files matching '" + pattern + "' already found: " + strings.Join(matching, ", ")
	}
	return ""
}

// KnownFiles returns a copy of the filenames discovered by searches so far.
func (v *Validator) KnownFiles() []string {
	files := make([]string, 0, len(v.knownFiles))
	for file := range v.knownFiles {
		files = append(files, file)
	}
	return files
}

func (v *Validator) hasEmptyArgs(call ToolCall) bool {
	if len(call.Args) == 0 {
		return true
	}
	switch call.Name {
	case "find_files":
		pattern := stringArg(call.Args, "pattern", "arg1")
		return pattern == "" || pattern == "*"
	case "read_file":
		return strings.TrimSpace(stringArg(call.Args, "path", "file_path", "arg1")) == ""
	case "run_command":
		return strings.TrimSpace(stringArg(call.Args, "cmd", "command", "arg1")) == ""
	}
	return false
}

func (v *Validator) isRedundantSearch(call ToolCall) bool {
	if call.Name != "find_files" {
		return false
	}
	pattern := stringArg(call.Args, "pattern", "arg1")
	searchType := stringArg(call.Args, "search_type", "arg2")
	if searchType == "" {
		searchType = "name"
	}
	if _, ok := v.searchCache[pattern]; ok {
		return true
	}
	key := pattern + ":" + searchType
	for _, recent := range v.recentSearches {
		if recent == key {
			return true
		}
	}
	v.recentSearches = append(v.recentSearches, key)
	if len(v.recentSearches) > recentSearchWindow {
		v.recentSearches = v.recentSearches[1:]
	}
	return false
}

// extractFoundFiles harvests paths from the numbered lines of a search result,
// e.g. "1. cmd/clokai/main.go".
func (v *Validator) extractFoundFiles(result string) {
	for _, line := range strings.Split(result, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Found") || strings.HasPrefix(line, "No files") {
			continue
		}
		if _, path, ok := strings.Cut(line, ". "); ok {
			if path = strings.TrimSpace(path); path != "" {
				v.knownFiles[path] = true
			}
		}
	}
}

func (v *Validator) block(call ToolCall, reason string) string {
	if v.cfg.LogBlockedCalls && v.logger != nil {
		v.logger.Warn("validator.blocked", map[string]any{
			"tool":   call.Name,
			"args":   call.Args,
			"reason": reason,
		})
	}
	return reason
}
