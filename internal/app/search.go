package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const defaultMaxSearchResults = 100

var contentSearchExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".txt": true,
	".md": true, ".json": true, ".yml": true, ".yaml": true, ".cfg": true,
	".ini": true, ".toml": true,
}

var skippedDirs = map[string]bool{
	".git": true, "node_modules": true, "__pycache__": true, ".venv": true, "vendor": true,
}

// findFiles searches the project tree by name, glob, regex, or content.
// search_type "auto" picks a mode from the pattern shape.
func (ts *toolset) findFiles(ctx context.Context, args map[string]any) (ToolOutput, error) {
	pattern := stringArg(args, "pattern", "arg1", "arg")
	if pattern == "" {
		return ToolOutput{}, fmt.Errorf("missing 'pattern' parameter")
	}
	searchType := stringArg(args, "search_type", "arg2")
	if searchType == "" || searchType == "auto" {
		searchType = detectSearchType(pattern)
	}
	maxResults := intArg(args, defaultMaxSearchResults, "max_results", "arg3")
	if maxResults <= 0 {
		maxResults = defaultMaxSearchResults
	}

	root, err := filepath.Abs(ts.root)
	if err != nil {
		return ToolOutput{}, err
	}

	var matcher func(relPath, name string) (bool, error)
	switch searchType {
	case "name":
		needle := strings.ToLower(pattern)
		matcher = func(_, name string) (bool, error) {
			return strings.Contains(strings.ToLower(name), needle), nil
		}
	case "glob":
		matcher = func(relPath, name string) (bool, error) {
			if ok, err := filepath.Match(pattern, name); err != nil || ok {
				return ok, err
			}
			return filepath.Match(pattern, relPath)
		}
	case "regex":
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return ToolOutput{Text: fmt.Sprintf("Invalid regex pattern: %v", err)}, nil
		}
		matcher = func(_, name string) (bool, error) {
			return re.MatchString(name), nil
		}
	case "content":
		needle := strings.ToLower(pattern)
		matcher = func(relPath, name string) (bool, error) {
			if !contentSearchExtensions[filepath.Ext(name)] {
				return false, nil
			}
			data, err := os.ReadFile(filepath.Join(root, relPath))
			if err != nil {
				return false, nil
			}
			return strings.Contains(strings.ToLower(string(data)), needle), nil
		}
	default:
		return ToolOutput{Text: fmt.Sprintf("Invalid search_type %q. Use: auto, name, glob, regex, or content", searchType)}, nil
	}

	var results []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		ok, merr := matcher(rel, d.Name())
		if merr != nil {
			return merr
		}
		if ok {
			results = append(results, rel)
			if len(results) >= maxResults {
				return fs.SkipAll
			}
		}
		return nil
	})
	if walkErr != nil && walkErr == ctx.Err() {
		return ToolOutput{}, walkErr
	}

	if len(results) == 0 {
		return ToolOutput{Text: fmt.Sprintf("No files found matching pattern '%s' using %s search%s",
			pattern, searchType, searchSuggestions(pattern, searchType))}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d file(s) matching '%s' using %s search:\n", len(results), pattern, searchType)
	for i, path := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, path)
	}
	if len(results) == maxResults {
		fmt.Fprintf(&b, "\n(Limited to %d results. Use max_results parameter to see more)", maxResults)
	}
	return ToolOutput{Text: strings.TrimSpace(b.String())}, nil
}

// detectSearchType guesses the search mode from pattern characters.
func detectSearchType(pattern string) string {
	hasRegexMeta := strings.ContainsAny(pattern, ".+^$[]()|\\")
	hasGlobMeta := strings.ContainsAny(pattern, "*?")
	switch {
	case hasGlobMeta && !hasRegexMeta:
		return "glob"
	case hasRegexMeta || hasGlobMeta:
		return "regex"
	default:
		return "name"
	}
}

func searchSuggestions(pattern, searchType string) string {
	var suggestions []string
	if searchType == "name" && strings.ContainsAny(pattern, ".*+?^$") {
		suggestions = append(suggestions, fmt.Sprintf("\nTry: find_files('%s', 'regex') for regex matching", pattern))
		if strings.ContainsAny(pattern, "*?") {
			suggestions = append(suggestions, fmt.Sprintf("\nTry: find_files('%s', 'glob') for glob matching", pattern))
		}
	}
	if searchType == "regex" && !strings.ContainsAny(pattern, ".*+?^$[]") {
		suggestions = append(suggestions, fmt.Sprintf("\nTry: find_files('%s', 'name') for simple text matching", pattern))
	}
	return strings.Join(suggestions, "")
}

// listDirectory lists a directory confined to the project root.
func (ts *toolset) listDirectory(ctx context.Context, args map[string]any) (ToolOutput, error) {
	path := stringArg(args, "path", "directory", "arg1", "arg")
	if path == "" {
		path = "."
	}
	full, err := ts.resolve(path)
	if err != nil {
		return ToolOutput{}, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return ToolOutput{}, fmt.Errorf("listing directory %s: %w", path, err)
	}
	if len(entries) == 0 {
		return ToolOutput{Text: fmt.Sprintf("Directory '%s' is empty", path)}, nil
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	var lines []string
	for _, entry := range entries {
		rel := filepath.ToSlash(filepath.Join(path, entry.Name()))
		if entry.IsDir() {
			lines = append(lines, fmt.Sprintf("[DIR] %s/", rel))
			continue
		}
		size := int64(0)
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}
		sizeStr := fmt.Sprintf("(%d bytes)", size)
		if size >= 1024 {
			sizeStr = fmt.Sprintf("(%dKB)", size/1024)
		}
		lines = append(lines, fmt.Sprintf("[FILE] %s %s", rel, sizeStr))
	}
	return ToolOutput{Text: fmt.Sprintf("Contents of '%s':\n%s", path, strings.Join(lines, "\n"))}, nil
}
