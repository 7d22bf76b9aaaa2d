package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ToolFunc executes one tool invocation. Errors become failed results
// at the engine boundary, never escaping exceptions.
type ToolFunc func(ctx context.Context, args map[string]any) (ToolOutput, error)

// ToolSpec describes a tool for the model-facing catalogue.
type ToolSpec struct {
	Name        string
	Description string
	Args        map[string]string
}

// ToolRegistry maps tool names to executors. Lookup misses are a
// first-class outcome, not a crash.
type ToolRegistry struct {
	tools     map[string]ToolFunc
	specs     []ToolSpec
	cacheable map[string]bool
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools:     make(map[string]ToolFunc),
		cacheable: make(map[string]bool),
	}
}

func (r *ToolRegistry) Register(spec ToolSpec, fn ToolFunc) {
	r.tools[spec.Name] = fn
	r.specs = append(r.specs, spec)
}

// MarkCacheable declares a tool side-effect free, making its results
// eligible for the result cache.
func (r *ToolRegistry) MarkCacheable(name string) {
	r.cacheable[name] = true
}

func (r *ToolRegistry) Lookup(name string) (ToolFunc, bool) {
	fn, ok := r.tools[name]
	return fn, ok
}

func (r *ToolRegistry) IsCacheable(name string) bool {
	return r.cacheable[name]
}

func (r *ToolRegistry) Specs() []ToolSpec {
	return r.specs
}

// DefaultToolRegistry builds the built-in tool set rooted at projectRoot.
func DefaultToolRegistry(projectRoot string) *ToolRegistry {
	ts := &toolset{root: projectRoot}
	r := NewToolRegistry()

	r.Register(ToolSpec{
		Name:        "read_file",
		Description: "Read file contents",
		Args:        map[string]string{"path": "Path to the file to read"},
	}, ts.readFile)
	r.Register(ToolSpec{
		Name:        "write_file",
		Description: "Create a new file or overwrite an existing one",
		Args: map[string]string{
			"path":    "Path for the file",
			"content": "Content to write",
		},
	}, ts.writeFile)
	r.Register(ToolSpec{
		Name:        "edit_file",
		Description: "Edit an existing file surgically",
		Args: map[string]string{
			"path":       "Path to the file",
			"action":     "insert_before | insert_after | replace_range | append_to_end",
			"content":    "Content to insert or replace",
			"match_text": "Text to locate for insert operations (optional)",
			"start_line": "Start line, 1-based (optional)",
			"end_line":   "End line, 1-based (optional)",
		},
	}, ts.editFile)
	r.Register(ToolSpec{
		Name:        "run_command",
		Description: "Execute a shell command",
		Args: map[string]string{
			"cmd":     "Command to execute",
			"timeout": "Timeout in seconds (optional)",
		},
	}, ts.runCommand)
	r.Register(ToolSpec{
		Name:        "find_files",
		Description: "Search for files by name, glob, regex, or content",
		Args: map[string]string{
			"pattern":     "Search pattern",
			"search_type": "name | glob | regex | content | auto (optional)",
			"max_results": "Maximum results (optional)",
		},
	}, ts.findFiles)
	r.Register(ToolSpec{
		Name:        "list_directory",
		Description: "List directory contents",
		Args:        map[string]string{"path": "Directory path (optional, defaults to project root)"},
	}, ts.listDirectory)

	r.MarkCacheable("read_file")
	r.MarkCacheable("find_files")
	r.MarkCacheable("list_directory")
	return r
}

type toolset struct {
	root string
}

// resolve joins a relative path against the project root and rejects
// escapes above it.
func (ts *toolset) resolve(path string) (string, error) {
	root, err := filepath.Abs(ts.root)
	if err != nil {
		return "", err
	}
	full := filepath.Join(root, path)
	clean := filepath.Clean(full)
	if clean != root && !strings.HasPrefix(clean, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the project root", path)
	}
	return clean, nil
}

func (ts *toolset) readFile(ctx context.Context, args map[string]any) (ToolOutput, error) {
	path := stringArg(args, "path", "file_path", "arg1", "arg")
	if path == "" {
		return ToolOutput{}, fmt.Errorf("missing 'path' parameter")
	}
	full, err := ts.resolve(path)
	if err != nil {
		return ToolOutput{}, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return ToolOutput{}, fmt.Errorf("reading file %s: %w", path, err)
	}
	return ToolOutput{Text: string(data)}, nil
}

func (ts *toolset) writeFile(ctx context.Context, args map[string]any) (ToolOutput, error) {
	path := stringArg(args, "path", "file_path", "arg1")
	if path == "" {
		return ToolOutput{}, fmt.Errorf("missing 'path' parameter")
	}
	content := stringArg(args, "content", "edits", "arg2")
	full, err := ts.resolve(path)
	if err != nil {
		return ToolOutput{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return ToolOutput{}, fmt.Errorf("creating parent directory for %s: %w", path, err)
	}
	_, statErr := os.Stat(full)
	existed := statErr == nil
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return ToolOutput{}, fmt.Errorf("writing file %s: %w", path, err)
	}
	if existed {
		return ToolOutput{Text: fmt.Sprintf("File %s updated successfully.", path)}, nil
	}
	return ToolOutput{Text: fmt.Sprintf("File %s created successfully.", path)}, nil
}

func (ts *toolset) editFile(ctx context.Context, args map[string]any) (ToolOutput, error) {
	path := stringArg(args, "path", "file_path", "arg1")
	action := stringArg(args, "action", "edit_type", "arg2")
	if path == "" || action == "" {
		return ToolOutput{}, fmt.Errorf("missing required parameters (path, action)")
	}
	content := stringArg(args, "content", "arg3")
	matchText := stringArg(args, "match_text")
	startLine := intArg(args, 0, "start_line")
	endLine := intArg(args, 0, "end_line")

	full, err := ts.resolve(path)
	if err != nil {
		return ToolOutput{}, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return ToolOutput{}, fmt.Errorf("file %s not found", path)
	}
	lines := strings.Split(string(data), "\n")

	var edited []string
	switch action {
	case "append_to_end":
		edited = append(lines, content)

	case "insert_before", "insert_after":
		target := -1
		if matchText != "" {
			for i, line := range lines {
				if strings.Contains(line, matchText) {
					target = i
					break
				}
			}
			if target < 0 {
				return ToolOutput{}, fmt.Errorf("match text %q not found in file", matchText)
			}
		} else if startLine > 0 {
			target = startLine - 1
			if target > len(lines) {
				return ToolOutput{}, fmt.Errorf("line number %d is out of range", startLine)
			}
		} else {
			return ToolOutput{}, fmt.Errorf("either match_text or start_line must be provided for %s", action)
		}
		if action == "insert_after" {
			target++
		}
		edited = append(edited[:0:0], lines[:target]...)
		edited = append(edited, content)
		edited = append(edited, lines[target:]...)

	case "replace_range":
		if startLine <= 0 || endLine <= 0 {
			// No range given: replace the whole file.
			edited = strings.Split(content, "\n")
			break
		}
		start, end := startLine-1, endLine-1
		if start < 0 || end >= len(lines) || start > end {
			return ToolOutput{}, fmt.Errorf("invalid line range: %d-%d", startLine, endLine)
		}
		edited = append(edited[:0:0], lines[:start]...)
		edited = append(edited, strings.Split(content, "\n")...)
		edited = append(edited, lines[end+1:]...)

	default:
		return ToolOutput{}, fmt.Errorf("invalid action %q: must be one of insert_before, insert_after, replace_range, append_to_end", action)
	}

	if err := os.WriteFile(full, []byte(strings.Join(edited, "\n")), 0o644); err != nil {
		return ToolOutput{}, fmt.Errorf("writing file %s: %w", path, err)
	}
	return ToolOutput{Text: fmt.Sprintf("File %s edited successfully using %s operation.", path, action)}, nil
}
