package app

// fileTools are the tools whose calls can conflict on a path. Two calls
// touching the same file must run in order; everything else is free to run
// in parallel. This is a heuristic over path arguments, not a dependency
// graph: writes to different files are never serialized.
var fileTools = map[string]bool{
	"read_file":  true,
	"write_file": true,
	"edit_file":  true,
}

// AnalyzeConflicts partitions an ordered batch into independent groups (no
// ordering constraint) and dependent chains (must run in original order).
func AnalyzeConflicts(calls []ToolCall) (groups [][]ToolCall, chains [][]ToolCall) {
	byPath := make(map[string][]ToolCall)
	var pathOrder []string
	var others []ToolCall

	for _, call := range calls {
		if !fileTools[call.Name] {
			others = append(others, call)
			continue
		}
		path := stringArg(call.Args, "path", "file_path", "arg1", "arg")
		if _, seen := byPath[path]; !seen {
			pathOrder = append(pathOrder, path)
		}
		byPath[path] = append(byPath[path], call)
	}

	for _, path := range pathOrder {
		set := byPath[path]
		if len(set) > 1 {
			chains = append(chains, set)
		} else {
			groups = append(groups, set)
		}
	}
	if len(others) > 0 {
		groups = append(groups, others)
	}
	return groups, chains
}
