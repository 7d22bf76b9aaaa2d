package app

import "testing"

func TestAnalyzeConflictsSamePathBecomesChain(t *testing.T) {
	calls := []ToolCall{
		{Name: "read_file", Args: map[string]any{"path": "main.go"}},
		{Name: "edit_file", Args: map[string]any{"path": "main.go", "action": "append_to_end", "content": "x"}},
	}
	groups, chains := AnalyzeConflicts(calls)
	if len(chains) != 1 || len(chains[0]) != 2 {
		t.Fatalf("expected one chain of 2, got chains=%v", chains)
	}
	if chains[0][0].Name != "read_file" || chains[0][1].Name != "edit_file" {
		t.Errorf("chain order not preserved: %v", chains[0])
	}
	if len(groups) != 0 {
		t.Errorf("expected no groups, got %v", groups)
	}
}

func TestAnalyzeConflictsDistinctPathsIndependent(t *testing.T) {
	calls := []ToolCall{
		{Name: "read_file", Args: map[string]any{"path": "a.go"}},
		{Name: "read_file", Args: map[string]any{"path": "b.go"}},
		{Name: "write_file", Args: map[string]any{"path": "c.go", "content": "x"}},
	}
	groups, chains := AnalyzeConflicts(calls)
	if len(chains) != 0 {
		t.Fatalf("no chains expected, got %v", chains)
	}
	if len(groups) != 3 {
		t.Fatalf("each singleton path is its own group, got %d", len(groups))
	}
}

func TestAnalyzeConflictsNonFileToolsShareOneGroup(t *testing.T) {
	calls := []ToolCall{
		{Name: "run_command", Args: map[string]any{"cmd": "ls"}},
		{Name: "find_files", Args: map[string]any{"pattern": "test"}},
		{Name: "list_directory", Args: map[string]any{"path": "."}},
	}
	groups, chains := AnalyzeConflicts(calls)
	if len(chains) != 0 {
		t.Fatalf("no chains expected, got %v", chains)
	}
	if len(groups) != 1 || len(groups[0]) != 3 {
		t.Fatalf("non-file tools should share one independent group, got %v", groups)
	}
}

func TestAnalyzeConflictsMixedBatch(t *testing.T) {
	calls := []ToolCall{
		{Name: "read_file", Args: map[string]any{"path": "shared.go"}},
		{Name: "run_command", Args: map[string]any{"cmd": "go version"}},
		{Name: "edit_file", Args: map[string]any{"path": "shared.go", "action": "append_to_end", "content": "y"}},
		{Name: "read_file", Args: map[string]any{"path": "solo.go"}},
	}
	groups, chains := AnalyzeConflicts(calls)
	if len(chains) != 1 || len(chains[0]) != 2 {
		t.Fatalf("shared.go calls should chain, got %v", chains)
	}
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	if total != 2 {
		t.Fatalf("expected 2 independent calls, got %d in %v", total, groups)
	}
}
