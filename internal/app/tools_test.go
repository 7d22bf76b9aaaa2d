package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testToolset(t *testing.T) (*toolset, string) {
	t.Helper()
	dir := t.TempDir()
	return &toolset{root: dir}, dir
}

func TestReadFileFallbackKeys(t *testing.T) {
	ts, dir := testToolset(t)
	if err := os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"path", "file_path", "arg1"} {
		out, err := ts.readFile(context.Background(), map[string]any{key: "hello.txt"})
		if err != nil {
			t.Fatalf("key %s: %v", key, err)
		}
		if !strings.Contains(out.Text, "hi") {
			t.Errorf("key %s: content missing: %q", key, out.Text)
		}
	}
}

func TestWriteFileCreatesParents(t *testing.T) {
	ts, dir := testToolset(t)
	out, err := ts.writeFile(context.Background(), map[string]any{
		"path":    "nested/deep/file.txt",
		"content": "payload",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Text, "created") {
		t.Errorf("expected created message, got %q", out.Text)
	}
	data, err := os.ReadFile(filepath.Join(dir, "nested", "deep", "file.txt"))
	if err != nil || string(data) != "payload" {
		t.Fatalf("file not written: %v %q", err, data)
	}
}

func TestEditFileAppend(t *testing.T) {
	ts, dir := testToolset(t)
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("first\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ts.editFile(context.Background(), map[string]any{
		"path":    "notes.txt",
		"action":  "append_to_end",
		"content": "second",
	})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "second") {
		t.Errorf("append missing: %q", data)
	}
}

func TestResolveRejectsEscape(t *testing.T) {
	ts, _ := testToolset(t)
	if _, err := ts.resolve("../outside.txt"); err == nil {
		t.Fatalf("path escape should be rejected")
	}
	if _, err := ts.readFile(context.Background(), map[string]any{"path": "../../etc/passwd"}); err == nil {
		t.Fatalf("read outside root should fail")
	}
}

func TestRunCommandCapturesOutput(t *testing.T) {
	ts, _ := testToolset(t)
	out, err := ts.runCommand(context.Background(), map[string]any{"cmd": "echo hello"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Text, "hello") {
		t.Errorf("stdout missing: %q", out.Text)
	}
	if out.Detail == nil || out.Detail.ExitCode != 0 {
		t.Errorf("detail missing or wrong exit code: %+v", out.Detail)
	}
}

func TestRunCommandNonzeroExitIsStillOutput(t *testing.T) {
	ts, _ := testToolset(t)
	out, err := ts.runCommand(context.Background(), map[string]any{"cmd": "echo oops >&2; exit 3"})
	if err != nil {
		t.Fatalf("nonzero exit should not be a tool error: %v", err)
	}
	if out.Detail == nil || out.Detail.ExitCode != 3 {
		t.Fatalf("exit code not captured: %+v", out.Detail)
	}
	if !strings.Contains(out.Detail.Stderr, "oops") {
		t.Errorf("stderr not captured: %+v", out.Detail)
	}
}

func TestFindFilesNameSearch(t *testing.T) {
	ts, dir := testToolset(t)
	for _, name := range []string{"config.yml", "main.go", "sub/config_test.go"} {
		full := filepath.Join(dir, name)
		os.MkdirAll(filepath.Dir(full), 0o755)
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out, err := ts.findFiles(context.Background(), map[string]any{"pattern": "config"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Text, "Found 2 file(s)") {
		t.Errorf("expected 2 matches: %q", out.Text)
	}
	if !strings.Contains(out.Text, "1. ") {
		t.Errorf("results must be numbered: %q", out.Text)
	}
}

func TestFindFilesGlobAndContent(t *testing.T) {
	ts, dir := testToolset(t)
	os.WriteFile(filepath.Join(dir, "a.go"), []byte("package alpha"), 0o644)
	os.WriteFile(filepath.Join(dir, "b.txt"), []byte("nothing"), 0o644)

	out, err := ts.findFiles(context.Background(), map[string]any{"pattern": "*.go"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Text, "glob search") || !strings.Contains(out.Text, "a.go") {
		t.Errorf("glob auto-detection failed: %q", out.Text)
	}

	out, err = ts.findFiles(context.Background(), map[string]any{"pattern": "alpha", "search_type": "content"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Text, "a.go") || strings.Contains(out.Text, "b.txt") {
		t.Errorf("content search wrong: %q", out.Text)
	}
}

func TestFindFilesNoMatchSuggests(t *testing.T) {
	ts, _ := testToolset(t)
	out, err := ts.findFiles(context.Background(), map[string]any{"pattern": "missing.*file", "search_type": "name"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Text, "No files found") {
		t.Errorf("expected no-match message: %q", out.Text)
	}
	if !strings.Contains(out.Text, "Try:") {
		t.Errorf("regex-looking name search should suggest regex mode: %q", out.Text)
	}
}

func TestListDirectoryMarksTypes(t *testing.T) {
	ts, dir := testToolset(t)
	os.Mkdir(filepath.Join(dir, "sub"), 0o755)
	os.WriteFile(filepath.Join(dir, "file.txt"), []byte("data"), 0o644)

	out, err := ts.listDirectory(context.Background(), map[string]any{"path": "."})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Text, "[DIR]") || !strings.Contains(out.Text, "[FILE]") {
		t.Errorf("entries not tagged: %q", out.Text)
	}
	if !strings.Contains(out.Text, "bytes") {
		t.Errorf("file sizes missing: %q", out.Text)
	}
}
