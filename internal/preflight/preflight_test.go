package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"asmref/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_Creatable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs", "nested")
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for creatable dir, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}

	under := CheckDirectoryAccess("test", filepath.Join(f, "child"))
	if under.Passed {
		t.Fatal("expected failure below a regular file")
	}
}

func TestCheckSearchPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Lib.dll")
	testsupport.Touch(t, file)

	if result := CheckSearchPath("dir", dir); !result.Passed || !strings.Contains(result.Detail, "directory") {
		t.Fatalf("expected directory to pass, got %+v", result)
	}
	if result := CheckSearchPath("file", file); !result.Passed || !strings.Contains(result.Detail, "file") {
		t.Fatalf("expected file to pass, got %+v", result)
	}
	result := CheckSearchPath("missing", filepath.Join(dir, "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing path")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestRunAll(t *testing.T) {
	t.Setenv("DOTNET_ROOT", "")
	t.Setenv("PATH", "")
	missingFramework := filepath.Join(t.TempDir(), "missing-framework")
	cfg := testsupport.NewConfig(t, testsupport.WithLogDir(), testsupport.WithFrameworkPaths(missingFramework))
	base := testsupport.BaseDir(cfg)
	if err := os.MkdirAll(cfg.Search.Paths[0], 0o755); err != nil {
		t.Fatal(err)
	}

	results := RunAll(cfg)
	byName := make(map[string]Result, len(results))
	for _, result := range results {
		byName[result.Name] = result
	}

	if !byName["Search path"].Passed {
		t.Fatalf("search path should pass: %+v", byName["Search path"])
	}
	if fw := byName["Framework path"]; fw.Passed || !fw.Optional {
		t.Fatalf("framework path should fail optionally: %+v", fw)
	}
	if !byName["Log directory"].Passed {
		t.Fatalf("log directory should be creatable: %+v", byName["Log directory"])
	}
	if !byName["Inventory directory"].Passed {
		t.Fatalf("inventory directory should be creatable: %+v", byName["Inventory directory"])
	}
	if host := byName[".NET host"]; host.Passed || !host.Optional {
		t.Fatalf("dotnet host should be missing and optional: %+v", host)
	}
	if Failed(results) {
		t.Fatalf("optional failures must not fail the run: %+v", results)
	}

	cfg.Search.Paths = []string{filepath.Join(base, "gone")}
	if !Failed(RunAll(cfg)) {
		t.Fatal("a missing search path must fail the run")
	}
}

func TestRunAllWithoutSearchPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSearchPaths())
	if !Failed(RunAll(cfg)) {
		t.Fatal("expected failure without search paths")
	}
	if RunAll(nil) != nil {
		t.Fatal("nil config should yield no results")
	}
}
