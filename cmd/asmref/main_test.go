package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"asmref/internal/logging"
	"asmref/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	appsDir    string
	configPath string
	dbPath     string
	logDir     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("DOTNET_ROOT", "")

	env := &cliTestEnv{
		baseDir:    base,
		appsDir:    filepath.Join(base, "apps"),
		configPath: filepath.Join(base, "asmref.toml"),
		dbPath:     filepath.Join(base, "data", "inventory.db"),
		logDir:     filepath.Join(base, "logs"),
	}

	testsupport.WriteAssembly(t, filepath.Join(env.appsDir, "A.dll"), testsupport.AssemblySpec{
		Name: "A", Version: [4]uint16{1, 0, 0, 0},
	})
	testsupport.WriteAssembly(t, filepath.Join(env.appsDir, "sub", "A.dll"), testsupport.AssemblySpec{
		Name: "A", Version: [4]uint16{2, 0, 0, 0}, TargetFramework: ".NETCoreApp,Version=v8.0",
	})
	testsupport.WriteFile(t, filepath.Join(env.appsDir, "Broken.dll"), 128)

	content := fmt.Sprintf(`[search]
paths = [%q]

[logging]
level = "error"
dir = %q

[export]
database = %q
`, env.appsDir, env.logDir, env.dbPath)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestIndexReportsCounts(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "index")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	for _, want := range []string{"Candidates:  3", "Indexed:     2", "Failed:      1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	matches, err := filepath.Glob(filepath.Join(env.logDir, "asmref-*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one session log, got %v (%v)", matches, err)
	}
	if _, _, ok := logging.ParseSessionLogName(matches[0]); !ok {
		t.Fatalf("unexpected session log name %s", matches[0])
	}
	content, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read session log: %v", err)
	}
	if !strings.Contains(string(content), `"event_type":"index_built"`) {
		t.Fatalf("session log should keep info events under an error-level console:\n%s", content)
	}
}

func TestIndexJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "index", "--json")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	var summary indexSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if summary.Indexed != 2 || summary.DecodeFailures != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestResolveJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "resolve", "--json", "A, Version=1.0.0.0", "a", "B, Version=1.0.0.0")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var results []resolveResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Resolved || results[0].Assembly.Path != filepath.Join(env.appsDir, "A.dll") {
		t.Fatalf("unexpected exact result: %+v", results[0])
	}
	if !results[1].Resolved || results[1].Assembly.Version != "2.0.0.0" {
		t.Fatalf("bare name should pick the preferred copy: %+v", results[1])
	}
	if results[1].Assembly.TargetFramework != ".NETCoreApp,Version=v8.0" {
		t.Fatalf("unexpected target framework: %+v", results[1].Assembly)
	}
	if results[2].Resolved || results[2].Error == "" {
		t.Fatalf("expected unresolved result: %+v", results[2])
	}
}

func TestResolveStrictAndPlainOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "resolve", "--strict", "A", "Missing")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 references unresolved") {
		t.Fatalf("expected strict failure, got %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got:\n%s", out)
	}
	if lines[0] != "Reference\tResolved\tIdentity\tPath" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "Missing\tno\t") {
		t.Fatalf("unexpected unresolved row %q", lines[2])
	}

	if _, _, err := env.run(t, "resolve", "A", "Missing"); err != nil {
		t.Fatalf("non-strict resolve should succeed: %v", err)
	}
}

func TestResolveHonoursFrameworkFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	framework := filepath.Join(env.baseDir, "framework")
	testsupport.WriteAssembly(t, filepath.Join(framework, "A.dll"), testsupport.AssemblySpec{
		Name: "A", Version: [4]uint16{1, 5, 0, 0},
	})

	out, _, err := env.run(t, "--path", env.appsDir, "--path", framework, "--framework", framework, "resolve", "--json", "a")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var results []resolveResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := results[0].Assembly; got == nil || !got.Framework || got.Version != "1.5.0.0" {
		t.Fatalf("expected framework copy to win, got %+v", got)
	}
}

func TestListJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var views []assemblyView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 assemblies, got %d", len(views))
	}
	if views[0].Path > views[1].Path {
		t.Fatalf("expected path order, got %s before %s", views[0].Path, views[1].Path)
	}
	if views[0].Identity != "A, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null" {
		t.Fatalf("unexpected identity %q", views[0].Identity)
	}

	out, _, err = env.run(t, "list", "--framework-only")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.TrimSpace(out) != strings.Join(assemblyHeaders, "\t") {
		t.Fatalf("expected only a header without framework paths, got:\n%s", out)
	}
}

func TestInfoReadsFilesOutsideSearchPaths(t *testing.T) {
	env := setupCLITestEnv(t)
	outside := filepath.Join(env.baseDir, "elsewhere", "Outside.dll")
	testsupport.WriteAssembly(t, outside, testsupport.AssemblySpec{Name: "Outside", Version: [4]uint16{3, 0, 0, 0}})

	out, _, err := env.run(t, "info", "--json", outside)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	var views []assemblyView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 || views[0].Name != "Outside" {
		t.Fatalf("unexpected info output: %+v", views)
	}

	_, stderr, err := env.run(t, "info", filepath.Join(env.appsDir, "Broken.dll"))
	if !errors.Is(err, errSilentFailure) {
		t.Fatalf("expected silent failure, got %v", err)
	}
	if !strings.Contains(stderr, "Broken.dll: no readable assembly metadata") {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
}

func TestExportAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "2 assemblies") || !strings.Contains(out, env.dbPath) {
		t.Fatalf("unexpected export output: %s", out)
	}
	fields := strings.Fields(out)
	sessionID := strings.TrimSuffix(fields[2], ":")

	out, _, err = env.run(t, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if !strings.Contains(out, sessionID) {
		t.Fatalf("expected session %s in:\n%s", sessionID, out)
	}

	out, _, err = env.run(t, "history", "show", sessionID)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	if strings.Count(out, "\n") != 3 {
		t.Fatalf("expected header plus two rows:\n%s", out)
	}

	out, _, err = env.run(t, "history", "resolve", sessionID, "A, Version=1.0.0.0, processorArchitecture=MSIL")
	if err != nil {
		t.Fatalf("history resolve: %v", err)
	}
	if strings.TrimSpace(out) != filepath.Join(env.appsDir, "A.dll") {
		t.Fatalf("unexpected path %q", out)
	}
	out, _, err = env.run(t, "history", "resolve", sessionID, "A")
	if err != nil {
		t.Fatalf("history resolve bare: %v", err)
	}
	if strings.TrimSpace(out) != filepath.Join(env.appsDir, "sub", "A.dll") {
		t.Fatalf("unexpected bare path %q", out)
	}
	if _, _, err := env.run(t, "history", "resolve", sessionID, "Nope"); err == nil {
		t.Fatal("expected unresolved history lookup to fail")
	}

	if _, _, err := env.run(t, "history", "rm", sessionID); err != nil {
		t.Fatalf("history rm: %v", err)
	}
	out, _, err = env.run(t, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if !strings.Contains(out, "No sessions exported") {
		t.Fatalf("expected empty history, got:\n%s", out)
	}
}

func TestExportDBFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	custom := filepath.Join(env.baseDir, "custom", "inv.db")

	if _, _, err := env.run(t, "export", "--db", custom); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(custom); err != nil {
		t.Fatalf("expected database at %s: %v", custom, err)
	}
}

func TestDoctor(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Search path\tok\t"+env.appsDir) {
		t.Fatalf("unexpected doctor output:\n%s", out)
	}

	out, _, err = env.run(t, "--path", filepath.Join(env.baseDir, "missing"), "doctor")
	if !errors.Is(err, errSilentFailure) {
		t.Fatalf("expected doctor failure, got %v", err)
	}
	if !strings.Contains(out, "Search path\tfail\t") {
		t.Fatalf("expected failing row:\n%s", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "init", "config.toml")

	out, _, err := env.run(t, "config", "init", "--to", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected init output: %s", out)
	}
	if _, _, err := env.run(t, "config", "init", "--to", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	out, _, err = env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, "Search paths: 1") {
		t.Fatalf("unexpected validate output: %s", out)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[index]\nworkers = -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := env.run(t, "index"); err == nil || !strings.Contains(err.Error(), "index.workers") {
		t.Fatalf("expected workers validation error, got %v", err)
	}
}

func TestNoSearchPaths(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[logging]\nlevel = \"error\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := env.run(t, "list"); err == nil || !strings.Contains(err.Error(), "no search paths") {
		t.Fatalf("expected missing search path error, got %v", err)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Name", "Count"}, [][]string{{"A", "1"}, {"B"}}, []columnAlignment{alignLeft, alignRight})
	for _, want := range []string{"╭", "NAME", "COUNT", "A"} {
		if !strings.Contains(strings.ToUpper(out), want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty table without headers")
	}
}
