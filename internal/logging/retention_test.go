package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPruneSessionLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := filepath.Join(dir, Session{ID: "aaaaaaaa-1111", Started: now.AddDate(0, 0, -45)}.LogFileName())
	current := filepath.Join(dir, Session{ID: "bbbbbbbb-2222", Started: now.AddDate(0, 0, -45).Add(time.Second)}.LogFileName())
	fresh := filepath.Join(dir, Session{ID: "cccccccc-3333", Started: now.AddDate(0, 0, -1)}.LogFileName())
	foreign := filepath.Join(dir, "asmref-notes.log")
	other := filepath.Join(dir, "notes.log")
	for _, path := range []string{old, current, fresh, foreign, other} {
		if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Names Session.LogFileName did not produce are kept whatever their age.
	stale := now.AddDate(0, 0, -45)
	for _, path := range []string{foreign, other} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatal(err)
		}
	}

	if got := PruneSessionLogs(NewNop(), dir, 30, current); got != 1 {
		t.Fatalf("expected 1 pruned file, got %d", got)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be removed", old)
	}
	for _, path := range []string{current, fresh, foreign, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
}

func TestPruneSessionLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, Session{ID: "aaaaaaaa", Started: time.Now().AddDate(-1, 0, 0)}.LogFileName())
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := PruneSessionLogs(nil, dir, 0, ""); got != 0 {
		t.Fatalf("retention 0 should keep everything, removed %d", got)
	}
	if got := PruneSessionLogs(nil, "", 30, ""); got != 0 {
		t.Fatalf("empty dir should be a no-op, removed %d", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to remain: %v", path, err)
	}
}
