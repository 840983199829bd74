package activitylog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}

func decodeLine(t *testing.T, line string) entry {
	t.Helper()
	var e entry
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		t.Fatalf("unmarshal %q: %v", line, err)
	}
	return e
}

func TestProcessSpawned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	l := New(true, path, "panex")
	defer l.Close()

	l.ProcessSpawned("build", 2)

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	e := decodeLine(t, lines[0])
	if e.Actor != "panex" || e.Process != "build" || e.Event != "spawned" || e.Gen != 2 {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestProcessSpawnFailedIncludesMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	l := New(true, path, "panex")
	defer l.Close()

	l.ProcessSpawnFailed("build", "exec: \"nope\": executable file not found in $PATH")

	e := decodeLine(t, readLines(t, path)[0])
	if e.Event != "spawn_failed" || !strings.Contains(e.Message, "nope") {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestProcessExitedIncludesExitCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	l := New(true, path, "panex")
	defer l.Close()

	l.ProcessExited("build", 1)

	e := decodeLine(t, readLines(t, path)[0])
	if e.Event != "exited" || e.ExitCode != 1 {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestProcessKilled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	l := New(true, path, "panex")
	defer l.Close()

	l.ProcessKilled("build")

	e := decodeLine(t, readLines(t, path)[0])
	if e.Event != "killed" || e.Process != "build" {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestProcessRestartScheduled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	l := New(true, path, "panex")
	defer l.Close()

	l.ProcessRestartScheduled("build", time.Second)

	e := decodeLine(t, readLines(t, path)[0])
	if e.Event != "restart_scheduled" || e.Message != "1s" {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestDisabledLoggerIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	l := New(false, path, "panex")
	defer l.Close()

	l.ProcessSpawned("build", 0)
	l.ProcessKilled("build")

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected no file to be created when disabled")
	}
}

func TestNopLoggerIsNoop(t *testing.T) {
	l := Nop()
	l.ProcessSpawned("build", 0)
	l.ProcessSpawnFailed("build", "boom")
	l.ProcessExited("build", 1)
	l.ProcessKilled("build")
	l.ProcessRestartScheduled("build", time.Second)
	l.Close()
}

func TestMultipleEntriesAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	l := New(true, path, "panex")
	defer l.Close()

	l.ProcessSpawned("build", 0)
	l.ProcessExited("build", 0)
	l.ProcessRestartScheduled("build", time.Second)

	if lines := readLines(t, path); len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
}

func TestTimestampPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	l := New(true, path, "panex")
	defer l.Close()

	l.ProcessKilled("build")

	e := decodeLine(t, readLines(t, path)[0])
	if e.Timestamp == "" {
		t.Error("expected ts field to be present")
	}
}
