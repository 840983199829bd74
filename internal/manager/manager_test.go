package manager

import (
	"strings"
	"testing"
	"time"

	"github.com/panex-dev/panex/internal/config"
	"github.com/panex-dev/panex/internal/term"
)

func screenText(e *Entry) string {
	var b strings.Builder
	for _, line := range e.Screen.Lines() {
		for _, c := range line.Cells {
			if c.Rune != 0 {
				b.WriteRune(c.Rune)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// waitForOutput drains m's event channel, applying every event via
// Dispatch, until text appears in the named entry's screen or the
// deadline passes.
func waitForOutput(t *testing.T, m *Manager, name, text string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-m.Events():
			m.Dispatch(ev)
			if strings.Contains(screenText(m.Entry(name)), text) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q in %s's screen; got %q", text, name, screenText(m.Entry(name)))
		}
	}
}

func TestStartAndDispatchOutput(t *testing.T) {
	cfg, err := config.Build([]string{"a"}, []string{"echo marco-polo"})
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	m := New(cfg, 80, 24, nil)
	m.StartAll()
	defer m.Shutdown()

	waitForOutput(t, m, "a", "marco-polo", 2*time.Second)
}

func TestDispatchDropsStaleGenerationEvents(t *testing.T) {
	cfg, err := config.Build([]string{"a"}, []string{"cat"})
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	m := New(cfg, 80, 24, nil)
	m.Start("a")
	defer m.Shutdown()

	staleGen := m.Entry("a").Generation

	m.Restart("a")
	if m.Entry("a").Generation == staleGen {
		t.Fatal("expected Restart to bump the generation")
	}

	m.Dispatch(AppEvent{Kind: EventOutput, Name: "a", Gen: staleGen, Bytes: []byte("ghost output")})
	if strings.Contains(screenText(m.Entry("a")), "ghost") {
		t.Fatal("stale-generation event was applied to the restarted entry's screen")
	}
}

func TestExitedNonZeroSchedulesAutoRestart(t *testing.T) {
	cfg, err := config.Build([]string{"a"}, []string{"exit 1"})
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	cfg.Entries[0].Spec.AutoRestart = true
	m := New(cfg, 80, 24, nil)
	m.Start("a")
	defer m.Shutdown()

	firstGen := m.Entry("a").Generation

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			m.Dispatch(ev)
			if ev.Kind == EventExited {
				goto exited
			}
		case <-deadline:
			t.Fatal("timed out waiting for exit event")
		}
	}
exited:
	if m.Entry("a").pendingRestartAt.IsZero() {
		t.Fatal("expected a pending restart after a non-zero exit with AutoRestart set")
	}

	m.Tick(time.Now().Add(2 * autoRestartDelay))
	if m.Entry("a").Generation != firstGen+1 {
		t.Fatalf("Tick past the restart deadline did not respawn: generation = %d, want %d", m.Entry("a").Generation, firstGen+1)
	}
}

func TestExitedZeroDoesNotAutoRestart(t *testing.T) {
	cfg, err := config.Build([]string{"a"}, []string{"true"})
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	cfg.Entries[0].Spec.AutoRestart = true
	m := New(cfg, 80, 24, nil)
	m.Start("a")
	defer m.Shutdown()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			m.Dispatch(ev)
			if ev.Kind == EventExited {
				goto exited
			}
		case <-deadline:
			t.Fatal("timed out waiting for exit event")
		}
	}
exited:
	if m.Entry("a").Status != StatusStopped {
		t.Fatalf("status = %v, want stopped", m.Entry("a").Status)
	}
	if !m.Entry("a").pendingRestartAt.IsZero() {
		t.Fatal("a clean exit should not schedule an auto-restart")
	}
}

func TestKillCancelsPendingRestart(t *testing.T) {
	cfg, err := config.Build([]string{"a"}, []string{"exit 1"})
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	cfg.Entries[0].Spec.AutoRestart = true
	m := New(cfg, 80, 24, nil)
	m.Start("a")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			m.Dispatch(ev)
			if ev.Kind == EventExited {
				goto exited
			}
		case <-deadline:
			t.Fatal("timed out waiting for exit event")
		}
	}
exited:
	m.Kill("a")
	if !m.Entry("a").pendingRestartAt.IsZero() {
		t.Fatal("Kill should cancel a pending auto-restart")
	}
}

func TestDispatchOutputAdjustsScrollOffsetOnEviction(t *testing.T) {
	cfg, err := config.Build([]string{"a"}, []string{"cat"})
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	m := New(cfg, 80, 24, nil)
	e := m.Entry("a")

	// Fill the buffer past its cap while AutoScroll is still true (the
	// default), so the resulting eviction has no ScrollOffset to adjust.
	var fill strings.Builder
	for i := 0; i < term.MaxScrollback; i++ {
		fill.WriteString("x\r\n")
	}
	m.Dispatch(AppEvent{Kind: EventOutput, Name: "a", Gen: e.Generation, Bytes: []byte(fill.String())})

	e.AutoScroll = false
	e.ScrollOffset = 500

	var more strings.Builder
	for i := 0; i < 100; i++ {
		more.WriteString("y\r\n")
	}
	m.Dispatch(AppEvent{Kind: EventOutput, Name: "a", Gen: e.Generation, Bytes: []byte(more.String())})

	if e.ScrollOffset != 400 {
		t.Fatalf("ScrollOffset = %d, want 400 after 100 evicted lines", e.ScrollOffset)
	}
}

func TestDispatchOutputClampsScrollOffsetAtZero(t *testing.T) {
	cfg, err := config.Build([]string{"a"}, []string{"cat"})
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	m := New(cfg, 80, 24, nil)
	e := m.Entry("a")

	var fill strings.Builder
	for i := 0; i < term.MaxScrollback; i++ {
		fill.WriteString("x\r\n")
	}
	m.Dispatch(AppEvent{Kind: EventOutput, Name: "a", Gen: e.Generation, Bytes: []byte(fill.String())})

	e.AutoScroll = false
	e.ScrollOffset = 10

	var more strings.Builder
	for i := 0; i < 100; i++ {
		more.WriteString("y\r\n")
	}
	m.Dispatch(AppEvent{Kind: EventOutput, Name: "a", Gen: e.Generation, Bytes: []byte(more.String())})

	if e.ScrollOffset != 0 {
		t.Fatalf("ScrollOffset = %d, want 0 (clamped, not negative)", e.ScrollOffset)
	}
}

func TestRestartClosesThePreviousProcessMasterFD(t *testing.T) {
	cfg, err := config.Build([]string{"a"}, []string{"cat"})
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	m := New(cfg, 80, 24, nil)
	m.Start("a")
	defer m.Shutdown()

	oldGen := m.Entry("a").Generation
	oldProc := m.Entry("a").proc
	m.Restart("a")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			m.Dispatch(ev)
			if ev.Kind == EventExited && ev.Gen == oldGen {
				goto closed
			}
		case <-deadline:
			t.Fatal("timed out waiting for the old process to exit")
		}
	}
closed:
	if err := oldProc.Ptm.Close(); err == nil {
		t.Fatal("old process's master fd should already be closed by waitLoop")
	}
}

func TestWriteAndResize(t *testing.T) {
	cfg, err := config.Build([]string{"a"}, []string{"cat"})
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	m := New(cfg, 80, 24, nil)
	m.Start("a")
	defer m.Shutdown()

	m.Write("a", []byte("echo-me\n"))
	waitForOutput(t, m, "a", "echo-me", 2*time.Second)

	m.Resize("a", 120, 40)
	e := m.Entry("a")
	if e.Screen.ReportedCols() != 120 || e.Screen.ReportedRows() != 40 {
		t.Fatalf("screen not resized: cols=%d rows=%d", e.Screen.ReportedCols(), e.Screen.ReportedRows())
	}
}
