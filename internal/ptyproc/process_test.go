package ptyproc

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestWrite_Success(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	go func() {
		buf := make([]byte, 1024)
		for {
			if _, err := r.Read(buf); err != nil {
				return
			}
		}
	}()
	defer r.Close()

	p := &Process{Ptm: w}
	n, err := p.Write([]byte("hello"), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Fatalf("n = %d, want 5", n)
	}
}

func TestWrite_Timeout(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	chunk := make([]byte, 4096)
	for {
		_ = w.SetWriteDeadline(time.Now().Add(50 * time.Millisecond))
		if _, err := w.Write(chunk); err != nil {
			break
		}
	}
	_ = w.SetWriteDeadline(time.Time{})

	p := &Process{Ptm: w}
	start := time.Now()
	_, err = p.Write([]byte("x"), 100*time.Millisecond)
	elapsed := time.Since(start)

	if err != ErrWriteTimeout {
		t.Fatalf("err = %v, want ErrWriteTimeout", err)
	}
	if elapsed < 50*time.Millisecond {
		t.Fatalf("returned too fast (%v); timeout may not be enforced", elapsed)
	}
}

func TestWrite_Error(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	r.Close()

	p := &Process{Ptm: w}
	_, err = p.Write([]byte("hello"), time.Second)
	w.Close()

	if err == nil {
		t.Fatal("expected an error writing to a broken pipe")
	}
	if err == ErrWriteTimeout {
		t.Fatal("expected a pipe error, not a timeout")
	}
}

func TestClose(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	p := &Process{Ptm: w}
	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := w.Write([]byte("x")); err == nil {
		t.Fatal("expected a write to the closed master to fail")
	}
}

func TestMergedEnvOverridesAndPinsTerm(t *testing.T) {
	os.Setenv("PANEX_TEST_VAR", "parent")
	defer os.Unsetenv("PANEX_TEST_VAR")

	env := mergedEnv(map[string]string{"PANEX_TEST_VAR": "override", "EXTRA": "1"})

	var sawVar, sawExtra, sawTerm bool
	for _, e := range env {
		switch {
		case e == "PANEX_TEST_VAR=override":
			sawVar = true
		case e == "EXTRA=1":
			sawExtra = true
		case e == "TERM=xterm-256color":
			sawTerm = true
		case strings.HasPrefix(e, "PANEX_TEST_VAR=") && e != "PANEX_TEST_VAR=override":
			t.Fatalf("parent env value leaked through override: %q", e)
		}
	}
	if !sawVar || !sawExtra || !sawTerm {
		t.Fatalf("merged env missing expected entries: %v", env)
	}
}

func TestStartWriteKillRoundTrip(t *testing.T) {
	p, err := Start(Spec{CommandLine: "cat", Cols: 80, Rows: 24})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan int, 1)
	go func() { done <- p.Wait() }()

	if _, err := p.Write([]byte("ping\n"), time.Second); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, 64)
	n, err := p.Ptm.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(buf[:n]), "ping") {
		t.Fatalf("expected echoed input, got %q", buf[:n])
	}

	p.Kill()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("child was not reaped within 2s of Kill")
	}
}

func TestResizeDoesNotError(t *testing.T) {
	p, err := Start(Spec{CommandLine: "cat", Cols: 80, Rows: 24})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		p.Kill()
		p.Wait()
	}()

	if err := p.Resize(100, 30); err != nil {
		t.Fatalf("resize: %v", err)
	}
}
