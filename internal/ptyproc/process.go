// Package ptyproc owns a single PTY-backed child process: spawn, resize,
// write, and process-group kill. It has no notion of restarts, names, or
// generations — that bookkeeping belongs to the process manager that owns
// a fleet of these.
package ptyproc

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/creack/pty"
)

// ErrWriteTimeout is returned by Write when the child is not draining its
// stdin fast enough to accept more bytes within the deadline. Without a
// timeout, a wedged child fills the kernel PTY buffer and Write blocks
// indefinitely, wedging whatever goroutine called it in turn.
var ErrWriteTimeout = fmt.Errorf("pty write timed out")

// killGrace is how long Kill waits for a SIGTERM'd child to exit on its
// own before escalating to SIGKILL.
const killGrace = 50 * time.Millisecond

// Spec describes how to spawn one child.
type Spec struct {
	CommandLine string
	Cwd         string
	Env         map[string]string
	Cols, Rows  int
}

// Process is one running child attached to a PTY.
type Process struct {
	Ptm *os.File
	Cmd *exec.Cmd
}

// Start spawns the platform shell running spec.CommandLine inside a PTY of
// the given size, as its own session/process-group leader on Unix so a
// signal delivered to -pid reaches every process the shell spawns in turn.
func Start(spec Spec) (*Process, error) {
	cmd := shellCommand(spec.CommandLine)
	cmd.Dir = spec.Cwd
	cmd.Env = mergedEnv(spec.Env)
	cmd.SysProcAttr = sysProcAttr()

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(spec.Rows),
		Cols: uint16(spec.Cols),
	})
	if err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}
	return &Process{Ptm: ptm, Cmd: cmd}, nil
}

func shellCommand(commandLine string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.Command("powershell.exe", "-NoLogo", "-NoProfile", "-Command", commandLine)
	}
	return exec.Command("bash", "-c", commandLine)
}

// mergedEnv layers spec.Env over the parent environment and pins TERM to
// xterm-256color, per the child-environment contract.
func mergedEnv(overrides map[string]string) []string {
	env := make([]string, 0, len(os.Environ())+len(overrides)+1)
	for _, e := range os.Environ() {
		key := e
		if idx := strings.IndexByte(e, '='); idx >= 0 {
			key = e[:idx]
		}
		if key == "TERM" {
			continue
		}
		if _, override := overrides[key]; override {
			continue
		}
		env = append(env, e)
	}
	for k, v := range overrides {
		if k == "TERM" {
			continue
		}
		env = append(env, k+"="+v)
	}
	return append(env, "TERM=xterm-256color")
}

// Read delegates to the PTY master. It blocks until output arrives, the
// child exits (EOF), or the PTY errors; the caller (the process manager's
// reader goroutine) is responsible for tagging and dispatching the result.
func (p *Process) Read(buf []byte) (int, error) {
	return p.Ptm.Read(buf)
}

// Write writes to the child's PTY, giving up after timeout rather than
// blocking forever on a full kernel buffer.
func (p *Process) Write(data []byte, timeout time.Duration) (int, error) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := p.Ptm.Write(data)
		ch <- result{n, err}
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.n, r.err
	case <-timer.C:
		return 0, ErrWriteTimeout
	}
}

// Resize updates the PTY window size.
func (p *Process) Resize(cols, rows int) error {
	return pty.Setsize(p.Ptm, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// Kill sends SIGTERM to the child's process group, then escalates to
// SIGKILL after killGrace if it hasn't exited. It only signals; reaping
// happens exactly once, in Wait, so the two never race over the same
// child's exit status.
func (p *Process) Kill() {
	killGroup(p.Cmd, false)
	time.AfterFunc(killGrace, func() {
		killGroup(p.Cmd, true)
	})
}

// Wait blocks until the child exits and returns its exit code, or -1 if
// the exit status could not be determined. Must be called exactly once
// per Process; exec.Cmd.Wait is not safe to call twice.
func (p *Process) Wait() int {
	err := p.Cmd.Wait()
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

// Close releases the PTY master fd. The caller must not call Read/Write
// afterward. Safe to call after Wait has reaped the child, and is the
// only thing that releases the fd — Kill only signals.
func (p *Process) Close() error {
	return p.Ptm.Close()
}
