// Package activitylog writes one JSON object per line recording fleet
// lifecycle events (spawn, restart, kill, exit, spawn failure) so a
// session can be reconstructed after the fact without re-running it.
package activitylog

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Logger appends JSONL activity records to a file. The zero value is a
// disabled logger that discards everything (it is what Nop returns);
// construct with New to write to a file.
type Logger struct {
	mu      sync.Mutex
	enabled bool
	file    *os.File
	enc     *json.Encoder
	actor   string
}

// New opens (creating if necessary) the activity log at path. If enabled
// is false, every method is a no-op and no file is touched — callers
// don't need to branch on a `--log` flag themselves.
func New(enabled bool, path, actor string) *Logger {
	l := &Logger{enabled: enabled, actor: actor}
	if !enabled {
		return l
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.enabled = false
		return l
	}
	l.file = f
	l.enc = json.NewEncoder(f)
	return l
}

// Nop returns a Logger that discards everything, for callers that never
// want to check whether logging is enabled.
func Nop() *Logger {
	return &Logger{}
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

type entry struct {
	Timestamp string `json:"ts"`
	Actor     string `json:"actor"`
	Process   string `json:"process"`
	Event     string `json:"event"`
	Gen       int    `json:"gen,omitempty"`
	ExitCode  int    `json:"exit_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (l *Logger) write(e entry) {
	if !l.enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	e.Actor = l.actor
	_ = l.enc.Encode(e)
}

// ProcessSpawned records a successful (re)spawn at the given generation.
func (l *Logger) ProcessSpawned(process string, gen int) {
	l.write(entry{Process: process, Event: "spawned", Gen: gen})
}

// ProcessSpawnFailed records a spawn attempt that never produced a PTY.
func (l *Logger) ProcessSpawnFailed(process, message string) {
	l.write(entry{Process: process, Event: "spawn_failed", Message: message})
}

// ProcessExited records a child's exit, clean or not.
func (l *Logger) ProcessExited(process string, exitCode int) {
	l.write(entry{Process: process, Event: "exited", ExitCode: exitCode})
}

// ProcessKilled records an operator- or shutdown-initiated kill.
func (l *Logger) ProcessKilled(process string) {
	l.write(entry{Process: process, Event: "killed"})
}

// ProcessRestartScheduled records an auto-restart being queued after a
// non-zero exit.
func (l *Logger) ProcessRestartScheduled(process string, delay time.Duration) {
	l.write(entry{Process: process, Event: "restart_scheduled", Message: delay.String()})
}
