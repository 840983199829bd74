// Package manager owns a fleet of PTY-backed processes: spawning,
// restarting, killing, resizing, and writing to them, and funneling every
// child's output and exit into one channel. It is the only place that
// mutates process state; per the concurrency model the caller is expected
// to run Dispatch and Tick from a single loop goroutine so no locking is
// needed around the fleet itself.
package manager

import (
	"fmt"
	"time"

	"github.com/panex-dev/panex/internal/activitylog"
	"github.com/panex-dev/panex/internal/config"
	"github.com/panex-dev/panex/internal/ptyproc"
	"github.com/panex-dev/panex/internal/term"
)

// Status is a process's lifecycle state, for display in the process list.
type Status int

const (
	StatusStarting Status = iota
	StatusRunning
	StatusStopped
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// autoRestartDelay is how long a crashed auto-restart process waits before
// respawning.
const autoRestartDelay = time.Second

// writeTimeout bounds how long a keystroke or capability reply can block
// on a wedged child before the caller gets control back.
const writeTimeout = 200 * time.Millisecond

// Entry is one fleet member: its static configuration plus the runtime
// state the owning loop mutates between events.
type Entry struct {
	Name       string
	CleanName  string
	Decorators config.Decorators
	Spec       config.ProcessSpec

	Generation int
	Status     Status
	ExitCode   int

	Screen *term.Screen
	Parser *term.Parser

	ScrollOffset int
	AutoScroll   bool

	Cols, Rows int

	proc             *ptyproc.Process
	pendingRestartAt time.Time
}

// Manager is the fleet: an ordered set of Entries plus the shared event
// channel their readers write to.
type Manager struct {
	order   []string
	entries map[string]*Entry
	events  chan AppEvent
	log     *activitylog.Logger
}

// New builds a Manager with one not-yet-spawned Entry (status starting,
// generation 0) per config.Entry, each with
// a fresh Screen sized cols x rows. Nothing is spawned until StartAll or
// Start is called.
func New(cfg config.Config, cols, rows int, log *activitylog.Logger) *Manager {
	if log == nil {
		log = activitylog.Nop()
	}
	m := &Manager{
		order:   make([]string, 0, len(cfg.Entries)),
		entries: make(map[string]*Entry, len(cfg.Entries)),
		events:  make(chan AppEvent, 256),
		log:     log,
	}
	for _, e := range cfg.Entries {
		screen := term.NewScreen(cols, rows)
		m.order = append(m.order, e.Name)
		m.entries[e.Name] = &Entry{
			Name:       e.Name,
			CleanName:  e.CleanName,
			Decorators: e.Decorators,
			Spec:       e.Spec,
			Status:     StatusStarting,
			Screen:     screen,
			Parser:     term.NewParser(screen),
			AutoScroll: true,
			Cols:       cols,
			Rows:       rows,
		}
	}
	return m
}

// Events is the channel callers should select on alongside host input.
func (m *Manager) Events() <-chan AppEvent { return m.events }

// Names returns the fleet in startup order.
func (m *Manager) Names() []string { return m.order }

// Entry returns the live entry for name, or nil if there is none.
func (m *Manager) Entry(name string) *Entry { return m.entries[name] }

// StartAll spawns every entry in the fleet.
func (m *Manager) StartAll() {
	for _, name := range m.order {
		m.Start(name)
	}
}

// Start (re)spawns the named entry. Any existing child is signaled to
// die first; the generation counter is bumped so the old reader's events,
// should any still arrive, are discarded by Dispatch rather than applied
// to the new child's state.
func (m *Manager) Start(name string) {
	e := m.entries[name]
	if e == nil {
		return
	}
	if e.proc != nil {
		e.proc.Kill()
		e.proc = nil
	}
	e.Generation++
	gen := e.Generation
	e.Status = StatusStarting
	e.pendingRestartAt = time.Time{}

	proc, err := ptyproc.Start(ptyproc.Spec{
		CommandLine: e.Spec.CommandLine,
		Cwd:         e.Spec.Cwd,
		Env:         e.Spec.EnvOverrides,
		Cols:        e.Cols,
		Rows:        e.Rows,
	})
	if err != nil {
		e.Status = StatusError
		e.ExitCode = -1
		e.Parser.Write([]byte(fmt.Sprintf("panex: failed to start %q: %v\r\n", e.Spec.CommandLine, err)))
		m.log.ProcessSpawnFailed(e.CleanName, err.Error())
		return
	}
	e.proc = proc
	e.Status = StatusRunning
	m.log.ProcessSpawned(e.CleanName, gen)

	go m.readLoop(name, gen, proc)
	go m.waitLoop(name, gen, proc)
}

func (m *Manager) readLoop(name string, gen int, proc *ptyproc.Process) {
	buf := make([]byte, 4096)
	for {
		n, err := proc.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			m.events <- AppEvent{Kind: EventOutput, Name: name, Gen: gen, Bytes: chunk}
		}
		if err != nil {
			return
		}
	}
}

func (m *Manager) waitLoop(name string, gen int, proc *ptyproc.Process) {
	code := proc.Wait()
	proc.Close()
	m.events <- AppEvent{Kind: EventExited, Name: name, Gen: gen, ExitCode: code}
}

// Dispatch applies one AppEvent read off Events() to fleet state. It must
// be called from the same goroutine on every iteration — the single
// mutator the concurrency model requires.
func (m *Manager) Dispatch(ev AppEvent) {
	e := m.entries[ev.Name]
	if e == nil || ev.Gen != e.Generation {
		return
	}
	switch ev.Kind {
	case EventOutput:
		e.Parser.Write(ev.Bytes)
		if evicted := e.Screen.TakeEvicted(); evicted > 0 && !e.AutoScroll {
			e.ScrollOffset -= evicted
			if e.ScrollOffset < 0 {
				e.ScrollOffset = 0
			}
		}
		// AutoScroll entries get no eviction adjustment here: the UI's
		// OnOutput callback re-pins the selected one to the bottom on this
		// same event. Only a scrolled-up view must track eviction.
		m.drainReplies(e)
	case EventExited:
		e.ExitCode = ev.ExitCode
		if ev.ExitCode == 0 {
			e.Status = StatusStopped
		} else {
			e.Status = StatusError
		}
		m.log.ProcessExited(e.CleanName, ev.ExitCode)
		if ev.ExitCode != 0 && e.Spec.AutoRestart {
			e.pendingRestartAt = time.Now().Add(autoRestartDelay)
			m.log.ProcessRestartScheduled(e.CleanName, autoRestartDelay)
		}
	}
}

// drainReplies writes any capability-query responses the screen queued
// while processing output (DA, CPR, DSR, XTWINOPS) back to the child.
func (m *Manager) drainReplies(e *Entry) {
	replies := e.Screen.TakeResponses()
	if len(replies) == 0 || e.proc == nil {
		return
	}
	e.proc.Write(replies, writeTimeout)
}

// Tick runs time-based bookkeeping the event channel alone can't drive:
// due auto-restarts. Callers should invoke it on every pass through their
// select loop, alongside the small timeout the concurrency model already
// requires for resize-debounce and periodic redraw.
func (m *Manager) Tick(now time.Time) {
	for _, name := range m.order {
		e := m.entries[name]
		if e.pendingRestartAt.IsZero() || now.Before(e.pendingRestartAt) {
			continue
		}
		m.Start(name)
	}
}

// Kill signals the named entry's child to exit and cancels any pending
// auto-restart. It does not block for the child to actually die.
func (m *Manager) Kill(name string) {
	e := m.entries[name]
	if e == nil {
		return
	}
	e.pendingRestartAt = time.Time{}
	if e.proc != nil {
		m.log.ProcessKilled(e.CleanName)
		e.proc.Kill()
	}
}

// KillAll signals every entry's child to exit.
func (m *Manager) KillAll() {
	for _, name := range m.order {
		m.Kill(name)
	}
}

// Restart clears the named entry's screen and respawns it fresh.
func (m *Manager) Restart(name string) {
	e := m.entries[name]
	if e == nil {
		return
	}
	m.resetScreen(e)
	m.Start(name)
}

// RestartAll kills every child first, then resets and respawns every
// entry. Killing the whole fleet before spawning any of it bounds total
// wall time to one kill pass plus one spawn pass, rather than interleaving
// them and leaving some entries mid-restart while others are still
// running their old instance.
func (m *Manager) RestartAll() {
	for _, name := range m.order {
		m.Kill(name)
	}
	for _, name := range m.order {
		m.resetScreen(m.entries[name])
	}
	m.StartAll()
}

func (m *Manager) resetScreen(e *Entry) {
	e.Screen = term.NewScreen(e.Cols, e.Rows)
	e.Parser = term.NewParser(e.Screen)
	e.ScrollOffset = 0
	e.AutoScroll = true
}

// Write sends keystroke or pasted bytes to the named entry's child.
func (m *Manager) Write(name string, data []byte) {
	e := m.entries[name]
	if e == nil || e.proc == nil {
		return
	}
	e.proc.Write(data, writeTimeout)
}

// Resize updates both the entry's Screen dimensions and, if running, its
// child's PTY window size.
func (m *Manager) Resize(name string, cols, rows int) {
	e := m.entries[name]
	if e == nil {
		return
	}
	e.Cols, e.Rows = cols, rows
	e.Screen.Resize(cols, rows)
	if e.proc != nil {
		e.proc.Resize(cols, rows)
	}
}

// Shutdown kills every child and gives their reader goroutines a moment
// to drain before the caller exits.
func (m *Manager) Shutdown() {
	m.KillAll()
	time.Sleep(50 * time.Millisecond)
}
