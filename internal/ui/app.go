package ui

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/panex-dev/panex/internal/manager"
)

// tickInterval bounds how long the main loop can go without checking for
// a due resize debounce or auto-restart, per the small-timeout select
// shape the concurrency model calls for.
const tickInterval = 50 * time.Millisecond

// mouseDrainWindow is how long, after disabling mouse capture, the loop
// keeps discarding host input before leaving the alternate screen — long
// enough to swallow an in-flight partial mouse escape sequence.
const mouseDrainWindow = 100 * time.Millisecond

// Run enters raw mode and the alternate screen, spawns every configured
// process, and drives the single select loop that owns all terminal and
// fleet state until the user quits. It restores the host terminal before
// returning, even on error.
func Run(mgr *manager.Manager) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("ui: stdin is not a terminal")
	}
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return fmt.Errorf("ui: get terminal size: %w", err)
	}

	restore, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("ui: set raw mode: %w", err)
	}
	defer term.Restore(fd, restore)

	os.Stdout.WriteString("\033[?1049h\033[?1000h\033[?1006h\033[?25l\033[2J\033[H")

	ctrl := NewController(mgr, cols, rows)
	ctrl.DarkBackground = detectDarkBackground()
	for _, name := range mgr.Names() {
		mgr.Resize(name, ctrl.OutputCols(), ctrl.OutputRows())
	}
	mgr.StartAll()

	inputCh := make(chan []byte, 16)
	go readInput(os.Stdin, inputCh)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	os.Stdout.Write(Render(ctrl, mgr))

	for !ctrl.Quit {
		select {
		case ev, ok := <-mgr.Events():
			if !ok {
				ctrl.Quit = true
				continue
			}
			mgr.Dispatch(ev)
			if ev.Kind == manager.EventOutput {
				ctrl.OnOutput(ev.Name)
			}
		case data, ok := <-inputCh:
			if !ok {
				ctrl.Quit = true
				continue
			}
			handleInput(ctrl, data)
		case <-sigCh:
			if c, r, err := term.GetSize(fd); err == nil {
				ctrl.QueueResize(c, r)
			}
		case now := <-ticker.C:
			ctrl.Tick(now)
		}
		os.Stdout.Write(Render(ctrl, mgr))
	}

	shutdown(mgr, inputCh)
	return nil
}

// shutdown follows the ordered teardown the concurrency model requires:
// kill every child and give readers a moment to drain, disable mouse
// capture before draining host input (otherwise the terminal keeps
// emitting mouse reports faster than they can be read), drain pending
// input, then leave the alternate screen and restore cursor/colors.
func shutdown(mgr *manager.Manager, inputCh <-chan []byte) {
	mgr.Shutdown()
	os.Stdout.WriteString("\033[?1006l\033[?1000l")
	drainInput(inputCh, mouseDrainWindow)
	os.Stdout.WriteString("\033[?1049l\033[0m\033[?25h")
}

func drainInput(inputCh <-chan []byte, window time.Duration) {
	deadline := time.After(window)
	for {
		select {
		case _, ok := <-inputCh:
			if !ok {
				return
			}
		case <-deadline:
			return
		}
	}
}

func readInput(r io.Reader, out chan<- []byte) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			out <- chunk
		}
		if err != nil {
			close(out)
			return
		}
	}
}

func handleInput(ctrl *Controller, data []byte) {
	for i := 0; i < len(data); {
		if mev, n, ok := DecodeMouse(data[i:]); ok {
			ctrl.HandleMouse(mev)
			i += n
			continue
		}
		k, n := DecodeKey(data[i:])
		if n == 0 {
			break
		}
		ctrl.HandleKey(k)
		i += n
	}
}
