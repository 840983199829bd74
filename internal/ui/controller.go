// Package ui holds the state machine that turns decoded keyboard/mouse
// input into operations on a process manager or the selected process's
// screen, and the immediate-mode renderer that draws the split pane from
// that state every frame.
package ui

import (
	"time"

	"github.com/panex-dev/panex/internal/manager"
)

// processListWidth is the fixed width, in columns, of the left process
// list panel.
const processListWidth = 20

const resizeDebounce = 50 * time.Millisecond

// Controller holds view state the manager doesn't: selection, focus
// mode, help visibility, and the debounced pending resize. Per-process
// scroll position and follow state live on manager.Entry itself, so
// switching selection needs no explicit save/restore step — the
// outgoing entry's fields are simply left as they are.
type Controller struct {
	mgr   *manager.Manager
	names []string

	Selected  int
	FocusMode bool
	ShowHelp  bool
	Quit      bool

	// DarkBackground selects which accent colors the renderer uses for
	// the selection/focus highlight. Set by Run via a termenv probe;
	// defaults false, so tests constructing a Controller directly don't
	// depend on a TTY.
	DarkBackground bool

	cols, rows int

	resizePending bool
	pendingCols   int
	pendingRows   int
	resizeDeadline time.Time
}

// NewController builds a Controller for mgr's fleet with an initial host
// terminal size of cols x rows.
func NewController(mgr *manager.Manager, cols, rows int) *Controller {
	return &Controller{mgr: mgr, names: mgr.Names(), cols: cols, rows: rows}
}

// OutputCols and OutputRows are the dimensions of the output panel, after
// reserving the process list width and the status bar row.
func (c *Controller) OutputCols() int { return c.cols - processListWidth - 1 }
func (c *Controller) OutputRows() int { return c.rows - 1 }

func (c *Controller) Names() []string { return c.names }

// SelectedName returns the display name of the currently selected
// process, or "" if the fleet is empty.
func (c *Controller) SelectedName() string {
	if len(c.names) == 0 {
		return ""
	}
	return c.names[c.Selected]
}

// SelectedEntry returns the manager.Entry behind SelectedName, or nil.
func (c *Controller) SelectedEntry() *manager.Entry {
	name := c.SelectedName()
	if name == "" {
		return nil
	}
	return c.mgr.Entry(name)
}

func (c *Controller) moveSelection(delta int) {
	if len(c.names) == 0 {
		return
	}
	c.Selected = clamp(c.Selected+delta, 0, len(c.names)-1)
}

// HandleKey applies one decoded keystroke. Ctrl-C is a global shortcut in
// both modes: it quits the whole application rather than being forwarded.
func (c *Controller) HandleKey(k Key) {
	if k.Kind == KeyCtrlC {
		c.mgr.KillAll()
		c.Quit = true
		return
	}
	if c.FocusMode {
		c.handleFocusKey(k)
		return
	}
	c.handleBrowseKey(k)
}

func (c *Controller) handleBrowseKey(k Key) {
	switch k.Kind {
	case KeyUp:
		c.moveSelection(-1)
	case KeyDown:
		c.moveSelection(1)
	case KeyEnter, KeyTab:
		c.enterFocus()
	case KeyPgUp:
		c.scrollBy(-c.OutputRows())
	case KeyPgDn:
		c.scrollBy(c.OutputRows())
	case KeyRune:
		c.handleBrowseRune(k.Rune)
	}
}

func (c *Controller) handleBrowseRune(r rune) {
	switch r {
	case 'k':
		c.moveSelection(-1)
	case 'j':
		c.moveSelection(1)
	case 'r':
		if name := c.SelectedName(); name != "" {
			c.mgr.Restart(name)
		}
	case 'A':
		c.mgr.RestartAll()
	case 'x':
		if name := c.SelectedName(); name != "" {
			c.mgr.Kill(name)
		}
	case 'g':
		c.togglePin()
	case 'G', 'b':
		c.scrollToBottom()
	case 't':
		c.scrollToTop()
	case 'w':
		if e := c.SelectedEntry(); e != nil {
			e.Decorators.Wrap = !e.Decorators.Wrap
		}
	case 'q':
		c.mgr.KillAll()
		c.Quit = true
	case '?':
		c.ShowHelp = !c.ShowHelp
	}
}

func (c *Controller) enterFocus() {
	if c.SelectedName() == "" {
		return
	}
	c.FocusMode = true
}

// handleFocusKey forwards keystrokes to the focused child's PTY, except
// Esc and Shift-Tab, which exit focus mode unless the process carries the
// passthrough decorator.
func (c *Controller) handleFocusKey(k Key) {
	e := c.SelectedEntry()
	if e == nil {
		c.FocusMode = false
		return
	}
	switch k.Kind {
	case KeyEsc, KeyShiftTab:
		if e.Decorators.Passthrough {
			c.mgr.Write(e.Name, k.ToBytes())
			return
		}
		c.FocusMode = false
		return
	}
	c.mgr.Write(e.Name, k.ToBytes())
}

// HandleMouse applies one decoded SGR mouse report.
func (c *Controller) HandleMouse(m MouseEvent) {
	switch {
	case m.WheelUp:
		c.scrollBy(-3)
	case m.WheelDown:
		c.scrollBy(3)
	case m.Pressed:
		c.handleClick(m)
	}
}

func (c *Controller) handleClick(m MouseEvent) {
	if m.Y >= c.rows {
		c.FocusMode = false
		return
	}
	if m.X <= processListWidth {
		c.FocusMode = false
		row := m.Y - 1
		if row >= 0 && row < len(c.names) {
			c.Selected = row
		}
		return
	}
	c.enterFocus()
}

// togglePin flips auto_scroll explicitly; re-enabling immediately pins to
// the bottom.
func (c *Controller) togglePin() {
	e := c.SelectedEntry()
	if e == nil {
		return
	}
	e.AutoScroll = !e.AutoScroll
	if e.AutoScroll {
		c.pinToBottom(e)
	}
}

func (c *Controller) scrollToTop() {
	e := c.SelectedEntry()
	if e == nil {
		return
	}
	e.ScrollOffset = 0
	e.AutoScroll = false
}

func (c *Controller) scrollToBottom() {
	e := c.SelectedEntry()
	if e == nil {
		return
	}
	e.AutoScroll = true
	c.pinToBottom(e)
}

// scrollBy moves the selected process's scroll position by delta display
// lines, clamped to the valid range. Scrolling up disables auto_scroll;
// landing within one line of the bottom (in either direction) re-enables
// it.
func (c *Controller) scrollBy(delta int) {
	e := c.SelectedEntry()
	if e == nil {
		return
	}
	maxOffset := c.maxScrollOffset(e)
	if delta < 0 {
		e.AutoScroll = false
	}
	e.ScrollOffset = clamp(e.ScrollOffset+delta, 0, maxOffset)
	if maxOffset-e.ScrollOffset <= 1 {
		e.AutoScroll = true
	}
}

func (c *Controller) maxScrollOffset(e *manager.Entry) int {
	total := e.Screen.DisplayLineCount(c.OutputCols(), e.Decorators.Wrap)
	viewport := c.OutputRows()
	if total-viewport > 0 {
		return total - viewport
	}
	return 0
}

// pinToBottom sets scroll_offset per the auto-scroll formula: strictly
// positive overflow only, so a cursor transiently sitting on an empty row
// just below the last content row is never shown.
func (c *Controller) pinToBottom(e *manager.Entry) {
	total := e.Screen.DisplayLineCount(c.OutputCols(), e.Decorators.Wrap)
	viewport := c.OutputRows()
	if total-viewport > 0 {
		e.ScrollOffset = total - viewport
	} else {
		e.ScrollOffset = 0
	}
}

// OnOutput recomputes the pinned scroll offset for name if it is both the
// selected process and following. Call after every EventOutput dispatch.
func (c *Controller) OnOutput(name string) {
	if name != c.SelectedName() {
		return
	}
	e := c.mgr.Entry(name)
	if e == nil || !e.AutoScroll {
		return
	}
	c.pinToBottom(e)
}

// QueueResize records a host-terminal resize to be applied once 50 ms
// pass without a further resize, coalescing bursts of SIGWINCH-driven
// events into a single resize(name, ...) call per process.
func (c *Controller) QueueResize(cols, rows int) {
	c.pendingCols, c.pendingRows = cols, rows
	c.resizeDeadline = time.Now().Add(resizeDebounce)
	c.resizePending = true
}

// Tick runs time-based bookkeeping: due auto-restarts (delegated to the
// manager) and a due debounced resize. Call on every pass through the
// main select loop.
func (c *Controller) Tick(now time.Time) {
	c.mgr.Tick(now)
	if !c.resizePending || now.Before(c.resizeDeadline) {
		return
	}
	c.resizePending = false
	c.cols, c.rows = c.pendingCols, c.pendingRows
	for _, name := range c.names {
		c.mgr.Resize(name, c.OutputCols(), c.OutputRows())
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
