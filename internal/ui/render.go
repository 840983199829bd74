package ui

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/panex-dev/panex/internal/manager"
	"github.com/panex-dev/panex/internal/term"
)

// Render draws the process list, output panel, status bar, and (if
// toggled) the help overlay into a single ANSI byte buffer. It is
// immediate-mode: every call redraws the full frame from current state,
// with no dirty-region tracking between calls. DECSC/DECRC bracket the
// whole frame so the real cursor position is never disturbed by writes
// that don't explicitly reposition it.
func Render(c *Controller, mgr *manager.Manager) []byte {
	var buf bytes.Buffer
	buf.WriteString("\0337")
	renderProcessList(&buf, c, mgr)
	renderOutputPanel(&buf, c)
	renderStatusBar(&buf, c)
	if c.ShowHelp {
		renderHelpOverlay(&buf, c)
	}
	buf.WriteString("\0338")
	return buf.Bytes()
}

func statusIcon(s manager.Status) string {
	switch s {
	case manager.StatusRunning:
		return "●"
	case manager.StatusError:
		return "✗"
	default:
		return "○"
	}
}

// renderProcessList draws the fixed-width left panel: one row per
// process, a pin indicator when not following, a status icon, the
// display name, and a "w" flag when wrap is enabled.
func renderProcessList(buf *bytes.Buffer, c *Controller, mgr *manager.Manager) {
	rows := c.OutputRows()
	names := c.Names()
	for i := 0; i < rows; i++ {
		fmt.Fprintf(buf, "\033[%d;1H\033[0m\033[K", i+1)
		if i >= len(names) {
			continue
		}
		e := mgr.Entry(names[i])
		if e == nil {
			continue
		}

		bg := ""
		if i == c.Selected {
			switch {
			case c.FocusMode && c.DarkBackground:
				bg = "\033[48;5;237m"
			case c.FocusMode:
				bg = "\033[48;5;252m\033[30m"
			case c.DarkBackground:
				bg = "\033[44m"
			default:
				bg = "\033[104m\033[30m"
			}
		}
		buf.WriteString(bg)
		if !e.AutoScroll {
			buf.WriteString("\033[37;41m⇅\033[0m")
			buf.WriteString(bg)
		} else {
			buf.WriteByte(' ')
		}
		buf.WriteByte(' ')
		buf.WriteString(statusIcon(e.Status))
		buf.WriteByte(' ')

		label := names[i]
		if e.Decorators.Wrap {
			label += " w"
		}
		runes := []rune(label)
		maxRunes := processListWidth - 4
		if maxRunes < 0 {
			maxRunes = 0
		}
		if len(runes) > maxRunes {
			runes = runes[:maxRunes]
		}
		buf.WriteString(string(runes))
		if pad := maxRunes - len(runes); pad > 0 {
			buf.WriteString(strings.Repeat(" ", pad))
		}
		buf.WriteString("\033[0m")
	}
}

// visibleOutputLines returns the selected process's buffered content,
// with trailing empty lines dropped and each row split (wrap mode) or
// truncated (no wrap) to viewportCols — the same transform
// display_line_count models, but producing actual cell rows instead of a
// count.
func visibleOutputLines(e *manager.Entry, viewportCols int) [][]term.Cell {
	lines := e.Screen.Lines()
	end := len(lines)
	for end > 0 && len(lines[end-1].Cells) == 0 {
		end--
	}
	var rows [][]term.Cell
	for i := 0; i < end; i++ {
		cells := lines[i].Cells
		if len(cells) == 0 {
			rows = append(rows, nil)
			continue
		}
		if !e.Decorators.Wrap {
			if len(cells) > viewportCols {
				cells = cells[:viewportCols]
			}
			rows = append(rows, cells)
			continue
		}
		for off := 0; off < len(cells); off += viewportCols {
			last := off + viewportCols
			if last > len(cells) {
				last = len(cells)
			}
			rows = append(rows, cells[off:last])
		}
	}
	return rows
}

func renderOutputPanel(buf *bytes.Buffer, c *Controller) {
	rows := c.OutputRows()
	viewportCols := c.OutputCols()
	startCol := processListWidth + 2

	e := c.SelectedEntry()
	var visible [][]term.Cell
	if e != nil && viewportCols > 0 {
		visible = visibleOutputLines(e, viewportCols)
	}

	for i := 0; i < rows; i++ {
		fmt.Fprintf(buf, "\033[%d;%dH\033[0m\033[K", i+1, startCol)
		if e == nil {
			continue
		}
		idx := e.ScrollOffset + i
		if idx < 0 || idx >= len(visible) {
			continue
		}
		writeCells(buf, visible[idx])
	}

	if e != nil {
		drawScrollbar(buf, c, e, len(visible))
	}
}

func writeCells(buf *bytes.Buffer, cells []term.Cell) {
	var last term.Style
	first := true
	for _, cell := range cells {
		if first || cell.Style != last {
			buf.WriteString("\033[0m")
			buf.WriteString(cell.Style.Render())
			last = cell.Style
			first = false
		}
		r := cell.Rune
		if r == 0 {
			r = ' '
		}
		buf.WriteRune(r)
	}
	buf.WriteString("\033[0m")
}

// drawScrollbar draws a right-edge thumb when the buffer is taller than
// the viewport, per the thumb-height/position formulas.
func drawScrollbar(buf *bytes.Buffer, c *Controller, e *manager.Entry, displayLineCount int) {
	rows := c.OutputRows()
	if displayLineCount <= rows {
		return
	}
	thumb := int(math.Round(float64(rows*rows) / float64(displayLineCount)))
	thumb = clamp(thumb, 1, rows)

	maxScroll := displayLineCount - rows
	pos := 0
	if maxScroll > 0 {
		pos = int(math.Round(float64((rows-thumb)*e.ScrollOffset) / float64(maxScroll)))
	}

	col := c.cols
	for i := 0; i < rows; i++ {
		ch := ' '
		if i >= pos && i < pos+thumb {
			ch = '█'
		}
		fmt.Fprintf(buf, "\033[%d;%dH%c", i+1, col, ch)
	}
}

func renderStatusBar(buf *bytes.Buffer, c *Controller) {
	row := c.rows
	fmt.Fprintf(buf, "\033[%d;1H\033[0m\033[2K", row)

	var label string
	if c.FocusMode {
		e := c.SelectedEntry()
		name, exitHint := "", "[Shift-Tab/Esc] to exit focus mode"
		if e != nil {
			name = e.Name
			if e.Decorators.Passthrough {
				exitHint = "[Esc] to exit focus mode"
			}
		}
		label = fmt.Sprintf("FOCUS: %s — Type to interact, %s", name, exitHint)
	} else {
		label = "[↑↓/jk] select  [Tab/Enter] focus  [r] restart  [A] restart All  [x] kill  [q] quit  [?] help"
	}
	label = truncateRunes(label, c.cols)

	buf.WriteString("\033[7m")
	buf.WriteString(label)
	buf.WriteString("\033[0m")
}

func renderHelpOverlay(buf *bytes.Buffer, c *Controller) {
	lines := []string{
		"g pin toggle  t top (pin)  b/G bottom (follow)  w wrap toggle",
		"PgUp/PgDn scroll panel  Esc/Shift-Tab exit focus  Ctrl-C quit app",
	}
	startRow := c.rows - len(lines)
	if startRow < 1 {
		startRow = 1
	}
	for i, l := range lines {
		fmt.Fprintf(buf, "\033[%d;1H\033[0m\033[2K\033[7m%s\033[0m", startRow+i, truncateRunes(l, c.cols))
	}
}

func truncateRunes(s string, n int) string {
	if n < 0 {
		n = 0
	}
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
