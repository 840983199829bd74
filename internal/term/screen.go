package term

import "fmt"

// MaxScrollback bounds the number of buffered lines (FIFO eviction).
const MaxScrollback = 10000

// MaxLineWidth bounds the number of cells any single line may hold,
// independent of the terminal's reported column count, so a program that
// writes far past the visible width (fastfetch positioning by absolute
// column, for instance) can't grow a line without limit.
const MaxLineWidth = 2000

// Screen is the terminal buffer a Parser mutates and a renderer reads.
// It is owned by a single goroutine (see the manager's event loop); no
// internal locking is used or needed.
type Screen struct {
	lines []Line

	cursorRow, cursorCol int
	style                Style

	reportedCols, reportedRows int

	pendingResponses [][]byte

	// evicted counts lines dropped off the front of the buffer by
	// ensureRow's FIFO cap since the last TakeEvicted call. A scrolled-up
	// caller must subtract this from its own scroll_offset, the same way
	// it subtracts replies off pendingResponses, or its view silently
	// drifts upward as the buffer scrolls underneath it.
	evicted int
}

// NewScreen creates a screen advertising the given size to the child.
func NewScreen(cols, rows int) *Screen {
	return &Screen{reportedCols: cols, reportedRows: rows}
}

// Resize updates the dimensions advertised to the child. It does not
// reflow existing content; reflow on resize is a render-time concern.
func (s *Screen) Resize(cols, rows int) {
	s.reportedCols = cols
	s.reportedRows = rows
}

func (s *Screen) ReportedCols() int { return s.reportedCols }
func (s *Screen) ReportedRows() int { return s.reportedRows }
func (s *Screen) CursorRow() int    { return s.cursorRow }
func (s *Screen) CursorCol() int    { return s.cursorCol }

// Lines returns the live backing slice of buffered lines. Callers must
// treat it as read-only; the screen is single-writer so this is safe as
// long as no other goroutine mutates it concurrently with a render.
func (s *Screen) Lines() []Line { return s.lines }

// Snapshot is a cheap, read-only view handed to the renderer. It aliases
// the screen's own slice rather than copying it cell-by-cell: the single
// UI-loop-owns-everything discipline means no write happens between a
// snapshot and its use.
type Snapshot struct {
	Lines                      []Line
	CursorRow, CursorCol       int
	ReportedCols, ReportedRows int
}

func (s *Screen) Snapshot() Snapshot {
	return Snapshot{
		Lines:        s.lines,
		CursorRow:    s.cursorRow,
		CursorCol:    s.cursorCol,
		ReportedCols: s.reportedCols,
		ReportedRows: s.reportedRows,
	}
}

// ContentLineCount is DisplayLineCount with wrap disabled.
func (s *Screen) ContentLineCount() int {
	return s.DisplayLineCount(s.reportedCols, false)
}

// DisplayLineCount returns the number of visible rows needed to show the
// buffer, excluding trailing empty lines. In wrap mode each line
// contributes ceil(len(cells)/viewportCols) rows (minimum 1); otherwise
// each non-trailing-empty buffered line contributes exactly 1.
func (s *Screen) DisplayLineCount(viewportCols int, wrap bool) int {
	end := len(s.lines)
	for end > 0 && isEmptyLine(s.lines[end-1]) {
		end--
	}
	if end == 0 {
		return 1
	}
	if !wrap {
		return end
	}
	if viewportCols <= 0 {
		viewportCols = 1
	}
	count := 0
	for i := 0; i < end; i++ {
		n := len(s.lines[i].Cells)
		if n == 0 {
			count++
			continue
		}
		count += (n + viewportCols - 1) / viewportCols
	}
	return count
}

// TakeResponses returns and clears any outgoing capability-query replies
// queued by the parser since the last call.
func (s *Screen) TakeResponses() []byte {
	if len(s.pendingResponses) == 0 {
		return nil
	}
	var out []byte
	for _, r := range s.pendingResponses {
		out = append(out, r...)
	}
	s.pendingResponses = s.pendingResponses[:0]
	return out
}

func (s *Screen) queueResponse(format string, args ...any) {
	s.pendingResponses = append(s.pendingResponses, []byte(fmt.Sprintf(format, args...)))
}

// TakeEvicted returns and clears the number of lines dropped from the
// front of the buffer since the last call.
func (s *Screen) TakeEvicted() int {
	n := s.evicted
	s.evicted = 0
	return n
}

// screenTop is the index into lines of row 0 of the "current screen" that
// cursor-positioning sequences address: the last reportedRows lines of the
// buffer. It advances implicitly as lineFeed grows the buffer, with no
// separate field to keep in sync.
func (s *Screen) screenTop() int {
	top := len(s.lines) - s.reportedRows
	if top < 0 {
		top = 0
	}
	return top
}

func (s *Screen) ensureRow(row int) {
	for row >= len(s.lines) {
		s.lines = append(s.lines, Line{})
	}
	if over := len(s.lines) - MaxScrollback; over > 0 {
		s.lines = s.lines[over:]
		s.cursorRow -= over
		if s.cursorRow < 0 {
			s.cursorRow = 0
		}
		s.evicted += over
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// --- control bytes ---

func (s *Screen) cursorLeft() {
	if s.cursorCol > 0 {
		s.cursorCol--
	}
}

func (s *Screen) tab() {
	s.cursorCol = clampInt(((s.cursorCol/8)+1)*8, 0, MaxLineWidth-1)
}

func (s *Screen) lineFeed() {
	s.cursorRow++
	s.ensureRow(s.cursorRow)
}

func (s *Screen) carriageReturn() {
	s.cursorCol = 0
}

// put writes one decoded rune at the cursor, advancing by its display
// width. Lines are never auto-wrapped at the reported width (wrapping is a
// render-time concern), and writes past MaxLineWidth are dropped.
func (s *Screen) put(r rune, width int) {
	if s.cursorCol >= MaxLineWidth {
		return
	}
	s.ensureRow(s.cursorRow)
	line := &s.lines[s.cursorRow]
	for len(line.Cells) <= s.cursorCol && len(line.Cells) < MaxLineWidth {
		line.Cells = append(line.Cells, blankCell())
	}
	if s.cursorCol < len(line.Cells) {
		line.Cells[s.cursorCol] = Cell{Rune: r, Width: width, Style: s.style}
	}
	s.cursorCol = clampInt(s.cursorCol+width, 0, MaxLineWidth)
}

// --- cursor motion (CSI) ---

func (s *Screen) moveCursorRel(dCol, dRow int) {
	top := s.screenTop()
	rel := clampInt(s.cursorRow-top+dRow, 0, s.reportedRows-1)
	absRow := top + rel
	s.ensureRow(absRow)
	s.cursorRow = absRow
	s.cursorCol = clampInt(s.cursorCol+dCol, 0, MaxLineWidth-1)
}

func (s *Screen) setCursorCol(col int) {
	s.cursorCol = clampInt(col, 0, MaxLineWidth-1)
}

func (s *Screen) setCursorPos(row, col int) {
	top := s.screenTop()
	absRow := top + clampInt(row, 0, s.reportedRows-1)
	s.ensureRow(absRow)
	s.cursorRow = absRow
	s.cursorCol = clampInt(col, 0, MaxLineWidth-1)
}

// --- erase ---

func (s *Screen) clearLine(row int) {
	if row < 0 || row >= len(s.lines) {
		return
	}
	s.lines[row].Cells = nil
}

func (s *Screen) eraseCellsRange(row, from, to int) {
	if row < 0 || row >= len(s.lines) {
		return
	}
	cells := s.lines[row].Cells
	from = clampInt(from, 0, len(cells))
	to = clampInt(to, 0, len(cells))
	for i := from; i < to; i++ {
		cells[i] = blankCell()
	}
}

func (s *Screen) eraseLine(mode int) {
	s.ensureRow(s.cursorRow)
	cells := s.lines[s.cursorRow].Cells
	switch mode {
	case 0:
		s.eraseCellsRange(s.cursorRow, s.cursorCol, len(cells))
	case 1:
		s.eraseCellsRange(s.cursorRow, 0, s.cursorCol+1)
	case 2:
		s.clearLine(s.cursorRow)
	}
}

func (s *Screen) eraseDisplay(mode int) {
	top := s.screenTop()
	bottom := top + s.reportedRows - 1
	s.ensureRow(bottom)
	switch mode {
	case 0:
		s.eraseCellsRange(s.cursorRow, s.cursorCol, len(s.lines[s.cursorRow].Cells))
		for r := s.cursorRow + 1; r <= bottom; r++ {
			s.clearLine(r)
		}
	case 1:
		for r := top; r < s.cursorRow; r++ {
			s.clearLine(r)
		}
		s.eraseCellsRange(s.cursorRow, 0, s.cursorCol+1)
	case 2:
		for r := top; r <= bottom; r++ {
			s.clearLine(r)
		}
	}
}

// --- SGR ---

func sgrParam(params []int, i int) int {
	if i < 0 || i >= len(params) || params[i] < 0 {
		return 0
	}
	return params[i]
}

// applySGR mutates the current style in place per one CSI `m` sequence's
// parameter list. An empty list means a bare `\x1b[m`, equivalent to reset.
func (s *Screen) applySGR(params []int) {
	if len(params) == 0 {
		s.style = Style{}
		return
	}
	for i := 0; i < len(params); i++ {
		p := sgrParam(params, i)
		switch {
		case p == 0:
			s.style = Style{}
		case p == 1:
			s.style.Bold = true
		case p == 2:
			s.style.Dim = true
		case p == 3:
			s.style.Italic = true
		case p == 4:
			s.style.Underline = true
		case p == 5:
			s.style.Blink = true
		case p == 7:
			s.style.Reverse = true
		case p == 8:
			s.style.Hidden = true
		case p == 9:
			s.style.Strike = true
		case p == 22:
			s.style.Bold = false
			s.style.Dim = false
		case p == 23:
			s.style.Italic = false
		case p == 24:
			s.style.Underline = false
		case p == 25:
			s.style.Blink = false
		case p == 27:
			s.style.Reverse = false
		case p == 28:
			s.style.Hidden = false
		case p == 29:
			s.style.Strike = false
		case p >= 30 && p <= 37:
			s.style.FG = Color{Kind: ColorPalette, Palette: uint8(p - 30)}
		case p == 38:
			color, consumed := parseExtendedColor(params, i)
			s.style.FG = color
			i += consumed
		case p == 39:
			s.style.FG = Color{}
		case p >= 40 && p <= 47:
			s.style.BG = Color{Kind: ColorPalette, Palette: uint8(p - 40)}
		case p == 48:
			color, consumed := parseExtendedColor(params, i)
			s.style.BG = color
			i += consumed
		case p == 49:
			s.style.BG = Color{}
		case p >= 90 && p <= 97:
			s.style.FG = Color{Kind: ColorPalette, Palette: uint8(p - 90 + 8)}
		case p >= 100 && p <= 107:
			s.style.BG = Color{Kind: ColorPalette, Palette: uint8(p - 100 + 8)}
		}
	}
}

// parseExtendedColor handles the `38;5;n` and `38;2;r;g;b` (and `48;...`)
// forms, returning the decoded color and how many extra params it ate.
func parseExtendedColor(params []int, i int) (Color, int) {
	if i+1 >= len(params) {
		return Color{}, 0
	}
	switch sgrParam(params, i+1) {
	case 5:
		if i+2 < len(params) {
			return Color{Kind: ColorPalette, Palette: uint8(sgrParam(params, i+2))}, 2
		}
	case 2:
		if i+4 < len(params) {
			return Color{
				Kind: ColorRGB,
				R:    uint8(sgrParam(params, i+2)),
				G:    uint8(sgrParam(params, i+3)),
				B:    uint8(sgrParam(params, i+4)),
			}, 4
		}
	}
	return Color{}, 0
}

// --- CSI dispatch ---

func csiArg(params []int, i, def int) int {
	if i < 0 || i >= len(params) || params[i] < 0 {
		return def
	}
	return params[i]
}

// handleCSI applies one fully-parsed CSI sequence. Unrecognized final
// bytes are consumed and ignored, per the write policy: they must never
// leak into the screen as glyphs.
func (s *Screen) handleCSI(final byte, priv bool, params []int) {
	switch final {
	case 'A':
		s.moveCursorRel(0, -csiArg(params, 0, 1))
	case 'B':
		s.moveCursorRel(0, csiArg(params, 0, 1))
	case 'C':
		s.moveCursorRel(csiArg(params, 0, 1), 0)
	case 'D':
		s.moveCursorRel(-csiArg(params, 0, 1), 0)
	case 'E':
		s.moveCursorRel(0, csiArg(params, 0, 1))
		s.cursorCol = 0
	case 'F':
		s.moveCursorRel(0, -csiArg(params, 0, 1))
		s.cursorCol = 0
	case 'G':
		s.setCursorCol(csiArg(params, 0, 1) - 1)
	case 'H', 'f':
		s.setCursorPos(csiArg(params, 0, 1)-1, csiArg(params, 1, 1)-1)
	case 'J':
		s.eraseDisplay(csiArg(params, 0, 0))
	case 'K':
		s.eraseLine(csiArg(params, 0, 0))
	case 'm':
		s.applySGR(params)
	case 'c':
		if !priv && csiArg(params, 0, 0) == 0 {
			s.queueResponse("\x1b[?1;2c")
		}
	case 'n':
		switch csiArg(params, 0, 0) {
		case 5:
			s.queueResponse("\x1b[0n")
		case 6:
			s.queueResponse("\x1b[%d;%dR", s.cursorRow-s.screenTop()+1, s.cursorCol+1)
		}
	case 't':
		if csiArg(params, 0, 0) == 18 {
			s.queueResponse("\x1b[8;%d;%dt", s.reportedRows, s.reportedCols)
		}
	default:
		// Any other CSI final byte: consumed and ignored.
	}
}
