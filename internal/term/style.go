package term

import (
	"strconv"
	"strings"
)

// ColorKind distinguishes the three SGR color encodings this emulator
// understands: the terminal's own default, an indexed palette entry, and
// a 24-bit truecolor value.
type ColorKind int

const (
	ColorDefault ColorKind = iota
	ColorPalette
	ColorRGB
)

// Color is a single SGR foreground or background color.
type Color struct {
	Kind    ColorKind
	Palette uint8
	R, G, B uint8
}

// Style is the full set of SGR attributes in effect when a cell was
// written. It is copied into every Cell, never shared, so rendering never
// needs to replay SGR history to know a cell's appearance.
type Style struct {
	FG, BG                                                     Color
	Bold, Dim, Italic, Underline, Blink, Reverse, Hidden, Strike bool
}

// Render returns the SGR escape sequence that reproduces this style
// starting from a reset state. Renderers that reset ("\x1b[0m") between
// every styled region, rather than tracking incremental attribute diffs,
// can apply this directly.
func (s Style) Render() string {
	var parts []string
	if s.Bold {
		parts = append(parts, "1")
	}
	if s.Dim {
		parts = append(parts, "2")
	}
	if s.Italic {
		parts = append(parts, "3")
	}
	if s.Underline {
		parts = append(parts, "4")
	}
	if s.Blink {
		parts = append(parts, "5")
	}
	if s.Reverse {
		parts = append(parts, "7")
	}
	if s.Hidden {
		parts = append(parts, "8")
	}
	if s.Strike {
		parts = append(parts, "9")
	}
	parts = append(parts, colorSGR(s.FG, 38)...)
	parts = append(parts, colorSGR(s.BG, 48)...)
	if len(parts) == 0 {
		return ""
	}
	return "\x1b[" + strings.Join(parts, ";") + "m"
}

func colorSGR(c Color, base int) []string {
	switch c.Kind {
	case ColorPalette:
		return []string{strconv.Itoa(base), "5", strconv.Itoa(int(c.Palette))}
	case ColorRGB:
		return []string{strconv.Itoa(base), "2", strconv.Itoa(int(c.R)), strconv.Itoa(int(c.G)), strconv.Itoa(int(c.B))}
	default:
		return nil
	}
}
