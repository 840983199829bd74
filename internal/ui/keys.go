package ui

import "unicode/utf8"

// KeyKind classifies one decoded keystroke. Browse-mode bindings are
// matched against Kind and, for KeyRune, against Rune; focus mode
// translates a Key back into the bytes a real terminal would send.
type KeyKind int

const (
	KeyRune KeyKind = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyTab
	KeyShiftTab
	KeyEsc
	KeyPgUp
	KeyPgDn
	KeyBackspace
	KeyCtrlC
)

type Key struct {
	Kind KeyKind
	Rune rune
}

// DecodeKey reads one keystroke from the front of buf, returning how many
// bytes it consumed. Multi-byte CSI sequences (arrows, PgUp/PgDn,
// Shift-Tab) are recognized explicitly; anything else starting with ESC
// is reported as a bare Esc that consumes only the ESC byte, so the bytes
// after it are decoded as keys of their own on the next call.
func DecodeKey(buf []byte) (Key, int) {
	if len(buf) == 0 {
		return Key{}, 0
	}
	switch buf[0] {
	case 0x03:
		return Key{Kind: KeyCtrlC}, 1
	case '\r', '\n':
		return Key{Kind: KeyEnter}, 1
	case '\t':
		return Key{Kind: KeyTab}, 1
	case 0x7f, 0x08:
		return Key{Kind: KeyBackspace}, 1
	case 0x1b:
		return decodeEscape(buf)
	default:
		r, size := utf8.DecodeRune(buf)
		if r == utf8.RuneError && size <= 1 {
			return Key{Kind: KeyRune, Rune: rune(buf[0])}, 1
		}
		return Key{Kind: KeyRune, Rune: r}, size
	}
}

func decodeEscape(buf []byte) (Key, int) {
	if len(buf) < 2 {
		return Key{Kind: KeyEsc}, 1
	}
	if buf[1] != '[' && buf[1] != 'O' {
		return Key{Kind: KeyEsc}, 1
	}
	if len(buf) < 3 {
		return Key{Kind: KeyEsc}, 1
	}
	switch buf[2] {
	case 'A':
		return Key{Kind: KeyUp}, 3
	case 'B':
		return Key{Kind: KeyDown}, 3
	case 'C':
		return Key{Kind: KeyRight}, 3
	case 'D':
		return Key{Kind: KeyLeft}, 3
	case 'Z':
		return Key{Kind: KeyShiftTab}, 3
	case '5', '6':
		if len(buf) >= 4 && buf[3] == '~' {
			if buf[2] == '5' {
				return Key{Kind: KeyPgUp}, 4
			}
			return Key{Kind: KeyPgDn}, 4
		}
	}
	return Key{Kind: KeyEsc}, 1
}

// ToBytes translates a Key back into the bytes a real terminal would send
// a program for it, for forwarding in focus mode.
func (k Key) ToBytes() []byte {
	switch k.Kind {
	case KeyRune:
		return []byte(string(k.Rune))
	case KeyEnter:
		return []byte{'\r'}
	case KeyTab:
		return []byte{'\t'}
	case KeyBackspace:
		return []byte{0x7f}
	case KeyUp:
		return []byte{0x1b, '[', 'A'}
	case KeyDown:
		return []byte{0x1b, '[', 'B'}
	case KeyRight:
		return []byte{0x1b, '[', 'C'}
	case KeyLeft:
		return []byte{0x1b, '[', 'D'}
	case KeyEsc:
		return []byte{0x1b}
	case KeyShiftTab:
		return []byte{0x1b, '[', 'Z'}
	case KeyPgUp:
		return []byte{0x1b, '[', '5', '~'}
	case KeyPgDn:
		return []byte{0x1b, '[', '6', '~'}
	default:
		return nil
	}
}
