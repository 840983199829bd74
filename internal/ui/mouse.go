package ui

import "strconv"

// MouseEvent is a decoded SGR-1006 mouse report (`\x1b[<button;x;y(M|m)`).
// X and Y are 1-indexed, as sent by the terminal.
type MouseEvent struct {
	Button     int
	X, Y       int
	Pressed    bool
	WheelUp    bool
	WheelDown  bool
}

const (
	mouseButtonWheelUp   = 64
	mouseButtonWheelDown = 65
)

// DecodeMouse recognizes an SGR mouse report at the start of buf and
// returns the event plus bytes consumed, or ok=false if buf doesn't start
// with one (the caller falls back to DecodeKey).
func DecodeMouse(buf []byte) (ev MouseEvent, consumed int, ok bool) {
	if len(buf) < 3 || buf[0] != 0x1b || buf[1] != '[' || buf[2] != '<' {
		return MouseEvent{}, 0, false
	}
	i := 3
	fields := make([]int, 0, 3)
	start := i
	for i < len(buf) {
		b := buf[i]
		if b == ';' || b == 'M' || b == 'm' {
			n, err := strconv.Atoi(string(buf[start:i]))
			if err != nil {
				return MouseEvent{}, 0, false
			}
			fields = append(fields, n)
			start = i + 1
			if b == 'M' || b == 'm' {
				if len(fields) != 3 {
					return MouseEvent{}, 0, false
				}
				ev = MouseEvent{
					Button:  fields[0],
					X:       fields[1],
					Y:       fields[2],
					Pressed: b == 'M',
				}
				ev.WheelUp = ev.Button == mouseButtonWheelUp
				ev.WheelDown = ev.Button == mouseButtonWheelDown
				return ev, i + 1, true
			}
			i++
			continue
		}
		if b < '0' || b > '9' {
			return MouseEvent{}, 0, false
		}
		i++
	}
	return MouseEvent{}, 0, false
}
