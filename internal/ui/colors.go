package ui

import (
	"os"

	"github.com/muesli/termenv"
)

// detectDarkBackground probes the host terminal's background color the
// way the teacher's startup hook does, but only for the one decision this
// UI needs from it: whether the selection/focus highlight should use a
// light or dark accent. Non-TTY stdout (tests, piped output) defaults to
// dark, matching the common case.
func detectDarkBackground() bool {
	if !termenvIsTerminal() {
		return true
	}
	return termenv.NewOutput(os.Stdout).HasDarkBackground()
}

func termenvIsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
