//go:build windows

package ptyproc

import (
	"os/exec"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}

// killGroup has no process-group equivalent wired here; Windows job-object
// termination would cover re-spawned children but needs its own syscalls
// this package doesn't otherwise touch, so it falls back to killing just
// the direct child, matching the platform-equivalent allowance in the
// kill-semantics contract.
func killGroup(cmd *exec.Cmd, force bool) {
	if cmd.Process == nil {
		return
	}
	cmd.Process.Kill()
}
