//go:build windows

package sandbox

import "os/exec"

// setProcessGroup is a no-op on Windows; killProcessGroup falls back to
// killing the direct child only (no process-group primitive available
// through os/exec on this platform).
func setProcessGroup(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
