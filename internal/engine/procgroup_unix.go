//go:build unix

package engine

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// startInGroup puts the shell in its own process group so cancellation
// reaches everything it forked, such as the JVM behind executecommand.sh.
func startInGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
