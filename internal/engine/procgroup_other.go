//go:build !unix

package engine

import "os/exec"

// startInGroup keeps the default cancellation, which kills the shell only.
// WaitDelay still bounds the wait for its output pipes.
func startInGroup(cmd *exec.Cmd) {}
