//go:build !windows
// +build !windows

package gpchw

import (
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// setSignalsForChannel configures the channel to receive SIGINT and SIGTERM.
func setSignalsForChannel(c chan os.Signal) {
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
}

// waitForExit waits for a command to exit and returns an appropriate error.
func waitForExit(cmd *exec.Cmd) error {
	err := cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == -1 {
			return errors.New("worker process was killed")
		}
		return err
	}
	return nil
}

// setExtraFiles attaches the pipes to the command. On Unix, extra files
// start at FD 3 (after stdin=0, stdout=1, stderr=2).
func setExtraFiles(cmd *exec.Cmd, extraFiles []*os.File) error {
	cmd.ExtraFiles = extraFiles
	return nil
}

func terminateProcess(p *os.Process) error {
	return unix.Kill(p.Pid, unix.SIGTERM)
}

// reraise delivers sig to the current process again, now that the
// notification is stopped and the default action applies.
func reraise(sig os.Signal) {
	s, ok := sig.(syscall.Signal)
	if !ok {
		os.Exit(1)
	}
	if err := unix.Kill(os.Getpid(), s); err != nil {
		os.Exit(1)
	}
}
