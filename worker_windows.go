//go:build windows
// +build windows

package gpchw

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
)

func setSignalsForChannel(c chan os.Signal) {
	signal.Notify(c, os.Interrupt)
}

func waitForExit(cmd *exec.Cmd) error {
	return cmd.Wait()
}

// os/exec does not pass ExtraFiles on Windows.
func setExtraFiles(cmd *exec.Cmd, extraFiles []*os.File) error {
	return fmt.Errorf("%w: worker processes on windows", ErrUnsupported)
}

func terminateProcess(p *os.Process) error {
	return p.Kill()
}

func reraise(os.Signal) {
	os.Exit(1)
}

func bindToParent(int) {}
