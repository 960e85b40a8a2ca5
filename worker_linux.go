//go:build linux
// +build linux

package gpchw

import (
	"log"
	"os"

	"golang.org/x/sys/unix"
)

// bindToParent makes the kernel send SIGTERM to the worker when its parent
// dies, so a crashed caller never leaves a worker holding the hardware.
func bindToParent(parent int) {
	if err := unix.Prctl(unix.PR_SET_PDEATHSIG, uintptr(unix.SIGTERM), 0, 0, 0); err != nil {
		log.Printf("gpchw: setting parent death signal: %v", err)
		return
	}
	// The parent may have died before prctl ran.
	if parent > 0 && os.Getppid() != parent {
		os.Exit(1)
	}
}
