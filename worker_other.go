//go:build !linux && !windows
// +build !linux,!windows

package gpchw

// bindToParent is a no-op where no parent death signal exists. The worker
// still exits once the parent's end of the request pipe closes.
func bindToParent(int) {}
