// Command gpchw reads and drives Pi-Plates DAQC channels from the shell.
package main

import (
	"github.com/gpc-hardware/gpchw"
	"github.com/gpc-hardware/gpchw/cmd/gpchw/cmd"
)

func main() {
	// With --remote the plate lives in a worker started from this binary.
	gpchw.ServeIfWorker()
	cmd.Execute()
}
