// Package gpchw is a hardware abstraction layer for Raspberry Pi add-on
// plates in the Pi-Plates DAQC family, plus a way to host a stateful object
// in an isolated worker process and call its methods synchronously.
//
// # Plates and Channels
//
// A Plate binds a Driver to a plate address and hands out typed channel
// handles. Every handle claims its channel in the plate's PinRegister, so
// two parts of a program cannot drive the same channel:
//
//	plate, err := gpchw.NewPlate(gpchw.NewSimDriver(), 0)
//	led, err := plate.DigitalOutput(3)
//	err = led.Write(true)
//	defer led.Close() // releases the claim
//
//	_, err = plate.DigitalOutput(3) // ErrAlreadyClaimed
//
// Channel numbers are checked twice: first by the driver, which knows the
// electrical limits of the board (ErrValidation), then by the register
// bounds (ErrOutOfRange). Reads and writes go straight to the driver; analog
// values are volts, unscaled.
//
// Drivers own the wire encoding. SimDriver models a DAQC stack in memory and
// GPIODriver maps digital channels onto header pins through periph.io.
// Optional driver interfaces add revisions (Identifier), bulk ADC reads
// (BulkAnalogReader), the event register (EventSource) and ultrasonic
// ranging (RangeFinder).
//
// # Interrupts
//
// Plates signal events by setting a bit in their 16-bit event register and
// pulling the shared interrupt line low. InterruptManager waits for the
// falling edge, reads the register and calls the callback for each set bit:
//
//	pin, err := gpchw.OpenInterruptPin(gpchw.DefaultInterruptPin)
//	mgr, err := gpchw.NewInterruptManager(plate, pin)
//	mgr.RegisterCallback(0, func(bit int) { log.Printf("event %d", bit) })
//	err = mgr.Run(ctx)
//
// # Worker Processes
//
// A Puppet is any value exposing a method table. Registered puppets can be
// hosted by a worker process that re-executes the current binary; the
// caller talks to it through a Proxy:
//
//	func init() {
//		gpchw.RegisterPuppet("thermo", newThermo)
//	}
//
//	func main() {
//		gpchw.ServeIfWorker() // must come first
//
//		p, err := gpchw.NewProxy("thermo", nil)
//		var celsius float64
//		err = p.Call("Read", &celsius, 2)
//		p.Terminate()
//	}
//
// Requests and responses are MessagePack envelopes framed with a 4-byte
// big-endian length over a pair of pipes. A Proxy sends one request at a
// time; concurrent callers queue. A method that returns an error or panics
// inside the worker comes back as a *RemoteError, which matches
// ErrRemoteExecution (and the package sentinel it wraps, if any), and the
// worker keeps serving. Once the worker is gone every call fails with
// ErrChannelClosed.
//
// PlateClient is the hand-written typed client for the built-in "daqc"
// puppet, which hosts a plate in a worker. It implements PlateService, as
// does the in-process service returned by OpenPlateService.
//
// # Thread Safety
//
// PinRegister, Plate, channel handles, SimDriver, GPIODriver and Proxy are
// safe for concurrent use. Puppet methods are never called concurrently.
package gpchw
