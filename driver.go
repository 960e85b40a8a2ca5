package gpchw

// Driver is the board-family collaborator that knows how to talk to the
// hardware. All calls are addressed by plate address and channel number;
// the driver owns the wire encoding and the electrical channel limits.
type Driver interface {
	// VerifyAddress reports whether a plate may live at addr.
	VerifyAddress(addr int) bool

	// VerifyChannel reports whether ch is an electrically valid channel of
	// class c on this board family.
	VerifyChannel(c Class, ch int) bool

	ReadDigitalInput(addr, ch int) (bool, error)

	// DigitalOutput returns the current state of a digital output.
	DigitalOutput(addr, ch int) (bool, error)
	SetDigitalOutput(addr, ch int, v bool) error

	ReadAnalogInput(addr, ch int) (float64, error)

	// AnalogOutput returns the current value of an analog output.
	AnalogOutput(addr, ch int) (float64, error)
	SetAnalogOutput(addr, ch int, v float64) error
}

// Identifier is implemented by drivers that can report plate revisions.
type Identifier interface {
	FirmwareRevision(addr int) (string, error)
	HardwareRevision(addr int) (string, error)
}

// BulkAnalogReader is implemented by drivers that read all ADC channels in
// one transaction.
type BulkAnalogReader interface {
	ReadAllAnalogInputs(addr int) ([]float64, error)
}

// EventSource is implemented by drivers exposing the plate's 16-bit event
// flag register. Reading the register clears it on the plate.
type EventSource interface {
	Events(addr int) (uint16, error)
}

// RangeFinder is implemented by drivers that can trigger an ultrasonic
// range measurement on a DIN/DOUT channel pair. Distances are in cm.
type RangeFinder interface {
	Range(addr, ch int) (float64, error)
}
