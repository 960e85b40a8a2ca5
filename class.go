package gpchw

import "fmt"

// Class identifies the kind of I/O channel on a plate.
type Class int

const (
	DigitalIn Class = iota
	DigitalOut
	AnalogIn
	AnalogOut
)

// Classes lists every channel class in register order.
var Classes = []Class{DigitalIn, DigitalOut, AnalogIn, AnalogOut}

func (c Class) String() string {
	switch c {
	case DigitalIn:
		return "digital-in"
	case DigitalOut:
		return "digital-out"
	case AnalogIn:
		return "analog-in"
	case AnalogOut:
		return "analog-out"
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// Valid reports whether c is one of the four known classes.
func (c Class) Valid() bool {
	return c >= DigitalIn && c <= AnalogOut
}

// ParseClass converts the String form (or the short din/dout/ain/aout
// aliases) back into a Class.
func ParseClass(s string) (Class, error) {
	switch s {
	case "digital-in", "din":
		return DigitalIn, nil
	case "digital-out", "dout":
		return DigitalOut, nil
	case "analog-in", "ain":
		return AnalogIn, nil
	case "analog-out", "aout":
		return AnalogOut, nil
	}
	return 0, fmt.Errorf("%w: unknown channel class %q", ErrValidation, s)
}
