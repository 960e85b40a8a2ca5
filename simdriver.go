package gpchw

import (
	"fmt"
	"sync"
)

// simPlate is the state of one simulated plate.
type simPlate struct {
	din    [8]bool
	dout   [7]bool
	ain    [8]float64
	aout   [2]float64
	ranges [8]float64
	events uint16
}

// SimDriver is an in-memory model of a DAQC plate stack. Outputs store the
// last written value so they can be read back, inputs are set by the test
// or by the program driving the simulation.
//
// SimDriver is safe for concurrent use.
type SimDriver struct {
	mu     sync.Mutex
	plates map[int]*simPlate

	// FirmwareRev and HardwareRev are reported by the Identifier methods.
	FirmwareRev string
	HardwareRev string
}

// NewSimDriver creates a simulator with plates present at the given
// addresses. With no addresses a single plate at address 0 is present.
func NewSimDriver(addrs ...int) *SimDriver {
	if len(addrs) == 0 {
		addrs = []int{0}
	}
	sd := &SimDriver{
		plates:      make(map[int]*simPlate),
		FirmwareRev: "1.03",
		HardwareRev: "Rev 2.1",
	}
	for _, a := range addrs {
		sd.plates[a] = &simPlate{}
	}
	return sd
}

// VerifyAddress accepts addresses 0-7 with a plate present.
func (sd *SimDriver) VerifyAddress(addr int) bool {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	_, ok := sd.plates[addr]
	return ok && addr >= 0 && addr <= 7
}

// VerifyChannel applies the DAQC limits: 8 digital inputs, 7 digital
// outputs, 8 ADC channels and 2 DAC channels, all numbered from zero.
func (sd *SimDriver) VerifyChannel(c Class, ch int) bool {
	switch c {
	case DigitalIn:
		return ch >= 0 && ch < 8
	case DigitalOut:
		return ch >= 0 && ch < 7
	case AnalogIn:
		return ch >= 0 && ch < 8
	case AnalogOut:
		return ch >= 0 && ch < 2
	}
	return false
}

func (sd *SimDriver) plate(addr int, c Class, ch int) (*simPlate, error) {
	p, ok := sd.plates[addr]
	if !ok {
		return nil, fmt.Errorf("%w: no plate at address %d", ErrValidation, addr)
	}
	if !sd.VerifyChannel(c, ch) {
		return nil, fmt.Errorf("%w: invalid %s channel %d", ErrValidation, c, ch)
	}
	return p, nil
}

func (sd *SimDriver) ReadDigitalInput(addr, ch int) (bool, error) {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	p, err := sd.plate(addr, DigitalIn, ch)
	if err != nil {
		return false, err
	}
	return p.din[ch], nil
}

func (sd *SimDriver) DigitalOutput(addr, ch int) (bool, error) {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	p, err := sd.plate(addr, DigitalOut, ch)
	if err != nil {
		return false, err
	}
	return p.dout[ch], nil
}

func (sd *SimDriver) SetDigitalOutput(addr, ch int, v bool) error {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	p, err := sd.plate(addr, DigitalOut, ch)
	if err != nil {
		return err
	}
	p.dout[ch] = v
	return nil
}

func (sd *SimDriver) ReadAnalogInput(addr, ch int) (float64, error) {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	p, err := sd.plate(addr, AnalogIn, ch)
	if err != nil {
		return 0, err
	}
	return p.ain[ch], nil
}

func (sd *SimDriver) AnalogOutput(addr, ch int) (float64, error) {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	p, err := sd.plate(addr, AnalogOut, ch)
	if err != nil {
		return 0, err
	}
	return p.aout[ch], nil
}

func (sd *SimDriver) SetAnalogOutput(addr, ch int, v float64) error {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	p, err := sd.plate(addr, AnalogOut, ch)
	if err != nil {
		return err
	}
	p.aout[ch] = v
	return nil
}

func (sd *SimDriver) ReadAllAnalogInputs(addr int) ([]float64, error) {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	p, err := sd.plate(addr, AnalogIn, 0)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(p.ain))
	copy(out, p.ain[:])
	return out, nil
}

func (sd *SimDriver) FirmwareRevision(addr int) (string, error) {
	if !sd.VerifyAddress(addr) {
		return "", fmt.Errorf("%w: no plate at address %d", ErrValidation, addr)
	}
	return sd.FirmwareRev, nil
}

func (sd *SimDriver) HardwareRevision(addr int) (string, error) {
	if !sd.VerifyAddress(addr) {
		return "", fmt.Errorf("%w: no plate at address %d", ErrValidation, addr)
	}
	return sd.HardwareRev, nil
}

// Events returns and clears the event register.
func (sd *SimDriver) Events(addr int) (uint16, error) {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	p, ok := sd.plates[addr]
	if !ok {
		return 0, fmt.Errorf("%w: no plate at address %d", ErrValidation, addr)
	}
	ev := p.events
	p.events = 0
	return ev, nil
}

// Range returns the simulated distance on a sonar channel (1-7).
func (sd *SimDriver) Range(addr, ch int) (float64, error) {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	p, ok := sd.plates[addr]
	if !ok {
		return 0, fmt.Errorf("%w: no plate at address %d", ErrValidation, addr)
	}
	if ch < 1 || ch > 7 {
		return 0, fmt.Errorf("%w: invalid sonar channel %d", ErrValidation, ch)
	}
	return p.ranges[ch], nil
}

// SetDigitalInput sets the level a digital input will read.
func (sd *SimDriver) SetDigitalInput(addr, ch int, v bool) error {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	p, err := sd.plate(addr, DigitalIn, ch)
	if err != nil {
		return err
	}
	p.din[ch] = v
	return nil
}

// SetAnalogInput sets the voltage an ADC channel will read.
func (sd *SimDriver) SetAnalogInput(addr, ch int, v float64) error {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	p, err := sd.plate(addr, AnalogIn, ch)
	if err != nil {
		return err
	}
	p.ain[ch] = v
	return nil
}

// RaiseEvents ORs bits into the event register.
func (sd *SimDriver) RaiseEvents(addr int, bits uint16) error {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	p, ok := sd.plates[addr]
	if !ok {
		return fmt.Errorf("%w: no plate at address %d", ErrValidation, addr)
	}
	p.events |= bits
	return nil
}

// SetRange sets the distance reported for a sonar channel.
func (sd *SimDriver) SetRange(addr, ch int, cm float64) error {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	p, ok := sd.plates[addr]
	if !ok {
		return fmt.Errorf("%w: no plate at address %d", ErrValidation, addr)
	}
	if ch < 1 || ch > 7 {
		return fmt.Errorf("%w: invalid sonar channel %d", ErrValidation, ch)
	}
	p.ranges[ch] = cm
	return nil
}
