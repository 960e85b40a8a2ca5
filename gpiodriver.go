package gpchw

import (
	"fmt"
	"sort"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOPinMap assigns header pins, by periph name such as "GPIO17", to
// digital channel numbers.
type GPIOPinMap struct {
	DigitalInputs  map[int]string `json:"digital_inputs,omitempty"`
	DigitalOutputs map[int]string `json:"digital_outputs,omitempty"`
}

// GPIODriver drives the Raspberry Pi header pins directly as one plate at
// address 0. It only has digital channels; analog calls fail with
// ErrUnsupported.
type GPIODriver struct {
	mu      sync.Mutex
	inputs  map[int]gpio.PinIO
	outputs map[int]gpio.PinIO
}

// NewGPIODriver initialises the periph host drivers and resolves every
// pin in m.
func NewGPIODriver(m GPIOPinMap) (*GPIODriver, error) {
	// host.Init can safely be called more than once.
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initialising gpio host: %w", err)
	}
	inputs, err := resolvePins(m.DigitalInputs)
	if err != nil {
		return nil, err
	}
	outputs, err := resolvePins(m.DigitalOutputs)
	if err != nil {
		return nil, err
	}
	return newGPIODriver(inputs, outputs)
}

func resolvePins(names map[int]string) (map[int]gpio.PinIO, error) {
	pins := make(map[int]gpio.PinIO, len(names))
	for ch, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("%w: no gpio pin named %q", ErrValidation, name)
		}
		pins[ch] = p
	}
	return pins, nil
}

// newGPIODriver configures already resolved pins: inputs without pull
// change, outputs driven low.
func newGPIODriver(inputs, outputs map[int]gpio.PinIO) (*GPIODriver, error) {
	for ch, p := range inputs {
		if ch < 0 {
			return nil, fmt.Errorf("%w: negative digital-in channel %d", ErrValidation, ch)
		}
		if err := p.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configuring %s as input: %w", p, err)
		}
	}
	for ch, p := range outputs {
		if ch < 0 {
			return nil, fmt.Errorf("%w: negative digital-out channel %d", ErrValidation, ch)
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("configuring %s as output: %w", p, err)
		}
	}
	return &GPIODriver{inputs: inputs, outputs: outputs}, nil
}

// Bounds spans the mapped channel numbers, so a plate over this driver
// claims exactly the channels the pin map names.
func (d *GPIODriver) Bounds() Bounds {
	return Bounds{
		DigitalIn:  keyRange(d.inputs),
		DigitalOut: keyRange(d.outputs),
	}
}

func keyRange(pins map[int]gpio.PinIO) Range {
	if len(pins) == 0 {
		return Range{}
	}
	keys := make([]int, 0, len(pins))
	for k := range pins {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return Range{Min: keys[0], Max: keys[len(keys)-1]}
}

func (d *GPIODriver) VerifyAddress(addr int) bool { return addr == 0 }

func (d *GPIODriver) VerifyChannel(c Class, ch int) bool {
	switch c {
	case DigitalIn:
		_, ok := d.inputs[ch]
		return ok
	case DigitalOut:
		_, ok := d.outputs[ch]
		return ok
	}
	return false
}

func (d *GPIODriver) pin(pins map[int]gpio.PinIO, addr int, c Class, ch int) (gpio.PinIO, error) {
	if !d.VerifyAddress(addr) {
		return nil, fmt.Errorf("%w: no plate at address %d", ErrValidation, addr)
	}
	p, ok := pins[ch]
	if !ok {
		return nil, fmt.Errorf("%w: invalid %s channel %d", ErrValidation, c, ch)
	}
	return p, nil
}

func (d *GPIODriver) ReadDigitalInput(addr, ch int) (bool, error) {
	p, err := d.pin(d.inputs, addr, DigitalIn, ch)
	if err != nil {
		return false, err
	}
	return p.Read() == gpio.High, nil
}

func (d *GPIODriver) DigitalOutput(addr, ch int) (bool, error) {
	p, err := d.pin(d.outputs, addr, DigitalOut, ch)
	if err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return p.Read() == gpio.High, nil
}

func (d *GPIODriver) SetDigitalOutput(addr, ch int, v bool) error {
	p, err := d.pin(d.outputs, addr, DigitalOut, ch)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return p.Out(gpio.Level(v))
}

func (d *GPIODriver) ReadAnalogInput(addr, ch int) (float64, error) {
	return 0, fmt.Errorf("%w: analog input on gpio header", ErrUnsupported)
}

func (d *GPIODriver) AnalogOutput(addr, ch int) (float64, error) {
	return 0, fmt.Errorf("%w: analog output on gpio header", ErrUnsupported)
}

func (d *GPIODriver) SetAnalogOutput(addr, ch int, v float64) error {
	return fmt.Errorf("%w: analog output on gpio header", ErrUnsupported)
}
