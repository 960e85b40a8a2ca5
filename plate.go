package gpchw

import (
	"fmt"
)

// DAQCBounds are the register bounds of a DAQC plate.
func DAQCBounds() Bounds {
	return Bounds{
		DigitalIn:  Range{0, 7},
		DigitalOut: Range{0, 6},
		AnalogIn:   Range{0, 7},
		AnalogOut:  Range{0, 1},
	}
}

// PlateOption customises a Plate at construction.
type PlateOption func(*plateOptions)

type plateOptions struct {
	bounds   Bounds
	register *PinRegister
}

// WithBounds overrides the register bounds used by the plate.
func WithBounds(b Bounds) PlateOption {
	return func(o *plateOptions) { o.bounds = b }
}

// WithRegister makes the plate claim channels in an existing register,
// e.g. one shared with a Sonar or another consumer of the same plate.
func WithRegister(pr *PinRegister) PlateOption {
	return func(o *plateOptions) { o.register = pr }
}

// Plate is one add-on board at a fixed address. It hands out channel
// handles only after the channel passed the driver's check and was claimed
// in the plate's PinRegister.
type Plate struct {
	driver   Driver
	address  int
	register *PinRegister
}

// NewPlate binds a plate at address to driver.
func NewPlate(driver Driver, address int, opts ...PlateOption) (*Plate, error) {
	if driver == nil {
		return nil, fmt.Errorf("%w: nil driver", ErrValidation)
	}
	if !driver.VerifyAddress(address) {
		return nil, fmt.Errorf("%w: invalid plate address %d", ErrValidation, address)
	}

	o := plateOptions{bounds: DAQCBounds()}
	for _, opt := range opts {
		opt(&o)
	}
	pr := o.register
	if pr == nil {
		var err error
		if pr, err = NewPinRegister(o.bounds); err != nil {
			return nil, err
		}
	}
	return &Plate{driver: driver, address: address, register: pr}, nil
}

func (p *Plate) String() string {
	return fmt.Sprintf("DAQC plate at address %d", p.address)
}

// Address returns the plate address.
func (p *Plate) Address() int { return p.address }

// Register returns the register the plate claims channels in.
func (p *Plate) Register() *PinRegister { return p.register }

// Driver returns the plate's driver.
func (p *Plate) Driver() Driver { return p.driver }

// claim validates ch against the driver and then against the register.
func (p *Plate) claim(ch int, c Class) error {
	if !p.driver.VerifyChannel(c, ch) {
		return fmt.Errorf("%w: invalid %s channel %d", ErrValidation, c, ch)
	}
	return p.register.Register(ch, c)
}

// DigitalInput claims a digital input channel.
func (p *Plate) DigitalInput(ch int) (*DigitalInput, error) {
	if err := p.claim(ch, DigitalIn); err != nil {
		return nil, err
	}
	return &DigitalInput{channel: channel{plate: p, number: ch, class: DigitalIn}}, nil
}

// DigitalOutput claims a digital output channel.
func (p *Plate) DigitalOutput(ch int) (*DigitalOutput, error) {
	if err := p.claim(ch, DigitalOut); err != nil {
		return nil, err
	}
	return &DigitalOutput{channel: channel{plate: p, number: ch, class: DigitalOut}}, nil
}

// AnalogInput claims an ADC channel.
func (p *Plate) AnalogInput(ch int) (*AnalogInput, error) {
	if err := p.claim(ch, AnalogIn); err != nil {
		return nil, err
	}
	return &AnalogInput{channel: channel{plate: p, number: ch, class: AnalogIn}}, nil
}

// AnalogOutput claims a DAC channel.
func (p *Plate) AnalogOutput(ch int) (*AnalogOutput, error) {
	if err := p.claim(ch, AnalogOut); err != nil {
		return nil, err
	}
	return &AnalogOutput{channel: channel{plate: p, number: ch, class: AnalogOut}}, nil
}

// Release frees a claim made through one of the channel factories. Handles
// do not release their claim when garbage collected; use Release or the
// handle's Close.
func (p *Plate) Release(ch int, c Class, strict bool) error {
	return p.register.Unregister(ch, c, strict)
}

// Claims returns a copy of the plate's claimed channels.
func (p *Plate) Claims() Claims {
	return p.register.Snapshot()
}

// ReadADC reads an ADC channel without claiming it.
func (p *Plate) ReadADC(ch int) (float64, error) {
	if !p.driver.VerifyChannel(AnalogIn, ch) {
		return 0, fmt.Errorf("%w: invalid %s channel %d", ErrValidation, AnalogIn, ch)
	}
	return p.driver.ReadAnalogInput(p.address, ch)
}

// ReadAllADCs reads every ADC channel. Drivers without a bulk read are
// queried channel by channel.
func (p *Plate) ReadAllADCs() ([]float64, error) {
	if bulk, ok := p.driver.(BulkAnalogReader); ok {
		return bulk.ReadAllAnalogInputs(p.address)
	}
	r := p.register.Bounds().AnalogIn
	var out []float64
	for ch := r.Min; ch <= r.Max; ch++ {
		if !p.driver.VerifyChannel(AnalogIn, ch) {
			continue
		}
		v, err := p.driver.ReadAnalogInput(p.address, ch)
		if err != nil {
			return nil, fmt.Errorf("reading ADC %d: %w", ch, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// FirmwareVersion returns the plate firmware revision.
func (p *Plate) FirmwareVersion() (Version, error) {
	id, ok := p.driver.(Identifier)
	if !ok {
		return Version{}, ErrUnsupported
	}
	rev, err := id.FirmwareRevision(p.address)
	if err != nil {
		return Version{}, err
	}
	return ParseRevision(rev)
}

// HardwareVersion returns the plate hardware revision.
func (p *Plate) HardwareVersion() (Version, error) {
	id, ok := p.driver.(Identifier)
	if !ok {
		return Version{}, ErrUnsupported
	}
	rev, err := id.HardwareRevision(p.address)
	if err != nil {
		return Version{}, err
	}
	return ParseRevision(rev)
}
