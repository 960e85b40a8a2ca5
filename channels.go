package gpchw

import (
	"fmt"
	"sync"
)

// channel is the state shared by all handle types.
type channel struct {
	plate  *Plate
	number int
	class  Class

	mu       sync.Mutex
	released bool
}

// Channel returns the channel number.
func (c *channel) Channel() int { return c.number }

// Address returns the address of the owning plate.
func (c *channel) Address() int { return c.plate.address }

// Class returns the channel class.
func (c *channel) Class() Class { return c.class }

func (c *channel) String() string {
	return fmt.Sprintf("%s %d on plate %d", c.class, c.number, c.plate.address)
}

// Close releases the channel's claim. Calling Close more than once is a
// no-op. The handle keeps working after Close, but another consumer may now
// claim the same channel.
func (c *channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil
	}
	c.released = true
	return c.plate.register.Unregister(c.number, c.class, false)
}

// DigitalInput reads a digital input channel.
type DigitalInput struct {
	channel
	last bool
}

// Read returns the input level.
func (d *DigitalInput) Read() (bool, error) {
	v, err := d.plate.driver.ReadDigitalInput(d.plate.address, d.number)
	if err != nil {
		return false, err
	}
	d.mu.Lock()
	d.last = v
	d.mu.Unlock()
	return v, nil
}

// State is the same as Read.
func (d *DigitalInput) State() (bool, error) { return d.Read() }

// Last returns the level seen by the most recent successful Read.
func (d *DigitalInput) Last() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// DigitalOutput drives a digital output channel.
type DigitalOutput struct {
	channel
	last bool
}

// Write sets the output level.
func (d *DigitalOutput) Write(v bool) error {
	if err := d.plate.driver.SetDigitalOutput(d.plate.address, d.number, v); err != nil {
		return err
	}
	d.mu.Lock()
	d.last = v
	d.mu.Unlock()
	return nil
}

// State reads the output level back from the plate.
func (d *DigitalOutput) State() (bool, error) {
	v, err := d.plate.driver.DigitalOutput(d.plate.address, d.number)
	if err != nil {
		return false, err
	}
	d.mu.Lock()
	d.last = v
	d.mu.Unlock()
	return v, nil
}

// Read is the same as State.
func (d *DigitalOutput) Read() (bool, error) { return d.State() }

// Last returns the most recently written or read level.
func (d *DigitalOutput) Last() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// AnalogInput reads an ADC channel. Values are volts as reported by the
// driver.
type AnalogInput struct {
	channel
	last float64
}

func (a *AnalogInput) Read() (float64, error) {
	v, err := a.plate.driver.ReadAnalogInput(a.plate.address, a.number)
	if err != nil {
		return 0, err
	}
	a.mu.Lock()
	a.last = v
	a.mu.Unlock()
	return v, nil
}

// Value is the same as Read.
func (a *AnalogInput) Value() (float64, error) { return a.Read() }

func (a *AnalogInput) Last() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// AnalogOutput drives a DAC channel.
type AnalogOutput struct {
	channel
	last float64
}

func (a *AnalogOutput) Write(v float64) error {
	if err := a.plate.driver.SetAnalogOutput(a.plate.address, a.number, v); err != nil {
		return err
	}
	a.mu.Lock()
	a.last = v
	a.mu.Unlock()
	return nil
}

// Value reads the DAC setting back from the plate.
func (a *AnalogOutput) Value() (float64, error) {
	v, err := a.plate.driver.AnalogOutput(a.plate.address, a.number)
	if err != nil {
		return 0, err
	}
	a.mu.Lock()
	a.last = v
	a.mu.Unlock()
	return v, nil
}

func (a *AnalogOutput) Last() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}
