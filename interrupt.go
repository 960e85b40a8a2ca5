package gpchw

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// InterruptBits is the width of the plate's event flag register.
const InterruptBits = 16

// edgePoll bounds how long Run waits for an edge before checking for
// cancellation.
const edgePoll = 100 * time.Millisecond

// InterruptCallback is invoked with the register bit that was set.
type InterruptCallback func(bit int)

// InterruptManager dispatches plate events. Every plate sets a bit in its
// event register and pulls the shared interrupt line low; the manager
// waits for the falling edge, reads (and so clears) the register and calls
// the callback registered for each set bit.
type InterruptManager struct {
	pin     gpio.PinIn
	events  EventSource
	address int

	mu        sync.Mutex
	callbacks [InterruptBits]InterruptCallback

	stop     chan struct{}
	stopOnce sync.Once
}

// OpenInterruptPin resolves the named header pin through periph.
func OpenInterruptPin(name string) (gpio.PinIn, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initialising gpio host: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: no gpio pin named %q", ErrValidation, name)
	}
	return p, nil
}

// NewInterruptManager configures pin as a pulled-up input triggering on
// falling edges and binds it to the plate's event register.
func NewInterruptManager(plate *Plate, pin gpio.PinIn) (*InterruptManager, error) {
	if pin == nil {
		return nil, fmt.Errorf("%w: nil interrupt pin", ErrValidation)
	}
	es, ok := plate.Driver().(EventSource)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no event register", ErrUnsupported, plate)
	}
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("configuring interrupt pin %s: %w", pin, err)
	}
	return &InterruptManager{
		pin:     pin,
		events:  es,
		address: plate.Address(),
		stop:    make(chan struct{}),
	}, nil
}

func checkBit(bit int) error {
	if bit < 0 || bit >= InterruptBits {
		return fmt.Errorf("%w: interrupt bit %d not in [0, %d]", ErrOutOfRange, bit, InterruptBits-1)
	}
	return nil
}

// RegisterCallback sets the callback for bit, replacing any previous one.
func (m *InterruptManager) RegisterCallback(bit int, fn InterruptCallback) error {
	if err := checkBit(bit); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%w: nil callback", ErrValidation)
	}
	m.mu.Lock()
	m.callbacks[bit] = fn
	m.mu.Unlock()
	return nil
}

func (m *InterruptManager) UnregisterCallback(bit int) error {
	if err := checkBit(bit); err != nil {
		return err
	}
	m.mu.Lock()
	m.callbacks[bit] = nil
	m.mu.Unlock()
	return nil
}

func (m *InterruptManager) UnregisterAll() {
	m.mu.Lock()
	m.callbacks = [InterruptBits]InterruptCallback{}
	m.mu.Unlock()
}

// ResetRegister clears pending events on the plate without touching the
// callbacks.
func (m *InterruptManager) ResetRegister() error {
	_, err := m.events.Events(m.address)
	return err
}

// Run waits for interrupts and dispatches them until ctx is done or Stop is
// called. Callbacks run on the Run goroutine, one at a time.
func (m *InterruptManager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stop:
			return nil
		default:
		}
		if m.pin.WaitForEdge(edgePoll) {
			m.dispatch()
		}
	}
}

// Stop makes Run return. It is safe to call more than once.
func (m *InterruptManager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *InterruptManager) dispatch() {
	flags, err := m.events.Events(m.address)
	if err != nil {
		log.Printf("gpchw: reading event register: %v", err)
		return
	}
	m.mu.Lock()
	callbacks := m.callbacks
	m.mu.Unlock()

	for bit := 0; bit < InterruptBits; bit++ {
		if flags&(1<<uint(bit)) != 0 && callbacks[bit] != nil {
			callbacks[bit](bit)
		}
	}
}
