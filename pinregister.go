package gpchw

import (
	"fmt"
	"sort"
	"sync"
)

// Range is an inclusive channel number interval.
type Range struct {
	Min int
	Max int
}

// Contains reports whether ch lies inside the interval.
func (r Range) Contains(ch int) bool {
	return ch >= r.Min && ch <= r.Max
}

// Bounds holds the valid channel interval for each class.
type Bounds struct {
	DigitalIn  Range
	DigitalOut Range
	AnalogIn   Range
	AnalogOut  Range
}

// DefaultBounds returns the bounds used when a register is created without
// knowledge of a specific plate.
func DefaultBounds() Bounds {
	return Bounds{
		DigitalIn:  Range{0, 7},
		DigitalOut: Range{0, 7},
		AnalogIn:   Range{0, 7},
		AnalogOut:  Range{1, 3},
	}
}

func (b Bounds) of(c Class) Range {
	switch c {
	case DigitalIn:
		return b.DigitalIn
	case DigitalOut:
		return b.DigitalOut
	case AnalogIn:
		return b.AnalogIn
	}
	return b.AnalogOut
}

// Claims is a copy of the claimed channels per class, each sorted ascending.
type Claims struct {
	DigitalIn  []int
	DigitalOut []int
	AnalogIn   []int
	AnalogOut  []int
}

// Of returns the claimed channels for class c.
func (c Claims) Of(class Class) []int {
	switch class {
	case DigitalIn:
		return c.DigitalIn
	case DigitalOut:
		return c.DigitalOut
	case AnalogIn:
		return c.AnalogIn
	case AnalogOut:
		return c.AnalogOut
	}
	return nil
}

// PinRegister keeps track of which channels are in use on one plate.
//
// PinRegister is safe for concurrent use. Every check-and-mutate sequence
// runs under a single mutex, so two goroutines can never both claim the same
// channel.
type PinRegister struct {
	bounds Bounds

	mu     sync.Mutex
	claims [4]map[int]struct{}
}

// NewPinRegister creates an empty register with the given bounds.
func NewPinRegister(bounds Bounds) (*PinRegister, error) {
	for _, c := range Classes {
		r := bounds.of(c)
		if r.Min < 0 || r.Max < r.Min {
			return nil, fmt.Errorf("%w: invalid %s bounds [%d, %d]", ErrValidation, c, r.Min, r.Max)
		}
	}
	pr := &PinRegister{bounds: bounds}
	for i := range pr.claims {
		pr.claims[i] = make(map[int]struct{})
	}
	return pr, nil
}

// Bounds returns the bounds the register was created with.
func (pr *PinRegister) Bounds() Bounds {
	return pr.bounds
}

func (pr *PinRegister) check(ch int, c Class) error {
	if !c.Valid() {
		return fmt.Errorf("%w: unknown channel class %d", ErrValidation, int(c))
	}
	if r := pr.bounds.of(c); !r.Contains(ch) {
		return fmt.Errorf("%w: %s channel %d not in [%d, %d]", ErrOutOfRange, c, ch, r.Min, r.Max)
	}
	return nil
}

// Register claims channel ch of class c.
func (pr *PinRegister) Register(ch int, c Class) error {
	if err := pr.check(ch, c); err != nil {
		return err
	}

	pr.mu.Lock()
	defer pr.mu.Unlock()
	set := pr.claims[c]
	if _, taken := set[ch]; taken {
		return fmt.Errorf("%w: %s channel %d", ErrAlreadyClaimed, c, ch)
	}
	set[ch] = struct{}{}
	return nil
}

// Unregister releases channel ch of class c. When strict is false, releasing
// a channel that is not claimed is a no-op instead of ErrNotRegistered.
func (pr *PinRegister) Unregister(ch int, c Class, strict bool) error {
	if err := pr.check(ch, c); err != nil {
		return err
	}

	pr.mu.Lock()
	defer pr.mu.Unlock()
	set := pr.claims[c]
	if _, taken := set[ch]; !taken {
		if strict {
			return fmt.Errorf("%w: %s channel %d", ErrNotRegistered, c, ch)
		}
		return nil
	}
	delete(set, ch)
	return nil
}

// Available reports whether none of the given channels of class c is
// claimed. Channels outside the bounds are never available.
func (pr *PinRegister) Available(c Class, channels ...int) bool {
	for _, ch := range channels {
		if pr.check(ch, c) != nil {
			return false
		}
	}

	pr.mu.Lock()
	defer pr.mu.Unlock()
	for _, ch := range channels {
		if _, taken := pr.claims[c][ch]; taken {
			return false
		}
	}
	return true
}

// Snapshot returns a copy of all claims. Changing the result does not
// affect the register.
func (pr *PinRegister) Snapshot() Claims {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return Claims{
		DigitalIn:  sortedKeys(pr.claims[DigitalIn]),
		DigitalOut: sortedKeys(pr.claims[DigitalOut]),
		AnalogIn:   sortedKeys(pr.claims[AnalogIn]),
		AnalogOut:  sortedKeys(pr.claims[AnalogOut]),
	}
}

func sortedKeys(set map[int]struct{}) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
