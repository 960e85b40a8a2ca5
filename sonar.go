package gpchw

import (
	"fmt"
	"sync"
)

// sonarChannels are the DIN/DOUT pairs used to trigger and echo the
// ultrasonic sensors.
var sonarChannels = []int{1, 2, 3, 4, 5, 6, 7}

// SonarPinsAvailable reports whether the digital channels a Sonar needs are
// still free in pr. Channels beyond the register bounds cannot be claimed
// by anyone and are skipped.
func SonarPinsAvailable(pr *PinRegister) bool {
	for _, c := range []Class{DigitalIn, DigitalOut} {
		r := pr.Bounds().of(c)
		var chs []int
		for _, ch := range sonarChannels {
			if r.Contains(ch) {
				chs = append(chs, ch)
			}
		}
		if !pr.Available(c, chs...) {
			return false
		}
	}
	return true
}

// Sonar reads an array of up to seven ultrasonic range sensors wired to a
// DAQC plate.
type Sonar struct {
	finder  RangeFinder
	address int

	mu     sync.Mutex
	active [7]bool
}

// NewSonar creates a sonar array on plate. The plate's driver must
// implement RangeFinder.
func NewSonar(plate *Plate) (*Sonar, error) {
	rf, ok := plate.Driver().(RangeFinder)
	if !ok {
		return nil, fmt.Errorf("sonar on %s: %w", plate, ErrUnsupported)
	}
	return &Sonar{finder: rf, address: plate.Address()}, nil
}

func checkSonarChannel(ch int) error {
	if ch < 1 || ch > 7 {
		return fmt.Errorf("%w: sonar channel must be 1-7, not %d", ErrValidation, ch)
	}
	return nil
}

// SetActive enables measurements on ch.
func (s *Sonar) SetActive(ch int) error {
	if err := checkSonarChannel(ch); err != nil {
		return err
	}
	s.mu.Lock()
	s.active[ch-1] = true
	s.mu.Unlock()
	return nil
}

// SetInactive disables measurements on ch.
func (s *Sonar) SetInactive(ch int) error {
	if err := checkSonarChannel(ch); err != nil {
		return err
	}
	s.mu.Lock()
	s.active[ch-1] = false
	s.mu.Unlock()
	return nil
}

// Distance measures ch, which must be active.
func (s *Sonar) Distance(ch int) (float64, error) {
	if err := checkSonarChannel(ch); err != nil {
		return 0, err
	}
	s.mu.Lock()
	active := s.active[ch-1]
	s.mu.Unlock()
	if !active {
		return 0, fmt.Errorf("%w: sonar channel %d is not active", ErrValidation, ch)
	}
	return s.finder.Range(s.address, ch)
}

// DistanceFast measures ch without the active check.
func (s *Sonar) DistanceFast(ch int) (float64, error) {
	return s.finder.Range(s.address, ch)
}

// DistanceAll measures every active channel. Index i holds channel i+1;
// inactive channels are nil.
func (s *Sonar) DistanceAll() ([]*float64, error) {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()

	out := make([]*float64, len(active))
	for i, on := range active {
		if !on {
			continue
		}
		d, err := s.finder.Range(s.address, i+1)
		if err != nil {
			return nil, fmt.Errorf("sonar channel %d: %w", i+1, err)
		}
		out[i] = &d
	}
	return out, nil
}
