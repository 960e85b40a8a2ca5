package gpchw

import (
	"errors"
	"testing"
)

func TestSonar(t *testing.T) {
	sim := NewSimDriver(0)
	plate, err := NewPlate(sim, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !SonarPinsAvailable(plate.Register()) {
		t.Fatal("fresh plate should have sonar pins available")
	}

	s, err := NewSonar(plate)
	if err != nil {
		t.Fatal(err)
	}
	if err := sim.SetRange(0, 3, 42.5); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Distance(3); !errors.Is(err, ErrValidation) {
		t.Fatalf("Distance on inactive channel = %v, want ErrValidation", err)
	}
	if err := s.SetActive(8); !errors.Is(err, ErrValidation) {
		t.Fatalf("SetActive(8) = %v, want ErrValidation", err)
	}
	if err := s.SetActive(3); err != nil {
		t.Fatal(err)
	}
	if d, err := s.Distance(3); err != nil || d != 42.5 {
		t.Fatalf("Distance(3) = %v, %v", d, err)
	}

	all, err := s.DistanceAll()
	if err != nil {
		t.Fatal(err)
	}
	for i, d := range all {
		if i == 2 {
			if d == nil || *d != 42.5 {
				t.Fatalf("DistanceAll()[2] = %v", d)
			}
			continue
		}
		if d != nil {
			t.Fatalf("inactive channel %d reported %v", i+1, *d)
		}
	}

	if err := s.SetInactive(3); err != nil {
		t.Fatal(err)
	}
	if d, err := s.DistanceFast(3); err != nil || d != 42.5 {
		t.Fatalf("DistanceFast(3) = %v, %v", d, err)
	}

	if _, err := plate.DigitalOutput(5); err != nil {
		t.Fatal(err)
	}
	if SonarPinsAvailable(plate.Register()) {
		t.Fatal("sonar pins reported available with DOUT 5 claimed")
	}
}
