package gpchw

import (
	"errors"
	"sync"
	"testing"
)

func newTestRegister(t *testing.T) *PinRegister {
	t.Helper()
	pr, err := NewPinRegister(DefaultBounds())
	if err != nil {
		t.Fatalf("NewPinRegister: %v", err)
	}
	return pr
}

func TestPinRegisterOutOfRange(t *testing.T) {
	pr := newTestRegister(t)

	cases := []struct {
		class Class
		ch    int
	}{
		{DigitalIn, -1},
		{DigitalIn, 8},
		{DigitalOut, 100},
		{AnalogIn, -5},
		{AnalogOut, 0},
		{AnalogOut, 4},
	}
	for _, tc := range cases {
		err := pr.Register(tc.ch, tc.class)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Register(%d, %s) = %v, want ErrOutOfRange", tc.ch, tc.class, err)
		}
		if got := pr.Snapshot().Of(tc.class); len(got) != 0 {
			t.Errorf("claims for %s changed after failed register: %v", tc.class, got)
		}
	}
}

func TestPinRegisterDoubleClaim(t *testing.T) {
	pr := newTestRegister(t)

	for _, c := range Classes {
		ch := pr.Bounds().of(c).Max
		if err := pr.Register(ch, c); err != nil {
			t.Fatalf("first Register(%d, %s): %v", ch, c, err)
		}
		if err := pr.Register(ch, c); !errors.Is(err, ErrAlreadyClaimed) {
			t.Fatalf("second Register(%d, %s) = %v, want ErrAlreadyClaimed", ch, c, err)
		}
		if got := pr.Snapshot().Of(c); len(got) != 1 {
			t.Fatalf("claims for %s = %v, want exactly one", c, got)
		}
	}
}

func TestPinRegisterClassesAreIndependent(t *testing.T) {
	pr := newTestRegister(t)

	if err := pr.Register(2, DigitalIn); err != nil {
		t.Fatal(err)
	}
	if err := pr.Register(2, DigitalOut); err != nil {
		t.Fatalf("same channel number in another class should be free: %v", err)
	}
}

func TestPinRegisterUnregister(t *testing.T) {
	pr := newTestRegister(t)

	if err := pr.Unregister(3, AnalogIn, true); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("strict Unregister of free channel = %v, want ErrNotRegistered", err)
	}
	if err := pr.Unregister(3, AnalogIn, false); err != nil {
		t.Fatalf("non-strict Unregister of free channel = %v, want nil", err)
	}
	if err := pr.Unregister(42, AnalogIn, false); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Unregister out of range = %v, want ErrOutOfRange", err)
	}

	if err := pr.Register(3, AnalogIn); err != nil {
		t.Fatal(err)
	}
	if err := pr.Unregister(3, AnalogIn, true); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if err := pr.Register(3, AnalogIn); err != nil {
		t.Fatalf("Register after Unregister: %v", err)
	}
}

func TestPinRegisterUnknownClass(t *testing.T) {
	pr := newTestRegister(t)
	if err := pr.Register(1, Class(9)); !errors.Is(err, ErrValidation) {
		t.Fatalf("Register with unknown class = %v, want ErrValidation", err)
	}
}

func TestPinRegisterInvalidBounds(t *testing.T) {
	b := DefaultBounds()
	b.AnalogIn = Range{Min: 5, Max: 2}
	if _, err := NewPinRegister(b); !errors.Is(err, ErrValidation) {
		t.Fatalf("NewPinRegister with inverted bounds = %v, want ErrValidation", err)
	}
}

func TestPinRegisterSnapshotIsCopy(t *testing.T) {
	pr := newTestRegister(t)
	for _, ch := range []int{5, 1, 3} {
		if err := pr.Register(ch, DigitalOut); err != nil {
			t.Fatal(err)
		}
	}

	snap := pr.Snapshot()
	if len(snap.DigitalOut) != 3 || snap.DigitalOut[0] != 1 || snap.DigitalOut[2] != 5 {
		t.Fatalf("snapshot = %v, want sorted [1 3 5]", snap.DigitalOut)
	}
	snap.DigitalOut[0] = 7
	snap.DigitalOut = append(snap.DigitalOut, 6)

	again := pr.Snapshot()
	if len(again.DigitalOut) != 3 || again.DigitalOut[0] != 1 {
		t.Fatalf("register changed through snapshot: %v", again.DigitalOut)
	}
	if err := pr.Register(7, DigitalOut); err != nil {
		t.Fatalf("channel 7 should still be free: %v", err)
	}
}

func TestPinRegisterAvailable(t *testing.T) {
	pr := newTestRegister(t)
	if !pr.Available(DigitalIn, 1, 2, 3) {
		t.Fatal("fresh register should have channels available")
	}
	if err := pr.Register(2, DigitalIn); err != nil {
		t.Fatal(err)
	}
	if pr.Available(DigitalIn, 1, 2, 3) {
		t.Fatal("claimed channel reported available")
	}
	if pr.Available(DigitalOut, 99) {
		t.Fatal("out-of-range channel reported available")
	}
}

// TestPinRegisterConcurrentClaim races many goroutines for one channel.
func TestPinRegisterConcurrentClaim(t *testing.T) {
	for round := 0; round < 20; round++ {
		pr := newTestRegister(t)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			conflicts int
		)
		start := make(chan struct{})
		numGoroutines := 64

		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				err := pr.Register(4, AnalogIn)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, ErrAlreadyClaimed):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()

		if successes != 1 || conflicts != numGoroutines-1 {
			t.Fatalf("round %d: %d successes, %d conflicts", round, successes, conflicts)
		}
	}
}
