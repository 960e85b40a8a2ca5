package gpchw

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func newTestGPIODriver(t *testing.T) (*GPIODriver, *gpiotest.Pin, *gpiotest.Pin) {
	t.Helper()
	in := &gpiotest.Pin{N: "GPIO17", Num: 17, L: gpio.High}
	out := &gpiotest.Pin{N: "GPIO22", Num: 22, L: gpio.High}
	d, err := newGPIODriver(map[int]gpio.PinIO{2: in}, map[int]gpio.PinIO{5: out})
	if err != nil {
		t.Fatal(err)
	}
	return d, in, out
}

func TestGPIODriverDigital(t *testing.T) {
	d, in, out := newTestGPIODriver(t)

	if out.Read() != gpio.Low {
		t.Fatal("outputs must start low")
	}

	v, err := d.ReadDigitalInput(0, 2)
	if err != nil || !v {
		t.Fatalf("ReadDigitalInput = %v, %v", v, err)
	}
	in.Out(gpio.Low)
	if v, _ := d.ReadDigitalInput(0, 2); v {
		t.Fatal("input did not follow the pin")
	}

	if err := d.SetDigitalOutput(0, 5, true); err != nil {
		t.Fatal(err)
	}
	if out.Read() != gpio.High {
		t.Fatal("SetDigitalOutput did not drive the pin")
	}
	if v, err := d.DigitalOutput(0, 5); err != nil || !v {
		t.Fatalf("DigitalOutput = %v, %v", v, err)
	}
}

func TestGPIODriverValidation(t *testing.T) {
	d, _, _ := newTestGPIODriver(t)

	if d.VerifyAddress(1) || !d.VerifyAddress(0) {
		t.Fatal("only address 0 is valid")
	}
	if !d.VerifyChannel(DigitalIn, 2) || d.VerifyChannel(DigitalIn, 5) {
		t.Fatal("digital-in channels must come from the pin map")
	}
	if d.VerifyChannel(AnalogIn, 0) {
		t.Fatal("gpio has no analog channels")
	}
	if _, err := d.ReadDigitalInput(1, 2); !errors.Is(err, ErrValidation) {
		t.Fatalf("wrong address: %v", err)
	}
	if _, err := d.ReadDigitalInput(0, 3); !errors.Is(err, ErrValidation) {
		t.Fatalf("unmapped channel: %v", err)
	}
	if _, err := d.ReadAnalogInput(0, 0); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("ReadAnalogInput: %v", err)
	}
	if err := d.SetAnalogOutput(0, 0, 1); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("SetAnalogOutput: %v", err)
	}
}

func TestGPIODriverPlate(t *testing.T) {
	d, _, _ := newTestGPIODriver(t)

	b := d.Bounds()
	if b.DigitalIn != (Range{Min: 2, Max: 2}) || b.DigitalOut != (Range{Min: 5, Max: 5}) {
		t.Fatalf("Bounds() = %+v", b)
	}

	p, err := NewPlate(d, 0, WithBounds(b))
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.DigitalOutput(5)
	if err != nil {
		t.Fatal(err)
	}
	if err := out.Write(true); err != nil {
		t.Fatal(err)
	}
	if _, err := p.AnalogInput(0); !errors.Is(err, ErrValidation) {
		t.Fatalf("AnalogInput on gpio = %v, want ErrValidation", err)
	}
}
