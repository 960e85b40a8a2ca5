package gpchw

import (
	"errors"
	"reflect"
	"testing"
)

func TestPlateServiceClaimsOnFirstUse(t *testing.T) {
	p, sim := newTestPlate(t)
	svc := NewPlateService(p)
	defer svc.Close()

	if err := sim.SetDigitalInput(3, 2, true); err != nil {
		t.Fatal(err)
	}
	v, err := svc.ReadDigitalInput(2)
	if err != nil || !v {
		t.Fatalf("ReadDigitalInput(2) = %v, %v", v, err)
	}
	// A second read reuses the claim.
	if _, err := svc.ReadDigitalInput(2); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if err := svc.Claim(DigitalIn, 2); err != nil {
		t.Fatalf("Claim of a held channel: %v", err)
	}

	claims, _ := svc.Claims()
	if !reflect.DeepEqual(claims.DigitalIn, []int{2}) {
		t.Fatalf("claims = %+v", claims)
	}

	// The register is shared with direct plate users.
	if _, err := p.DigitalInput(2); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("direct claim of a service channel = %v, want ErrAlreadyClaimed", err)
	}

	if err := svc.Release(DigitalIn, 2); err != nil {
		t.Fatal(err)
	}
	if err := svc.Release(DigitalIn, 2); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("second Release = %v, want ErrNotRegistered", err)
	}
}

func TestPlateServiceOutputs(t *testing.T) {
	p, _ := newTestPlate(t)
	svc := NewPlateService(p)

	if err := svc.WriteDigitalOutput(6, true); err != nil {
		t.Fatal(err)
	}
	if v, err := svc.DigitalOutputState(6); err != nil || !v {
		t.Fatalf("DigitalOutputState(6) = %v, %v", v, err)
	}
	if err := svc.WriteAnalogOutput(1, 2.5); err != nil {
		t.Fatal(err)
	}
	if v, err := svc.AnalogOutputValue(1); err != nil || v != 2.5 {
		t.Fatalf("AnalogOutputValue(1) = %v, %v", v, err)
	}
	if err := svc.WriteDigitalOutput(7, true); !errors.Is(err, ErrValidation) {
		t.Fatalf("WriteDigitalOutput(7) = %v, want ErrValidation", err)
	}

	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}
	claims := p.Claims()
	if len(claims.DigitalOut) != 0 || len(claims.AnalogOut) != 0 {
		t.Fatalf("Close left claims behind: %+v", claims)
	}
}

func TestPlateServiceInfo(t *testing.T) {
	p, _ := newTestPlate(t)
	info, err := NewPlateService(p).Info()
	if err != nil {
		t.Fatal(err)
	}
	want := PlateInfo{Address: 3, Firmware: "1.03", Hardware: "Rev 2.1"}
	if info != want {
		t.Fatalf("Info() = %+v, want %+v", info, want)
	}
}

func TestPlateClientInWorker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = 2
	pc, err := NewPlateClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewPlateClient: %v", err)
	}
	defer pc.Close()

	info, err := pc.Info()
	if err != nil {
		t.Fatal(err)
	}
	if info.Address != 2 || info.Firmware != "1.03" {
		t.Fatalf("Info() = %+v", info)
	}

	if err := pc.WriteDigitalOutput(3, true); err != nil {
		t.Fatal(err)
	}
	if v, err := pc.DigitalOutputState(3); err != nil || !v {
		t.Fatalf("DigitalOutputState(3) = %v, %v", v, err)
	}
	if err := pc.WriteAnalogOutput(0, 1.25); err != nil {
		t.Fatal(err)
	}
	if v, err := pc.AnalogOutputValue(0); err != nil || v != 1.25 {
		t.Fatalf("AnalogOutputValue(0) = %v, %v", v, err)
	}
	if v, err := pc.ReadDigitalInput(0); err != nil || v {
		t.Fatalf("ReadDigitalInput(0) = %v, %v", v, err)
	}
	if v, err := pc.ReadAnalogInput(5); err != nil || v != 0 {
		t.Fatalf("ReadAnalogInput(5) = %v, %v", v, err)
	}
	adcs, err := pc.ReadAllADCs()
	if err != nil || len(adcs) != 8 {
		t.Fatalf("ReadAllADCs() = %v, %v", adcs, err)
	}

	if err := pc.Claim(AnalogIn, 7); err != nil {
		t.Fatal(err)
	}
	claims, err := pc.Claims()
	if err != nil {
		t.Fatal(err)
	}
	want := Claims{
		DigitalIn:  []int{0},
		DigitalOut: []int{3},
		AnalogIn:   []int{5, 7},
		AnalogOut:  []int{0},
	}
	if !reflect.DeepEqual(claims, want) {
		t.Fatalf("Claims() = %+v, want %+v", claims, want)
	}

	// Errors keep their identity across the process boundary.
	if err := pc.WriteAnalogOutput(2, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("WriteAnalogOutput(2) = %v, want ErrValidation", err)
	}
	if err := pc.Release(DigitalOut, 5); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("Release of unheld channel = %v, want ErrNotRegistered", err)
	}
	if err := pc.Release(DigitalOut, 3); err != nil {
		t.Fatal(err)
	}

	if err := pc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := pc.Info(); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("Info after Close = %v, want ErrChannelClosed", err)
	}
}

func TestPlateClientRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Driver = "spi"
	if _, err := NewPlateClient(cfg, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestPlateClientMissingPlate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = 9
	_, err := NewPlateClient(cfg, nil)
	var re *RemoteError
	if !errors.As(err, &re) || re.Kind != KindConstruction {
		t.Fatalf("got %v, want a %s RemoteError", err, KindConstruction)
	}
}
