package gpchw

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Driver != DriverSim || cfg.Address != 0 || cfg.InterruptPin != DefaultInterruptPin {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpchw.json")
	data := `{
		"address": 1,
		"driver": "gpio",
		"gpio": {
			"digital_inputs": {"0": "GPIO17", "1": "GPIO27"},
			"digital_outputs": {"0": "GPIO22"}
		}
	}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Address != 1 || cfg.Driver != DriverGPIO {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.InterruptPin != DefaultInterruptPin {
		t.Fatalf("InterruptPin = %q, want the default", cfg.InterruptPin)
	}
	if cfg.GPIO.DigitalInputs[1] != "GPIO27" || cfg.GPIO.DigitalOutputs[0] != "GPIO22" {
		t.Fatalf("pin map = %+v", cfg.GPIO)
	}
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"syntax.json":  `{"address": `,
		"driver.json":  `{"driver": "spi"}`,
		"nopins.json":  `{"driver": "gpio"}`,
		"address.json": `{"address": -1}`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: got %v, want ErrValidation", name, err)
		}
	}
}

func TestConfigOpenPlate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = 4
	p, err := cfg.OpenPlate()
	if err != nil {
		t.Fatal(err)
	}
	if p.Address() != 4 {
		t.Fatalf("Address() = %d", p.Address())
	}
	if _, ok := p.Driver().(*SimDriver); !ok {
		t.Fatalf("driver is %T, want *SimDriver", p.Driver())
	}
}

func TestConfigFromEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = 6
	encoded, err := cfg.encode()
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv(configEnv, encoded)
	got, err := configFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if got.Address != 6 || got.Driver != DriverSim {
		t.Fatalf("configFromEnv() = %+v", got)
	}
}
