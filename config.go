package gpchw

import (
	"encoding/json"
	"fmt"
	"os"
)

// Driver names accepted in Config.Driver.
const (
	DriverSim  = "sim"
	DriverGPIO = "gpio"
)

// DefaultInterruptPin is the header line the plates pull low to signal an
// event.
const DefaultInterruptPin = "GPIO20"

// configEnv carries a JSON encoded Config from a caller to the daqc worker.
const configEnv = "GPCHW_CONFIG_JSON"

// Config selects the plate and the driver used to reach it.
type Config struct {
	Address      int        `json:"address"`
	Driver       string     `json:"driver"`
	InterruptPin string     `json:"interrupt_pin"`
	GPIO         GPIOPinMap `json:"gpio"`
}

// DefaultConfig returns the configuration used when no file exists: a
// simulated plate at address 0.
func DefaultConfig() Config {
	return Config{
		Address:      0,
		Driver:       DriverSim,
		InterruptPin: DefaultInterruptPin,
	}
}

// LoadConfig reads configuration from path. Fields missing from the file
// keep their defaults, and a missing file yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("unable to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: invalid %s: %v", ErrValidation, path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the fields that do not depend on hardware.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSim:
	case DriverGPIO:
		if len(c.GPIO.DigitalInputs) == 0 && len(c.GPIO.DigitalOutputs) == 0 {
			return fmt.Errorf("%w: gpio driver needs a pin map", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrValidation, c.Driver)
	}
	if c.Address < 0 {
		return fmt.Errorf("%w: negative address %d", ErrValidation, c.Address)
	}
	return nil
}

// OpenDriver constructs the driver named by the configuration.
func (c Config) OpenDriver() (Driver, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Driver == DriverGPIO {
		return NewGPIODriver(c.GPIO)
	}
	return NewSimDriver(c.Address), nil
}

// OpenPlate opens the driver and the plate at the configured address.
func (c Config) OpenPlate() (*Plate, error) {
	d, err := c.OpenDriver()
	if err != nil {
		return nil, err
	}
	var opts []PlateOption
	if b, ok := d.(interface{ Bounds() Bounds }); ok {
		opts = append(opts, WithBounds(b.Bounds()))
	}
	return NewPlate(d, c.Address, opts...)
}

func (c Config) encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// configFromEnv returns the configuration handed to a worker, or the
// defaults when none was passed.
func configFromEnv() (Config, error) {
	raw, ok := os.LookupEnv(configEnv)
	if !ok {
		return DefaultConfig(), nil
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrValidation, configEnv, err)
	}
	return cfg, nil
}
