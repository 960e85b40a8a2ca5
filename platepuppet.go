package gpchw

import (
	"fmt"
	"sync"
)

// PlatePuppetName is the registered name of the puppet that hosts a plate
// in a worker process.
const PlatePuppetName = "daqc"

func init() {
	RegisterPuppet(PlatePuppetName, func() (Puppet, error) {
		cfg, err := configFromEnv()
		if err != nil {
			return nil, err
		}
		plate, err := cfg.OpenPlate()
		if err != nil {
			return nil, err
		}
		return newPlateService(plate), nil
	})
}

// PlateInfo identifies a plate.
type PlateInfo struct {
	Address  int    `msgpack:"address"`
	Firmware string `msgpack:"firmware"`
	Hardware string `msgpack:"hardware"`
}

// PlateService is the channel-level surface of one plate. It is served in
// process by OpenPlateService and across a process boundary by
// PlateClient.
//
// Reads and writes on a channel claim it on first use; the claim is held
// until Release or Close.
type PlateService interface {
	Claim(c Class, ch int) error
	Release(c Class, ch int) error
	ReadDigitalInput(ch int) (bool, error)
	WriteDigitalOutput(ch int, v bool) error
	DigitalOutputState(ch int) (bool, error)
	ReadAnalogInput(ch int) (float64, error)
	WriteAnalogOutput(ch int, v float64) error
	AnalogOutputValue(ch int) (float64, error)
	ReadAllADCs() ([]float64, error)
	Info() (PlateInfo, error)
	Claims() (Claims, error)
	Close() error
}

var (
	_ PlateService = (*plateService)(nil)
	_ Puppet       = (*plateService)(nil)
	_ PlateService = (*PlateClient)(nil)
)

// plateService keeps one handle per claimed channel.
type plateService struct {
	plate *Plate

	mu   sync.Mutex
	din  map[int]*DigitalInput
	dout map[int]*DigitalOutput
	ain  map[int]*AnalogInput
	aout map[int]*AnalogOutput
}

// OpenPlateService opens the plate described by cfg.
func OpenPlateService(cfg Config) (PlateService, error) {
	plate, err := cfg.OpenPlate()
	if err != nil {
		return nil, err
	}
	return newPlateService(plate), nil
}

// NewPlateService serves an already opened plate.
func NewPlateService(plate *Plate) PlateService {
	return newPlateService(plate)
}

func newPlateService(plate *Plate) *plateService {
	return &plateService{
		plate: plate,
		din:   make(map[int]*DigitalInput),
		dout:  make(map[int]*DigitalOutput),
		ain:   make(map[int]*AnalogInput),
		aout:  make(map[int]*AnalogOutput),
	}
}

// Claim takes ch without touching the hardware. Claiming a channel the
// service already holds is a no-op.
func (s *plateService) Claim(c Class, ch int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimLocked(c, ch)
}

func (s *plateService) claimLocked(c Class, ch int) error {
	var err error
	switch c {
	case DigitalIn:
		if _, ok := s.din[ch]; !ok {
			var h *DigitalInput
			if h, err = s.plate.DigitalInput(ch); err == nil {
				s.din[ch] = h
			}
		}
	case DigitalOut:
		if _, ok := s.dout[ch]; !ok {
			var h *DigitalOutput
			if h, err = s.plate.DigitalOutput(ch); err == nil {
				s.dout[ch] = h
			}
		}
	case AnalogIn:
		if _, ok := s.ain[ch]; !ok {
			var h *AnalogInput
			if h, err = s.plate.AnalogInput(ch); err == nil {
				s.ain[ch] = h
			}
		}
	case AnalogOut:
		if _, ok := s.aout[ch]; !ok {
			var h *AnalogOutput
			if h, err = s.plate.AnalogOutput(ch); err == nil {
				s.aout[ch] = h
			}
		}
	default:
		err = fmt.Errorf("%w: unknown class %d", ErrValidation, int(c))
	}
	return err
}

// Release closes the handle for ch. Releasing a channel the service does
// not hold fails with ErrNotRegistered.
func (s *plateService) Release(c Class, ch int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var h interface{ Close() error }
	switch c {
	case DigitalIn:
		if d, ok := s.din[ch]; ok {
			h = d
			delete(s.din, ch)
		}
	case DigitalOut:
		if d, ok := s.dout[ch]; ok {
			h = d
			delete(s.dout, ch)
		}
	case AnalogIn:
		if a, ok := s.ain[ch]; ok {
			h = a
			delete(s.ain, ch)
		}
	case AnalogOut:
		if a, ok := s.aout[ch]; ok {
			h = a
			delete(s.aout, ch)
		}
	default:
		return fmt.Errorf("%w: unknown class %d", ErrValidation, int(c))
	}
	if h == nil {
		return fmt.Errorf("%w: %s channel %d", ErrNotRegistered, c, ch)
	}
	return h.Close()
}

func (s *plateService) digitalIn(ch int) (*DigitalInput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claimLocked(DigitalIn, ch); err != nil {
		return nil, err
	}
	return s.din[ch], nil
}

func (s *plateService) digitalOut(ch int) (*DigitalOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claimLocked(DigitalOut, ch); err != nil {
		return nil, err
	}
	return s.dout[ch], nil
}

func (s *plateService) analogIn(ch int) (*AnalogInput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claimLocked(AnalogIn, ch); err != nil {
		return nil, err
	}
	return s.ain[ch], nil
}

func (s *plateService) analogOut(ch int) (*AnalogOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claimLocked(AnalogOut, ch); err != nil {
		return nil, err
	}
	return s.aout[ch], nil
}

func (s *plateService) ReadDigitalInput(ch int) (bool, error) {
	h, err := s.digitalIn(ch)
	if err != nil {
		return false, err
	}
	return h.Read()
}

func (s *plateService) WriteDigitalOutput(ch int, v bool) error {
	h, err := s.digitalOut(ch)
	if err != nil {
		return err
	}
	return h.Write(v)
}

func (s *plateService) DigitalOutputState(ch int) (bool, error) {
	h, err := s.digitalOut(ch)
	if err != nil {
		return false, err
	}
	return h.State()
}

func (s *plateService) ReadAnalogInput(ch int) (float64, error) {
	h, err := s.analogIn(ch)
	if err != nil {
		return 0, err
	}
	return h.Read()
}

func (s *plateService) WriteAnalogOutput(ch int, v float64) error {
	h, err := s.analogOut(ch)
	if err != nil {
		return err
	}
	return h.Write(v)
}

func (s *plateService) AnalogOutputValue(ch int) (float64, error) {
	h, err := s.analogOut(ch)
	if err != nil {
		return 0, err
	}
	return h.Value()
}

func (s *plateService) ReadAllADCs() ([]float64, error) {
	return s.plate.ReadAllADCs()
}

// Info reports revisions when the driver knows them and leaves them empty
// otherwise.
func (s *plateService) Info() (PlateInfo, error) {
	info := PlateInfo{Address: s.plate.Address()}
	id, ok := s.plate.Driver().(Identifier)
	if !ok {
		return info, nil
	}
	var err error
	if info.Firmware, err = id.FirmwareRevision(info.Address); err != nil {
		return info, err
	}
	if info.Hardware, err = id.HardwareRevision(info.Address); err != nil {
		return info, err
	}
	return info, nil
}

func (s *plateService) Claims() (Claims, error) {
	return s.plate.Claims(), nil
}

// Close releases every claim the service holds.
func (s *plateService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.din {
		h.Close()
	}
	for _, h := range s.dout {
		h.Close()
	}
	for _, h := range s.ain {
		h.Close()
	}
	for _, h := range s.aout {
		h.Close()
	}
	s.din = make(map[int]*DigitalInput)
	s.dout = make(map[int]*DigitalOutput)
	s.ain = make(map[int]*AnalogInput)
	s.aout = make(map[int]*AnalogOutput)
	return nil
}

// Methods exposes the service to a worker Host. Classes travel by name.
func (s *plateService) Methods() map[string]Handler {
	classAndChannel := func(a Args) (Class, int, error) {
		if err := a.Expect(2); err != nil {
			return 0, 0, err
		}
		name, err := a.Text(0)
		if err != nil {
			return 0, 0, err
		}
		c, err := ParseClass(name)
		if err != nil {
			return 0, 0, a.badf("%v", err)
		}
		ch, err := a.Int(1)
		return c, ch, err
	}
	channelOnly := func(a Args) (int, error) {
		if err := a.Expect(1); err != nil {
			return 0, err
		}
		return a.Int(0)
	}

	return map[string]Handler{
		"Claim": func(a Args) (interface{}, error) {
			c, ch, err := classAndChannel(a)
			if err != nil {
				return nil, err
			}
			return nil, s.Claim(c, ch)
		},
		"Release": func(a Args) (interface{}, error) {
			c, ch, err := classAndChannel(a)
			if err != nil {
				return nil, err
			}
			return nil, s.Release(c, ch)
		},
		"ReadDigitalInput": func(a Args) (interface{}, error) {
			ch, err := channelOnly(a)
			if err != nil {
				return nil, err
			}
			return s.ReadDigitalInput(ch)
		},
		"WriteDigitalOutput": func(a Args) (interface{}, error) {
			if err := a.Expect(2); err != nil {
				return nil, err
			}
			ch, err := a.Int(0)
			if err != nil {
				return nil, err
			}
			v, err := a.Bool(1)
			if err != nil {
				return nil, err
			}
			return nil, s.WriteDigitalOutput(ch, v)
		},
		"DigitalOutputState": func(a Args) (interface{}, error) {
			ch, err := channelOnly(a)
			if err != nil {
				return nil, err
			}
			return s.DigitalOutputState(ch)
		},
		"ReadAnalogInput": func(a Args) (interface{}, error) {
			ch, err := channelOnly(a)
			if err != nil {
				return nil, err
			}
			return s.ReadAnalogInput(ch)
		},
		"WriteAnalogOutput": func(a Args) (interface{}, error) {
			if err := a.Expect(2); err != nil {
				return nil, err
			}
			ch, err := a.Int(0)
			if err != nil {
				return nil, err
			}
			v, err := a.Float(1)
			if err != nil {
				return nil, err
			}
			return nil, s.WriteAnalogOutput(ch, v)
		},
		"AnalogOutputValue": func(a Args) (interface{}, error) {
			ch, err := channelOnly(a)
			if err != nil {
				return nil, err
			}
			return s.AnalogOutputValue(ch)
		},
		"ReadAllADCs": func(a Args) (interface{}, error) {
			if err := a.Expect(0); err != nil {
				return nil, err
			}
			return s.ReadAllADCs()
		},
		"Info": func(a Args) (interface{}, error) {
			if err := a.Expect(0); err != nil {
				return nil, err
			}
			return s.Info()
		},
		"Claims": func(a Args) (interface{}, error) {
			if err := a.Expect(0); err != nil {
				return nil, err
			}
			return s.Claims()
		},
	}
}

// PlateClient forwards PlateService calls to a plate hosted in a worker
// process. Errors raised by the plate arrive as *RemoteError.
type PlateClient struct {
	proxy *Proxy
}

// NewPlateClient starts a worker hosting the plate described by cfg.
func NewPlateClient(cfg Config, opts *WorkerOptions) (*PlateClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	encoded, err := cfg.encode()
	if err != nil {
		return nil, err
	}

	o := WorkerOptions{}
	if opts != nil {
		o = *opts
	}
	env := make(map[string]string, len(o.Env)+1)
	for k, v := range o.Env {
		env[k] = v
	}
	env[configEnv] = encoded
	o.Env = env

	proxy, err := NewProxy(PlatePuppetName, &o)
	if err != nil {
		return nil, err
	}
	return &PlateClient{proxy: proxy}, nil
}

// Proxy returns the underlying proxy.
func (pc *PlateClient) Proxy() *Proxy { return pc.proxy }

func (pc *PlateClient) Claim(c Class, ch int) error {
	return pc.proxy.Call("Claim", nil, c.String(), ch)
}

func (pc *PlateClient) Release(c Class, ch int) error {
	return pc.proxy.Call("Release", nil, c.String(), ch)
}

func (pc *PlateClient) ReadDigitalInput(ch int) (bool, error) {
	var v bool
	err := pc.proxy.Call("ReadDigitalInput", &v, ch)
	return v, err
}

func (pc *PlateClient) WriteDigitalOutput(ch int, v bool) error {
	return pc.proxy.Call("WriteDigitalOutput", nil, ch, v)
}

func (pc *PlateClient) DigitalOutputState(ch int) (bool, error) {
	var v bool
	err := pc.proxy.Call("DigitalOutputState", &v, ch)
	return v, err
}

func (pc *PlateClient) ReadAnalogInput(ch int) (float64, error) {
	var v float64
	err := pc.proxy.Call("ReadAnalogInput", &v, ch)
	return v, err
}

func (pc *PlateClient) WriteAnalogOutput(ch int, v float64) error {
	return pc.proxy.Call("WriteAnalogOutput", nil, ch, v)
}

func (pc *PlateClient) AnalogOutputValue(ch int) (float64, error) {
	var v float64
	err := pc.proxy.Call("AnalogOutputValue", &v, ch)
	return v, err
}

func (pc *PlateClient) ReadAllADCs() ([]float64, error) {
	var v []float64
	err := pc.proxy.Call("ReadAllADCs", &v)
	return v, err
}

func (pc *PlateClient) Info() (PlateInfo, error) {
	var v PlateInfo
	err := pc.proxy.Call("Info", &v)
	return v, err
}

func (pc *PlateClient) Claims() (Claims, error) {
	var v Claims
	err := pc.proxy.Call("Claims", &v)
	return v, err
}

// Close terminates the worker, which releases every claim it held.
func (pc *PlateClient) Close() error {
	return pc.proxy.Terminate()
}
