package gpchw

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Proxy is the caller side of a worker. It forwards method calls to the
// puppet hosted by the worker and blocks until the matching response
// arrives.
//
// Proxy is safe for concurrent use: calls are queued on an internal mutex so
// exactly one request is in flight at a time, and every response id is
// checked against the request it answers. There is no per-call timeout; a
// method that never returns blocks its caller and every queued call behind
// it.
type Proxy struct {
	name       string
	transport  Transport
	serializer Serializer

	// done is closed once the worker has exited.
	done <-chan struct{}

	// stop waits for the worker to exit after the sentinel was sent,
	// forcing it down if it does not.
	stop func() error

	mu      sync.Mutex
	nextID  uint64
	closed  bool
	methods []string

	termOnce sync.Once
	termErr  error
}

func newProxy(name string, transport Transport, done <-chan struct{}, stop func() error) (*Proxy, error) {
	p := &Proxy{
		name:       name,
		transport:  transport,
		serializer: MsgpackSerializer{},
		done:       done,
		stop:       stop,
	}

	var methods []string
	if err := p.Call(methodsMethod, &methods); err != nil {
		p.Terminate()
		return nil, fmt.Errorf("starting puppet %q: %w", name, err)
	}
	p.methods = methods
	return p, nil
}

// NewProxy starts a worker process hosting the puppet registered as name
// and returns a Proxy bound to it. The worker re-executes the current
// binary, whose main must call ServeIfWorker first.
func NewProxy(name string, opts *WorkerOptions) (*Proxy, error) {
	wp, transport, err := startWorker(name, opts)
	if err != nil {
		return nil, err
	}
	return newProxy(name, transport, wp.done, wp.stop)
}

// NewLocalProxy hosts the puppet in a goroutine of the current process
// instead of a worker process. The call discipline and error reporting are
// the same as for NewProxy, without the isolation.
func NewLocalProxy(name string, factory Factory) (*Proxy, error) {
	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()

	done := make(chan struct{})
	var serveErr error
	go func() {
		defer close(done)
		serveErr = NewHost(NewMsgpackTransport(reqR, respW), factory).Serve()
	}()

	stop := func() error {
		<-done
		return serveErr
	}
	return newProxy(name, NewMsgpackTransport(respR, reqW), done, stop)
}

// Name returns the puppet name the proxy was started with.
func (p *Proxy) Name() string { return p.name }

// Methods returns the public method names of the hosted puppet.
func (p *Proxy) Methods() []string {
	out := make([]string, len(p.methods))
	copy(out, p.methods)
	return out
}

// Call invokes method with positional args and decodes the return value
// into result, which may be nil to discard it.
func (p *Proxy) Call(method string, result interface{}, args ...interface{}) error {
	return p.CallKw(method, args, nil, result)
}

// CallKw invokes method with positional and keyword arguments.
//
// An error raised inside the worker is returned as a *RemoteError, which
// matches ErrRemoteExecution. Once the worker is gone every call fails with
// ErrChannelClosed.
func (p *Proxy) CallKw(method string, args []interface{}, kwargs map[string]interface{}, result interface{}) error {
	if method == sentinelMethod {
		return fmt.Errorf("%w: %q is reserved", ErrValidation, method)
	}

	req := request{Method: method}
	for i, a := range args {
		raw, err := msgpack.Marshal(a)
		if err != nil {
			return fmt.Errorf("%w: encoding argument %d of %s: %v", ErrValidation, i, method, err)
		}
		req.Args = append(req.Args, raw)
	}
	if len(kwargs) > 0 {
		req.Kwargs = make(map[string]msgpack.RawMessage, len(kwargs))
		for k, v := range kwargs {
			raw, err := msgpack.Marshal(v)
			if err != nil {
				return fmt.Errorf("%w: encoding keyword %s of %s: %v", ErrValidation, k, method, err)
			}
			req.Kwargs[k] = raw
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("calling %s: %w", method, ErrChannelClosed)
	}
	p.nextID++
	req.ID = p.nextID

	data, err := p.serializer.Marshal(&req)
	if err != nil {
		return fmt.Errorf("encoding request %s: %w", method, err)
	}
	if err := p.transport.Send(data); err != nil {
		if errors.Is(err, errFrameTooLarge) {
			// Nothing reached the worker.
			return fmt.Errorf("%w: request %s: %v", ErrValidation, method, err)
		}
		p.closeLocked()
		return fmt.Errorf("calling %s: %w: %v", method, ErrChannelClosed, err)
	}

	reply, err := p.transport.Receive()
	if err != nil {
		p.closeLocked()
		return fmt.Errorf("calling %s: %w: %v", method, ErrChannelClosed, err)
	}

	var resp response
	if err := p.serializer.Unmarshal(reply, &resp); err != nil {
		p.closeLocked()
		return fmt.Errorf("%w: decoding response to %s: %v", ErrProtocol, method, err)
	}
	if resp.ID != req.ID {
		p.closeLocked()
		return fmt.Errorf("%w: response %d does not answer request %d", ErrProtocol, resp.ID, req.ID)
	}
	if resp.Err != nil {
		return resp.Err
	}
	if result != nil && len(resp.Result) > 0 {
		if err := p.serializer.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("decoding result of %s: %w", method, err)
		}
	}
	return nil
}

// closeLocked marks the channel unusable. p.mu must be held.
func (p *Proxy) closeLocked() {
	if !p.closed {
		p.closed = true
		p.transport.Close()
	}
}

// Terminate sends the sentinel, waits for the worker to exit and closes the
// channel. Calls made afterwards fail with ErrChannelClosed. Terminate waits
// for an in-flight call to finish first.
func (p *Proxy) Terminate() error {
	p.mu.Lock()
	if !p.closed {
		if data, err := p.serializer.Marshal(&request{Method: sentinelMethod}); err == nil {
			// The worker may already be gone, in which case stop reports why.
			_ = p.transport.Send(data)
		}
		p.closed = true
	}
	p.mu.Unlock()

	p.termOnce.Do(func() {
		p.termErr = p.stop()
		p.transport.Close()
	})
	return p.termErr
}

// Done is closed when the worker has exited.
func (p *Proxy) Done() <-chan struct{} { return p.done }

// Exited reports whether the worker has exited.
func (p *Proxy) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
