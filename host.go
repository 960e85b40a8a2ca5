package gpchw

import (
	"errors"
	"fmt"
	"io"
	"log"
	"runtime/debug"
)

// Host owns one Puppet and executes its methods on request. It runs inside
// the worker process; one Host serves exactly one Proxy.
//
// Requests are handled one at a time in arrival order, so the puppet never
// sees concurrent calls.
type Host struct {
	transport  Transport
	serializer Serializer
	factory    Factory

	handlers     map[string]Handler
	constructErr *RemoteError
}

// NewHost creates a Host that will construct its puppet with factory once
// Serve is called.
func NewHost(transport Transport, factory Factory) *Host {
	return &Host{
		transport:  transport,
		serializer: MsgpackSerializer{},
		factory:    factory,
	}
}

// Serve constructs the puppet and answers requests until the sentinel
// arrives or the caller closes its end of the channel. A method that fails
// or panics is reported back to the caller and the loop keeps going.
func (h *Host) Serve() error {
	puppet := h.construct()
	if closer, ok := puppet.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Printf("gpchw: closing puppet: %v", err)
			}
		}()
	}

	for {
		data, err := h.transport.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Caller went away without the sentinel.
				h.transport.Close()
				return nil
			}
			h.transport.Close()
			return fmt.Errorf("receiving request: %w", err)
		}

		var req request
		if err := h.serializer.Unmarshal(data, &req); err != nil {
			log.Printf("gpchw: error decoding request: %v", err)
			// Recover the id alone so the error still answers its request. An
			// envelope without a readable id gets id 0, which the proxy treats
			// as a protocol failure.
			var head requestHead
			_ = h.serializer.Unmarshal(data, &head)
			if err := h.reply(&response{ID: head.ID, Err: &RemoteError{Kind: KindEncoding, Message: err.Error()}}); err != nil {
				h.transport.Close()
				return err
			}
			continue
		}

		if req.Method == sentinelMethod {
			return h.transport.Close()
		}

		if err := h.reply(h.dispatch(&req)); err != nil {
			h.transport.Close()
			return err
		}
	}
}

// construct runs the factory, turning a failure or panic into an error that
// is returned for every later request.
func (h *Host) construct() (puppet Puppet) {
	defer func() {
		if r := recover(); r != nil {
			puppet = nil
			h.constructErr = &RemoteError{Kind: KindConstruction, Message: fmt.Sprint(r), Traceback: string(debug.Stack())}
		}
	}()

	if h.factory == nil {
		h.constructErr = &RemoteError{Kind: KindConstruction, Message: "no puppet factory"}
		return nil
	}
	p, err := h.factory()
	if err == nil && p == nil {
		err = errors.New("factory returned no puppet")
	}
	if err != nil {
		h.constructErr = &RemoteError{Kind: KindConstruction, Message: err.Error()}
		return nil
	}
	h.handlers = p.Methods()
	return p
}

func (h *Host) reply(resp *response) error {
	data, err := h.serializer.Marshal(resp)
	if err != nil {
		data, err = h.serializer.Marshal(&response{
			ID:  resp.ID,
			Err: &RemoteError{Kind: KindEncoding, Message: err.Error()},
		})
		if err != nil {
			return fmt.Errorf("encoding response: %w", err)
		}
	}
	err = h.transport.Send(data)
	if errors.Is(err, errFrameTooLarge) {
		data, err = h.serializer.Marshal(&response{
			ID:  resp.ID,
			Err: &RemoteError{Kind: KindEncoding, Message: fmt.Sprintf("response too large: %v", err)},
		})
		if err == nil {
			err = h.transport.Send(data)
		}
	}
	if err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

func (h *Host) dispatch(req *request) (resp *response) {
	resp = &response{ID: req.ID}

	if h.constructErr != nil {
		resp.Err = h.constructErr
		return resp
	}

	var handler Handler
	switch {
	case req.Method == methodsMethod:
		handler = func(Args) (interface{}, error) { return publicMethods(h.handlers), nil }
	case isPrivate(req.Method):
		resp.Err = &RemoteError{Kind: KindPrivateMethod, Message: fmt.Sprintf("%q is private", req.Method)}
		return resp
	default:
		var ok bool
		if handler, ok = h.handlers[req.Method]; !ok || handler == nil {
			resp.Err = &RemoteError{Kind: KindUnknownMethod, Message: fmt.Sprintf("no method %q", req.Method)}
			return resp
		}
	}

	defer func() {
		if r := recover(); r != nil {
			resp.Result = nil
			resp.Err = &RemoteError{Kind: KindPanic, Message: fmt.Sprint(r), Traceback: string(debug.Stack())}
		}
	}()

	result, err := handler(Args{method: req.Method, pos: req.Args, kw: req.Kwargs})
	if err != nil {
		resp.Err = newRemoteError(err)
		return resp
	}
	raw, err := h.serializer.Marshal(result)
	if err != nil {
		resp.Err = &RemoteError{Kind: KindEncoding, Message: fmt.Sprintf("encoding result of %s: %v", req.Method, err)}
		return resp
	}
	resp.Result = raw
	return resp
}
