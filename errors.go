package gpchw

import "errors"

var (
	// ErrValidation is returned when a channel, address or argument is of the
	// wrong shape or rejected by the driver before any hardware access.
	ErrValidation = errors.New("gpchw: validation failed")

	// ErrOutOfRange is returned when a channel lies outside the register bounds
	// for its class.
	ErrOutOfRange = errors.New("gpchw: channel out of range")

	// ErrAlreadyClaimed is returned when a channel is already registered.
	ErrAlreadyClaimed = errors.New("gpchw: channel already claimed")

	// ErrNotRegistered is returned by a strict unregister of a free channel.
	ErrNotRegistered = errors.New("gpchw: channel not registered")

	// ErrUnsupported is returned by drivers for operations the hardware lacks.
	ErrUnsupported = errors.New("gpchw: operation not supported by driver")

	// ErrRemoteExecution matches every RemoteError via errors.Is.
	ErrRemoteExecution = errors.New("gpchw: remote execution failed")

	// ErrChannelClosed is returned by a Proxy after Terminate or once the
	// worker closed its end of the channel.
	ErrChannelClosed = errors.New("gpchw: channel closed")

	// ErrProtocol is returned when the worker answers out of order.
	ErrProtocol = errors.New("gpchw: protocol error")
)
