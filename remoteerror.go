package gpchw

import (
	"errors"
	"fmt"
)

// Kinds reported in RemoteError.Kind by the Host itself. Errors returned by
// puppet methods carry their own kind, see RemoteError.
const (
	KindUnknownMethod = "UnknownMethod"
	KindPrivateMethod = "PrivateMethod"
	KindBadArguments  = "BadArguments"
	KindPanic         = "Panic"
	KindConstruction  = "ConstructionError"
	KindEncoding      = "EncodingError"
)

// sentinelKinds names the package errors that keep their identity across
// the channel: a RemoteError of one of these kinds matches the sentinel with
// errors.Is.
var sentinelKinds = []struct {
	kind string
	err  error
}{
	{"ValidationError", ErrValidation},
	{"OutOfRange", ErrOutOfRange},
	{"AlreadyClaimed", ErrAlreadyClaimed},
	{"NotRegistered", ErrNotRegistered},
	{"Unsupported", ErrUnsupported},
}

// RemoteError describes a failure that happened inside the worker process
// while executing a method. It travels back over the channel in place of a
// result and is returned to the caller as an error.
type RemoteError struct {
	// Kind classifies the failure, e.g. "UnknownMethod" or the Go type of
	// the error returned by the method.
	Kind string `msgpack:"kind"`

	// Message is the error text.
	Message string `msgpack:"message"`

	// Traceback is the worker goroutine stack for panics, empty otherwise.
	Traceback string `msgpack:"traceback,omitempty"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %s", e.Kind, e.Message)
}

// Is makes errors.Is(err, ErrRemoteExecution) true for every RemoteError,
// and errors.Is(err, ErrOutOfRange) and friends true when the method failed
// with that error.
func (e *RemoteError) Is(target error) bool {
	if target == ErrRemoteExecution {
		return true
	}
	for _, sk := range sentinelKinds {
		if sk.err == target {
			return e.Kind == sk.kind
		}
	}
	return false
}

// String includes the traceback when there is one.
func (e *RemoteError) String() string {
	if e.Traceback == "" {
		return e.Error()
	}
	return fmt.Sprintf("%s\n%s", e.Error(), e.Traceback)
}

// Kinded lets errors returned by puppet methods choose the Kind they are
// reported with.
type Kinded interface {
	Kind() string
}

// newRemoteError converts an error returned by a puppet method.
func newRemoteError(err error) *RemoteError {
	var re *RemoteError
	if errors.As(err, &re) {
		return re
	}
	kind := fmt.Sprintf("%T", err)
	var k Kinded
	if errors.As(err, &k) {
		kind = k.Kind()
	} else {
		for _, sk := range sentinelKinds {
			if errors.Is(err, sk.err) {
				kind = sk.kind
				break
			}
		}
	}
	return &RemoteError{Kind: kind, Message: err.Error()}
}
