package gpchw

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Reserved method names. They start with an underscore or are upper-case
// signal names so they can never collide with a puppet's public methods.
const (
	// sentinelMethod asks the worker loop to close the channel and exit.
	sentinelMethod = "SIGINT"

	// methodsMethod asks the worker for the puppet's public method names.
	methodsMethod = "__methods__"
)

// request is one call from a Proxy to its Host.
type request struct {
	ID     uint64                        `msgpack:"id"`
	Method string                        `msgpack:"method"`
	Args   []msgpack.RawMessage          `msgpack:"args,omitempty"`
	Kwargs map[string]msgpack.RawMessage `msgpack:"kwargs,omitempty"`
}

// requestHead is the part of a request that is decoded when the rest of it
// cannot be.
type requestHead struct {
	ID uint64 `msgpack:"id"`
}

// response carries either a result or an error, never both.
type response struct {
	ID     uint64             `msgpack:"id"`
	Result msgpack.RawMessage `msgpack:"result,omitempty"`
	Err    *RemoteError       `msgpack:"error,omitempty"`
}

// Handler executes one puppet method inside the worker.
type Handler func(args Args) (interface{}, error)

// Puppet is a stateful object hosted in a worker process. Methods returns
// the callable surface; names starting with "_" are private and are never
// dispatched.
//
// If a Puppet also implements io.Closer, Close is called when the worker
// loop ends.
type Puppet interface {
	Methods() map[string]Handler
}

// Factory constructs a Puppet. It runs inside the worker process, after the
// process started, so the puppet may own resources that cannot be handed
// across a process boundary.
type Factory func() (Puppet, error)

var (
	muPuppets sync.RWMutex
	puppets   = map[string]Factory{}
)

// RegisterPuppet makes a puppet type available to worker processes under
// name. Both the caller and the worker run the same binary, so registration
// belongs in an init function. It panics on an empty or duplicate name.
func RegisterPuppet(name string, f Factory) {
	muPuppets.Lock()
	defer muPuppets.Unlock()
	if name == "" {
		panic("gpchw: empty puppet name")
	}
	if f == nil {
		panic(fmt.Sprintf("gpchw: nil factory for puppet %q", name))
	}
	if _, exists := puppets[name]; exists {
		panic(fmt.Sprintf("gpchw: puppet already registered as %q", name))
	}
	puppets[name] = f
}

func lookupPuppet(name string) (Factory, bool) {
	muPuppets.RLock()
	defer muPuppets.RUnlock()
	f, ok := puppets[name]
	return f, ok
}

// PuppetNames lists the registered puppets.
func PuppetNames() []string {
	muPuppets.RLock()
	defer muPuppets.RUnlock()
	names := make([]string, 0, len(puppets))
	for n := range puppets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func isPrivate(method string) bool {
	return method == "" || strings.HasPrefix(method, "_")
}

// publicMethods returns the sorted public names in handlers.
func publicMethods(handlers map[string]Handler) []string {
	names := make([]string, 0, len(handlers))
	for n := range handlers {
		if !isPrivate(n) && n != sentinelMethod {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// Args gives a Handler access to the positional and keyword arguments of a
// call. Decoding failures are reported to the caller as BadArguments.
type Args struct {
	method string
	pos    []msgpack.RawMessage
	kw     map[string]msgpack.RawMessage
}

// Len returns the number of positional arguments.
func (a Args) Len() int { return len(a.pos) }

// Expect fails unless exactly n positional arguments were passed.
func (a Args) Expect(n int) error {
	if len(a.pos) != n {
		return a.badf("%s takes %d positional arguments, got %d", a.method, n, len(a.pos))
	}
	return nil
}

// Decode unmarshals positional argument i into v.
func (a Args) Decode(i int, v interface{}) error {
	if i < 0 || i >= len(a.pos) {
		return a.badf("%s: missing positional argument %d", a.method, i)
	}
	if err := msgpack.Unmarshal(a.pos[i], v); err != nil {
		return a.badf("%s: argument %d: %v", a.method, i, err)
	}
	return nil
}

// Keyword unmarshals keyword argument name into v. It reports false when
// the caller did not pass it.
func (a Args) Keyword(name string, v interface{}) (bool, error) {
	raw, ok := a.kw[name]
	if !ok {
		return false, nil
	}
	if err := msgpack.Unmarshal(raw, v); err != nil {
		return true, a.badf("%s: keyword %s: %v", a.method, name, err)
	}
	return true, nil
}

func (a Args) Int(i int) (int, error) {
	var v int
	err := a.Decode(i, &v)
	return v, err
}

func (a Args) Float(i int) (float64, error) {
	var v float64
	err := a.Decode(i, &v)
	return v, err
}

func (a Args) Bool(i int) (bool, error) {
	var v bool
	err := a.Decode(i, &v)
	return v, err
}

func (a Args) Text(i int) (string, error) {
	var v string
	err := a.Decode(i, &v)
	return v, err
}

func (a Args) badf(format string, args ...interface{}) error {
	return &RemoteError{Kind: KindBadArguments, Message: fmt.Sprintf(format, args...)}
}
