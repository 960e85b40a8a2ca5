package gpchw

// Serializer converts the request and response envelopes exchanged between
// a Proxy and its Host to and from bytes.
type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// Transport carries whole messages between exactly two endpoints, in
// order. Both the caller and the worker side hold one.
type Transport interface {
	// Send transmits one message.
	Send(data []byte) error

	// Receive blocks until a complete message arrives. It returns io.EOF
	// once the peer closed its end.
	Receive() ([]byte, error)

	// Close releases both directions of the transport.
	Close() error
}
