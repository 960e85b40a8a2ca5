package gpchw

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// maxFrameSize bounds a single message so a corrupt header cannot make the
// reader allocate gigabytes.
const maxFrameSize = 64 << 20

// errFrameTooLarge is returned by Send before anything is written, so the
// channel stays usable.
var errFrameTooLarge = errors.New("frame exceeds size limit")

// MsgpackSerializer encodes envelopes with MessagePack.
type MsgpackSerializer struct{}

func (MsgpackSerializer) Marshal(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (MsgpackSerializer) Unmarshal(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}

// MsgpackTransport frames each message with a 4-byte big-endian length
// prefix. It is used on both ends of a worker pipe pair.
type MsgpackTransport struct {
	reader io.ReadCloser
	writer io.WriteCloser
	pool   *framePool

	// wmu keeps header and payload of one frame together.
	wmu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewMsgpackTransport reads frames from reader and writes frames to writer.
func NewMsgpackTransport(reader io.ReadCloser, writer io.WriteCloser) *MsgpackTransport {
	return &MsgpackTransport{
		reader: reader,
		writer: writer,
		pool:   newFramePool(8192, 8),
	}
}

func (mt *MsgpackTransport) Send(data []byte) error {
	if len(data) > maxFrameSize {
		return fmt.Errorf("%w: %d bytes, limit %d", errFrameTooLarge, len(data), maxFrameSize)
	}

	frame := mt.pool.get(4 + len(data))
	defer mt.pool.put(frame)
	binary.BigEndian.PutUint32(frame[:4], uint32(len(data)))
	copy(frame[4:], data)

	mt.wmu.Lock()
	defer mt.wmu.Unlock()
	if _, err := mt.writer.Write(frame); err != nil {
		return err
	}
	if flusher, ok := mt.writer.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

func (mt *MsgpackTransport) Receive() ([]byte, error) {
	header := mt.pool.get(4)
	if _, err := io.ReadFull(mt.reader, header); err != nil {
		mt.pool.put(header)
		return nil, err
	}
	length := binary.BigEndian.Uint32(header)
	mt.pool.put(header)

	if length > maxFrameSize {
		return nil, fmt.Errorf("%w: header announces %d bytes", errFrameTooLarge, length)
	}

	buf := mt.pool.get(int(length))
	if _, err := io.ReadFull(mt.reader, buf); err != nil {
		mt.pool.put(buf)
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	// Copy out so the pooled buffer can be reused.
	data := make([]byte, length)
	copy(data, buf)
	mt.pool.put(buf)
	return data, nil
}

// Close closes both pipe ends. It is safe to call more than once.
func (mt *MsgpackTransport) Close() error {
	mt.closeOnce.Do(func() {
		rerr := mt.reader.Close()
		werr := mt.writer.Close()
		if rerr != nil {
			mt.closeErr = rerr
		} else {
			mt.closeErr = werr
		}
	})
	return mt.closeErr
}
