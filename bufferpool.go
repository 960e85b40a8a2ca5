package gpchw

// framePool recycles the fixed-size buffers MsgpackTransport reads frame
// headers and small payloads into. A buffered channel holds the free
// buffers, so Get and Put need no lock.
type framePool struct {
	free    chan []byte
	bufSize int
}

func newFramePool(bufSize, count int) *framePool {
	fp := &framePool{
		free:    make(chan []byte, count),
		bufSize: bufSize,
	}
	for i := 0; i < count; i++ {
		fp.free <- make([]byte, bufSize)
	}
	return fp
}

// get returns a buffer of length n. Requests larger than the pool's buffer
// size are served by a fresh allocation.
func (fp *framePool) get(n int) []byte {
	if n > fp.bufSize {
		return make([]byte, n)
	}
	select {
	case buf := <-fp.free:
		return buf[:n]
	default:
		return make([]byte, fp.bufSize)[:n]
	}
}

// put hands buf back. Buffers not allocated by the pool, or arriving when
// the pool is already full, are left to the garbage collector.
func (fp *framePool) put(buf []byte) {
	if cap(buf) != fp.bufSize {
		return
	}
	select {
	case fp.free <- buf[:fp.bufSize]:
	default:
	}
}
