package gpchw

import (
	"bytes"
	"io"
	"sync"
	"testing"
)

// TestFramePoolConcurrent tests that framePool is safe for concurrent access.
func TestFramePoolConcurrent(t *testing.T) {
	pool := newFramePool(1024, 10)

	var wg sync.WaitGroup
	numGoroutines := 100
	numOps := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				buf := pool.get(1 + j%1024)
				if len(buf) != 1+j%1024 {
					t.Errorf("Expected buffer length %d, got %d", 1+j%1024, len(buf))
				}
				buf[0] = byte(j)
				pool.put(buf)
			}
		}()
	}

	wg.Wait()
}

// TestFramePoolOversizedAndForeignBuffers tests that large requests bypass
// the pool and that foreign buffers are discarded.
func TestFramePoolOversizedAndForeignBuffers(t *testing.T) {
	pool := newFramePool(64, 2)

	big := pool.get(100)
	if len(big) != 100 {
		t.Fatalf("Expected buffer length 100, got %d", len(big))
	}
	pool.put(big)
	pool.put(make([]byte, 32))

	if n := len(pool.free); n != 2 {
		t.Fatalf("Expected 2 free buffers, got %d", n)
	}

	_ = pool.get(8)
	_ = pool.get(8)
	buf := pool.get(8)
	if cap(buf) != 64 {
		t.Errorf("Expected new buffer with capacity 64, got %d", cap(buf))
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// TestTransportConcurrentSend tests that frames sent from many goroutines
// are never interleaved.
func TestTransportConcurrentSend(t *testing.T) {
	var buf bytes.Buffer
	var bufMu sync.Mutex
	w := nopWriteCloser{writerFunc(func(p []byte) (int, error) {
		bufMu.Lock()
		defer bufMu.Unlock()
		return buf.Write(p)
	})}
	tx := NewMsgpackTransport(io.NopCloser(&bytes.Buffer{}), w)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := bytes.Repeat([]byte{byte(i)}, 100+i*500)
			for j := 0; j < 10; j++ {
				if err := tx.Send(payload); err != nil {
					t.Errorf("Send: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	rx := NewMsgpackTransport(io.NopCloser(&buf), nopWriteCloser{io.Discard})
	counts := map[byte]int{}
	for {
		frame, err := rx.Receive()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		id := frame[0]
		if len(frame) != 100+int(id)*500 {
			t.Fatalf("frame %d has length %d", id, len(frame))
		}
		for _, b := range frame {
			if b != id {
				t.Fatalf("frame %d is interleaved", id)
			}
		}
		counts[id]++
	}
	for i := 0; i < 20; i++ {
		if counts[byte(i)] != 10 {
			t.Errorf("sender %d: got %d frames, want 10", i, counts[byte(i)])
		}
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
