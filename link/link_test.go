package link

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"k5mirror/protocol"
)

// mockPort is a quiet serial line that records everything written to it.
type mockPort struct {
	mu     sync.Mutex
	writes [][]byte
	closed bool
}

func (p *mockPort) Read(b []byte) (int, error) { return 0, nil }

func (p *mockPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf := make([]byte, len(b))
	copy(buf, b)
	p.writes = append(p.writes, buf)
	return len(b), nil
}

func (p *mockPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *mockPort) Flush() error { return nil }

func (p *mockPort) snapshot() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.writes))
	copy(out, p.writes)
	return out
}

func TestLinkSendsKeepalivesAndSessionInit(t *testing.T) {
	port := &mockPort{}
	l := New(port, zerolog.Nop())
	go l.Run()

	if err := l.Tap("1"); err != nil {
		t.Fatalf("Tap: %v", err)
	}

	// Generous budget: keepalive fires every 120ms, the engine ticks every
	// 25ms and needs a queued intent to send a session init.
	deadline := time.Now().Add(2 * time.Second)
	var sawKeepalive, sawInit bool
	for time.Now().Before(deadline) && !(sawKeepalive && sawInit) {
		time.Sleep(50 * time.Millisecond)

		reader := protocol.NewPacketReader()
		for _, w := range port.snapshot() {
			if bytes.Equal(w, protocol.Keepalive) {
				sawKeepalive = true
				continue
			}
			reader.Feed(w)
		}
		for {
			msg, err := reader.Next()
			if err != nil {
				break
			}
			if msg.Type == protocol.MsgSessionInit {
				sawInit = true
			}
		}
	}

	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	if !sawKeepalive {
		t.Error("no keepalive written")
	}
	if !sawInit {
		t.Error("no session init written after Tap")
	}
	if !port.closed {
		t.Error("Close did not close the port")
	}
}

// timeoutPort mimics tarm/serial on an idle line: a timed-out read is
// reported as (0, io.EOF).
type timeoutPort struct {
	mockPort
	readErr error
}

func (p *timeoutPort) Read(b []byte) (int, error) { return 0, p.readErr }

func TestLinkQuietLineIsNotAnError(t *testing.T) {
	port := &timeoutPort{readErr: io.EOF}
	l := New(port, zerolog.Nop())

	before := testutil.ToFloat64(linkIOErrors)
	for i := 0; i < 10; i++ {
		l.poll(make([]byte, 512))
	}
	if delta := testutil.ToFloat64(linkIOErrors) - before; delta != 0 {
		t.Errorf("idle polls counted as I/O errors: delta = %v", delta)
	}

	// A genuine failure must still be counted.
	port.readErr = errors.New("device unplugged")
	before = testutil.ToFloat64(linkIOErrors)
	l.poll(make([]byte, 512))
	if delta := testutil.ToFloat64(linkIOErrors) - before; delta != 1 {
		t.Errorf("real read failure not counted: delta = %v", delta)
	}
}

func TestLinkTapRejectsUnknownKey(t *testing.T) {
	l := New(&mockPort{}, zerolog.Nop())
	// Not running: validation must still happen synchronously.
	if err := l.Tap("BOGUS"); err == nil {
		t.Error("expected error for unknown key")
	}
}
