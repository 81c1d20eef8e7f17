// Package link runs the protocol engine against a real serial port. One
// goroutine owns the port and the engine: reads are polled, the engine is
// ticked, and keepalives are written from the same loop, which preserves the
// engine's non-overlapping-callback requirement without locking.
package link

import (
	"encoding/hex"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"k5mirror/engine"
	"k5mirror/serial"
)

const readPollInterval = 10 * time.Millisecond

// Link owns a serial port and the engine driving it.
type Link struct {
	port serial.Port
	eng  *engine.Engine
	log  zerolog.Logger

	taps chan string
	stop chan struct{}
	done chan struct{}
}

// fanout delivers each event to every attached sink.
type fanout []engine.Sink

func (f fanout) Emit(ev engine.Event) {
	for _, s := range f {
		s.Emit(ev)
	}
}

// New creates a link for an open port. Events are logged, counted, and also
// delivered to any extra sinks (the web hub, a CLI waiter).
func New(port serial.Port, log zerolog.Logger, extra ...engine.Sink) *Link {
	sinks := append(fanout{logSink{log}, metricsSink{}}, extra...)
	l := &Link{
		port: port,
		log:  log,
		taps: make(chan string, 16),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	l.eng = engine.New(loggedWriter{port: port, log: log}, sinks)
	return l
}

// Tap queues a press/release pair for the named key. The intent is handed to
// the loop goroutine; the name is validated here so callers get an
// immediate error for unknown keys.
func (l *Link) Tap(name string) error {
	if _, err := engine.KeyCode(name); err != nil {
		return err
	}
	select {
	case l.taps <- name:
		return nil
	case <-l.stop:
		return errLinkClosed
	}
}

// Run drives the loop until Close is called.
func (l *Link) Run() {
	defer close(l.done)

	readTick := time.NewTicker(readPollInterval)
	engineTick := time.NewTicker(engine.TickInterval)
	keepalive := time.NewTicker(engine.KeepaliveInterval)
	defer readTick.Stop()
	defer engineTick.Stop()
	defer keepalive.Stop()

	readBuf := make([]byte, 512)

	for {
		select {
		case <-l.stop:
			return

		case name := <-l.taps:
			if err := l.eng.Tap(name); err != nil {
				l.log.Warn().Err(err).Str("key", name).Msg("tap rejected")
			}

		case <-readTick.C:
			l.poll(readBuf)

		case <-engineTick.C:
			l.eng.Tick(time.Now())

		case <-keepalive.C:
			l.sendKeepalive()
		}
	}
}

// poll drains whatever the port has buffered right now.
func (l *Link) poll(buf []byte) {
	for {
		n, err := l.port.Read(buf)
		if n > 0 {
			l.log.Debug().Str("dir", "rx").Int("len", n).Str("bytes", hex.EncodeToString(buf[:n])).Msg("serial")
			l.eng.OnBytes(buf[:n])
		}
		if err != nil {
			// tarm/serial surfaces a timed-out read on a quiet line as
			// (0, io.EOF); that is not a failure.
			if !errors.Is(err, io.EOF) {
				l.log.Warn().Err(err).Msg("serial read failed")
				linkIOErrors.Inc()
			}
			return
		}
		if n < len(buf) {
			return
		}
	}
}

func (l *Link) sendKeepalive() {
	if _, err := l.port.Write(keepaliveBytes); err != nil {
		// Not retried here; the next period tries again.
		l.log.Warn().Err(err).Msg("keepalive write failed")
		linkIOErrors.Inc()
		return
	}
	keepalivesSent.Inc()
	l.log.Debug().Str("dir", "tx").Str("bytes", hex.EncodeToString(keepaliveBytes)).Msg("serial")
}

// Close stops the loop and closes the port. Queued button intents are
// abandoned, not flushed.
func (l *Link) Close() error {
	close(l.stop)
	<-l.done
	return l.port.Close()
}

// loggedWriter logs every engine write at debug level before it hits the
// port, mirroring the original viewer's TX byte window.
type loggedWriter struct {
	port serial.Port
	log  zerolog.Logger
}

func (w loggedWriter) Write(p []byte) (int, error) {
	n, err := w.port.Write(p)
	if err == nil {
		w.log.Debug().Str("dir", "tx").Int("len", n).Str("bytes", hex.EncodeToString(p[:n])).Msg("serial")
	}
	return n, err
}
