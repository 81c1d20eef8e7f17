// Package engine drives the session/button state machine and the two
// inbound stream parsers. All state is advanced by explicit Tick(now) and
// OnBytes(data) calls from a single goroutine; the engine itself owns no
// timers and never blocks.
package engine

import (
	"errors"
	"io"
	"time"

	"k5mirror/protocol"
)

// Timing constants. Tick and keepalive intervals are exported for the link
// runner; the rest govern the state machine itself.
const (
	TickInterval      = 25 * time.Millisecond
	KeepaliveInterval = 120 * time.Millisecond

	sessionInitTimeout = 500 * time.Millisecond
	sessionFreshWindow = 5000 * time.Millisecond
	sessionInitBackoff = 300 * time.Millisecond
	ackTimeout         = 700 * time.Millisecond
	maxRetries         = 4
)

type intent struct {
	key     uint8
	action  uint8
	label   string
	retries int
}

type inFlight struct {
	seq      uint16
	it       intent
	deadline time.Time
}

// Engine owns the display decoder, the command packet reader and the
// session/button state machine.
type Engine struct {
	out  io.Writer
	sink Sink

	display *protocol.DisplayDecoder
	reader  *protocol.PacketReader

	// Session state. The timestamp is set optimistically when the init is
	// sent; the radio's reply only confirms it.
	sessionTS   uint32
	hasSession  bool
	sessionUsed time.Time
	pending     bool
	pendingBy   time.Time
	lastInitAt  time.Time

	queue   []intent
	fly     *inFlight
	nextSeq uint16
}

// New creates an engine writing packets to out and reporting to sink.
// A nil sink discards events.
func New(out io.Writer, sink Sink) *Engine {
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}
	return &Engine{
		out:     out,
		sink:    sink,
		display: protocol.NewDisplayDecoder(),
		reader:  protocol.NewPacketReader(),
	}
}

// Frame returns a copy of the current display buffer.
func (e *Engine) Frame() []byte {
	return e.display.Frame()
}

// QueueLen returns the number of queued button intents.
func (e *Engine) QueueLen() int {
	return len(e.queue)
}

// Idle reports whether nothing is queued, pending or in flight.
func (e *Engine) Idle() bool {
	return len(e.queue) == 0 && e.fly == nil && !e.pending
}

// Tap queues a press immediately followed by a release for the named key.
// Each half is acknowledged independently. Unknown names are rejected
// without touching the queue.
func (e *Engine) Tap(name string) error {
	code, err := KeyCode(name)
	if err != nil {
		return err
	}
	e.queue = append(e.queue,
		intent{key: code, action: protocol.ActionPress, label: name},
		intent{key: code, action: protocol.ActionRelease, label: name},
	)
	return nil
}

// Press queues a press event for the named key.
func (e *Engine) Press(name string) error {
	return e.enqueue(name, protocol.ActionPress)
}

// Release queues a release event for the named key.
func (e *Engine) Release(name string) error {
	return e.enqueue(name, protocol.ActionRelease)
}

func (e *Engine) enqueue(name string, action uint8) error {
	code, err := KeyCode(name)
	if err != nil {
		return err
	}
	e.queue = append(e.queue, intent{key: code, action: action, label: name})
	return nil
}

// OnBytes feeds raw inbound bytes to both stream parsers and dispatches
// every decoded frame and message in stream order.
func (e *Engine) OnBytes(data []byte) {
	for _, up := range e.display.Ingest(data) {
		switch up.Kind {
		case protocol.FrameFull:
			e.sink.Emit(FullFrame{Frame: up.Frame})
		case protocol.FrameDiff:
			e.sink.Emit(DiffApplied{Chunks: up.Chunks, Frame: up.Frame})
		case protocol.FrameUnknown:
			e.sink.Emit(UnknownFrame{Type: up.RawType, Size: up.RawSize})
		}
	}

	e.reader.Feed(data)
	for {
		msg, err := e.reader.Next()
		if errors.Is(err, protocol.ErrNeedMoreData) {
			return
		}
		if err != nil {
			e.sink.Emit(MalformedPacket{Err: err})
			continue
		}
		e.onMessage(msg)
	}
}

func (e *Engine) onMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgSessionInfo:
		// Replies to an abandoned handshake are ignored, like unmatched
		// button acks: the init either timed out already or has been
		// superseded by one with a newer timestamp.
		if !e.pending {
			return
		}
		ts, ok := protocol.SessionInfoTimestamp(msg.Payload)
		if ok && ts != e.sessionTS {
			return
		}
		e.pending = false
		e.sink.Emit(SessionEstablished{TS: ts})

	case protocol.MsgButtonAck:
		ack, err := protocol.ParseButtonAck(msg.Payload)
		if err != nil {
			e.sink.Emit(MalformedPacket{Err: err})
			return
		}
		e.onButtonAck(ack)
	}
}

func (e *Engine) onButtonAck(ack protocol.ButtonAck) {
	// Stale or duplicate acks carry a sequence we are not waiting for.
	if e.fly == nil || ack.Seq != e.fly.seq {
		return
	}
	it := e.fly.it
	e.fly = nil

	switch ack.Status {
	case protocol.AckAccepted:
		e.sink.Emit(ButtonAcked{Key: it.label, Action: it.action, Seq: ack.Seq, Depth: ack.Depth})
	case protocol.AckBusy:
		e.requeue(it, "radio busy")
	case protocol.AckStale:
		e.hasSession = false
		e.requeue(it, "stale session")
	default:
		e.sink.Emit(ButtonDropped{Key: it.label, Action: it.action,
			Reason: "rejected: " + protocol.AckStatusString(ack.Status)})
	}
}

// requeue puts a failed intent back at the head of the queue, dropping it
// once its retry budget is spent.
func (e *Engine) requeue(it intent, reason string) {
	it.retries++
	if it.retries > maxRetries {
		e.sink.Emit(ButtonDropped{Key: it.label, Action: it.action,
			Reason: reason + ": retry limit exceeded"})
		return
	}
	e.queue = append([]intent{it}, e.queue...)
	e.sink.Emit(ButtonRetried{Key: it.label, Action: it.action, Retries: it.retries, Reason: reason})
}

// Tick advances the state machine. It expires overdue deadlines, then
// performs at most one send: a session init when no fresh session exists,
// otherwise the next queued button event.
func (e *Engine) Tick(now time.Time) {
	if e.pending && now.After(e.pendingBy) {
		e.pending = false
		e.hasSession = false
		e.sink.Emit(SessionTimeout{})
	}

	if e.fly != nil && now.After(e.fly.deadline) {
		it := e.fly.it
		e.fly = nil
		e.requeue(it, "ack timeout")
	}

	if e.fly != nil || len(e.queue) == 0 || e.pending {
		return
	}

	if !e.sessionFresh(now) {
		if e.hasSession {
			e.hasSession = false
			e.sink.Emit(SessionExpired{})
		}
		if now.Sub(e.lastInitAt) < sessionInitBackoff {
			return
		}
		e.sendSessionInit(now)
		return
	}

	e.sendButton(now)
}

func (e *Engine) sessionFresh(now time.Time) bool {
	return e.hasSession && now.Sub(e.sessionUsed) < sessionFreshWindow
}

func (e *Engine) sendSessionInit(now time.Time) {
	ts := uint32(now.UnixMilli())
	e.lastInitAt = now

	pkt, err := protocol.BuildPacket(protocol.MsgSessionInit, protocol.SessionInitPayload(ts))
	if err != nil {
		e.sink.Emit(TransportError{Op: "session init", Err: err})
		return
	}
	if _, err := e.out.Write(pkt); err != nil {
		e.sink.Emit(TransportError{Op: "session init", Err: err})
		return
	}

	e.sessionTS = ts
	e.hasSession = true
	e.sessionUsed = now
	e.pending = true
	e.pendingBy = now.Add(sessionInitTimeout)
	e.sink.Emit(SessionSent{TS: ts})
}

func (e *Engine) sendButton(now time.Time) {
	it := e.queue[0]
	e.queue = e.queue[1:]

	seq := e.nextSeq
	payload := protocol.ButtonEventPayload(e.sessionTS, seq, it.key, it.action)
	pkt, err := protocol.BuildPacket(protocol.MsgButtonEvent, payload)
	if err != nil {
		// A fixed-size payload can never exceed the frame limit; if it
		// somehow does, retrying cannot help.
		e.sink.Emit(ButtonDropped{Key: it.label, Action: it.action, Reason: err.Error()})
		return
	}
	if _, err := e.out.Write(pkt); err != nil {
		// Transport failures do not consume a retry; put the intent back
		// and try again next tick.
		e.queue = append([]intent{it}, e.queue...)
		e.sink.Emit(TransportError{Op: "button event", Err: err})
		return
	}

	e.nextSeq++
	e.sessionUsed = now
	e.fly = &inFlight{seq: seq, it: it, deadline: now.Add(ackTimeout)}
	e.sink.Emit(ButtonSent{Key: it.label, Action: it.action, Seq: seq})
}
