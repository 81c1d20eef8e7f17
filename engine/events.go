package engine

// Event is a structured record of one protocol transition. Consumers
// (logger, web viewer, metrics) receive every event through a Sink; the
// engine never blocks on them.
type Event interface {
	event()
}

// Sink receives engine events.
type Sink interface {
	Emit(ev Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev Event)

// Emit calls f(ev).
func (f SinkFunc) Emit(ev Event) { f(ev) }

// FullFrame reports a complete display refresh. Frame is a 1024-byte
// snapshot owned by the receiver.
type FullFrame struct {
	Frame []byte
}

// DiffApplied reports an incremental display update.
type DiffApplied struct {
	Chunks int
	Frame  []byte
}

// UnknownFrame reports a display frame with an unrecognized type or size.
type UnknownFrame struct {
	Type uint8
	Size int
}

// MalformedPacket reports a command packet discarded during parsing
// (footer mismatch, CRC failure, truncated message).
type MalformedPacket struct {
	Err error
}

// SessionSent reports a session init written to the radio.
type SessionSent struct {
	TS uint32
}

// SessionEstablished reports the radio's session info reply.
type SessionEstablished struct {
	TS uint32
}

// SessionTimeout reports a session init that got no reply in time.
type SessionTimeout struct{}

// SessionExpired reports a session aged past its freshness window.
type SessionExpired struct{}

// ButtonSent reports a button event written to the radio.
type ButtonSent struct {
	Key    string
	Action uint8
	Seq    uint16
}

// ButtonAcked reports a button event the radio accepted.
type ButtonAcked struct {
	Key    string
	Action uint8
	Seq    uint16
	Depth  uint8
}

// ButtonRetried reports a button event requeued for another attempt.
type ButtonRetried struct {
	Key     string
	Action  uint8
	Retries int
	Reason  string
}

// ButtonDropped reports a button event abandoned permanently.
type ButtonDropped struct {
	Key    string
	Action uint8
	Reason string
}

// TransportError reports a failed write. The operation is skipped for this
// tick and retried on the next one.
type TransportError struct {
	Op  string
	Err error
}

func (FullFrame) event()          {}
func (DiffApplied) event()        {}
func (UnknownFrame) event()       {}
func (MalformedPacket) event()    {}
func (SessionSent) event()        {}
func (SessionEstablished) event() {}
func (SessionTimeout) event()     {}
func (SessionExpired) event()     {}
func (ButtonSent) event()         {}
func (ButtonAcked) event()        {}
func (ButtonRetried) event()      {}
func (ButtonDropped) event()      {}
func (TransportError) event()     {}
