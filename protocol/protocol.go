// Package protocol implements the UV-K5 remote display/keypad wire protocol
package protocol

import "errors"

// Version represents the k5mirror tool version
const Version = "0.2.0"

// Display stream constants
const (
	ScreenWidth  = 128
	ScreenHeight = 64
	FrameSize    = 1024 // ScreenWidth * ScreenHeight / 8

	FrameTypeScreenshot = 0x01
	FrameTypeDiff       = 0x02

	// Magic(2) + type(1) + big-endian size(2)
	frameHeaderSize = 5

	// One diff chunk: block index + 8 replacement bytes
	DiffChunkSize = 9
	DiffBlocks    = FrameSize / 8
)

// FrameHeader is the magic prefix of every display frame.
var FrameHeader = []byte{0xAA, 0x55}

// Keepalive is written on a fixed period; the radio stops streaming
// display updates when the link goes quiet.
var Keepalive = []byte{0x55, 0xAA, 0x00, 0x00}

// Command channel constants
const (
	PacketMin = 8 // header + msgLen + CRC + footer

	// MaxPayload is the largest payload BuildPacket can frame: the padded
	// message (type + payloadLen + payload) must fit the u16 length field.
	MaxPayload = 65530

	MsgSessionInit = 0x0514
	MsgSessionInfo = 0x0515
	MsgButtonEvent = 0x0610
	MsgButtonAck   = 0x0611
)

// Command packet framing magics.
var (
	PacketHeader = []byte{0xAB, 0xCD}
	PacketFooter = []byte{0xDC, 0xBA}
)

// Button ack statuses as reported by the firmware.
const (
	AckAccepted = 0
	AckBusy     = 1
	AckInvalid  = 2
	AckStale    = 3
)

// Button actions.
const (
	ActionPress   = 0
	ActionRelease = 1
)

var (
	// ErrNeedMoreData means the buffer does not yet hold a complete unit.
	ErrNeedMoreData = errors.New("need more data")
	// ErrBadFooter means the footer magic did not match at the expected offset.
	ErrBadFooter = errors.New("packet footer mismatch")
	// ErrBadCRC means the message failed its CRC check after de-obfuscation.
	ErrBadCRC = errors.New("packet crc mismatch")
	// ErrTruncatedMessage means the packet body was too short to carry a message.
	ErrTruncatedMessage = errors.New("truncated message")
	// ErrPayloadTooLarge means a payload exceeds MaxPayload and cannot be framed.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Message is the de-obfuscated logical content of one command packet.
type Message struct {
	Type    uint16
	Payload []byte
}

// AckStatusString returns a human-readable name for a button ack status.
func AckStatusString(status uint8) string {
	switch status {
	case AckAccepted:
		return "accepted"
	case AckBusy:
		return "busy"
	case AckInvalid:
		return "invalid"
	case AckStale:
		return "stale"
	}
	return "unknown"
}
