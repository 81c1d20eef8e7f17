package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// BuildPacket wraps a message in the command packet framing:
//
//	AB CD | msgLen:u16LE | message | crc:u16LE | DC BA
//
// where message is type:u16LE | payloadLen:u16LE | payload, padded with one
// zero byte when its length is odd. The CRC covers the clear (padded)
// message; message and CRC are then obfuscated in place. Header, length and
// footer stay cleartext.
//
// Payloads longer than MaxPayload cannot be framed: the padded message
// length would overflow the u16 length field.
func BuildPacket(msgType uint16, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	msgLen := 4 + len(payload)
	if msgLen%2 != 0 {
		msgLen++ // pad byte
	}

	packet := make([]byte, 4+msgLen+2+2)
	copy(packet[0:2], PacketHeader)
	binary.LittleEndian.PutUint16(packet[2:4], uint16(msgLen))

	msg := packet[4 : 4+msgLen]
	binary.LittleEndian.PutUint16(msg[0:2], msgType)
	binary.LittleEndian.PutUint16(msg[2:4], uint16(len(payload)))
	copy(msg[4:], payload)

	crc := CRC16(msg)
	binary.LittleEndian.PutUint16(packet[4+msgLen:], crc)
	copy(packet[4+msgLen+2:], PacketFooter)

	Obfuscate(packet[4 : 4+msgLen+2])
	return packet, nil
}

// PacketReader extracts command messages from the raw inbound byte stream.
// Like the display decoder it resynchronizes on garbage, but a bad footer
// skips only two bytes so the scan can retry inside the same data.
type PacketReader struct {
	buf StreamBuffer
}

// NewPacketReader creates an empty reader.
func NewPacketReader() *PacketReader {
	return &PacketReader{}
}

// Feed appends newly received bytes.
func (r *PacketReader) Feed(data []byte) {
	r.buf.Append(data)
}

// Next attempts to extract one message. It returns ErrNeedMoreData when the
// buffer holds no complete packet; ErrBadFooter, ErrBadCRC and
// ErrTruncatedMessage are diagnostics after which the caller should call
// Next again to continue draining.
func (r *PacketReader) Next() (*Message, error) {
	if r.buf.Available() < PacketMin {
		return nil, ErrNeedMoreData
	}

	hdr := r.buf.IndexMagic(PacketHeader)
	if hdr < 0 {
		// Retain a possible partial header split across reads.
		raw := r.buf.Data()
		if len(raw) > 0 && raw[len(raw)-1] == PacketHeader[0] {
			r.buf.KeepTail(1)
		} else {
			r.buf.Reset()
		}
		return nil, ErrNeedMoreData
	}
	r.buf.Pop(hdr)
	if r.buf.Available() < PacketMin {
		return nil, ErrNeedMoreData
	}

	raw := r.buf.Data()
	msgLen := int(binary.LittleEndian.Uint16(raw[2:4]))
	packetEnd := 4 + msgLen + 2
	total := packetEnd + 2
	if r.buf.Available() < total {
		return nil, ErrNeedMoreData
	}

	if !bytes.Equal(raw[packetEnd:total], PacketFooter) {
		// Skip just the header magic so the scan can resynchronize on a
		// later packet inside the same bytes.
		r.buf.Pop(2)
		return nil, ErrBadFooter
	}

	body := make([]byte, msgLen+2)
	copy(body, raw[4:packetEnd])
	Obfuscate(body)

	if msgLen < 2 {
		r.buf.Pop(total)
		return nil, ErrTruncatedMessage
	}

	wireCRC := binary.LittleEndian.Uint16(body[msgLen:])
	if got := CRC16(body[:msgLen]); got != wireCRC {
		r.buf.Pop(total)
		return nil, fmt.Errorf("%w: got %04X want %04X", ErrBadCRC, got, wireCRC)
	}

	msg := &Message{Type: binary.LittleEndian.Uint16(body[0:2])}
	if msgLen >= 4 {
		plen := int(binary.LittleEndian.Uint16(body[2:4]))
		if plen > msgLen-4 {
			plen = msgLen - 4
		}
		msg.Payload = make([]byte, plen)
		copy(msg.Payload, body[4:4+plen])
	}

	r.buf.Pop(total)
	return msg, nil
}

// SessionInitPayload builds the 4-byte payload of a session init message.
func SessionInitPayload(ts uint32) []byte {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, ts)
	return payload
}

// ButtonEventPayload builds the 10-byte payload of a button event message.
// The trailing hold-time halfword is always transmitted as zero.
func ButtonEventPayload(ts uint32, seq uint16, key, action uint8) []byte {
	payload := make([]byte, 10)
	binary.LittleEndian.PutUint32(payload[0:4], ts)
	binary.LittleEndian.PutUint16(payload[4:6], seq)
	payload[6] = key
	payload[7] = action
	return payload
}

// ButtonAck is the decoded payload of a button ack message.
type ButtonAck struct {
	Seq    uint16
	Status uint8
	Depth  uint8
}

// ParseButtonAck decodes a button ack payload.
func ParseButtonAck(payload []byte) (ButtonAck, error) {
	if len(payload) < 4 {
		return ButtonAck{}, fmt.Errorf("%w: button ack payload %d bytes", ErrTruncatedMessage, len(payload))
	}
	return ButtonAck{
		Seq:    binary.LittleEndian.Uint16(payload[0:2]),
		Status: payload[2],
		Depth:  payload[3],
	}, nil
}

// SessionInfoTimestamp extracts the echoed session timestamp, if present.
func SessionInfoTimestamp(payload []byte) (uint32, bool) {
	if len(payload) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(payload[0:4]), true
}
