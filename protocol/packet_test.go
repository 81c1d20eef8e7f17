package protocol

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func mustPacket(t *testing.T, msgType uint16, payload []byte) []byte {
	t.Helper()
	pkt, err := BuildPacket(msgType, payload)
	if err != nil {
		t.Fatalf("BuildPacket(0x%04X, %d bytes): %v", msgType, len(payload), err)
	}
	return pkt
}

func TestBuildPacketGolden(t *testing.T) {
	// Session init with timestamp 0x01020304, verified against the
	// firmware's framing.
	want, _ := hex.DecodeString("abcd0800026910e62a920f411c9ddcba")

	got := mustPacket(t, MsgSessionInit, SessionInitPayload(0x01020304))
	if !bytes.Equal(got, want) {
		t.Errorf("BuildPacket = %x, want %x", got, want)
	}
}

func TestBuildPacketPayloadLimit(t *testing.T) {
	// The largest framable payload must survive a round trip.
	payload := make([]byte, MaxPayload)
	for i := range payload {
		payload[i] = byte(i)
	}

	r := NewPacketReader()
	r.Feed(mustPacket(t, MsgButtonEvent, payload))
	msg, err := r.Next()
	if err != nil {
		t.Fatalf("Next() at max payload: %v", err)
	}
	if !bytes.Equal(msg.Payload, payload) {
		t.Error("max-size payload mismatch after round trip")
	}

	// One byte more would overflow the u16 message length field.
	if _, err := BuildPacket(MsgButtonEvent, make([]byte, MaxPayload+1)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestPacketRoundTrip(t *testing.T) {
	lengths := []int{0, 1, 2, 3, 4, 5, 10, 63, 64, 255, 256}

	for _, n := range lengths {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(i * 7)
		}

		r := NewPacketReader()
		r.Feed(mustPacket(t, MsgButtonEvent, payload))

		msg, err := r.Next()
		if err != nil {
			t.Fatalf("len %d: Next() error: %v", n, err)
		}
		if msg.Type != MsgButtonEvent {
			t.Errorf("len %d: type = 0x%04X, want 0x%04X", n, msg.Type, MsgButtonEvent)
		}
		if !bytes.Equal(msg.Payload, payload) {
			t.Errorf("len %d: payload mismatch", n)
		}

		if _, err := r.Next(); !errors.Is(err, ErrNeedMoreData) {
			t.Errorf("len %d: expected empty reader, got %v", n, err)
		}
	}
}

func TestPacketReaderSplitFeeds(t *testing.T) {
	packet := mustPacket(t, MsgSessionInfo, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	r := NewPacketReader()

	// Feed one byte at a time; the message must appear exactly once.
	for i, b := range packet {
		r.Feed([]byte{b})
		msg, err := r.Next()
		if i < len(packet)-1 {
			if !errors.Is(err, ErrNeedMoreData) {
				t.Fatalf("byte %d: expected need-more-data, got msg=%v err=%v", i, msg, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("final byte: %v", err)
		}
		if msg.Type != MsgSessionInfo {
			t.Errorf("type = 0x%04X, want 0x%04X", msg.Type, MsgSessionInfo)
		}
	}
}

func TestPacketReaderSkipsGarbage(t *testing.T) {
	r := NewPacketReader()
	r.Feed([]byte{0x00, 0xFF, 0xAB, 0x12}) // noise including a lone header byte
	r.Feed(mustPacket(t, MsgButtonAck, []byte{1, 0, 0, 2}))

	msg, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if msg.Type != MsgButtonAck {
		t.Errorf("type = 0x%04X, want 0x%04X", msg.Type, MsgButtonAck)
	}
}

func TestPacketReaderPartialHeaderRetained(t *testing.T) {
	packet := mustPacket(t, MsgSessionInit, SessionInitPayload(42))

	r := NewPacketReader()
	// Pad with noise so the reader is past its minimum size, ending on the
	// first header byte.
	r.Feed(append(bytes.Repeat([]byte{0x11}, 12), packet[0]))
	if _, err := r.Next(); !errors.Is(err, ErrNeedMoreData) {
		t.Fatalf("expected need-more-data, got %v", err)
	}

	r.Feed(packet[1:])
	msg, err := r.Next()
	if err != nil {
		t.Fatalf("Next() after header split: %v", err)
	}
	if msg.Type != MsgSessionInit {
		t.Errorf("type = 0x%04X, want 0x%04X", msg.Type, MsgSessionInit)
	}
}

func TestPacketReaderBadFooterResync(t *testing.T) {
	good := mustPacket(t, MsgSessionInfo, []byte{9, 9, 9, 9})
	bad := make([]byte, len(good))
	copy(bad, good)
	bad[len(bad)-2] = 0x00 // clobber footer

	r := NewPacketReader()
	r.Feed(bad)
	r.Feed(good)

	sawFooterErr := false
	for {
		msg, err := r.Next()
		if errors.Is(err, ErrNeedMoreData) {
			t.Fatal("reader stalled before recovering the good packet")
		}
		if errors.Is(err, ErrBadFooter) {
			sawFooterErr = true
			continue
		}
		if err != nil {
			continue
		}
		if msg.Type != MsgSessionInfo {
			t.Errorf("recovered type = 0x%04X, want 0x%04X", msg.Type, MsgSessionInfo)
		}
		break
	}
	if !sawFooterErr {
		t.Error("expected at least one footer mismatch diagnostic")
	}
}

func TestPacketReaderCRCMismatch(t *testing.T) {
	packet := mustPacket(t, MsgButtonEvent, ButtonEventPayload(1, 2, 3, 0))
	packet[5] ^= 0x40 // corrupt one obfuscated message byte

	r := NewPacketReader()
	r.Feed(packet)

	if _, err := r.Next(); !errors.Is(err, ErrBadCRC) {
		t.Fatalf("expected CRC mismatch, got %v", err)
	}

	// The corrupt packet must be fully consumed.
	if _, err := r.Next(); !errors.Is(err, ErrNeedMoreData) {
		t.Errorf("expected empty reader after drop, got %v", err)
	}
}

func TestParseButtonAck(t *testing.T) {
	ack, err := ParseButtonAck([]byte{0x34, 0x12, AckStale, 5})
	if err != nil {
		t.Fatalf("ParseButtonAck error: %v", err)
	}
	if ack.Seq != 0x1234 || ack.Status != AckStale || ack.Depth != 5 {
		t.Errorf("ParseButtonAck = %+v", ack)
	}

	if _, err := ParseButtonAck([]byte{1, 2}); err == nil {
		t.Error("expected error for short ack payload")
	}
}
