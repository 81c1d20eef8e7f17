package protocol

import "encoding/binary"

// FrameUpdateKind classifies one decoded display frame.
type FrameUpdateKind int

const (
	FrameFull FrameUpdateKind = iota
	FrameDiff
	FrameUnknown
)

// FrameUpdate describes one decoded display frame. For full and diff frames
// Frame holds a snapshot copy of the display buffer after applying the
// update; consumers may retain it.
type FrameUpdate struct {
	Kind    FrameUpdateKind
	Chunks  int   // number of diff chunks applied (diff frames)
	RawType uint8 // frame type byte (unknown frames)
	RawSize int   // declared payload size (unknown frames)
	Frame   []byte
}

// DisplayDecoder reconstructs the radio's 128x64 display from the frame
// stream. It is a resynchronizing parser: it tolerates garbage before a
// header and arbitrary split points across reads.
type DisplayDecoder struct {
	buf   StreamBuffer
	frame [FrameSize]byte
}

// NewDisplayDecoder creates a decoder with a blank display.
func NewDisplayDecoder() *DisplayDecoder {
	return &DisplayDecoder{}
}

// Frame returns a copy of the current display buffer.
func (d *DisplayDecoder) Frame() []byte {
	out := make([]byte, FrameSize)
	copy(out, d.frame[:])
	return out
}

// Ingest appends data to the receive buffer and drains every complete frame
// found, returning the resulting updates in stream order.
func (d *DisplayDecoder) Ingest(data []byte) []FrameUpdate {
	d.buf.Append(data)

	var updates []FrameUpdate
	for {
		if d.buf.Available() < frameHeaderSize {
			return updates
		}

		hdr := d.buf.IndexMagic(FrameHeader)
		if hdr < 0 {
			// Keep the tail byte in case a header is split across reads.
			d.buf.KeepTail(1)
			return updates
		}
		if hdr > 0 {
			d.buf.Pop(hdr)
			if d.buf.Available() < frameHeaderSize {
				return updates
			}
		}

		raw := d.buf.Data()
		frameType := raw[2]
		size := int(binary.BigEndian.Uint16(raw[3:5]))
		total := frameHeaderSize + size
		if d.buf.Available() < total {
			return updates
		}

		payload := make([]byte, size)
		copy(payload, raw[frameHeaderSize:total])
		d.buf.Pop(total)

		switch {
		case frameType == FrameTypeScreenshot && size == FrameSize:
			copy(d.frame[:], payload)
			updates = append(updates, FrameUpdate{Kind: FrameFull, Frame: d.Frame()})

		case frameType == FrameTypeDiff && size%DiffChunkSize == 0:
			chunks := d.applyDiff(payload)
			updates = append(updates, FrameUpdate{Kind: FrameDiff, Chunks: chunks, Frame: d.Frame()})

		default:
			updates = append(updates, FrameUpdate{Kind: FrameUnknown, RawType: frameType, RawSize: size})
		}
	}
}

// applyDiff replaces 8-byte blocks of the display buffer. An out-of-range
// block index terminates the payload; remaining bytes are unused.
func (d *DisplayDecoder) applyDiff(payload []byte) int {
	chunks := 0
	for i := 0; i+DiffChunkSize <= len(payload); i += DiffChunkSize {
		block := int(payload[i])
		if block >= DiffBlocks {
			break
		}
		copy(d.frame[block*8:block*8+8], payload[i+1:i+DiffChunkSize])
		chunks++
	}
	return chunks
}
