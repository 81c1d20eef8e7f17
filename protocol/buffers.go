package protocol

import "bytes"

// StreamBuffer accumulates raw bytes from the transport for one of the two
// independently framed streams (display frames, command packets). Each parser
// owns its own StreamBuffer; both are fed the same inbound bytes.
type StreamBuffer struct {
	data []byte
}

// Append adds newly received bytes to the back of the buffer.
func (s *StreamBuffer) Append(data []byte) {
	s.data = append(s.data, data...)
}

// Data returns the buffered bytes. The slice is only valid until the next
// Append or Pop.
func (s *StreamBuffer) Data() []byte {
	return s.data
}

// Available returns the number of buffered bytes.
func (s *StreamBuffer) Available() int {
	return len(s.data)
}

// Pop removes n bytes from the front of the buffer.
func (s *StreamBuffer) Pop(n int) {
	if n >= len(s.data) {
		s.data = s.data[:0]
		return
	}
	s.data = append(s.data[:0], s.data[n:]...)
}

// KeepTail discards everything but the last n bytes. Used to retain a
// possible partial magic split across reads.
func (s *StreamBuffer) KeepTail(n int) {
	if len(s.data) > n {
		s.Pop(len(s.data) - n)
	}
}

// IndexMagic returns the offset of the first occurrence of magic, or -1.
func (s *StreamBuffer) IndexMagic(magic []byte) int {
	return bytes.Index(s.data, magic)
}

// Reset clears the buffer.
func (s *StreamBuffer) Reset() {
	s.data = s.data[:0]
}
