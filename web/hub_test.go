package web

import (
	"bytes"
	"testing"

	"k5mirror/engine"
)

func TestHubBroadcastsFrames(t *testing.T) {
	hub := NewHub()
	sub := hub.subscribe()

	frame := bytes.Repeat([]byte{0x5A}, 1024)
	hub.Emit(engine.FullFrame{Frame: frame})

	select {
	case got := <-sub:
		if !bytes.Equal(got, frame) {
			t.Error("subscriber received wrong frame")
		}
	default:
		t.Fatal("subscriber received nothing")
	}

	hub.unsubscribe(sub)
	hub.Emit(engine.DiffApplied{Chunks: 1, Frame: frame})
	select {
	case <-sub:
		t.Error("unsubscribed channel still receives frames")
	default:
	}
}

func TestHubPrimesNewSubscribers(t *testing.T) {
	hub := NewHub()

	frame := bytes.Repeat([]byte{0x11}, 1024)
	hub.Emit(engine.FullFrame{Frame: frame})

	sub := hub.subscribe()
	select {
	case got := <-sub:
		if !bytes.Equal(got, frame) {
			t.Error("primed frame mismatch")
		}
	default:
		t.Fatal("new subscriber was not primed with the last frame")
	}
}

func TestHubDropsForSlowSubscribers(t *testing.T) {
	hub := NewHub()
	sub := hub.subscribe()

	// Fill the subscriber's buffer and keep going; Emit must not block.
	frame := make([]byte, 1024)
	for i := 0; i < 20; i++ {
		hub.Emit(engine.FullFrame{Frame: frame})
	}

	if len(sub) == 0 {
		t.Error("expected at least one buffered frame")
	}
}
