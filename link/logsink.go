package link

import (
	"errors"

	"github.com/rs/zerolog"

	"k5mirror/engine"
	"k5mirror/protocol"
)

var errLinkClosed = errors.New("link closed")

var keepaliveBytes = protocol.Keepalive

func actionString(action uint8) string {
	if action == protocol.ActionRelease {
		return "release"
	}
	return "press"
}

// logSink renders engine events as structured log lines.
type logSink struct {
	log zerolog.Logger
}

func (s logSink) Emit(ev engine.Event) {
	switch e := ev.(type) {
	case engine.FullFrame:
		s.log.Debug().Msg("full frame received")
	case engine.DiffApplied:
		s.log.Debug().Int("chunks", e.Chunks).Msg("diff frame applied")
	case engine.UnknownFrame:
		s.log.Warn().Uint8("type", e.Type).Int("size", e.Size).Msg("ignored unknown frame")
	case engine.MalformedPacket:
		s.log.Warn().Err(e.Err).Msg("malformed command packet")
	case engine.SessionSent:
		s.log.Debug().Uint32("ts", e.TS).Msg("session init sent")
	case engine.SessionEstablished:
		s.log.Info().Uint32("ts", e.TS).Msg("session established")
	case engine.SessionTimeout:
		s.log.Warn().Msg("session init timed out")
	case engine.SessionExpired:
		s.log.Debug().Msg("session expired, re-handshaking")
	case engine.ButtonSent:
		s.log.Debug().Str("key", e.Key).Str("action", actionString(e.Action)).
			Uint16("seq", e.Seq).Msg("button event sent")
	case engine.ButtonAcked:
		s.log.Info().Str("key", e.Key).Str("action", actionString(e.Action)).
			Uint8("queue_depth", e.Depth).Msg("button accepted")
	case engine.ButtonRetried:
		s.log.Warn().Str("key", e.Key).Str("action", actionString(e.Action)).
			Int("retries", e.Retries).Str("reason", e.Reason).Msg("button retried")
	case engine.ButtonDropped:
		s.log.Error().Str("key", e.Key).Str("action", actionString(e.Action)).
			Str("reason", e.Reason).Msg("button dropped")
	case engine.TransportError:
		s.log.Warn().Str("op", e.Op).Err(e.Err).Msg("transport error")
	}
}
