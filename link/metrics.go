package link

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"k5mirror/engine"
)

var (
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "k5mirror_frames_total",
		Help: "Display frames decoded, by kind.",
	}, []string{"kind"})

	diffChunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "k5mirror_diff_chunks_total",
		Help: "Diff chunks applied to the display buffer.",
	})

	buttonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "k5mirror_buttons_total",
		Help: "Button events, by outcome.",
	}, []string{"outcome"})

	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "k5mirror_sessions_total",
		Help: "Session handshake outcomes.",
	}, []string{"outcome"})

	malformedPackets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "k5mirror_malformed_packets_total",
		Help: "Command packets discarded during parsing.",
	})

	transportErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "k5mirror_transport_errors_total",
		Help: "Failed serial writes reported by the engine.",
	})

	keepalivesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "k5mirror_keepalives_sent_total",
		Help: "Keepalive heartbeats written to the radio.",
	})

	linkIOErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "k5mirror_link_io_errors_total",
		Help: "Serial I/O failures on the link loop.",
	})
)

// metricsSink counts engine events.
type metricsSink struct{}

func (metricsSink) Emit(ev engine.Event) {
	switch e := ev.(type) {
	case engine.FullFrame:
		framesTotal.WithLabelValues("full").Inc()
	case engine.DiffApplied:
		framesTotal.WithLabelValues("diff").Inc()
		diffChunksTotal.Add(float64(e.Chunks))
	case engine.UnknownFrame:
		framesTotal.WithLabelValues("unknown").Inc()
	case engine.MalformedPacket:
		malformedPackets.Inc()
	case engine.SessionEstablished:
		sessionsTotal.WithLabelValues("established").Inc()
	case engine.SessionTimeout:
		sessionsTotal.WithLabelValues("timeout").Inc()
	case engine.SessionExpired:
		sessionsTotal.WithLabelValues("expired").Inc()
	case engine.ButtonSent:
		buttonsTotal.WithLabelValues("sent").Inc()
	case engine.ButtonAcked:
		buttonsTotal.WithLabelValues("acked").Inc()
	case engine.ButtonRetried:
		buttonsTotal.WithLabelValues("retried").Inc()
	case engine.ButtonDropped:
		buttonsTotal.WithLabelValues("dropped").Inc()
	case engine.TransportError:
		transportErrors.Inc()
	}
}
