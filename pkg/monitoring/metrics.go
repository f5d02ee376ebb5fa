package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Capture pipeline counters, labeled by session id.
var (
	FramesSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "framecap",
		Name:      "frames_submitted_total",
		Help:      "Frames accepted into the hand-off queue.",
	}, []string{"session"})
	FramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "framecap",
		Name:      "frames_dropped_total",
		Help:      "Frames dropped on queue overflow or outside the capturing state.",
	}, []string{"session"})
	FramesEncoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "framecap",
		Name:      "frames_encoded_total",
		Help:      "Frames fully processed by the encoder worker.",
	}, []string{"session"})
	EncodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "framecap",
		Name:      "encode_errors_total",
		Help:      "Per-frame encoder failures recorded by the worker.",
	}, []string{"session"})
)
