package capture

import "github.com/framecap/capture/pkg/monitoring"

// drain is the encoder worker loop. It owns the consumer end of the
// queue and the encoders; the channel is the only coupling with the
// session. Per-frame errors are recorded, not fatal, so one bad
// frame doesn't abort a long capture. On channel closure every
// encoder is finished exactly once.
func (s *Session) drain(frames <-chan Frame, encoders []Encoder) {
	for f := range frames {
		for _, enc := range encoders {
			if err := enc.Encode(f); err != nil {
				s.record(err)
				monitoring.EncodeErrors.WithLabelValues(s.id.Short()).Inc()
				s.log.Error().Err(err).Msg("frame encode failed")
			}
		}
		s.encoded++
		monitoring.FramesEncoded.WithLabelValues(s.id.Short()).Inc()
	}
	for _, enc := range encoders {
		enc.Finish()
	}
	s.log.Info().Msgf("capture finished, encoded: %v", s.encoded)
}
