// Package encoder holds the pieces shared by the built-in encoder
// variants: the error taxonomy, buffered file sinks and artifact
// naming. The contract every variant satisfies is capture.Encoder.
package encoder

import (
	"errors"
	"fmt"
)

// ConfigError reports a malformed encoder configuration. It is
// detected at construction, before any frame is processed, and
// propagates synchronously to the caller of Start.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("encoder config: %s %s", e.Field, e.Reason)
}

// FrameMismatchError reports a frame whose geometry disagrees with
// the stream parameters fixed by the first frame or the
// configuration. Container formats fix dimensions at stream start.
type FrameMismatchError struct {
	WantW, WantH int
	GotW, GotH   int
}

func (e *FrameMismatchError) Error() string {
	return fmt.Sprintf("frame %vx%v doesn't match the %vx%v stream",
		e.GotW, e.GotH, e.WantW, e.WantH)
}

// CodecError wraps a failure of the underlying codec or muxer.
type CodecError struct {
	Codec string
	Err   error
}

func (e *CodecError) Error() string { return fmt.Sprintf("%s: %v", e.Codec, e.Err) }
func (e *CodecError) Unwrap() error { return e.Err }

func IsMismatch(err error) bool {
	var m *FrameMismatchError
	return errors.As(err, &m)
}
