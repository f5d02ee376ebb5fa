// Package mjpeg is the software video encoder: frames are converted
// to planar YCbCr 4:2:0, compressed with the jpeg codec and muxed
// into an avi container.
package mjpeg

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"math"

	"github.com/framecap/capture/pkg/capture"
	"github.com/framecap/capture/pkg/encoder"
	"github.com/framecap/capture/pkg/encoder/yuv"
	"github.com/framecap/capture/pkg/logger"
	"github.com/icza/mjpeg"
)

type Options struct {
	Fps float64
	// Quality is the jpeg quality, 1..100.
	Quality int
}

type Encoder struct {
	aw      mjpeg.AviWriter
	conv    *yuv.Conv
	quality int
	w, h    int
	frames  int
	log     *logger.Logger
}

// New creates an encoder muxing the capture into an avi file at
// path. Dimensions and frame rate are fixed at construction; w and
// h must be even for the chroma subsampling.
func New(path string, w, h int, log *logger.Logger, opts Options) (*Encoder, error) {
	if w <= 0 || h <= 0 || w%2 != 0 || h%2 != 0 {
		return nil, &encoder.ConfigError{Field: "dimensions", Reason: fmt.Sprintf("%vx%v are invalid", w, h)}
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		return nil, &encoder.ConfigError{Field: "quality", Reason: "is out of 1..100"}
	}
	fps := opts.Fps
	if fps <= 0 {
		fps = 60
	}
	aw, err := mjpeg.New(path, int32(w), int32(h), int32(math.Round(fps)))
	if err != nil {
		return nil, fmt.Errorf("mjpeg: %w", err)
	}
	return &Encoder{
		aw:      aw,
		conv:    yuv.NewConv(w, h),
		quality: opts.Quality,
		w:       w,
		h:       h,
		log:     log,
	}, nil
}

// Encode converts, compresses and muxes one frame. Returns promptly
// relative to the frame cadence, the codec does not buffer across
// frames.
func (e *Encoder) Encode(f capture.Frame) error {
	if f.W != e.w || f.H != e.h {
		return &encoder.FrameMismatchError{WantW: e.w, WantH: e.h, GotW: f.W, GotH: f.H}
	}

	e.conv.Process(f.Data)
	var buf bytes.Buffer
	buf.Grow(f.Size() >> 2)
	if err := jpeg.Encode(&buf, e.conv.YCbCr(), &jpeg.Options{Quality: e.quality}); err != nil {
		return &encoder.CodecError{Codec: "jpeg", Err: err}
	}
	if err := e.aw.AddFrame(buf.Bytes()); err != nil {
		return &encoder.CodecError{Codec: "avi", Err: err}
	}
	e.frames++
	return nil
}

// Finish writes the avi index and headers and closes the container.
func (e *Encoder) Finish() {
	if err := e.aw.Close(); err != nil {
		e.log.Error().Err(err).Msg("mjpeg: container close failed")
		return
	}
	e.log.Debug().Msgf("mjpeg done, frames: %v", e.frames)
}
