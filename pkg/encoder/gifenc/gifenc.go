// Package gifenc accumulates a capture into a single animated gif.
package gifenc

import (
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"math"

	"github.com/framecap/capture/pkg/capture"
	"github.com/framecap/capture/pkg/encoder"
	"github.com/framecap/capture/pkg/logger"
)

// Repeat is the animation repeat policy, image/gif semantics.
type Repeat int

const (
	// RepeatNone shows each frame once.
	RepeatNone Repeat = -1
	// RepeatInfinite loops forever.
	RepeatInfinite Repeat = 0
)

type Options struct {
	Repeat Repeat
	// Fps drives the per-frame delay; gif delays tick in 10ms.
	Fps float64
}

type Encoder struct {
	sink  io.Writer
	g     gif.GIF
	delay int
	w, h  int
	log   *logger.Logger
}

// New creates an encoder streaming a gif into the sink. The output
// is not a valid gif until Finish has run, that is when the trailer
// is committed.
func New(sink io.Writer, log *logger.Logger, opts Options) (*Encoder, error) {
	if sink == nil {
		return nil, &encoder.ConfigError{Field: "sink", Reason: "is nil"}
	}
	if opts.Repeat < RepeatNone {
		return nil, &encoder.ConfigError{Field: "repeat", Reason: "is invalid"}
	}
	fps := opts.Fps
	if fps <= 0 {
		fps = 60
	}
	delay := int(math.Round(100 / fps))
	if delay < 1 {
		delay = 1
	}
	return &Encoder{
		sink:  sink,
		g:     gif.GIF{LoopCount: int(opts.Repeat)},
		delay: delay,
		log:   log,
	}, nil
}

// Encode appends the frame as one animation step. The first frame
// fixes the canvas dimensions.
func (e *Encoder) Encode(f capture.Frame) error {
	if e.w == 0 && e.h == 0 {
		e.w, e.h = f.W, f.H
	} else if f.W != e.w || f.H != e.h {
		return &encoder.FrameMismatchError{WantW: e.w, WantH: e.h, GotW: f.W, GotH: f.H}
	}

	p := image.NewPaletted(image.Rectangle{Max: image.Point{X: f.W, Y: f.H}}, palette.Plan9)
	draw.FloydSteinberg.Draw(p, p.Rect, f.RGBA(), image.Point{})
	e.g.Image = append(e.g.Image, p)
	e.g.Delay = append(e.g.Delay, e.delay)
	return nil
}

// Finish encodes the accumulated animation and releases the sink.
func (e *Encoder) Finish() {
	if len(e.g.Image) == 0 {
		e.log.Warn().Msg("gif: no frames were encoded")
	} else if err := gif.EncodeAll(e.sink, &e.g); err != nil {
		e.log.Error().Err(err).Msg("gif: encode failed")
	}
	if c, ok := e.sink.(io.Closer); ok {
		if err := c.Close(); err != nil {
			e.log.Error().Err(err).Msg("gif: sink close failed")
		}
	}
}
