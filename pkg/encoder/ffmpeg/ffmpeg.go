// Package ffmpeg pipes raw frames into an external transcoding
// process. Back-pressure happens at the OS pipe level: a slow
// process blocks Encode on the worker, never the producer.
package ffmpeg

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"

	"github.com/framecap/capture/pkg/capture"
	"github.com/framecap/capture/pkg/encoder"
	"github.com/framecap/capture/pkg/encoder/yuv"
	"github.com/framecap/capture/pkg/logger"
)

type Options struct {
	// Bin is the transcoder binary resolved through PATH.
	Bin string
	// PixFmt is the raw layout written to the process stdin,
	// rgba or yuv420p.
	PixFmt string
	Fps    float64
	// Crf is the constant rate factor passed to the codec.
	Crf int
	// Args are extra output args appended before the target file.
	Args []string
}

type Encoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	conv   *yuv.Conv
	w, h   int
	out    string
	frames int
	stderr bytes.Buffer
	log    *logger.Logger
}

// New spawns the process with dimensions and pixel layout fixed for
// the whole stream.
func New(out string, w, h int, log *logger.Logger, opts Options) (*Encoder, error) {
	if out == "" {
		return nil, &encoder.ConfigError{Field: "output", Reason: "is empty"}
	}
	if w <= 0 || h <= 0 {
		return nil, &encoder.ConfigError{Field: "dimensions", Reason: fmt.Sprintf("%vx%v are invalid", w, h)}
	}
	bin := opts.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, &encoder.ConfigError{Field: "binary", Reason: fmt.Sprintf("%v not found in PATH", bin)}
	}

	pixFmt := opts.PixFmt
	var conv *yuv.Conv
	switch pixFmt {
	case "", "rgba":
		pixFmt = "rgba"
	case "yuv420p":
		if w%2 != 0 || h%2 != 0 {
			return nil, &encoder.ConfigError{Field: "dimensions", Reason: "yuv420p needs even width and height"}
		}
		conv = yuv.NewConv(w, h)
	default:
		return nil, &encoder.ConfigError{Field: "pix fmt", Reason: pixFmt + " is not supported"}
	}

	fps := opts.Fps
	if fps <= 0 {
		fps = 60
	}
	crf := opts.Crf
	if crf <= 0 {
		crf = 23
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", pixFmt,
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-framerate", strconv.Itoa(int(math.Round(fps))),
		"-i", "-",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-crf", strconv.Itoa(crf),
	}
	args = append(args, opts.Args...)
	args = append(args, out)

	e := &Encoder{
		cmd:  exec.Command(path, args...),
		conv: conv,
		w:    w,
		h:    h,
		out:  out,
		log:  log,
	}
	e.cmd.Stderr = &e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}
	e.stdin = stdin

	if err := e.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}
	log.Debug().Msgf("ffmpeg spawned: %v %v", path, args)
	return e, nil
}

// Encode serializes the frame as raw bytes into the process stdin.
// Blocks when the process consumes slower than the capture produces.
func (e *Encoder) Encode(f capture.Frame) error {
	if f.W != e.w || f.H != e.h {
		return &encoder.FrameMismatchError{WantW: e.w, WantH: e.h, GotW: f.W, GotH: f.H}
	}
	data := f.Data
	if e.conv != nil {
		data = e.conv.Process(f.Data)
	}
	if _, err := e.stdin.Write(data); err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	e.frames++
	return nil
}

// Finish signals end-of-input and waits for the process to exit.
// A non-zero status means an incomplete artifact and is logged, the
// worker has no caller left to report it to.
func (e *Encoder) Finish() {
	if err := e.stdin.Close(); err != nil {
		e.log.Error().Err(err).Msg("ffmpeg: stdin close failed")
	}
	if err := e.cmd.Wait(); err != nil {
		e.log.Error().Err(err).Msgf("ffmpeg failed, output may be incomplete: %v", tail(e.stderr.String(), 512))
		return
	}
	e.log.Debug().Msgf("ffmpeg done, frames: %v, output: %v", e.frames, e.out)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
