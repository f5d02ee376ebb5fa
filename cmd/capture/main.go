package main

import (
	"context"
	goflag "flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/framecap/capture/pkg/capture"
	"github.com/framecap/capture/pkg/config"
	"github.com/framecap/capture/pkg/encoder"
	"github.com/framecap/capture/pkg/encoder/ffmpeg"
	"github.com/framecap/capture/pkg/encoder/frames"
	"github.com/framecap/capture/pkg/encoder/gifenc"
	"github.com/framecap/capture/pkg/encoder/mjpeg"
	"github.com/framecap/capture/pkg/logger"
	"github.com/framecap/capture/pkg/monitoring"
	oss "github.com/framecap/capture/pkg/os"
	flag "github.com/spf13/pflag"
)

var Version = ""

var (
	debug  = goflag.Bool("debug", false, "debug logging")
	width  = goflag.Int("width", 320, "frame width")
	height = goflag.Int("height", 240, "frame height")
	count  = goflag.Int("frames", 180, "number of frames to capture")
)

func run() error {
	conf := config.NewConfig()
	if err := config.LoadConfig(&conf, ""); err != nil {
		// fall back to defaults + env when no config file around
		_ = config.LoadConfigEnv(&conf)
	}
	conf.Capture.WithFlags()
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	flag.Parse()

	log := logger.NewConsole(*debug, "capture", false)
	log.Info().Msgf("version: %v", Version)

	dir := filepath.Join(conf.Capture.Dir, encoder.ParseName(conf.Capture.Name, conf.Capture.Encoder.Variant))
	if err := oss.CheckCreateDir(dir); err != nil {
		return err
	}

	lock, err := oss.NewFileLock(filepath.Join(dir, ".lock"))
	if err != nil {
		return err
	}
	if ok, err := lock.TryLock(); err != nil || !ok {
		return fmt.Errorf("capture dir is locked by another process: %v", dir)
	}
	defer func() { _ = lock.Unlock() }()

	if conf.Monitoring.IsEnabled() {
		m := monitoring.New(conf.Monitoring, "capture", log)
		m.Run()
		defer func() { _ = m.Shutdown(context.Background()) }()
	}

	w, h := *width, *height
	enc, err := newEncoder(conf.Capture, dir, w, h, log)
	if err != nil {
		return err
	}

	session := capture.NewSession(log, capture.Options{Queue: conf.Capture.Queue})
	if err := session.Start(enc); err != nil {
		return err
	}

	buf := make([]byte, w*h*4)
	tick := time.NewTicker(time.Duration(float64(time.Second) / conf.Capture.Fps))
	defer tick.Stop()

	term := oss.ExpectTermination()
	for i := 0; i < *count; i++ {
		select {
		case <-term:
			i = *count
		case <-tick.C:
			render(buf, w, h, i)
			frame, err := capture.FromBuffer(buf, w, h, 0, capture.RGBA8)
			if err != nil {
				return err
			}
			if conf.Capture.Scale != 1 {
				frame = frame.Scaled(conf.Capture.Scale)
			}
			session.Submit(frame)
		}
	}

	session.Close()
	if err := session.Err(); err != nil {
		log.Error().Err(err).Msg("capture had encode errors")
	}
	log.Info().Msgf("done, artifacts in %v (dropped: %v)", dir, session.Dropped())
	return nil
}

func newEncoder(conf config.Capture, dir string, w, h int, log *logger.Logger) (capture.Encoder, error) {
	switch conf.Encoder.Variant {
	case "frames":
		return frames.New(dir, log, frames.Options{
			StartIndex:  conf.Encoder.Frames.StartIndex,
			Compression: conf.Encoder.Frames.Compression,
		})
	case "gif":
		sink, err := encoder.NewFileSink(dir, "capture.gif")
		if err != nil {
			return nil, err
		}
		return gifenc.New(sink, log, gifenc.Options{
			Repeat: gifenc.Repeat(conf.Encoder.Gif.Repeat),
			Fps:    conf.Fps,
		})
	case "mjpeg":
		return mjpeg.New(filepath.Join(dir, "capture.avi"), w, h, log, mjpeg.Options{
			Fps:     conf.Fps,
			Quality: conf.Encoder.Mjpeg.Quality,
		})
	case "ffmpeg":
		return ffmpeg.New(filepath.Join(dir, "capture.mp4"), w, h, log, ffmpeg.Options{
			Bin:    conf.Encoder.Ffmpeg.Bin,
			PixFmt: conf.Encoder.Ffmpeg.PixFmt,
			Fps:    conf.Fps,
			Crf:    conf.Encoder.Ffmpeg.Crf,
			Args:   conf.Encoder.Ffmpeg.Args,
		})
	}
	return nil, fmt.Errorf("unknown encoder variant: %v", conf.Encoder.Variant)
}

// render draws a moving diagonal gradient, enough to eyeball motion
// in the produced artifacts.
func render(buf []byte, w, h, tick int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) << 2
			buf[i] = uint8(x + tick)
			buf[i+1] = uint8(y + tick)
			buf[i+2] = uint8(x + y)
			buf[i+3] = 0xff
		}
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
