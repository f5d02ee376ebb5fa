package config

import "flag"

type Config struct {
	Capture    Capture
	Monitoring Monitoring
}

type Capture struct {
	// the root folder for all produced artifacts
	Dir string
	// output naming pattern, supports
	// %date:go_time_format%, %rand:len% placeholders
	Name string
	// logical frame rate of the host tick
	Fps float64
	// hand-off queue capacity between the producer and
	// the encoder worker, overflow drops the incoming frame
	Queue int
	// downscale factor for captured frames, 1 keeps the source size
	Scale   float64
	Encoder Encoder
}

type Encoder struct {
	// one of: frames, gif, mjpeg, ffmpeg
	Variant string
	Frames  Frames
	Gif     Gif
	Mjpeg   Mjpeg
	Ffmpeg  Ffmpeg
}

type Frames struct {
	// index of the first written image
	StartIndex int
	// png compression level, see image/png
	Compression int
}

type Gif struct {
	// animation repeats: -1 plays once, 0 loops forever,
	// n>0 restarts n times (image/gif semantics)
	Repeat int
}

type Mjpeg struct {
	// jpeg quality, 1..100
	Quality int
}

type Ffmpeg struct {
	// transcoder binary resolved through PATH
	Bin string
	// raw pixel layout written to the process: rgba or yuv420p
	PixFmt string
	// constant rate factor passed to the codec
	Crf int
	// extra output args appended before the target file
	Args []string
}

type Monitoring struct {
	Port             int
	URLPrefix        string
	MetricEnabled    bool `fig:"metric_enabled"`
	ProfilingEnabled bool `fig:"profiling_enabled"`
}

func (c *Monitoring) IsEnabled() bool { return c.MetricEnabled || c.ProfilingEnabled }

func NewConfig() Config {
	return Config{
		Capture: Capture{
			Dir:   "captures",
			Name:  "capture_%date:20060102_150405%",
			Fps:   60,
			Queue: 64,
			Scale: 1,
			Encoder: Encoder{
				Variant: "frames",
				Frames:  Frames{StartIndex: 0, Compression: 0},
				Gif:     Gif{Repeat: 0},
				Mjpeg:   Mjpeg{Quality: 90},
				Ffmpeg:  Ffmpeg{Bin: "ffmpeg", PixFmt: "rgba", Crf: 23},
			},
		},
		Monitoring: Monitoring{Port: 6601, MetricEnabled: false, ProfilingEnabled: false},
	}
}

func (c *Capture) WithFlags() {
	flag.StringVar(&c.Dir, "dir", c.Dir, "capture output directory")
	flag.StringVar(&c.Name, "name", c.Name, "capture output naming pattern")
	flag.Float64Var(&c.Fps, "fps", c.Fps, "logical frame rate")
	flag.IntVar(&c.Queue, "queue", c.Queue, "frame hand-off queue capacity")
	flag.StringVar(&c.Encoder.Variant, "encoder", c.Encoder.Variant, "encoder variant (frames|gif|mjpeg|ffmpeg)")
}
