// Package frames encodes a capture into independently decodable
// still images, one numbered png file per frame.
package frames

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/framecap/capture/pkg/capture"
	"github.com/framecap/capture/pkg/encoder"
	"github.com/framecap/capture/pkg/logger"
	oss "github.com/framecap/capture/pkg/os"
)

const fileName = "frame_%06d.png"

type Options struct {
	// StartIndex numbers the first written image.
	StartIndex int
	// Compression is the png compression level, see image/png.
	Compression int
}

type Encoder struct {
	dir string
	e   *png.Encoder
	id  int
	log *logger.Logger
}

type pool struct{ sync.Pool }

func pngBuf() *pool {
	return &pool{sync.Pool{New: func() interface{} { return &png.EncoderBuffer{} }}}
}
func (p *pool) Get() *png.EncoderBuffer  { return p.Pool.Get().(*png.EncoderBuffer) }
func (p *pool) Put(b *png.EncoderBuffer) { p.Pool.Put(b) }

// New creates an encoder writing numbered images into dir.
func New(dir string, log *logger.Logger, opts Options) (*Encoder, error) {
	if dir == "" {
		return nil, &encoder.ConfigError{Field: "dir", Reason: "is empty"}
	}
	if opts.StartIndex < 0 {
		return nil, &encoder.ConfigError{Field: "start index", Reason: "is negative"}
	}
	if err := oss.CheckCreateDir(dir); err != nil {
		return nil, fmt.Errorf("frames: %w", err)
	}
	return &Encoder{
		dir: dir,
		id:  opts.StartIndex,
		e: &png.Encoder{
			CompressionLevel: png.CompressionLevel(opts.Compression),
			BufferPool:       pngBuf(),
		},
		log: log,
	}, nil
}

// Encode writes the frame as the next numbered image. The index is
// not rolled back on failure, partial output is expected.
func (e *Encoder) Encode(f capture.Frame) error {
	name := fmt.Sprintf(fileName, e.id)
	e.id++

	var buf bytes.Buffer
	buf.Grow(f.Size())
	if err := e.e.Encode(&buf, f.RGBA()); err != nil {
		return &encoder.CodecError{Codec: "png", Err: err}
	}

	file, err := os.Create(filepath.Join(e.dir, name))
	if err != nil {
		return fmt.Errorf("frames: %w", err)
	}
	if _, err = file.Write(buf.Bytes()); err != nil {
		_ = file.Close()
		return fmt.Errorf("frames: %w", err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("frames: %w", err)
	}
	return nil
}

// Finish is a no-op, each image is already complete.
func (e *Encoder) Finish() {
	e.log.Debug().Msgf("frames done, next index: %v", e.id)
}
