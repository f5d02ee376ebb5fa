package capture

import (
	"encoding/binary"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// PixFmt tags the pixel layout of a host-provided buffer.
type PixFmt uint8

const (
	// RGBA8 has 8 bits R, 8 bits G, 8 bits B, 8 bits alpha
	RGBA8 PixFmt = iota
	// BGRA8 has the same layout with R and B swapped
	BGRA8
	// RGB565 has 5 bits R, 6 bits G, 5 bits B packed little-endian
	RGB565
)

func (p PixFmt) BytesPerPixel() int {
	if p == RGB565 {
		return 2
	}
	return 4
}

func (p PixFmt) String() string {
	switch p {
	case RGBA8:
		return "rgba"
	case BGRA8:
		return "bgra"
	case RGB565:
		return "rgb565"
	}
	return fmt.Sprintf("pixfmt(%d)", uint8(p))
}

// Frame is the canonical RGBA frame handed over to encoders.
// The buffer is row-major with no padding, 4*W*H bytes long.
// Frames are never mutated after creation.
type Frame struct {
	W, H int
	Data []byte
}

// RGBA wraps the frame buffer into an image without copying.
func (f Frame) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Data,
		Stride: f.W << 2,
		Rect:   image.Rectangle{Max: image.Point{X: f.W, Y: f.H}},
	}
}

func (f Frame) Size() int { return len(f.Data) }

// FromBuffer converts a host pixel buffer into a canonical frame.
// The stride param is the length of a source row in bytes; rows are
// compacted so the result carries no padding. A zero stride assumes
// tightly packed rows.
func FromBuffer(data []byte, w, h, stride int, pix PixFmt) (Frame, error) {
	bpp := pix.BytesPerPixel()
	if stride == 0 {
		stride = w * bpp
	}
	if w <= 0 || h <= 0 || stride < w*bpp || len(data) < stride*(h-1)+w*bpp {
		return Frame{}, &SizeError{W: w, H: h, Stride: stride, Len: len(data), Pix: pix}
	}

	out := make([]byte, w*h*4)
	switch pix {
	case RGBA8:
		for y := 0; y < h; y++ {
			copy(out[y*w*4:(y+1)*w*4], data[y*stride:])
		}
	case BGRA8:
		for y := 0; y < h; y++ {
			src := data[y*stride:]
			dst := out[y*w*4:]
			for x := 0; x < w; x++ {
				i := x << 2
				dst[i], dst[i+1], dst[i+2], dst[i+3] = src[i+2], src[i+1], src[i], src[i+3]
			}
		}
	case RGB565:
		for y := 0; y < h; y++ {
			src := data[y*stride:]
			dst := out[y*w*4:]
			for x := 0; x < w; x++ {
				px := binary.LittleEndian.Uint16(src[x<<1 : x<<1+2])
				r := uint8(px >> 11 & 0x1f)
				g := uint8(px >> 5 & 0x3f)
				b := uint8(px & 0x1f)
				i := x << 2
				dst[i] = r<<3 | r>>2
				dst[i+1] = g<<2 | g>>4
				dst[i+2] = b<<3 | b>>2
				dst[i+3] = 0xff
			}
		}
	default:
		return Frame{}, &SizeError{W: w, H: h, Stride: stride, Len: len(data), Pix: pix}
	}
	return Frame{W: w, H: h, Data: out}, nil
}

// Scaled returns the frame resized by the factor with bilinear
// interpolation. A factor of 1 returns the frame as is.
func (f Frame) Scaled(factor float64) Frame {
	if factor == 1 || factor <= 0 {
		return f
	}
	w, h := int(float64(f.W)*factor), int(float64(f.H)*factor)
	if w < 1 || h < 1 {
		return f
	}
	out := image.NewRGBA(image.Rectangle{Max: image.Point{X: w, Y: h}})
	draw.ApproxBiLinear.Scale(out, out.Bounds(), f.RGBA(), f.RGBA().Bounds(), draw.Src, nil)
	return Frame{W: w, H: h, Data: out.Pix}
}

// SizeError is returned when a host buffer disagrees
// with its declared geometry.
type SizeError struct {
	W, H, Stride, Len int
	Pix               PixFmt
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("frame buffer of %v bytes doesn't fit %vx%v (%v, stride %v)",
		e.Len, e.W, e.H, e.Pix, e.Stride)
}
