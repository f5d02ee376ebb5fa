// Package yuv converts packed RGBA frames into planar YCbCr 4:2:0
// (I420), the input layout software video codecs expect.
package yuv

import "image"

// Conv is a reusable converter bound to fixed frame dimensions.
// The internal buffer is overwritten on every Process call, so the
// result must be consumed before the next frame. Width and height
// must be even.
type Conv struct {
	w, h int
	data []byte
}

func NewConv(w, h int) *Conv {
	return &Conv{w: w, h: h, data: make([]byte, w*h*3/2)}
}

func (c *Conv) W() int { return c.w }
func (c *Conv) H() int { return c.h }

// Process converts an RGBA buffer into I420 planes: w*h luma bytes
// followed by two w*h/4 chroma planes. BT.601 studio swing.
func (c *Conv) Process(rgba []byte) []byte {
	w, h := c.w, c.h
	dy := c.data[:w*h]
	du := c.data[w*h : w*h+w*h/4]
	dv := c.data[w*h+w*h/4:]

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) << 2
			r, g, b := int32(rgba[i]), int32(rgba[i+1]), int32(rgba[i+2])
			dy[y*w+x] = uint8((66*r+129*g+25*b)>>8 + 16)
		}
	}
	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x += 2 {
			i := (y*w + x) << 2
			r, g, b := int32(rgba[i]), int32(rgba[i+1]), int32(rgba[i+2])
			j := (y/2)*(w/2) + x/2
			du[j] = uint8((-38*r-74*g+112*b)>>8 + 128)
			dv[j] = uint8((112*r-94*g-18*b)>>8 + 128)
		}
	}
	return c.data
}

// YCbCr wraps the last processed planes into an image without
// copying.
func (c *Conv) YCbCr() *image.YCbCr {
	w, h := c.w, c.h
	return &image.YCbCr{
		Y:              c.data[:w*h],
		Cb:             c.data[w*h : w*h+w*h/4],
		Cr:             c.data[w*h+w*h/4:],
		YStride:        w,
		CStride:        w / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rectangle{Max: image.Point{X: w, Y: h}},
	}
}
