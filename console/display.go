package console

import (
	"errors"
	"image/color"

	"tinygo.org/x/drivers"
)

// Framebuffer is an RGB565 little-endian pixel buffer.
type Framebuffer interface {
	Width() int
	Height() int
	StrideBytes() int
	Buffer() []byte
	Present() error
}

var errRotation = errors.New("console: rotation not supported")

// scroller is implemented by framebuffers that can start scanout at a given
// row, like the vertical scroll register of a display controller.
type scroller interface {
	SetScroll(line int)
}

// Display adapts a Framebuffer to drivers.Displayer and the extra methods the
// terminal needs.
type Display struct {
	fb Framebuffer
}

var _ drivers.Displayer = (*Display)(nil)

func NewDisplay(fb Framebuffer) *Display {
	return &Display{fb: fb}
}

func (d *Display) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *Display) SetPixel(x, y int16, c color.RGBA) {
	buf := d.buffer()
	if buf == nil {
		return
	}
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	off := iy*d.fb.StrideBytes() + ix*2
	if off < 0 || off+1 >= len(buf) {
		return
	}
	pixel := RGB565(c)
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

func (d *Display) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

func (d *Display) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	buf := d.buffer()
	if buf == nil {
		return nil
	}
	w, h := d.fb.Width(), d.fb.Height()
	x0 := clamp(int(x), 0, w)
	y0 := clamp(int(y), 0, h)
	x1 := clamp(int(x)+int(width), 0, w)
	y1 := clamp(int(y)+int(height), 0, h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	pixel := RGB565(c)
	lo, hi := byte(pixel), byte(pixel>>8)
	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		row := py * stride
		for px := x0; px < x1; px++ {
			off := row + px*2
			if off+1 >= len(buf) {
				break
			}
			buf[off] = lo
			buf[off+1] = hi
		}
	}
	return nil
}

// SetScroll forwards the terminal's hardware scroll offset to the framebuffer
// when it supports one.
func (d *Display) SetScroll(line int16) {
	if s, ok := d.fb.(scroller); ok {
		s.SetScroll(int(line))
	}
}

func (d *Display) SetRotation(rotation drivers.Rotation) error {
	if rotation != 0 {
		return errRotation
	}
	return nil
}

func (d *Display) buffer() []byte {
	if d.fb == nil {
		return nil
	}
	return d.fb.Buffer()
}

// RGB565 packs c into the framebuffer pixel format.
func RGB565(c color.RGBA) uint16 {
	return uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
