//go:build !tinygo

package host

import (
	"sync"

	"uartecho/hal"
)

// framebuffer is an RGB565 buffer with a vertical scroll origin, like the
// scroll start register of an SPI display controller.
type framebuffer struct {
	mu     sync.Mutex
	width  int
	height int
	stride int
	scroll int
	buf    []byte
}

func newFramebuffer(width, height int) *framebuffer {
	stride := width * 2
	return &framebuffer{
		width:  width,
		height: height,
		stride: stride,
		buf:    make([]byte, stride*height),
	}
}

func (f *framebuffer) Width() int              { return f.width }
func (f *framebuffer) Height() int             { return f.height }
func (f *framebuffer) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *framebuffer) StrideBytes() int        { return f.stride }
func (f *framebuffer) Buffer() []byte          { return f.buf }
func (f *framebuffer) Present() error          { return nil }

func (f *framebuffer) ClearRGB(r, g, b uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pixel := rgb565(r, g, b)
	lo := byte(pixel)
	hi := byte(pixel >> 8)
	for i := 0; i < len(f.buf); i += 2 {
		f.buf[i] = lo
		f.buf[i+1] = hi
	}
	f.scroll = 0
}

// SetScroll makes row line the first row shown.
func (f *framebuffer) SetScroll(line int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.height <= 0 {
		return
	}
	line %= f.height
	if line < 0 {
		line += f.height
	}
	f.scroll = line
}

// snapshotRGB565 copies the buffer in display order, starting at the scroll
// origin and wrapping.
func (f *framebuffer) snapshotRGB565(dst []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	split := f.scroll * f.stride
	n := copy(dst, f.buf[split:])
	copy(dst[n:], f.buf[:split])
}
