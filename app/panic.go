package app

import (
	"image/color"
	"strings"
	"unicode/utf8"

	"uartecho/console"
	"uartecho/hal"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// park stops the core after a fatal error. Replaced in tests.
var park = func() { select {} }

// halt prints a fatal error to the trace channel, paints it on the screen when
// the board has one, and never returns.
func halt(h hal.HAL, err error) {
	msg := "fatal: " + err.Error()
	if h == nil {
		park()
		return
	}
	if l := h.Logger(); l != nil {
		l.WriteLineString(msg)
	}
	if disp := h.Display(); disp != nil {
		if fb := disp.Framebuffer(); fb != nil {
			drawFatal(fb, msg)
		}
	}
	park()
}

func drawFatal(fb hal.Framebuffer, msg string) {
	const lineHeight, baseline = 10, 6

	font := &proggy.TinySZ8pt7b
	_, outbox := tinyfont.LineWidth(font, "0")
	charWidth := int16(outbox)
	if charWidth <= 0 || fb.Format() != hal.PixelFormatRGB565 {
		return
	}

	fb.ClearRGB(0x80, 0, 0)
	d := console.NewDisplay(fb)
	fg := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	cols := int16(fb.Width()) / charWidth
	if cols <= 0 {
		cols = 1
	}
	y := int16(0)
	for line := msg; line != ""; {
		if int(y+lineHeight) > fb.Height() {
			break
		}
		var chunk string
		chunk, line = takeRunes(line, cols)
		x := int16(0)
		for _, r := range chunk {
			tinyfont.DrawChar(d, font, x, y+baseline, r, fg)
			x += charWidth
		}
		y += lineHeight
		line = strings.TrimLeft(line, " ")
	}
	_ = fb.Present()
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	i := 0
	for count := int16(0); i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], s[i:]
}
