//go:build !tinygo && cgo

package host

import (
	"image/color"

	"uartecho/hal"
	"uartecho/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const ledSize = 12

// RunWindow opens a desktop window showing the trace console and the
// heartbeat indicator. Keys typed into the window arrive on the echo UART.
// It blocks until the window closes.
func RunWindow(cfg Config, newApp func(hal.HAL) (func() error, error)) error {
	cfg.Console = true
	b, err := New(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	step, err := newApp(b)
	if err != nil {
		return err
	}

	g := &game{b: b, step: step}
	ebiten.SetWindowTitle("uartecho (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(b.fb.width*2, b.fb.height*2)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type game struct {
	b       *Board
	step    func() error
	fbImg   *ebiten.Image
	pix     []byte
	scratch []byte
}

func (g *game) Update() error {
	g.b.Type(g.b.kbd.poll())
	if g.step != nil {
		if err := g.step(); err != nil {
			return err
		}
	}
	if g.b.con != nil {
		g.b.con.Flush()
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	fb := g.b.fb
	if g.fbImg == nil {
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
		g.scratch = make([]byte, len(fb.buf))
		g.pix = make([]byte, fb.width*fb.height*4)
	}

	fb.snapshotRGB565(g.scratch)
	toRGBA(g.pix, g.scratch)
	g.fbImg.WritePixels(g.pix)
	screen.DrawImage(g.fbImg, nil)

	led := color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF}
	if g.b.led.On() {
		led = color.RGBA{R: 0x20, G: 0xE0, B: 0x40, A: 0xFF}
	}
	x := float32(fb.width - ledSize - 4)
	vector.DrawFilledRect(screen, x, 4, ledSize, ledSize, led, false)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.b.fb.width, g.b.fb.height
}
