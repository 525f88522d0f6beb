//go:build !tinygo && cgo

package host

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// letters in alphabet order; ebiten.Key values are not contiguous.
var letters = [...]ebiten.Key{
	ebiten.KeyA, ebiten.KeyB, ebiten.KeyC, ebiten.KeyD, ebiten.KeyE, ebiten.KeyF,
	ebiten.KeyG, ebiten.KeyH, ebiten.KeyI, ebiten.KeyJ, ebiten.KeyK, ebiten.KeyL,
	ebiten.KeyM, ebiten.KeyN, ebiten.KeyO, ebiten.KeyP, ebiten.KeyQ, ebiten.KeyR,
	ebiten.KeyS, ebiten.KeyT, ebiten.KeyU, ebiten.KeyV, ebiten.KeyW, ebiten.KeyX,
	ebiten.KeyY, ebiten.KeyZ,
}

// keyboard turns window key presses into the bytes a serial terminal would
// send.
type keyboard struct {
	buf []byte
}

func newKeyboard() *keyboard {
	return &keyboard{}
}

// poll returns the bytes typed since the last frame.
func (k *keyboard) poll() []byte {
	k.buf = k.buf[:0]

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	if ctrl {
		for i, key := range letters {
			if inpututil.IsKeyJustPressed(key) {
				k.buf = append(k.buf, byte(i)+0x01)
			}
		}
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		if r < 0x80 {
			k.buf = append(k.buf, byte(r))
		}
	}

	control := []struct {
		key ebiten.Key
		b   byte
	}{
		{ebiten.KeyEnter, '\r'},
		{ebiten.KeyBackspace, 0x08},
		{ebiten.KeyTab, '\t'},
		{ebiten.KeyEscape, 0x1B},
		{ebiten.KeyDelete, 0x7F},
	}
	for _, c := range control {
		if inpututil.IsKeyJustPressed(c.key) {
			k.buf = append(k.buf, c.b)
		}
	}
	return k.buf
}
