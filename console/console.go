// Package console renders trace lines into a framebuffer with a scrolling
// text terminal.
package console

import (
	"sync"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

const (
	fontHeight = 10
	fontOffset = 6
)

// Console is a line sink drawing onto a framebuffer. Safe for concurrent use.
type Console struct {
	mu    sync.Mutex
	d     *Display
	t     *tinyterm.Terminal
	dirty bool
}

func New(fb Framebuffer) *Console {
	c := &Console{d: NewDisplay(fb)}
	c.reset()
	return c
}

func (c *Console) reset() {
	c.t = tinyterm.NewTerminal(c.d)
	c.t.Configure(&tinyterm.Config{
		Font:       &proggy.TinySZ8pt7b,
		FontHeight: fontHeight,
		FontOffset: fontOffset,
	})
}

func (c *Console) WriteLineString(s string) {
	c.WriteLineBytes([]byte(s))
}

func (c *Console) WriteLineBytes(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.t.Write(b)
	_, _ = c.t.Write([]byte("\r\n"))
	c.dirty = true
}

// Flush presents the framebuffer if anything was written since the last call.
func (c *Console) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return
	}
	_ = c.d.Display()
	c.dirty = false
}
