//go:build !tinygo

package host

import (
	"bytes"
	"context"
	"testing"
	"time"

	"uartecho/app"
	"uartecho/echo"
	"uartecho/hal"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func waitWire(t *testing.T, b *Board, want string) {
	t.Helper()
	u, _ := b.Sim()
	require.Eventually(t, func() bool {
		return string(u.Wire()) == want
	}, 2*time.Second, time.Millisecond, "wire = %q, want %q", u.Wire(), want)
}

func TestBoardEchoesTypedBytes(t *testing.T) {
	b, err := New(Config{})
	require.NoError(t, err)
	defer b.Close()

	sys, err := app.Boot(b, app.DefaultConfig())
	require.NoError(t, err)

	b.Type([]byte("hello, world"))
	waitWire(t, b, "hello, world")

	st := sys.Handler.Stats()
	require.Equal(t, uint32(12), st.Received)
	require.Zero(t, st.Dropped)
}

func TestBoardBurstOverwrites(t *testing.T) {
	b, err := New(Config{Burst: true, Baud: 300})
	require.NoError(t, err)
	defer b.Close()

	sys, err := app.Boot(b, app.Config{Policy: echo.KeepNewest})
	require.NoError(t, err)

	b.Type([]byte("abcdefgh"))
	u, _ := b.Sim()
	require.Eventually(t, func() bool {
		return sys.Handler.Stats().Received+uint32(u.Lost()) == 8
	}, 2*time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return u.TxIdle() }, 2*time.Second, time.Millisecond)

	wire := u.Wire()
	require.Less(t, len(wire), 8, "a 300 baud line cannot echo a burst without loss")
	require.Equal(t, byte('h'), wire[len(wire)-1], "the newest byte survives")
}

func TestBoardTraceReachesLogAndConsole(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	b, err := New(Config{Log: &zl, Console: true})
	require.NoError(t, err)
	defer b.Close()

	b.Logger().WriteLineString("echo armed")
	b.con.Flush()

	require.Contains(t, buf.String(), `"message":"echo armed"`)
	require.Contains(t, buf.String(), `"module":"trace"`)
	lit := false
	for _, c := range b.fb.buf {
		if c != 0 {
			lit = true
			break
		}
	}
	require.True(t, lit, "console drew nothing")
}

func TestRunHeadlessStopsAfterTicks(t *testing.T) {
	steps := 0
	err := RunHeadless(context.Background(), Config{}, HeadlessConfig{Hz: 1000, Ticks: 5},
		func(h hal.HAL) (func() error, error) {
			return func() error { steps++; return nil }, nil
		})
	require.NoError(t, err)
	require.Equal(t, 5, steps)
}

func TestFramebufferScrollSnapshot(t *testing.T) {
	fb := newFramebuffer(1, 3)
	copy(fb.buf, []byte{1, 1, 2, 2, 3, 3})

	fb.SetScroll(1)
	dst := make([]byte, len(fb.buf))
	fb.snapshotRGB565(dst)
	require.Equal(t, []byte{2, 2, 3, 3, 1, 1}, dst)

	fb.SetScroll(-1)
	fb.snapshotRGB565(dst)
	require.Equal(t, []byte{3, 3, 1, 1, 2, 2}, dst)
}

func TestToRGBA(t *testing.T) {
	src := []byte{0x00, 0xF8, 0x1F, 0x00} // red, blue
	dst := make([]byte, 8)
	toRGBA(dst, src)
	require.Equal(t, []byte{0xFF, 0, 0, 0xFF, 0, 0, 0xFF, 0xFF}, dst)
}
