//go:build !tinygo && !windows

package host

import (
	"os"
	"testing"
	"time"

	"uartecho/hal/sim"
	"uartecho/internal/logging"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestStdioLineCloseUnblocksFeed(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()

	l := &stdioLine{in: r, out: w}
	p := newRxPump(sim.NewUART(nil), 115200, true)
	defer p.stop()

	done := make(chan struct{})
	go func() {
		p.feed(l, logging.Ptr(zerolog.Nop()))
		close(done)
	}()

	_, err = w.Write([]byte("a"))
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, l.Close())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feed still blocked after Close")
	}
}
