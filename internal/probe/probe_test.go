package probe

import (
	"context"
	"testing"
	"time"

	"uartecho/echo"
	"uartecho/hal"
	"uartecho/hal/sim"

	"github.com/stretchr/testify/require"
)

// simPort is the far end of a simulated line with the echo handler on the
// device side.
type simPort struct {
	uart    *sim.UART
	echoes  chan byte
	timeout time.Duration
	// swallow drops the echo of this byte value when set.
	swallow *byte
}

func newSimPort(t *testing.T, policy echo.OverwritePolicy) (*simPort, *echo.Handler) {
	t.Helper()
	irq := sim.NewController()
	u := sim.NewUART(irq)
	require.NoError(t, u.Configure(hal.UARTConfig{BaudRate: 115200}))
	u.SetShiftDelay(50 * time.Microsecond)

	p := &simPort{uart: u, echoes: make(chan byte, 16)}
	u.OnShift(func(b byte) {
		if p.swallow != nil && *p.swallow == b {
			return
		}
		p.echoes <- b
	})

	h := echo.NewHandler(u, nil, policy)
	irq.SetHandler(h.Service)
	u.EnableRxInterrupt()
	irq.Enable()
	return p, h
}

func (p *simPort) SetReadTimeout(d time.Duration) error {
	p.timeout = d
	return nil
}

func (p *simPort) Write(b []byte) (int, error) {
	for _, c := range b {
		p.uart.Receive(c)
	}
	return len(b), nil
}

func (p *simPort) Read(b []byte) (int, error) {
	select {
	case c := <-p.echoes:
		b[0] = c
		return 1, nil
	case <-time.After(p.timeout):
		return 0, nil
	}
}

func TestProbeAgainstSimulatedEcho(t *testing.T) {
	port, h := newSimPort(t, echo.KeepNewest)

	rep, err := Run(context.Background(), port, Config{Count: 256, Pattern: PatternAll, Timeout: time.Second}, nil)
	require.NoError(t, err)
	require.True(t, rep.OK(), rep.String())
	require.Equal(t, 256, rep.Matched)
	require.LessOrEqual(t, rep.MinRTT, rep.MaxRTT)
	require.Equal(t, uint32(256), h.Stats().Received)
}

func TestProbeCountsMissingEcho(t *testing.T) {
	port, _ := newSimPort(t, echo.KeepNewest)
	lost := byte('#')
	port.swallow = &lost

	rep, err := Run(context.Background(), port, Config{Count: 10, Pattern: PatternASCII, Timeout: 20 * time.Millisecond}, nil)
	require.NoError(t, err)
	require.False(t, rep.OK())
	require.Equal(t, 1, rep.Missing)
	require.Equal(t, 9, rep.Matched)
}

// slowPort echoes every byte, but the first echo only shows up after the
// read that waited for it has timed out.
type slowPort struct {
	queue   []byte
	delayed bool
}

func (p *slowPort) SetReadTimeout(time.Duration) error { return nil }

func (p *slowPort) Write(b []byte) (int, error) {
	p.queue = append(p.queue, b...)
	return len(b), nil
}

func (p *slowPort) Read(b []byte) (int, error) {
	if !p.delayed {
		p.delayed = true
		return 0, nil
	}
	if len(p.queue) == 0 {
		return 0, nil
	}
	b[0] = p.queue[0]
	p.queue = p.queue[1:]
	return 1, nil
}

func TestRunResyncsAfterLateEcho(t *testing.T) {
	port := &slowPort{}

	rep, err := Run(context.Background(), port, Config{Count: 10, Pattern: PatternASCII}, nil)
	require.NoError(t, err)
	require.Equal(t, 10, rep.Sent)
	require.Equal(t, 1, rep.Missing)
	require.Equal(t, 1, rep.Late)
	require.Equal(t, 9, rep.Matched)
	require.Zero(t, rep.Mismatched)
	require.Empty(t, port.queue)
}

func TestProbeStopsOnCancel(t *testing.T) {
	port, _ := newSimPort(t, echo.KeepNewest)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := Run(ctx, port, Config{Count: 10}, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, rep.Sent)
}

func TestBytesPatterns(t *testing.T) {
	ascii, err := Bytes(PatternASCII, 96, 0)
	require.NoError(t, err)
	require.Equal(t, byte(' '), ascii[0])
	require.Equal(t, byte('~'), ascii[94])
	require.Equal(t, byte(' '), ascii[95])

	a, err := Bytes(PatternRandom, 32, 7)
	require.NoError(t, err)
	b, err := Bytes(PatternRandom, 32, 7)
	require.NoError(t, err)
	require.Equal(t, a, b)

	_, err = Bytes("morse", 1, 0)
	require.ErrorIs(t, err, ErrPattern)
}
