//go:build !tinygo

package host

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"uartecho/hal/sim"

	"github.com/rs/zerolog"
)

// rxPump delivers bytes to the simulated RX pin. Paced mode waits until the
// previous echo has left the transmitter, so a typist or a pasted line is
// echoed without loss. Burst mode delivers back to back and lets the mailbox
// policy decide what survives.
type rxPump struct {
	uart  *sim.UART
	poll  time.Duration
	burst bool

	ch       chan byte
	done     chan struct{}
	stopOnce sync.Once
}

func newRxPump(u *sim.UART, baud uint32, burst bool) *rxPump {
	poll := sim.CharTime(baud) / 4
	if poll < 10*time.Microsecond {
		poll = 10 * time.Microsecond
	}
	return &rxPump{
		uart:  u,
		poll:  poll,
		burst: burst,
		ch:    make(chan byte, 256),
		done:  make(chan struct{}),
	}
}

func (p *rxPump) push(c byte) {
	select {
	case p.ch <- c:
	case <-p.done:
	}
}

func (p *rxPump) run() {
	for {
		select {
		case <-p.done:
			return
		case c := <-p.ch:
			if !p.burst && !p.waitIdle() {
				return
			}
			p.uart.Receive(c)
		}
	}
}

func (p *rxPump) waitIdle() bool {
	for !p.uart.TxIdle() {
		select {
		case <-p.done:
			return false
		case <-time.After(p.poll):
		}
	}
	return true
}

// feed copies r into the pump until r fails or the pump stops.
func (p *rxPump) feed(r io.Reader, log *zerolog.Logger) {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for i := 0; i < n; i++ {
			p.push(buf[i])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				log.Error().Err(err).Msg("read failed")
			} else {
				log.Info().Msg("line closed")
			}
			return
		}
		select {
		case <-p.done:
			return
		default:
		}
	}
}

func (p *rxPump) stop() {
	p.stopOnce.Do(func() { close(p.done) })
}
