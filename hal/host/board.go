//go:build !tinygo

// Package host is the simulated board: the echo UART and its interrupt line
// come from hal/sim, the trace channel goes to zerolog and an optional
// on-screen console, and the serial line can be bridged to stdio, a
// pseudo-terminal or a real serial device.
package host

import (
	"fmt"
	"sync/atomic"
	"time"

	"uartecho/console"
	"uartecho/hal"
	"uartecho/hal/sim"
	"uartecho/internal/logging"

	"github.com/rs/zerolog"
)

const (
	fbWidth  = 320
	fbHeight = 240
)

// Config describes the simulated board.
type Config struct {
	// Log receives trace lines and board events. Nil discards them.
	Log *zerolog.Logger
	// Line attaches the simulated echo UART to the outside: "" for none,
	// "stdio", "pty", or the path of a serial device.
	Line string
	// Baud is used for the attached serial device and for character timing.
	// Zero means 115200.
	Baud uint32
	// Burst delivers line input as fast as it arrives instead of one
	// character per echoed character.
	Burst bool
	// Console mirrors trace lines onto the framebuffer.
	Console bool
}

// Board implements hal.HAL on the host.
type Board struct {
	log  *boardLogger
	led  *boardLED
	irq  *sim.Controller
	uart *sim.UART
	fb   *framebuffer
	kbd  *keyboard
	con  *console.Console
	rx   *rxPump
	line lineBackend
	zl   *zerolog.Logger
}

var _ hal.HAL = (*Board)(nil)

// New builds the board and attaches the configured line.
func New(cfg Config) (*Board, error) {
	zl := cfg.Log
	if zl == nil {
		zl = logging.Ptr(zerolog.Nop())
	}
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}

	irq := sim.NewController()
	uart := sim.NewUART(irq)
	uart.SetShiftDelay(sim.CharTime(cfg.Baud))

	b := &Board{
		log:  &boardLogger{lines: logging.NewLines(logging.Module(zl, "trace"), zerolog.InfoLevel)},
		led:  &boardLED{log: logging.Module(zl, "led")},
		irq:  irq,
		uart: uart,
		fb:   newFramebuffer(fbWidth, fbHeight),
		kbd:  newKeyboard(),
		zl:   zl,
	}
	if cfg.Console {
		b.con = console.New(b.fb)
		b.log.con = b.con
	}
	b.rx = newRxPump(uart, cfg.Baud, cfg.Burst)

	lineLog := logging.Module(zl, "line")
	line, err := openLine(cfg.Line, cfg.Baud, lineLog)
	if err != nil {
		b.rx.stop()
		return nil, fmt.Errorf("host: open line %q: %w", cfg.Line, err)
	}
	if line != nil {
		b.line = line
		uart.OnShift(func(c byte) {
			if _, err := line.Write([]byte{c}); err != nil {
				lineLog.Error().Err(err).Msg("write failed")
			}
		})
		go b.rx.feed(line, lineLog)
	}
	go b.rx.run()
	return b, nil
}

func (b *Board) Logger() hal.Logger   { return b.log }
func (b *Board) LED() hal.LED         { return b.led }
func (b *Board) Time() hal.Time       { return boardTime{} }
func (b *Board) UART() hal.UART       { return b.uart }
func (b *Board) UARTIRQ() hal.IRQ     { return b.irq }
func (b *Board) Display() hal.Display { return boardDisplay{fb: b.fb} }

// Sim exposes the simulated peripheral, for tests and input injection.
func (b *Board) Sim() (*sim.UART, *sim.Controller) { return b.uart, b.irq }

// Type queues bytes as if they arrived on the RX pin.
func (b *Board) Type(p []byte) {
	for _, c := range p {
		b.rx.push(c)
	}
}

// Close detaches the line and stops the receive pump.
func (b *Board) Close() error {
	b.rx.stop()
	if storms := b.irq.Storms(); storms > 0 {
		b.zl.Warn().Uint64("storms", storms).Msg("interrupt storms detected")
	}
	if b.line != nil {
		return b.line.Close()
	}
	return nil
}

type boardDisplay struct {
	fb *framebuffer
}

func (d boardDisplay) Framebuffer() hal.Framebuffer { return d.fb }

// boardLogger sends trace lines to zerolog and, when enabled, the console.
type boardLogger struct {
	lines *logging.Lines
	con   *console.Console
}

func (l *boardLogger) WriteLineString(s string) {
	l.lines.WriteLineString(s)
	if l.con != nil {
		l.con.WriteLineString(s)
	}
}

func (l *boardLogger) WriteLineBytes(b []byte) {
	l.WriteLineString(string(b))
}

type boardLED struct {
	on  atomic.Bool
	log *zerolog.Logger
}

func (l *boardLED) High() {
	l.on.Store(true)
	l.log.Debug().Msg("on")
}

func (l *boardLED) Low() {
	l.on.Store(false)
	l.log.Debug().Msg("off")
}

func (l *boardLED) On() bool { return l.on.Load() }

type boardTime struct{}

func (boardTime) Delay(d time.Duration) { time.Sleep(d) }
