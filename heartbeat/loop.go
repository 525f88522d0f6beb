// Package heartbeat runs the foreground task: it blinks the indicator, counts
// ticks and prints the receive trace the interrupt handler queued.
package heartbeat

import (
	"context"
	"strconv"
	"time"

	"uartecho/echo"
	"uartecho/hal"
)

// StatsSource provides a snapshot of the echo handler counters.
type StatsSource interface {
	Stats() echo.Stats
}

type Config struct {
	// Period between ticks.
	Period time.Duration
	// StatusEvery emits a status line every N ticks. Zero disables it.
	StatusEvery uint32
}

// Loop is the foreground heartbeat. Its state is owned by the goroutine that
// calls Step or Run.
type Loop struct {
	led   hal.LED
	log   hal.Logger
	time  hal.Time
	trace *echo.TraceRing
	stats StatsSource
	cfg   Config

	counter uint32
	on      bool
	dropped uint32
	line    []byte
}

// New returns a loop. Any collaborator may be nil.
func New(led hal.LED, log hal.Logger, t hal.Time, trace *echo.TraceRing, stats StatsSource, cfg Config) *Loop {
	return &Loop{led: led, log: log, time: t, trace: trace, stats: stats, cfg: cfg}
}

// Step runs one tick: print queued RX bytes, toggle the indicator, advance the
// counter and print it on even values.
func (l *Loop) Step() {
	l.drainTrace()

	l.on = !l.on
	if l.led != nil {
		if l.on {
			l.led.High()
		} else {
			l.led.Low()
		}
	}

	l.counter++
	if l.counter&1 == 0 {
		l.line = strconv.AppendUint(append(l.line[:0], "i = "...), uint64(l.counter), 10)
		l.emit()
	}

	if n := l.cfg.StatusEvery; n > 0 && l.stats != nil && l.counter%n == 0 {
		l.line = l.stats.Stats().AppendTo(l.line[:0])
		l.emit()
	}
}

func (l *Loop) drainTrace() {
	if l.trace == nil {
		return
	}
	l.trace.Drain(func(b byte) {
		l.line = echo.AppendRX(l.line[:0], b)
		l.emit()
	})
	if d := l.trace.Dropped(); d != l.dropped {
		l.line = strconv.AppendUint(append(l.line[:0], "trace: "...), uint64(d-l.dropped), 10)
		l.line = append(l.line, " rx bytes not traced"...)
		l.emit()
		l.dropped = d
	}
}

// Run steps the loop every period until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		l.Step()
		l.delay()
	}
}

func (l *Loop) delay() {
	if l.cfg.Period <= 0 {
		return
	}
	if l.time != nil {
		l.time.Delay(l.cfg.Period)
		return
	}
	time.Sleep(l.cfg.Period)
}

// Counter returns the tick count modulo 2^32.
func (l *Loop) Counter() uint32 { return l.counter }

// On reports the current indicator state.
func (l *Loop) On() bool { return l.on }

// emit writes the scratch line. Loggers copy what they keep.
func (l *Loop) emit() {
	if l.log != nil {
		l.log.WriteLineBytes(l.line)
	}
}
