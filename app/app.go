package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"uartecho/echo"
	"uartecho/hal"
	"uartecho/heartbeat"
)

const (
	// BaudRate of the echo line, 8N1.
	BaudRate = 115200
	// HeartbeatPeriod is the indicator toggle interval.
	HeartbeatPeriod = 500 * time.Millisecond
	// StatusEvery prints handler statistics every N heartbeat ticks.
	StatusEvery = 20
	// DefaultPolicy decides which byte survives when the mailbox is full.
	DefaultPolicy = echo.KeepNewest
)

var (
	ErrNoUART = errors.New("app: no echo UART")
	ErrNoIRQ  = errors.New("app: no echo UART interrupt line")
)

type Config struct {
	Policy      echo.OverwritePolicy
	Period      time.Duration
	StatusEvery uint32
}

// DefaultConfig is the device configuration.
func DefaultConfig() Config {
	return Config{
		Policy:      DefaultPolicy,
		Period:      HeartbeatPeriod,
		StatusEvery: StatusEvery,
	}
}

// System is the armed firmware.
type System struct {
	Handler *echo.Handler
	Trace   *echo.TraceRing
	Loop    *heartbeat.Loop
}

// Boot brings up the trace channel, configures the echo UART and arms its
// receive interrupt. The interrupt line is unmasked last, once the handler is
// installed and the receive source is enabled.
func Boot(h hal.HAL, cfg Config) (*System, error) {
	if h == nil {
		return nil, ErrNoUART
	}
	log := h.Logger()
	logLine(log, "trace channel up")

	uart := h.UART()
	if uart == nil {
		return nil, ErrNoUART
	}
	irq := h.UARTIRQ()
	if irq == nil {
		return nil, ErrNoIRQ
	}

	if err := uart.Configure(hal.UARTConfig{BaudRate: BaudRate}); err != nil {
		return nil, fmt.Errorf("app: configure uart: %w", err)
	}
	logLine(log, fmt.Sprintf("uart up at %d 8N1, policy %s", BaudRate, cfg.Policy))

	trace := &echo.TraceRing{}
	handler := echo.NewHandler(uart, trace, cfg.Policy)
	irq.SetHandler(handler.Service)
	uart.EnableRxInterrupt()
	irq.Enable()
	logLine(log, "echo armed")

	loop := heartbeat.New(h.LED(), log, h.Time(), trace, handler, heartbeat.Config{
		Period:      cfg.Period,
		StatusEvery: cfg.StatusEvery,
	})
	return &System{Handler: handler, Trace: trace, Loop: loop}, nil
}

// Run boots the firmware and runs the heartbeat forever (TinyGo entrypoint).
// A boot failure or panic is printed to the trace channel and the core parks.
func Run(h hal.HAL) {
	defer func() {
		if r := recover(); r != nil {
			halt(h, fmt.Errorf("panic: %v", r))
		}
	}()

	sys, err := Boot(h, DefaultConfig())
	if err != nil {
		halt(h, err)
		return
	}
	sys.Loop.Run(context.Background())
}

// NewWithConfig boots on a host board and returns a step function for the
// host runners. Each call runs one heartbeat tick once cfg.Period has elapsed
// since the previous one; with a zero period every call is a tick.
func NewWithConfig(h hal.HAL, cfg Config) (func() error, *System, error) {
	sys, err := Boot(h, cfg)
	if err != nil {
		return nil, nil, err
	}
	var next time.Time
	return func() error {
		if cfg.Period > 0 {
			now := time.Now()
			if now.Before(next) {
				return nil
			}
			next = now.Add(cfg.Period)
		}
		sys.Loop.Step()
		return nil
	}, sys, nil
}

func logLine(l hal.Logger, s string) {
	if l != nil {
		l.WriteLineString(s)
	}
}
