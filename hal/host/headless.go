//go:build !tinygo

package host

import (
	"context"
	"fmt"
	"time"

	"uartecho/hal"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Hz    int
	Ticks uint64
}

// RunHeadless runs the firmware without opening a window. The step function
// returned by newApp is called Hz times per second until ctx is done or Ticks
// steps have run.
func RunHeadless(ctx context.Context, cfg Config, hc HeadlessConfig, newApp func(hal.HAL) (func() error, error)) error {
	if hc.Hz <= 0 {
		hc.Hz = 60
	}
	d := time.Second / time.Duration(hc.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", hc.Hz)
	}

	b, err := New(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	step, err := newApp(b)
	if err != nil {
		return err
	}

	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			tick++
			if hc.Ticks > 0 && tick >= hc.Ticks {
				return nil
			}
		}
	}
}
