//go:build !tinygo && !cgo

package host

import (
	"errors"

	"uartecho/hal"
)

func RunWindow(_ Config, _ func(hal.HAL) (func() error, error)) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
