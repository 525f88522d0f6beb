//go:build !tinygo && windows

package host

import (
	"errors"

	"github.com/rs/zerolog"
)

func openPTY(_ *zerolog.Logger) (lineBackend, error) {
	return nil, errors.New("pty line is not supported on windows")
}
