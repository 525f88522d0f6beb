//go:build !tinygo

package host

import (
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// lineBackend is the far end of the simulated serial line.
type lineBackend interface {
	io.ReadWriteCloser
}

// openLine returns nil, nil when no line is requested.
func openLine(name string, baud uint32, log *zerolog.Logger) (lineBackend, error) {
	switch name {
	case "":
		return nil, nil
	case "stdio":
		return openStdio(log)
	case "pty":
		return openPTY(log)
	default:
		return openSerial(name, baud, log)
	}
}

// stdioLine puts the controlling terminal in raw mode so every keystroke
// reaches the RX pin unprocessed. in is a pollable duplicate of stdin so that
// Close unblocks a pending Read.
type stdioLine struct {
	in      *os.File
	out     *os.File
	state   *term.State
	release func() error
}

func openStdio(log *zerolog.Logger) (*stdioLine, error) {
	fd := int(os.Stdin.Fd())
	l := &stdioLine{}
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		l.state = state
	}
	in, out, release, err := openStdioFiles()
	if err != nil {
		if l.state != nil {
			_ = term.Restore(fd, l.state)
		}
		return nil, err
	}
	l.in, l.out, l.release = in, out, release
	log.Info().Bool("raw", l.state != nil).Msg("line on stdio")
	return l, nil
}

func (l *stdioLine) Read(p []byte) (int, error)  { return l.in.Read(p) }
func (l *stdioLine) Write(p []byte) (int, error) { return l.out.Write(p) }

func (l *stdioLine) Close() error {
	var errs []error
	if l.state != nil {
		errs = append(errs, term.Restore(int(os.Stdin.Fd()), l.state))
	}
	errs = append(errs, l.in.Close())
	if l.release != nil {
		errs = append(errs, l.release())
	}
	return errors.Join(errs...)
}

func openSerial(name string, baud uint32, log *zerolog.Logger) (serial.Port, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: int(baud),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("device", name).Uint32("baud", baud).Msg("line on serial port")
	return port, nil
}
