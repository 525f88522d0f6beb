//go:build !tinygo && !windows

package host

import (
	"os"

	"github.com/creack/pty"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// ptyLine exposes the simulated UART as a pseudo-terminal. Terminal programs
// such as screen or minicom attach to the slave side.
type ptyLine struct {
	master *os.File
	slave  *os.File
}

func openPTY(log *zerolog.Logger) (*ptyLine, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, err
	}
	// The line discipline must pass bytes through untouched, like a wire.
	if _, err := term.MakeRaw(int(slave.Fd())); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}
	log.Info().Str("device", slave.Name()).Msg("line on pseudo-terminal")
	return &ptyLine{master: master, slave: slave}, nil
}

func (l *ptyLine) Read(p []byte) (int, error)  { return l.master.Read(p) }
func (l *ptyLine) Write(p []byte) (int, error) { return l.master.Write(p) }

func (l *ptyLine) Close() error {
	err := l.master.Close()
	if serr := l.slave.Close(); err == nil {
		err = serr
	}
	return err
}
