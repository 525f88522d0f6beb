//go:build !tinygo && !windows

package host

import (
	"os"

	"golang.org/x/sys/unix"
)

// openStdioFiles duplicates stdin and stdout in non-blocking mode so the
// runtime poller owns them. O_NONBLOCK lives on the shared file description,
// so release puts it back for the shell.
func openStdioFiles() (in, out *os.File, release func() error, err error) {
	inFd, err := unix.Dup(int(os.Stdin.Fd()))
	if err != nil {
		return nil, nil, nil, err
	}
	if err := unix.SetNonblock(inFd, true); err != nil {
		unix.Close(inFd)
		return nil, nil, nil, err
	}
	outFd, err := unix.Dup(int(os.Stdout.Fd()))
	if err != nil {
		unix.Close(inFd)
		return nil, nil, nil, err
	}
	in = os.NewFile(uintptr(inFd), "stdin")
	out = os.NewFile(uintptr(outFd), "stdout")
	release = func() error {
		err := out.Close()
		if nbErr := unix.SetNonblock(int(os.Stdin.Fd()), false); err == nil {
			err = nbErr
		}
		return err
	}
	return in, out, release, nil
}
