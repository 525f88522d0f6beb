//go:build !tinygo && windows

package host

import "os"

// openStdioFiles returns the process streams. A console read on windows is
// not interruptible, so the feed goroutine ends with the process.
func openStdioFiles() (in, out *os.File, release func() error, err error) {
	return os.Stdin, os.Stdout, nil, nil
}
