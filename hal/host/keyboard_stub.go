//go:build !tinygo && !cgo

package host

type keyboard struct{}

func newKeyboard() *keyboard {
	return &keyboard{}
}

func (k *keyboard) poll() []byte {
	// No keyboard support without the window backend.
	return nil
}
