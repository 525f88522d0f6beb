package hal

import (
	"errors"
	"strings"
)

// UARTStatus is a snapshot of the serial peripheral's ready and error flags.
type UARTStatus uint8

const (
	// StatusRxReady: a received byte is waiting in the data register.
	StatusRxReady UARTStatus = 1 << iota
	// StatusTxReady: the transmit data register can accept a byte.
	StatusTxReady
	StatusOverrun
	StatusFraming
	StatusParity
	StatusBreak
)

// LineErrors is the subset of UARTStatus that reports receive line errors.
type LineErrors = UARTStatus

const lineErrorMask = StatusOverrun | StatusFraming | StatusParity | StatusBreak

func (s UARTStatus) RxReady() bool { return s&StatusRxReady != 0 }
func (s UARTStatus) TxReady() bool { return s&StatusTxReady != 0 }

// Errors returns only the line error bits of s.
func (s UARTStatus) Errors() LineErrors { return s & lineErrorMask }

func (s UARTStatus) String() string {
	if s == 0 {
		return "idle"
	}
	var parts []string
	names := []struct {
		bit  UARTStatus
		name string
	}{
		{StatusRxReady, "rx"},
		{StatusTxReady, "tx"},
		{StatusOverrun, "overrun"},
		{StatusFraming, "framing"},
		{StatusParity, "parity"},
		{StatusBreak, "break"},
	}
	for _, n := range names {
		if s&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ErrBaudRate is returned by Configure for a zero or unreachable baud rate.
var ErrBaudRate = errors.New("hal: invalid baud rate")

// UARTConfig is the frame configuration for the echo port. Only 8N1 is supported.
type UARTConfig struct {
	BaudRate uint32
}

// Port is the narrow register-level capability the echo interrupt handler uses.
//
// Every method must be non-blocking: they are called from interrupt context.
type Port interface {
	Status() UARTStatus
	// ReadByte reads the receive data register. The read acknowledges receive-ready.
	ReadByte() (byte, bool)
	// TryWriteByte writes the transmit data register if it is empty.
	// A successful write acknowledges transmit-ready.
	TryWriteByte(b byte) bool
	EnableRxInterrupt()
	DisableRxInterrupt()
	EnableTxInterrupt()
	DisableTxInterrupt()
	ClearErrors(errs LineErrors)
}

// UART is a Port that can also be configured at boot.
type UART interface {
	Port
	Configure(cfg UARTConfig) error
}

// IRQ is the interrupt controller line of the echo UART.
//
// SetHandler must be called before Enable; Enable unmasks the line.
type IRQ interface {
	SetHandler(fn func())
	Enable()
	Disable()
}
