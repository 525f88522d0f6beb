package sim

import (
	"fmt"
	"sync"
	"time"

	"uartecho/hal"
)

// UART models a single-buffered serial peripheral: one receive data register,
// one transmit data register, per-source interrupt enables and sticky line
// error flags.
//
// Received bytes arriving while the receive register is still full are lost
// and raise the overrun flag, as on real hardware.
type UART struct {
	mu sync.Mutex

	irq *Controller

	configured bool
	baud       uint32

	rdr    byte
	rxFull bool

	tdr    byte
	txBusy bool
	txData bool
	txGen  uint64

	rxie bool
	txie bool

	errs hal.LineErrors

	wire    []byte
	onShift func(b byte)

	shiftDelay time.Duration

	lost uint64
}

var _ hal.UART = (*UART)(nil)

// NewUART returns a peripheral wired to irq. irq may be nil for tests that
// only poke registers.
func NewUART(irq *Controller) *UART {
	u := &UART{irq: irq}
	if irq != nil {
		irq.Attach(u.asserted)
	}
	return u
}

// OnShift registers a sink for bytes leaving the transmitter.
func (u *UART) OnShift(fn func(b byte)) {
	u.mu.Lock()
	u.onShift = fn
	u.mu.Unlock()
}

// SetShiftDelay makes the transmitter complete on its own d after each write.
// With d == 0 the environment must call ShiftOut.
func (u *UART) SetShiftDelay(d time.Duration) {
	u.mu.Lock()
	u.shiftDelay = d
	u.mu.Unlock()
}

// CharTime is the time one 8N1 character occupies the line at baud.
func CharTime(baud uint32) time.Duration {
	if baud == 0 {
		return 0
	}
	return time.Duration(10 * uint64(time.Second) / uint64(baud))
}

// ---- hal.UART, as seen by firmware ----

func (u *UART) Configure(cfg hal.UARTConfig) error {
	if cfg.BaudRate == 0 {
		return fmt.Errorf("sim: %w: %d", hal.ErrBaudRate, cfg.BaudRate)
	}
	u.mu.Lock()
	u.configured = true
	u.baud = cfg.BaudRate
	u.rxFull = false
	u.txBusy = false
	u.errs = 0
	u.mu.Unlock()
	return nil
}

func (u *UART) Status() hal.UARTStatus {
	u.mu.Lock()
	defer u.mu.Unlock()
	var st hal.UARTStatus
	if u.rxFull {
		st |= hal.StatusRxReady
	}
	if u.configured && !u.txBusy {
		st |= hal.StatusTxReady
	}
	return st | u.errs
}

func (u *UART) ReadByte() (byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.rxFull {
		return 0, false
	}
	u.rxFull = false
	return u.rdr, true
}

func (u *UART) TryWriteByte(b byte) bool {
	u.mu.Lock()
	if !u.configured || u.txBusy {
		u.mu.Unlock()
		return false
	}
	u.tdr = b
	u.txBusy = true
	u.txData = true
	u.txGen++
	if d := u.shiftDelay; d > 0 {
		gen := u.txGen
		time.AfterFunc(d, func() { u.shiftOut(gen) })
	}
	u.mu.Unlock()
	return true
}

func (u *UART) EnableRxInterrupt()  { u.setEnable(&u.rxie, true) }
func (u *UART) DisableRxInterrupt() { u.setEnable(&u.rxie, false) }
func (u *UART) EnableTxInterrupt()  { u.setEnable(&u.txie, true) }
func (u *UART) DisableTxInterrupt() { u.setEnable(&u.txie, false) }

func (u *UART) ClearErrors(errs hal.LineErrors) {
	u.mu.Lock()
	u.errs &^= errs.Errors()
	u.mu.Unlock()
}

func (u *UART) setEnable(bit *bool, on bool) {
	u.mu.Lock()
	*bit = on
	u.mu.Unlock()
	u.pend()
}

// ---- environment side ----

// Receive models a byte completing on the RX pin.
func (u *UART) Receive(b byte) {
	u.mu.Lock()
	if u.rxFull {
		u.errs |= hal.StatusOverrun
		u.lost++
	} else {
		u.rdr = b
		u.rxFull = true
	}
	u.mu.Unlock()
	u.pend()
}

// InjectErrors raises line error flags, as noise on the RX pin would.
func (u *UART) InjectErrors(errs hal.LineErrors) {
	u.mu.Lock()
	u.errs |= errs.Errors()
	u.mu.Unlock()
	u.pend()
}

// Hold marks the transmitter busy without producing output, modelling a line
// that is not ready to transmit.
func (u *UART) Hold() {
	u.mu.Lock()
	u.txBusy = true
	u.txData = false
	u.txGen++
	u.mu.Unlock()
}

// ShiftOut completes the character in the transmit register. Bytes written by
// firmware go to the wire; a Hold is simply released.
func (u *UART) ShiftOut() {
	u.mu.Lock()
	gen := u.txGen
	u.mu.Unlock()
	u.shiftOut(gen)
}

// shiftOut completes the character only if it is still the one written at gen.
func (u *UART) shiftOut(gen uint64) {
	u.mu.Lock()
	if !u.txBusy || u.txGen != gen {
		u.mu.Unlock()
		return
	}
	b := u.tdr
	wrote := u.txData
	u.txBusy = false
	u.txData = false
	sink := u.onShift
	if wrote {
		u.wire = append(u.wire, b)
	}
	u.mu.Unlock()
	if wrote && sink != nil {
		sink(b)
	}
	u.pend()
}

// Wire returns a copy of every byte transmitted so far.
func (u *UART) Wire() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]byte(nil), u.wire...)
}

// TxInterruptEnabled reports the transmit-ready interrupt enable bit.
func (u *UART) TxInterruptEnabled() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.txie
}

// RxInterruptEnabled reports the receive-ready interrupt enable bit.
func (u *UART) RxInterruptEnabled() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rxie
}

// TxIdle reports that nothing is shifting and no transmit interrupt is armed.
func (u *UART) TxIdle() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return !u.txBusy && !u.txie
}

// Lost returns the number of received bytes discarded by hardware overrun.
func (u *UART) Lost() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lost
}

func (u *UART) Baud() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.baud
}

func (u *UART) pend() {
	if u.irq != nil {
		u.irq.Pend()
	}
}

// asserted is the level of the UART's interrupt output.
func (u *UART) asserted() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.rxie && (u.rxFull || u.errs != 0) {
		return true
	}
	return u.txie && u.configured && !u.txBusy
}
