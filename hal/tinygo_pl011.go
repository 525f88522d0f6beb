//go:build tinygo && (rp2040 || rp2350)

package hal

import (
	"device/arm"
	"device/rp"
	"machine"
	"runtime/interrupt"
)

// pl011 drives UART1 with the FIFOs disabled, so the receive and transmit
// holding registers are single bytes.
//
// Break, parity and framing flags arrive with the character in UARTDR; UARTRSR
// only reflects them after the read. Status therefore pops the character into the
// latch while the receive interrupt is enabled and reports its flags.
type pl011 struct {
	bus    *rp.UART0_Type
	tx, rx machine.Pin
	latch  rxLatch
}

func newPL011(tx, rx machine.Pin) *pl011 {
	return &pl011{bus: rp.UART1, tx: tx, rx: rx}
}

const (
	rxIRQMask = rp.UART0_UARTIMSC_RXIM | rp.UART0_UARTIMSC_OEIM | rp.UART0_UARTIMSC_BEIM |
		rp.UART0_UARTIMSC_PEIM | rp.UART0_UARTIMSC_FEIM
	errIRQClear = rp.UART0_UARTICR_OEIC | rp.UART0_UARTICR_BEIC |
		rp.UART0_UARTICR_PEIC | rp.UART0_UARTICR_FEIC
)

func (u *pl011) Configure(cfg UARTConfig) error {
	if cfg.BaudRate == 0 {
		return ErrBaudRate
	}

	rp.RESETS.RESET.SetBits(rp.RESETS_RESET_UART1)
	rp.RESETS.RESET.ClearBits(rp.RESETS_RESET_UART1)
	for !rp.RESETS.RESET_DONE.HasBits(rp.RESETS_RESET_UART1) {
	}

	u.bus.UARTCR.ClearBits(rp.UART0_UARTCR_UARTEN | rp.UART0_UARTCR_RXE | rp.UART0_UARTCR_TXE)
	u.tx.Configure(machine.PinConfig{Mode: machine.PinUART})
	u.rx.Configure(machine.PinConfig{Mode: machine.PinUART})

	div := 8 * machine.CPUFrequency() / cfg.BaudRate
	ibrd := div >> 7
	var fbrd uint32
	switch {
	case ibrd == 0:
		ibrd, fbrd = 1, 0
	case ibrd >= 65535:
		ibrd, fbrd = 65535, 0
	default:
		fbrd = ((div & 0x7f) + 1) / 2
	}
	u.bus.UARTIBRD.Set(ibrd)
	u.bus.UARTFBRD.Set(fbrd)

	// 8N1, FEN clear. This LCR_H write also latches the divisors.
	u.bus.UARTLCR_H.Set(3 << rp.UART0_UARTLCR_H_WLEN_Pos)

	u.bus.UARTIMSC.Set(0)
	u.bus.UARTICR.Set(0x7FF)
	for !u.bus.UARTFR.HasBits(rp.UART0_UARTFR_RXFE) {
		_ = u.bus.UARTDR.Get()
	}
	u.bus.UARTRSR.Set(0)
	u.latch.reset()

	u.bus.UARTCR.Set(rp.UART0_UARTCR_UARTEN | rp.UART0_UARTCR_RXE | rp.UART0_UARTCR_TXE)
	return nil
}

func (u *pl011) Status() UARTStatus {
	// With reception paused the character stays in UARTDR so that re-enabling
	// RXIM raises the interrupt again.
	if u.bus.UARTIMSC.HasBits(rp.UART0_UARTIMSC_RXIM) {
		u.fill()
	}
	st := u.latch.status()
	if u.bus.UARTFR.Get()&rp.UART0_UARTFR_TXFF == 0 {
		st |= StatusTxReady
	}
	if u.bus.UARTRSR.HasBits(rp.UART0_UARTRSR_OE) {
		st |= StatusOverrun
	}
	return st
}

func (u *pl011) ReadByte() (byte, bool) {
	u.fill()
	return u.latch.take()
}

func (u *pl011) fill() {
	if u.latch.valid || u.bus.UARTFR.HasBits(rp.UART0_UARTFR_RXFE) {
		return
	}
	u.latch.load(u.bus.UARTDR.Get())
}

// TryWriteByte also clears a pending transmit interrupt, as any DR write does.
func (u *pl011) TryWriteByte(b byte) bool {
	if u.bus.UARTFR.HasBits(rp.UART0_UARTFR_TXFF) {
		return false
	}
	u.bus.UARTDR.Set(uint32(b))
	return true
}

func (u *pl011) EnableRxInterrupt()  { u.bus.UARTIMSC.SetBits(rxIRQMask) }
func (u *pl011) DisableRxInterrupt() { u.bus.UARTIMSC.ClearBits(rxIRQMask) }
func (u *pl011) EnableTxInterrupt()  { u.bus.UARTIMSC.SetBits(rp.UART0_UARTIMSC_TXIM) }
func (u *pl011) DisableTxInterrupt() { u.bus.UARTIMSC.ClearBits(rp.UART0_UARTIMSC_TXIM) }

// ClearErrors clears the sticky receive status. The PL011 clears all four
// RSR flags on any write, so errs only selects the latched flags to drop.
func (u *pl011) ClearErrors(errs LineErrors) {
	if errs.Errors() == 0 {
		return
	}
	u.latch.clear(errs)
	u.bus.UARTRSR.Set(0)
	u.bus.UARTICR.Set(errIRQClear)
}

// echoISR is the installed handler. Written once at boot with the line masked.
var echoISR func()

type pl011IRQ struct {
	intr interrupt.Interrupt
}

// newPL011IRQ claims IRQ_UART1_IRQ. machine.UART1 must stay unused in this
// program: its handler would be a second registration for the same vector.
func newPL011IRQ() *pl011IRQ {
	intr := interrupt.New(rp.IRQ_UART1_IRQ, func(interrupt.Interrupt) {
		if isr := echoISR; isr != nil {
			isr()
		}
	})
	intr.SetPriority(0x80)
	return &pl011IRQ{intr: intr}
}

func (i *pl011IRQ) SetHandler(fn func()) { echoISR = fn }
func (i *pl011IRQ) Enable()              { i.intr.Enable() }
func (i *pl011IRQ) Disable()             { arm.DisableIRQ(rp.IRQ_UART1_IRQ) }
