package hal

// PL011 data register flags. A read of UARTDR returns the character in bits
// 0..7 and the errors that belong to that character in bits 8..11.
const (
	pl011DataFE = 1 << 8
	pl011DataPE = 1 << 9
	pl011DataBE = 1 << 10
	pl011DataOE = 1 << 11
)

// rxLatch holds one character popped from UARTDR together with its error
// flags, so the errors reported by Status are those of the byte ReadByte
// will return rather than of the previous one.
type rxLatch struct {
	b     byte
	valid bool
	errs  LineErrors
}

func (l *rxLatch) load(dr uint32) {
	l.b = byte(dr)
	l.valid = true
	if dr&pl011DataFE != 0 {
		l.errs |= StatusFraming
	}
	if dr&pl011DataPE != 0 {
		l.errs |= StatusParity
	}
	if dr&pl011DataBE != 0 {
		l.errs |= StatusBreak
	}
	if dr&pl011DataOE != 0 {
		l.errs |= StatusOverrun
	}
}

func (l *rxLatch) status() UARTStatus {
	st := l.errs
	if l.valid {
		st |= StatusRxReady
	}
	return st
}

func (l *rxLatch) take() (byte, bool) {
	if !l.valid {
		return 0, false
	}
	l.valid = false
	return l.b, true
}

func (l *rxLatch) clear(errs LineErrors) {
	l.errs &^= errs.Errors()
}

func (l *rxLatch) reset() { *l = rxLatch{} }
