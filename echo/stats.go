package echo

import (
	"strconv"
	"sync/atomic"

	"uartecho/hal"
)

// Stats holds handler counters since boot.
type Stats struct {
	Entries     uint32 // handler entries
	Received    uint32 // bytes read from the receive register
	Echoed      uint32 // bytes written straight from the receive path
	Deferred    uint32 // bytes parked in the mailbox
	Drained     uint32 // bytes written from the mailbox
	Dropped     uint32 // bytes lost to the overwrite policy
	SpuriousTX  uint32 // transmit-ready entries with an empty mailbox
	SpuriousRX  uint32 // receive-ready with nothing to read
	ErrOverrun  uint32
	ErrFraming  uint32
	ErrParity   uint32
	ErrBreak    uint32
	Stalls      uint32 // times reception was paused by StallReceive
	RetriedSend uint32 // mailbox writes refused by the transmitter
}

// LineErrors sums every line error kind.
func (s Stats) LineErrors() uint32 {
	return s.ErrOverrun + s.ErrFraming + s.ErrParity + s.ErrBreak
}

func (s Stats) String() string {
	return string(s.AppendTo(nil))
}

// AppendTo appends the status line to dst.
func (s Stats) AppendTo(dst []byte) []byte {
	dst = append(dst, "echo:"...)
	dst = appendField(dst, " rx=", s.Received)
	dst = appendField(dst, " echoed=", s.Echoed)
	dst = appendField(dst, " deferred=", s.Deferred)
	dst = appendField(dst, " drained=", s.Drained)
	dst = appendField(dst, " dropped=", s.Dropped)
	dst = appendField(dst, " line-errors=", s.LineErrors())
	return appendField(dst, " spurious-tx=", s.SpuriousTX)
}

func appendField(dst []byte, name string, v uint32) []byte {
	return strconv.AppendUint(append(dst, name...), uint64(v), 10)
}

type counters struct {
	entries     atomic.Uint32
	received    atomic.Uint32
	echoed      atomic.Uint32
	deferred    atomic.Uint32
	drained     atomic.Uint32
	dropped     atomic.Uint32
	spuriousTX  atomic.Uint32
	spuriousRX  atomic.Uint32
	errOverrun  atomic.Uint32
	errFraming  atomic.Uint32
	errParity   atomic.Uint32
	errBreak    atomic.Uint32
	stalls      atomic.Uint32
	retriedSend atomic.Uint32
}

func (c *counters) countErrors(errs hal.LineErrors) {
	if errs&hal.StatusOverrun != 0 {
		c.errOverrun.Add(1)
	}
	if errs&hal.StatusFraming != 0 {
		c.errFraming.Add(1)
	}
	if errs&hal.StatusParity != 0 {
		c.errParity.Add(1)
	}
	if errs&hal.StatusBreak != 0 {
		c.errBreak.Add(1)
	}
}

func (c *counters) snapshot() Stats {
	return Stats{
		Entries:     c.entries.Load(),
		Received:    c.received.Load(),
		Echoed:      c.echoed.Load(),
		Deferred:    c.deferred.Load(),
		Drained:     c.drained.Load(),
		Dropped:     c.dropped.Load(),
		SpuriousTX:  c.spuriousTX.Load(),
		SpuriousRX:  c.spuriousRX.Load(),
		ErrOverrun:  c.errOverrun.Load(),
		ErrFraming:  c.errFraming.Load(),
		ErrParity:   c.errParity.Load(),
		ErrBreak:    c.errBreak.Load(),
		Stalls:      c.stalls.Load(),
		RetriedSend: c.retriedSend.Load(),
	}
}
