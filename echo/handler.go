// Package echo implements the interrupt side of the serial echo: a single-slot
// mailbox and the receive/transmit handler that shares it with itself across
// interrupt entries.
package echo

import (
	"sync/atomic"

	"uartecho/hal"
)

// Handler is the echo UART interrupt service routine.
//
// States are implicit: Idle when the mailbox is empty and the transmit-ready
// interrupt is disarmed, Pending when the mailbox holds a byte and the
// interrupt is armed. Service never blocks.
type Handler struct {
	port   hal.Port
	trace  Tracer
	policy OverwritePolicy

	mb      Mailbox
	stalled atomic.Bool
	stats   counters
}

// NewHandler returns a handler for port. trace may be nil.
func NewHandler(port hal.Port, trace Tracer, policy OverwritePolicy) *Handler {
	return &Handler{port: port, trace: trace, policy: policy}
}

// Service runs one interrupt entry. Receive-ready is handled before
// transmit-ready so a byte arriving while the line is free is echoed in the
// same entry.
func (h *Handler) Service() {
	if h == nil || h.port == nil {
		return
	}
	h.stats.entries.Add(1)

	st := h.port.Status()
	if errs := st.Errors(); errs != 0 {
		h.port.ClearErrors(errs)
		h.stats.countErrors(errs)
	}
	echoed := false
	if st.RxReady() && !h.stalled.Load() {
		echoed = h.receive(st)
	}
	if st.TxReady() {
		// Transmit-ready alone with nothing pending means the interrupt was
		// armed without cause.
		h.transmit(echoed || st.RxReady() || st.Errors() != 0)
	}
}

// receive reports whether the byte went straight to the transmitter.
func (h *Handler) receive(st hal.UARTStatus) bool {
	b, ok := h.port.ReadByte()
	if !ok {
		h.stats.spuriousRX.Add(1)
		return false
	}
	h.stats.received.Add(1)
	if h.trace != nil {
		h.trace.TraceRX(b)
	}

	if st.TxReady() {
		if old, ok := h.mb.Take(); ok {
			// The older byte goes out first; b is parked behind it.
			if h.port.TryWriteByte(old) {
				h.stats.drained.Add(1)
			} else {
				h.mb.TryPut(old)
			}
		} else if h.port.TryWriteByte(b) {
			h.stats.echoed.Add(1)
			return true
		}
	}

	switch h.policy {
	case KeepOldest:
		if !h.mb.TryPut(b) {
			h.stats.dropped.Add(1)
			return false
		}
	case StallReceive:
		if _, overwrote := h.mb.Put(b); overwrote {
			h.stats.dropped.Add(1)
		}
		h.stalled.Store(true)
		h.stats.stalls.Add(1)
		h.port.DisableRxInterrupt()
	default:
		if _, overwrote := h.mb.Put(b); overwrote {
			h.stats.dropped.Add(1)
		}
	}
	h.stats.deferred.Add(1)
	h.port.EnableTxInterrupt()
	return false
}

// transmit drains the mailbox. emptyOK is set when the entry had another
// cause, so an empty mailbox is not spurious.
func (h *Handler) transmit(emptyOK bool) {
	b, ok := h.mb.Take()
	if !ok {
		if !emptyOK {
			h.stats.spuriousTX.Add(1)
		}
		h.port.DisableTxInterrupt()
		return
	}
	if !h.port.TryWriteByte(b) {
		// Transmitter taken by the receive path in this same entry.
		h.mb.TryPut(b)
		h.stats.retriedSend.Add(1)
		return
	}
	h.stats.drained.Add(1)
	if h.mb.Valid() {
		return
	}
	h.port.DisableTxInterrupt()
	if h.stalled.CompareAndSwap(true, false) {
		h.port.EnableRxInterrupt()
	}
}

// Pending returns the byte waiting in the mailbox, if any.
func (h *Handler) Pending() (byte, bool) {
	return h.mb.Peek()
}

// Stalled reports whether reception is paused by StallReceive.
func (h *Handler) Stalled() bool {
	return h.stalled.Load()
}

func (h *Handler) Policy() OverwritePolicy { return h.policy }

// Stats returns a snapshot of the handler counters. Safe from any context.
func (h *Handler) Stats() Stats {
	if h == nil {
		return Stats{}
	}
	return h.stats.snapshot()
}
