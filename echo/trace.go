package echo

import "sync/atomic"

// Tracer receives every byte the handler drains, from interrupt context.
// Implementations must not block.
type Tracer interface {
	TraceRX(b byte)
}

const traceSlots = 32

// TraceRing is a fixed-size single-producer/single-consumer queue of received
// bytes. The interrupt handler produces; the foreground loop consumes and
// prints. It never allocates and never blocks: when full, new bytes are not
// traced and are counted instead.
type TraceRing struct {
	head    atomic.Uint32
	tail    atomic.Uint32
	dropped atomic.Uint32
	slots   [traceSlots]byte
}

var _ Tracer = (*TraceRing)(nil)

// TraceRX enqueues b, dropping it if the ring is full.
func (r *TraceRing) TraceRX(b byte) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head-tail >= traceSlots {
		r.dropped.Add(1)
		return
	}
	r.slots[head%traceSlots] = b
	r.head.Store(head + 1)
}

// TryRecv dequeues one byte, returning false if empty.
func (r *TraceRing) TryRecv() (byte, bool) {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail == head {
		return 0, false
	}
	b := r.slots[tail%traceSlots]
	r.tail.Store(tail + 1)
	return b, true
}

// Drain calls fn for every queued byte and returns how many it consumed.
func (r *TraceRing) Drain(fn func(b byte)) int {
	n := 0
	for {
		b, ok := r.TryRecv()
		if !ok {
			return n
		}
		fn(b)
		n++
	}
}

// Dropped returns the number of bytes that were not traced.
func (r *TraceRing) Dropped() uint32 {
	return r.dropped.Load()
}

const hexDigits = "0123456789ABCDEF"

// FormatRX renders a received byte for the diagnostic channel:
// hex value plus the character, or '.' when it is not a printable glyph.
func FormatRX(b byte) string {
	return string(AppendRX(nil, b))
}

// AppendRX appends the FormatRX line for b to dst.
func AppendRX(dst []byte, b byte) []byte {
	return append(dst, 'R', 'X', ':', ' ', '0', 'x',
		hexDigits[b>>4], hexDigits[b&0x0F],
		' ', '\'', byte(Printable(b)), '\'')
}

// Printable returns b as a rune if it is an ASCII graphic character, '.' otherwise.
func Printable(b byte) rune {
	if b >= 0x21 && b <= 0x7E {
		return rune(b)
	}
	return '.'
}
