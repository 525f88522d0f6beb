package echo

import "sync/atomic"

const slotValid = 1 << 8

// Mailbox is a single-slot holding cell for one pending outgoing byte.
//
// The valid flag and the byte live in one atomic word, so every transition is
// a single indivisible operation: an interrupt entry sees either the whole
// byte or an empty slot, never a torn read.
type Mailbox struct {
	slot atomic.Uint32
}

// Put stores b and marks the slot valid. If a byte was already pending it is
// replaced and returned with overwrote set.
func (m *Mailbox) Put(b byte) (prev byte, overwrote bool) {
	old := m.slot.Swap(slotValid | uint32(b))
	return byte(old), old&slotValid != 0
}

// TryPut stores b only if the slot is empty.
func (m *Mailbox) TryPut(b byte) bool {
	return m.slot.CompareAndSwap(0, slotValid|uint32(b))
}

// Take reads and clears the slot in one step.
func (m *Mailbox) Take() (byte, bool) {
	old := m.slot.Swap(0)
	return byte(old), old&slotValid != 0
}

// Peek returns the pending byte without clearing it.
func (m *Mailbox) Peek() (byte, bool) {
	v := m.slot.Load()
	return byte(v), v&slotValid != 0
}

func (m *Mailbox) Valid() bool {
	return m.slot.Load()&slotValid != 0
}
