package echo

import "testing"

func TestFormatRX(t *testing.T) {
	tests := []struct {
		b    byte
		want string
	}{
		{0x41, "RX: 0x41 'A'"},
		{0x07, "RX: 0x07 '.'"},
		{0x20, "RX: 0x20 '.'"},
		{0x7E, "RX: 0x7E '~'"},
		{0x7F, "RX: 0x7F '.'"},
		{0xFF, "RX: 0xFF '.'"},
	}
	for _, tt := range tests {
		if got := FormatRX(tt.b); got != tt.want {
			t.Fatalf("FormatRX(%#x) = %q, want %q", tt.b, got, tt.want)
		}
	}
}

func TestTraceRingOrder(t *testing.T) {
	var r TraceRing
	for i := 0; i < 5; i++ {
		r.TraceRX(byte(i))
	}
	var got []byte
	n := r.Drain(func(b byte) { got = append(got, b) })
	if n != 5 {
		t.Fatalf("Drain() = %d, want 5", n)
	}
	for i, b := range got {
		if b != byte(i) {
			t.Fatalf("got[%d] = %d, want %d", i, b, i)
		}
	}
	if _, ok := r.TryRecv(); ok {
		t.Fatalf("TryRecv() ok = true after drain")
	}
}

func TestTraceRingDropsWhenFull(t *testing.T) {
	var r TraceRing
	for i := 0; i < traceSlots+3; i++ {
		r.TraceRX(byte(i))
	}
	if got := r.Dropped(); got != 3 {
		t.Fatalf("Dropped() = %d, want 3", got)
	}
	if n := r.Drain(func(byte) {}); n != traceSlots {
		t.Fatalf("Drain() = %d, want %d", n, traceSlots)
	}
}

func TestAppendRXReusesBuffer(t *testing.T) {
	buf := make([]byte, 0, 16)
	buf = AppendRX(buf, 'x')
	if string(buf) != "RX: 0x78 'x'" {
		t.Fatalf("AppendRX = %q", buf)
	}
	buf = AppendRX(buf[:0], 0x00)
	if string(buf) != "RX: 0x00 '.'" {
		t.Fatalf("AppendRX = %q", buf)
	}
}
