package echo

import "testing"

func TestStatsString(t *testing.T) {
	s := Stats{Received: 12, Echoed: 9, Deferred: 3, Drained: 2, Dropped: 1, ErrFraming: 2, ErrBreak: 1, SpuriousTX: 4}
	want := "echo: rx=12 echoed=9 deferred=3 drained=2 dropped=1 line-errors=3 spurious-tx=4"
	if got := s.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if got := string(s.AppendTo([]byte("x "))); got != "x "+want {
		t.Fatalf("AppendTo() = %q", got)
	}
}
