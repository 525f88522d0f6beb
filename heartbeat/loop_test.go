package heartbeat

import (
	"context"
	"math"
	"testing"
	"time"

	"uartecho/echo"
)

type recLogger struct {
	lines   []string
	strings int
}

func (l *recLogger) WriteLineString(s string) { l.lines = append(l.lines, s); l.strings++ }
func (l *recLogger) WriteLineBytes(b []byte)  { l.lines = append(l.lines, string(b)) }

type recLED struct{ toggles, highs int }

func (l *recLED) High() { l.toggles++; l.highs++ }
func (l *recLED) Low()  { l.toggles++ }

type fakeTime struct{ delays []time.Duration }

func (t *fakeTime) Delay(d time.Duration) { t.delays = append(t.delays, d) }

type fixedStats echo.Stats

func (s fixedStats) Stats() echo.Stats { return echo.Stats(s) }

func TestLoopCounterAdvancesByOne(t *testing.T) {
	led := &recLED{}
	l := New(led, nil, nil, nil, nil, Config{})

	for i := 0; i < 10000; i++ {
		before := l.Counter()
		l.Step()
		if got := l.Counter(); got != before+1 {
			t.Fatalf("tick %d: Counter() = %d, want %d", i, got, before+1)
		}
	}
	if led.toggles != 10000 || led.highs != 5000 {
		t.Fatalf("led toggles = %d highs = %d, want 10000, 5000", led.toggles, led.highs)
	}
}

func TestLoopCounterWraps(t *testing.T) {
	log := &recLogger{}
	l := New(nil, log, nil, nil, nil, Config{})
	l.counter = math.MaxUint32 - 1

	l.Step()
	l.Step()

	if got := l.Counter(); got != 0 {
		t.Fatalf("Counter() = %d, want 0", got)
	}
	want := []string{"i = 0"}
	if len(log.lines) != len(want) || log.lines[0] != want[0] {
		t.Fatalf("lines = %q, want %q", log.lines, want)
	}
}

func TestLoopPrintsEvenCounts(t *testing.T) {
	log := &recLogger{}
	l := New(nil, log, nil, nil, nil, Config{})

	for i := 0; i < 5; i++ {
		l.Step()
	}

	want := []string{"i = 2", "i = 4"}
	if len(log.lines) != len(want) {
		t.Fatalf("lines = %q, want %q", log.lines, want)
	}
	for i := range want {
		if log.lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, log.lines[i], want[i])
		}
	}
}

func TestLoopDrainsTraceBeforeTick(t *testing.T) {
	log := &recLogger{}
	ring := &echo.TraceRing{}
	l := New(nil, log, nil, ring, nil, Config{})
	l.Step()

	ring.TraceRX('A')
	ring.TraceRX(0x07)
	l.Step()

	want := []string{"RX: 0x41 'A'", "RX: 0x07 '.'", "i = 2"}
	if len(log.lines) != len(want) {
		t.Fatalf("lines = %q, want %q", log.lines, want)
	}
	for i := range want {
		if log.lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, log.lines[i], want[i])
		}
	}
}

func TestLoopWritesFromScratchBuffer(t *testing.T) {
	log := &recLogger{}
	ring := &echo.TraceRing{}
	l := New(nil, log, nil, ring, fixedStats{Received: 1}, Config{StatusEvery: 2})

	ring.TraceRX('q')
	l.Step()
	ring.TraceRX('r')
	l.Step()

	want := []string{"RX: 0x71 'q'", "RX: 0x72 'r'", "i = 2", "echo: rx=1 echoed=0 deferred=0 drained=0 dropped=0 line-errors=0 spurious-tx=0"}
	if len(log.lines) != len(want) {
		t.Fatalf("lines = %q, want %q", log.lines, want)
	}
	for i := range want {
		if log.lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, log.lines[i], want[i])
		}
	}
	if log.strings != 0 {
		t.Fatalf("WriteLineString called %d times, want 0", log.strings)
	}
}

func TestLoopStatusLine(t *testing.T) {
	log := &recLogger{}
	stats := fixedStats{Received: 3, Echoed: 2, Deferred: 1, Drained: 1}
	l := New(nil, log, nil, nil, stats, Config{StatusEvery: 4})

	for i := 0; i < 8; i++ {
		l.Step()
	}

	status := echo.Stats(stats).String()
	n := 0
	for _, line := range log.lines {
		if line == status {
			n++
		}
	}
	if n != 2 {
		t.Fatalf("status lines = %d, want 2 (lines %q)", n, log.lines)
	}
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	tm := &fakeTime{}
	l := New(nil, nil, tm, nil, nil, Config{Period: 500 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	l.led = ledFunc(func() {
		if l.Counter() == 2 {
			cancel()
		}
	})
	l.Run(ctx)

	if got := l.Counter(); got != 3 {
		t.Fatalf("Counter() = %d, want 3", got)
	}
	if len(tm.delays) != 3 || tm.delays[0] != 500*time.Millisecond {
		t.Fatalf("delays = %v, want 3 x 500ms", tm.delays)
	}
}

type ledFunc func()

func (f ledFunc) High() { f() }
func (f ledFunc) Low()  { f() }
