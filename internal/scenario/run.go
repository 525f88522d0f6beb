package scenario

import (
	"bytes"
	"fmt"
	"strings"

	"uartecho/echo"
	"uartecho/hal"
	"uartecho/hal/sim"
)

// Result is the outcome of one script.
type Result struct {
	Name     string
	Failures []string
	Stats    echo.Stats
	Wire     []byte
}

func (r Result) OK() bool { return len(r.Failures) == 0 }

func (r Result) String() string {
	if r.OK() {
		return "ok   " + r.Name
	}
	return "FAIL " + r.Name + "\n\t" + strings.Join(r.Failures, "\n\t")
}

var errorNames = map[string]hal.LineErrors{
	"overrun": hal.StatusOverrun,
	"framing": hal.StatusFraming,
	"parity":  hal.StatusParity,
	"break":   hal.StatusBreak,
}

type runner struct {
	irq   *sim.Controller
	uart  *sim.UART
	h     *echo.Handler
	ring  *echo.TraceRing
	res   *Result
	step  int
	trace []string
}

// Run executes s on a freshly booted handler. The transmit interrupt enable
// bit is compared with the mailbox after every handler entry.
func Run(s Script) Result {
	res := Result{Name: s.Name}
	policy, err := echo.ParsePolicy(s.Policy)
	if err != nil {
		res.Failures = append(res.Failures, err.Error())
		return res
	}

	r := &runner{irq: sim.NewController(), ring: &echo.TraceRing{}, res: &res}
	r.uart = sim.NewUART(r.irq)
	if err := r.uart.Configure(hal.UARTConfig{BaudRate: 115200}); err != nil {
		r.failf("%v", err)
		return res
	}
	r.h = echo.NewHandler(r.uart, r.ring, policy)
	r.irq.SetHandler(func() {
		r.h.Service()
		_, pending := r.h.Pending()
		if armed := r.uart.TxInterruptEnabled(); armed != pending {
			r.failf("after handler entry: tx interrupt enabled = %v, mailbox valid = %v", armed, pending)
		}
	})
	r.uart.EnableRxInterrupt()
	r.irq.Enable()

	for i, st := range s.Steps {
		r.step = i + 1
		r.apply(st)
	}
	if n := r.irq.Storms(); n > 0 {
		r.step = 0
		r.failf("%d interrupt storms", n)
	}
	res.Stats = r.h.Stats()
	res.Wire = r.uart.Wire()
	return res
}

func (r *runner) failf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if r.step > 0 {
		msg = fmt.Sprintf("step %d: %s", r.step, msg)
	}
	r.res.Failures = append(r.res.Failures, msg)
}

func (r *runner) apply(st Step) {
	if st.Hold {
		r.uart.Hold()
	}
	if st.Mask != nil {
		if *st.Mask {
			r.irq.Disable()
		} else {
			r.irq.Enable()
		}
	}
	for _, b := range st.RX {
		r.uart.Receive(b)
	}
	if len(st.Errors) > 0 {
		var errs hal.LineErrors
		for _, name := range st.Errors {
			e, ok := errorNames[name]
			if !ok {
				r.failf("unknown line error %q", name)
				continue
			}
			errs |= e
		}
		r.uart.InjectErrors(errs)
	}
	for i := 0; i < st.Shift; i++ {
		r.uart.ShiftOut()
	}
	r.ring.Drain(func(b byte) { r.trace = append(r.trace, echo.FormatRX(b)) })
	if st.Expect != nil {
		r.check(*st.Expect)
	}
}

func (r *runner) check(e Expect) {
	if e.Wire != nil {
		if got := r.uart.Wire(); !bytes.Equal(got, *e.Wire) {
			r.failf("wire = % x, want % x", got, []byte(*e.Wire))
		}
	}
	if e.Pending != nil {
		b, ok := r.h.Pending()
		switch want := *e.Pending; {
		case len(want) == 0 && ok:
			r.failf("mailbox holds %#02x, want empty", b)
		case len(want) == 1 && (!ok || b != want[0]):
			r.failf("mailbox = %#02x (valid %v), want %#02x", b, ok, want[0])
		case len(want) > 1:
			r.failf("pending lists %d bytes; the mailbox holds at most one", len(want))
		}
	}
	if e.TxIRQ != nil {
		if got := r.uart.TxInterruptEnabled(); got != *e.TxIRQ {
			r.failf("tx interrupt enabled = %v, want %v", got, *e.TxIRQ)
		}
	}
	if e.Trace != nil {
		if !equalLines(r.trace, e.Trace) {
			r.failf("trace = %q, want %q", r.trace, e.Trace)
		}
	}
	r.trace = nil

	stats := r.h.Stats()
	if e.Dropped != nil && stats.Dropped != *e.Dropped {
		r.failf("dropped = %d, want %d", stats.Dropped, *e.Dropped)
	}
	if e.LineErrors != nil && stats.LineErrors() != *e.LineErrors {
		r.failf("line errors = %d, want %d", stats.LineErrors(), *e.LineErrors)
	}
	if e.Lost != nil && r.uart.Lost() != *e.Lost {
		r.failf("lost = %d, want %d", r.uart.Lost(), *e.Lost)
	}
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// RunFiles loads and runs every script in paths.
func RunFiles(paths ...string) ([]Result, error) {
	var results []Result
	for _, p := range paths {
		scripts, err := LoadFile(p)
		if err != nil {
			return results, err
		}
		for _, s := range scripts {
			results = append(results, Run(s))
		}
	}
	return results, nil
}
