// Package probe checks an echo device from the far end of the line: it sends
// bytes one at a time and waits for each to come back.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// Port is a serial line with a read deadline. go.bug.st/serial ports
// satisfy it.
type Port interface {
	io.ReadWriter
	SetReadTimeout(t time.Duration) error
}

type Pattern string

const (
	PatternASCII  Pattern = "ascii"
	PatternAll    Pattern = "all"
	PatternRandom Pattern = "random"
)

var ErrPattern = errors.New("probe: unknown pattern")

type Config struct {
	Count   int
	Pattern Pattern
	Seed    int64
	Timeout time.Duration
}

// Report summarises one probe run.
type Report struct {
	Sent       int
	Matched    int
	Mismatched int
	Missing    int
	Late       int // echoes of missing bytes that arrived after their timeout
	MinRTT     time.Duration
	MaxRTT     time.Duration
	Elapsed    time.Duration
}

func (r Report) OK() bool { return r.Sent > 0 && r.Matched == r.Sent }

func (r Report) String() string {
	return fmt.Sprintf("sent=%d matched=%d mismatched=%d missing=%d late=%d rtt=%v..%v elapsed=%v",
		r.Sent, r.Matched, r.Mismatched, r.Missing, r.Late, r.MinRTT, r.MaxRTT, r.Elapsed)
}

// Bytes returns the n bytes the pattern sends.
func Bytes(p Pattern, n int, seed int64) ([]byte, error) {
	out := make([]byte, n)
	switch p {
	case PatternASCII, "":
		for i := range out {
			out[i] = byte(0x20 + i%0x5F)
		}
	case PatternAll:
		for i := range out {
			out[i] = byte(i)
		}
	case PatternRandom:
		rng := rand.New(rand.NewSource(seed))
		for i := range out {
			out[i] = byte(rng.Intn(256))
		}
	default:
		return nil, fmt.Errorf("%w %q", ErrPattern, p)
	}
	return out, nil
}

// Run sends cfg.Count bytes stop-and-wait and reports what came back.
func Run(ctx context.Context, port Port, cfg Config, log *zerolog.Logger) (rep Report, err error) {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 100 * time.Millisecond
	}
	payload, err := Bytes(cfg.Pattern, cfg.Count, cfg.Seed)
	if err != nil {
		return rep, err
	}
	if err := port.SetReadTimeout(cfg.Timeout); err != nil {
		return rep, fmt.Errorf("probe: set read timeout: %w", err)
	}

	start := time.Now()
	defer func() { rep.Elapsed = time.Since(start) }()

	buf := make([]byte, 1)
	// overdue counts missing echoes that may still arrive ahead of the next one.
	overdue := 0
	for _, b := range payload {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		sent := time.Now()
		if _, err := port.Write([]byte{b}); err != nil {
			return rep, fmt.Errorf("probe: write: %w", err)
		}
		rep.Sent++

		for {
			n, err := port.Read(buf)
			if err != nil && !errors.Is(err, io.EOF) {
				return rep, fmt.Errorf("probe: read: %w", err)
			}
			rtt := time.Since(sent)
			if n == 0 {
				rep.Missing++
				overdue++
				log.Warn().Uint8("sent", b).Msg("no echo")
				break
			}
			if buf[0] != b {
				if overdue > 0 {
					overdue--
					rep.Late++
					log.Debug().Uint8("got", buf[0]).Msg("late echo discarded")
					continue
				}
				rep.Mismatched++
				log.Warn().Uint8("sent", b).Uint8("got", buf[0]).Msg("wrong echo")
			} else {
				// Echoes arrive in order: anything still overdue is lost.
				overdue = 0
				rep.Matched++
				log.Trace().Uint8("byte", b).Dur("rtt", rtt).Msg("echo")
			}
			if rep.MinRTT == 0 || rtt < rep.MinRTT {
				rep.MinRTT = rtt
			}
			if rtt > rep.MaxRTT {
				rep.MaxRTT = rtt
			}
			break
		}
	}
	return rep, nil
}
