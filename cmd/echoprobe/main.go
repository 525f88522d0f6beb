// Command echoprobe checks a serial echo device: it sends bytes one at a time
// over a real serial port and reports how many came back intact.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"uartecho/internal/buildinfo"
	"uartecho/internal/logging"
	"uartecho/internal/probe"

	"github.com/spf13/cobra"
	"go.bug.st/serial"
)

type options struct {
	port     string
	baud     int
	count    int
	pattern  string
	timeout  time.Duration
	seed     int64
	logLevel string
	list     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:     "echoprobe",
		Short:   "Probe a UART echo device",
		Long:    `Sends bytes to an echo device one at a time, waits for each echo and reports matched, mismatched and missing bytes.`,
		Version: buildinfo.String(),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
		SilenceUsage: true,
	}
	f := cmd.Flags()
	f.StringVarP(&opts.port, "port", "p", "", "serial device of the echo line")
	f.IntVarP(&opts.baud, "baud", "b", 115200, "line rate")
	f.IntVarP(&opts.count, "count", "n", 256, "bytes to send")
	f.StringVar(&opts.pattern, "pattern", string(probe.PatternASCII), "byte pattern: ascii, all or random")
	f.DurationVar(&opts.timeout, "timeout", 100*time.Millisecond, "wait for each echo")
	f.Int64Var(&opts.seed, "seed", 1, "seed for the random pattern")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level")
	f.BoolVar(&opts.list, "list", false, "list serial ports and exit")
	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	root, err := logging.New(cmd.ErrOrStderr(), opts.logLevel, true)
	if err != nil {
		return err
	}
	log := logging.Module(root, "probe")

	if opts.list {
		ports, err := serial.GetPortsList()
		if err != nil {
			return fmt.Errorf("list ports: %w", err)
		}
		for _, p := range ports {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	}
	if opts.port == "" {
		return errors.New("--port is required")
	}

	port, err := serial.Open(opts.port, &serial.Mode{BaudRate: opts.baud})
	if err != nil {
		return fmt.Errorf("open %s: %w", opts.port, err)
	}
	defer port.Close()
	if err := port.ResetInputBuffer(); err != nil {
		log.Warn().Err(err).Msg("could not flush input")
	}
	log = logging.Ptr(log.With().Str(logging.LogKey.Port, opts.port).Logger())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	rep, err := probe.Run(ctx, port, probe.Config{
		Count:   opts.count,
		Pattern: probe.Pattern(opts.pattern),
		Seed:    opts.seed,
		Timeout: opts.timeout,
	}, log)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rep)
	if !rep.OK() {
		return fmt.Errorf("%d of %d bytes not echoed intact", rep.Sent-rep.Matched, rep.Sent)
	}
	return nil
}
