//go:build !tinygo

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"uartecho/app"
	"uartecho/echo"
	"uartecho/hal"
	"uartecho/hal/host"
	"uartecho/internal/buildinfo"
	"uartecho/internal/logging"
	"uartecho/internal/scenario"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type options struct {
	headless bool
	hz       int
	ticks    uint64
	line     string
	baud     uint32
	policy   string
	burst    bool
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	root := &cobra.Command{
		Use:   "uartecho",
		Short: "Run the UART echo firmware on a simulated board",
		Long: `Runs the interrupt-driven UART echo firmware against a simulated
peripheral. The echo line can be bridged to stdio, a pseudo-terminal or a
real serial device; the window shows the trace console and the heartbeat LED.`,
		Version:      buildinfo.String(),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd, opts)
		},
	}
	f := root.Flags()
	f.BoolVar(&opts.headless, "headless", false, "run without a window")
	f.IntVar(&opts.hz, "hz", 60, "step rate in headless mode")
	f.Uint64Var(&opts.ticks, "ticks", 0, "stop after N steps in headless mode (0 = run forever)")
	f.StringVar(&opts.line, "line", "", "attach the echo line: stdio, pty or a serial device path")
	f.Uint32Var(&opts.baud, "baud", app.BaudRate, "rate of the attached line")
	f.StringVar(&opts.policy, "policy", app.DefaultPolicy.String(), "full mailbox policy: keep-newest, keep-oldest or stall")
	f.BoolVar(&opts.burst, "burst", false, "deliver line input back to back instead of one byte per echo")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level")

	root.AddCommand(newScenarioCmd(&opts))
	return root
}

func runBoard(cmd *cobra.Command, opts options) error {
	log, err := logging.New(cmd.ErrOrStderr(), opts.logLevel, true)
	if err != nil {
		return err
	}
	policy, err := echo.ParsePolicy(opts.policy)
	if err != nil {
		return err
	}
	log.Info().Str(logging.LogKey.Policy, policy.String()).Str(logging.LogKey.Line, opts.line).
		Str("version", buildinfo.Short()).Msg("starting simulated board")

	cfg := app.DefaultConfig()
	cfg.Policy = policy
	board := host.Config{Log: log, Line: opts.line, Baud: opts.baud, Burst: opts.burst}

	var sys *app.System
	newApp := func(h hal.HAL) (func() error, error) {
		step, s, err := app.NewWithConfig(h, cfg)
		sys = s
		return step, err
	}
	defer func() {
		if sys != nil {
			log.Info().Msg(sys.Handler.Stats().String())
		}
	}()

	if opts.headless {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		err := host.RunHeadless(ctx, board, host.HeadlessConfig{Hz: opts.hz, Ticks: opts.ticks}, newApp)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return host.RunWindow(board, newApp)
}

func newScenarioCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scenario FILE...",
		Short: "Run YAML scenarios against the echo handler",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := logging.New(cmd.ErrOrStderr(), opts.logLevel, true)
			if err != nil {
				return err
			}
			log := logging.Module(root, "scenario")

			results, err := scenario.RunFiles(args...)
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				fmt.Fprintln(cmd.OutOrStdout(), r)
				ev := log.Debug()
				if !r.OK() {
					failed++
					ev = log.WithLevel(zerolog.ErrorLevel)
				}
				ev.Str("name", r.Name).Str("wire", fmt.Sprintf("% x", r.Wire)).Msg(r.Stats.String())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
			}
			return nil
		},
	}
}
