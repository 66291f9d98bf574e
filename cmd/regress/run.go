package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	regress "github.com/alnah/go-md2html-regress"
	"github.com/alnah/go-md2html-regress/internal/config"
	"github.com/alnah/go-md2html-regress/internal/hints"
)

// runRunCmd executes the run command and returns an exit code.
func runRunCmd(ctx context.Context, args []string, env *Environment) int {
	flags, err := parseRunFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printRunUsage(env.Stdout)
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		fmt.Fprintln(env.Stderr, "Run 'regress help run' for usage.")
		return ExitUsage
	}

	cfg, err := loadConfig(flags.common.config)
	if err != nil {
		printConfigError(env, err, flags.common.config)
		return exitCodeFor(err)
	}
	if err := flags.apply(cfg); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}

	sets, err := flags.flagSets()
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}

	logger := newLogger(env, flags.common.verbose)
	h, err := regress.New(cfg,
		regress.WithOnly(flags.only...),
		regress.WithFlagSets(sets...),
		regress.WithLogger(logger),
		regress.WithClock(env.Now))
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}
	defer func() {
		if err := h.Close(); err != nil {
			logger.Warn("closing browser", slog.Any("error", err))
		}
	}()

	summary, err := h.Run(ctx)
	if summary != nil {
		if werr := writeReport(env, cfg, summary, flags); werr != nil {
			fmt.Fprintf(env.Stderr, "error: writing report: %v\n", werr)
			return ExitFailure
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(env.Stderr, "interrupted")
			return ExitFailure
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}
	return exitCodeForSummary(summary)
}

// writeReport prints the summary in the configured format.
func writeReport(env *Environment, cfg *config.Config, s *regress.Summary, flags *runFlags) error {
	if cfg.Report.Format == config.FormatJSON {
		return regress.WriteJSON(env.Stdout, s)
	}
	return regress.WriteText(env.Stdout, env.Stderr, s, regress.TextOptions{
		Color: env.Color && !flags.noColor,
		Quiet: flags.common.quiet,
	})
}

// printConfigError reports a config load failure with a hint when the
// file could not be found.
func printConfigError(env *Environment, err error, name string) {
	msg := fmt.Sprintf("error: %v", err)
	if errors.Is(err, config.ErrConfigNotFound) && name != "" {
		msg += hints.ForConfigNotFound(config.SearchPaths(name))
	}
	fmt.Fprintln(env.Stderr, msg)
}

// newLogger returns a text logger on stderr in verbose mode and a
// discarding one otherwise.
func newLogger(env *Environment, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	w := env.Stderr
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
