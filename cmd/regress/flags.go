package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2html-regress/internal/config"
	"github.com/alnah/go-md2html-regress/internal/invoke"
)

// errUsage marks command-line mistakes.
var errUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// runFlags holds all flags for the run command.
type runFlags struct {
	common    commonFlags
	documents string
	converter string
	timeout   time.Duration
	only      []string
	sets      []string
	render    string
	format    string
	noColor   bool
	changed   func(name string) bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show failures and the totals")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log converter invocations and checks")
}

// addSelectionFlags adds the flags that choose documents and verifiers.
func addSelectionFlags(fs *flag.FlagSet, f *runFlags) {
	fs.StringVarP(&f.documents, "documents", "d", "", "documents directory")
	fs.StringArrayVar(&f.only, "only", nil, "run only this verifier (repeatable)")
	fs.StringArrayVar(&f.sets, "set", nil, "run only this configuration: default, toc, toc-numbered (repeatable)")
}

// addRunFlags adds converter, render and report flags to a FlagSet.
func addRunFlags(fs *flag.FlagSet, f *runFlags) {
	fs.StringVar(&f.converter, "converter", "", "converter executable, or builtin")
	fs.DurationVar(&f.timeout, "timeout", 0, "limit for one converter invocation")
	fs.StringVar(&f.render, "render", "", "render mode: static, browser")
	fs.StringVar(&f.format, "format", "", "report format: text, json")
	fs.BoolVar(&f.noColor, "no-color", false, "disable bold labels")
}

// parseRunFlags parses run command arguments. The run command takes no
// positional arguments.
func parseRunFlags(args []string) (*runFlags, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	f := &runFlags{}
	addCommonFlags(fs, &f.common)
	addSelectionFlags(fs, f)
	addRunFlags(fs, f)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Arg(0))
	}
	if f.common.quiet && f.common.verbose {
		return nil, fmt.Errorf("%w: --quiet and --verbose are mutually exclusive", errUsage)
	}
	f.changed = fs.Changed
	return f, nil
}

// flagSets parses the --set values.
func (f *runFlags) flagSets() ([]invoke.FlagSet, error) {
	sets := make([]invoke.FlagSet, 0, len(f.sets))
	for _, name := range f.sets {
		set, err := invoke.ParseFlagSet(name)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// loadConfig loads the named config, or the default one when name is empty.
func loadConfig(name string) (*config.Config, error) {
	if name == "" {
		return config.LoadDefault()
	}
	return config.Load(name)
}

// apply overrides cfg with the flags given on the command line and
// revalidates it.
func (f *runFlags) apply(cfg *config.Config) error {
	if f.documents != "" {
		cfg.Documents = f.documents
	}
	if f.converter != "" {
		cfg.Converter.Command = f.converter
		// Extra arguments belong to the configured command only.
		cfg.Converter.Args = nil
	}
	if f.changed != nil && f.changed("timeout") {
		cfg.Converter.Timeout = f.timeout
	}
	if f.render != "" {
		cfg.Render.Mode = f.render
	}
	if f.format != "" {
		cfg.Report.Format = f.format
	}
	return cfg.Validate()
}
