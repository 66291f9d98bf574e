package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2html-regress/internal/verify"
)

// runListCmd prints the registered verifiers with the configurations they
// cover and the rendered documents they read.
func runListCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var only []string
	fs.StringArrayVar(&only, "only", nil, "list only this verifier (repeatable)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printListUsage(env.Stdout)
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v: %v\n", errUsage, err)
		return ExitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(env.Stderr, "error: %v: unexpected argument %q\n", errUsage, fs.Arg(0))
		return ExitUsage
	}

	verifiers, err := verify.DefaultRegistry().Select(only...)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}
	if err := printVerifiers(env.Stdout, verifiers); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitFailure
	}
	return ExitSuccess
}

// printVerifiers writes one block per verifier:
//
//	simple (simple.md)
//	  default        simple.html
func printVerifiers(w io.Writer, verifiers []verify.Verifier) error {
	for i, v := range verifiers {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s)\n", v.Name(), v.Document.Source)
		for _, set := range v.FlagSets() {
			artifact, err := v.Document.ArtifactPath(set)
			if err != nil {
				return fmt.Errorf("%s: %w", v.Name(), err)
			}
			fmt.Fprintf(w, "  %-14s %s\n", set, artifact)
		}
	}
	return nil
}
