package main

import (
	"context"

	"github.com/alnah/go-md2html-regress/internal/refconv"
)

// runConvertCmd runs the builtin converter with the converter contract
// flags, so it can be exercised outside the harness.
func runConvertCmd(ctx context.Context, args []string, env *Environment) int {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			printConvertUsage(env.Stdout)
			return ExitSuccess
		}
	}
	return refconv.New(nil).Main(ctx, args, env.Stdout, env.Stderr)
}
