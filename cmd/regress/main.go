package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		if os.Getenv("REGRESS_DEBUG") != "" {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}))

	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args[1:], DefaultEnv())
	stop()
	os.Exit(code)
}

// runMain dispatches to a command and returns the exit code. Arguments
// that start with a flag run the default command.
func runMain(ctx context.Context, args []string, env *Environment) int {
	if len(args) == 0 {
		return runRunCmd(ctx, nil, env)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "run":
		return runRunCmd(ctx, rest, env)
	case "list":
		return runListCmd(rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "convert":
		return runConvertCmd(ctx, rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "regress %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		runHelp(rest, env)
		return ExitSuccess
	}

	if len(cmd) > 0 && cmd[0] == '-' {
		return runRunCmd(ctx, args, env)
	}
	fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
	printUsage(env.Stderr)
	return ExitUsage
}
