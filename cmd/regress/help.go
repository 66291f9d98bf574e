package main

import (
	"fmt"
	"io"

	"github.com/alnah/go-md2html-regress/internal/config"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: regress [command] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run        Convert the documents and verify the output (default)")
	fmt.Fprintln(w, "  list       List verifiers and the documents they read")
	fmt.Fprintln(w, "  doctor     Check the converter, documents and browser")
	fmt.Fprintln(w, "  convert    Run the builtin converter")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'regress help <command>' for details on a specific command.")
}

// printRunUsage prints usage for the run command.
func printRunUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: regress run [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Invoke the converter once per rendering configuration (default, toc,")
	fmt.Fprintln(w, "toc-numbered) and run every verifier against the rendered documents.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -d, --documents <dir>     Documents directory (default: documents)")
	fmt.Fprintln(w, "      --converter <cmd>     Converter executable, or builtin")
	fmt.Fprintln(w, "      --timeout <d>         Limit for one converter invocation (e.g. 90s)")
	fmt.Fprintln(w, "      --only <name>         Run only this verifier (repeatable)")
	fmt.Fprintln(w, "      --set <config>        Run only this configuration (repeatable)")
	fmt.Fprintln(w, "      --render <mode>       Render mode: static, browser")
	fmt.Fprintln(w, "      --format <f>          Report format: text, json")
	fmt.Fprintln(w, "      --no-color            Disable bold labels")
	fmt.Fprintln(w, "  -q, --quiet               Only show failures and the totals")
	fmt.Fprintln(w, "  -v, --verbose             Log converter invocations and checks")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes:")
	fmt.Fprintln(w, "  0  every check passed")
	fmt.Fprintln(w, "  1  a check failed")
	fmt.Fprintln(w, "  2  invalid flags, config or verifier names")
	fmt.Fprintln(w, "  3  converter failed or rendered documents missing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprint(w, config.EnvUsage())
	fmt.Fprintln(w)
}

// printListUsage prints usage for the list command.
func printListUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: regress list [--only <name>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List each verifier, its source document, the configurations it covers")
	fmt.Fprintln(w, "and the rendered document it reads for each one.")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: regress doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that the converter resolves, the documents directory holds every")
	fmt.Fprintln(w, "source document, and Chrome is available in browser render mode.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -d, --documents <dir>     Documents directory")
	fmt.Fprintln(w, "      --converter <cmd>     Converter executable, or builtin")
	fmt.Fprintln(w, "      --render <mode>       Render mode: static, browser")
	fmt.Fprintln(w, "      --json                Print results as JSON")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: regress convert --dir <documents> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render every Markdown file in a directory to HTML with the builtin")
	fmt.Fprintln(w, "converter. Default output goes next to each source; --toc output goes")
	fmt.Fprintln(w, "to <documents>/toc/<title>.html.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --dir <dir>           Documents directory (required)")
	fmt.Fprintln(w, "      --toc                 Add a table of contents")
	fmt.Fprintln(w, "      --number-sections     Number headings")
	fmt.Fprintln(w, "      --preserve-source     Keep the Markdown sources")
	fmt.Fprintln(w, "      --no-copy-css         Do not write style.css")
	fmt.Fprintln(w, "      --style <name>        Stylesheet name or path")
	fmt.Fprintln(w, "      --assets <dir>        Override the asset directory")
}

// printVersionUsage prints usage for the version command.
func printVersionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: regress version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Show version information.")
}

// runHelp prints help for the given command, or the main usage.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "run":
		printRunUsage(env.Stdout)
	case "list":
		printListUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "convert":
		printConvertUsage(env.Stdout)
	case "version":
		printVersionUsage(env.Stdout)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
