// Package regress is a regression harness for Markdown to HTML converters.
//
// It runs a converter over a directory of source documents in three
// configurations (default, table of contents, numbered sections), parses
// each rendered document and checks its structure with XPath queries:
// titles, heading identifiers, math markup, list shapes and the generated
// navigation.
//
// # Quick Start
//
//	cfg := config.DefaultConfig()
//	cfg.Converter.Command = "/usr/local/bin/md2html"
//
//	h, err := regress.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close()
//
//	summary, err := h.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = regress.WriteText(os.Stdout, os.Stderr, summary, regress.TextOptions{})
//
// # Converter Contract
//
// The converter is started once per configuration as
//
//	<command> [args...] --preserve-source --no-copy-css [--toc [--number-sections]] --dir <documents>
//
// and must write <documents>/<stem>.html in the default configuration and
// <documents>/toc/<title>.html otherwise. The command "builtin" selects the
// reference converter shipped with the harness.
//
// # Failures
//
// A check fails with an assertion failure, or with a structure-absent
// failure when a query that must match selects nothing. A converter that
// exits non-zero or times out, and a rendered document that does not exist,
// are setup failures: the affected checks never run. One failing check never
// stops the others.
package regress
