package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2html-regress/internal/browser"
	"github.com/alnah/go-md2html-regress/internal/config"
	"github.com/alnah/go-md2html-regress/internal/fileutil"
	"github.com/alnah/go-md2html-regress/internal/refconv"
	"github.com/alnah/go-md2html-regress/internal/verify"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status    string        `json:"status"` // "ready", "warnings", "errors"
	Converter converterInfo `json:"converter"`
	Documents documentsInfo `json:"documents"`
	Chrome    chromeInfo    `json:"chrome"`
	Env       envInfo       `json:"environment"`
	System    systemInfo    `json:"system"`
	Warnings  []string      `json:"warnings,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
}

// converterInfo holds converter resolution results.
type converterInfo struct {
	Command string `json:"command"`
	Builtin bool   `json:"builtin"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
}

// documentsInfo holds documents directory results.
type documentsInfo struct {
	Dir     string   `json:"dir"`
	Found   bool     `json:"found"`
	Missing []string `json:"missing,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results. Chrome is only
// required in browser render mode.
type chromeInfo struct {
	Required bool   `json:"required"`
	Found    bool   `json:"found"`
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
	Sandbox  bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad
// flags or config.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		jsonOutput bool
		f          runFlags
	)
	fs.BoolVar(&jsonOutput, "json", false, "print results as JSON")
	fs.StringVarP(&f.common.config, "config", "c", "", "config file name or path")
	fs.StringVarP(&f.documents, "documents", "d", "", "documents directory")
	fs.StringVar(&f.converter, "converter", "", "converter executable, or builtin")
	fs.StringVar(&f.render, "render", "", "render mode: static, browser")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printDoctorUsage(env.Stdout)
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v: %v\n", errUsage, err)
		return ExitUsage
	}

	cfg, err := loadConfig(f.common.config)
	if err != nil {
		printConfigError(env, err, f.common.config)
		return exitCodeFor(err)
	}
	if err := f.apply(cfg); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}

	result := runDoctor(cfg)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitFailure
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(cfg *config.Config) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
		Chrome: chromeInfo{Required: cfg.Render.Mode == config.RenderBrowser},
	}

	checkConverter(result, cfg.Converter.Command)
	checkDocuments(result, cfg.Documents)
	checkChrome(result)
	checkEnvironment(result)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkConverter resolves the converter command.
func checkConverter(result *doctorResult, command string) {
	result.Converter.Command = command
	if command == refconv.Name {
		result.Converter.Builtin = true
		result.Converter.Found = true
		return
	}

	path, err := exec.LookPath(command)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Converter %q not found. Install it or pass --converter", command))
		return
	}
	result.Converter.Found = true
	result.Converter.Path = path
}

// checkDocuments verifies every registered source document is present.
func checkDocuments(result *doctorResult, dir string) {
	result.Documents.Dir = dir
	if !fileutil.DirExists(dir) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Documents directory not found: %s. Pass --documents or set REGRESS_DOCUMENTS", dir))
		return
	}
	result.Documents.Found = true

	for _, v := range verify.DefaultRegistry().All() {
		if !fileutil.FileExists(filepath.Join(dir, v.Document.Source)) {
			result.Documents.Missing = append(result.Documents.Missing, v.Document.Source)
		}
	}
	if len(result.Documents.Missing) > 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Source documents missing from %s: %s", dir, strings.Join(result.Documents.Missing, ", ")))
	}
}

// checkChrome detects Chrome/Chromium installation. A missing browser is an
// error in browser render mode only.
func checkChrome(result *doctorResult) {
	chromePath, found := browser.Bin()
	if !found {
		if result.Chrome.Required {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
		}
		return
	}

	// Verify it exists
	if _, err := os.Stat(chromePath); err != nil {
		if result.Chrome.Required {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Chrome not found at %s", chromePath))
		}
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"

	if !result.Chrome.Required {
		return
	}

	// Get version by running chrome --version
	cmd := exec.Command(chromePath, "--version") // #nosec G204 -- browser path from launcher lookup or ROD_BROWSER_BIN
	out, err := cmd.Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Chrome.Required && (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("REGRESS_CONTAINER") == "1" {
		return true, "REGRESS_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory is writable. Runs copy documents
// there in tests and the builtin converter writes next to the sources.
func checkSystem(result *doctorResult) {
	f, err := os.CreateTemp("", "regress-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "regress doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Converter")
	switch {
	case r.Converter.Builtin:
		fmt.Fprintln(w, "  [OK] builtin")
	case r.Converter.Found:
		fmt.Fprintf(w, "  [OK] %s at %s\n", r.Converter.Command, r.Converter.Path)
	default:
		fmt.Fprintf(w, "  [ERROR] %s not found\n", r.Converter.Command)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Documents")
	switch {
	case !r.Documents.Found:
		fmt.Fprintf(w, "  [ERROR] %s not found\n", r.Documents.Dir)
	case len(r.Documents.Missing) > 0:
		fmt.Fprintf(w, "  [ERROR] %s: %d missing\n", r.Documents.Dir, len(r.Documents.Missing))
	default:
		fmt.Fprintf(w, "  [OK] %s\n", r.Documents.Dir)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	switch {
	case r.Chrome.Found:
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	case r.Chrome.Required:
		fmt.Fprintln(w, "  [ERROR] Not found")
	default:
		fmt.Fprintln(w, "  [OK] Not required in static render mode")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to run")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
