// Package hints provides actionable error hints for common setup failures.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-md2html-regress/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors in browser
// render mode. Detects CI/Docker environment and suggests relevant
// environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about raising the converter timeout.
func ForTimeout() string {
	return format("for slow converters, raise --timeout or REGRESS_TIMEOUT")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(filepath.ToSlash(p), "go-md2html-regress/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForConverterNotFound returns hints for a converter that cannot be started.
func ForConverterNotFound(command string) string {
	if fileutil.IsFilePath(command) {
		return format("check " + command + " exists and is executable")
	}
	return format("install " + command + ", pass --converter /path/to/converter, or use --converter builtin")
}

// ForConverterFailed returns a hint for a converter that exited non-zero.
func ForConverterFailed() string {
	return format("run with --verbose to see the exact command line")
}

// ForFixtureNotFound returns a hint for a rendered document that does not
// exist after conversion.
func ForFixtureNotFound(documents string) string {
	return format("check the converter writes its output under " + documents)
}

// ForDocumentsDirectory returns a hint for a missing documents directory.
func ForDocumentsDirectory() string {
	return format("pass --documents or set REGRESS_DOCUMENTS")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
