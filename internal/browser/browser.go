// Package browser loads rendered documents in headless Chrome through
// go-rod, for converters whose output only reaches its final shape after
// scripts run (client-side math rendering, for instance).
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-md2html-regress/internal/fixture"
)

// DefaultTimeout bounds one page load when the context has no deadline.
const DefaultTimeout = 30 * time.Second

// Sentinel errors for browser operations.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrSnapshot       = errors.New("failed to read page DOM")
)

// Source serialises the DOM of each document after the page has loaded.
// It is safe for concurrent use; pages share one lazily started browser.
type Source struct {
	timeout time.Duration

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// Compile-time interface check.
var _ fixture.Source = (*Source)(nil)

// New creates a Source. A zero timeout uses DefaultTimeout.
func New(timeout time.Duration) *Source {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Source{timeout: timeout}
}

// Bin returns the browser binary the launcher would use and whether one was
// found. ROD_BROWSER_BIN takes precedence over the system lookup.
func Bin() (string, bool) {
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		info, err := os.Stat(bin)
		return bin, err == nil && !info.IsDir()
	}
	return launcher.LookPath()
}

// FileURL converts a local path to a file:// URL, escaping spaces.
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// ensureBrowser lazily connects to the browser. Callers hold s.mu.
func (s *Source) ensureBrowser() error {
	if s.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	s.launcher, s.browser = l, b
	return nil
}

// Load opens path in a new tab, waits for the load event and returns the
// serialised DOM. Missing files wrap fs.ErrNotExist without starting Chrome.
func (s *Source) Load(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	target, err := FileURL(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	err = s.ensureBrowser()
	b := s.browser
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
		if timeout <= 0 {
			return "", context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %s: %v", ErrPageLoad, path, err)
	}

	content, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSnapshot, path, err)
	}
	return content, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	s.launcher.Kill()
	s.browser, s.launcher = nil, nil
	return err
}
