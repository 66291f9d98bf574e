package browser

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_DefaultTimeout(t *testing.T) {
	t.Parallel()

	if got := New(0).timeout; got != DefaultTimeout {
		t.Errorf("timeout = %s, want %s", got, DefaultTimeout)
	}
	if got := New(DefaultTimeout / 2).timeout; got != DefaultTimeout/2 {
		t.Errorf("timeout = %s, want %s", got, DefaultTimeout/2)
	}
}

func TestFileURL(t *testing.T) {
	t.Parallel()

	got, err := FileURL(filepath.Join(t.TempDir(), "toc", "Table of contents test.html"))
	if err != nil {
		t.Fatalf("FileURL: %v", err)
	}
	if !strings.HasPrefix(got, "file:///") {
		t.Errorf("FileURL() = %q, want file:/// prefix", got)
	}
	if !strings.HasSuffix(got, "/toc/Table%20of%20contents%20test.html") {
		t.Errorf("FileURL() = %q, spaces not escaped", got)
	}
}

func TestSource_LoadWithoutBrowser(t *testing.T) {
	t.Parallel()

	s := New(0)
	t.Cleanup(func() { _ = s.Close() })

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := s.Load(ctx, "simple.html"); !errors.Is(err, context.Canceled) {
			t.Errorf("Load error = %v, want context.Canceled", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := s.Load(context.Background(), filepath.Join(t.TempDir(), "missing.html"))
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Load error = %v, want fs.ErrNotExist", err)
		}
	})
}

func TestSource_CloseIdle(t *testing.T) {
	t.Parallel()

	s := New(0)
	if err := s.Close(); err != nil {
		t.Errorf("Close on idle source = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestBin_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "chrome")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ROD_BROWSER_BIN", bin)
	if got, ok := Bin(); !ok || got != bin {
		t.Errorf("Bin() = %q, %v, want %q, true", got, ok, bin)
	}

	t.Setenv("ROD_BROWSER_BIN", filepath.Join(dir, "missing"))
	if _, ok := Bin(); ok {
		t.Error("Bin() found a missing override")
	}
}
