package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alnah/go-md2html-regress/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestValidateExtension - Extension validation
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
		wantErr   error
	}{
		{
			name:      "valid extension html",
			extension: "html",
			wantErr:   nil,
		},
		{
			name:      "empty extension",
			extension: "",
			wantErr:   fileutil.ErrExtensionEmpty,
		},
		{
			name:      "forward slash path traversal",
			extension: "../etc/passwd",
			wantErr:   fileutil.ErrExtensionPathTraversal,
		},
		{
			name:      "backslash path traversal",
			extension: "..\\windows\\system32",
			wantErr:   fileutil.ErrExtensionPathTraversal,
		},
		{
			name:      "null byte injection",
			extension: "html\x00exe",
			wantErr:   fileutil.ErrExtensionPathTraversal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateExtension(tt.extension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestReplaceExt / TestStem - Path derivation
// ---------------------------------------------------------------------------

func TestReplaceExt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		ext  string
		want string
	}{
		{"documents/simple.md", "html", "documents/simple.html"},
		{"documents/A document with no metadata.md", "html", "documents/A document with no metadata.html"},
		{"notes", "html", "notes.html"},
		{"archive.tar.gz", "zip", "archive.tar.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			got, err := fileutil.ReplaceExt(tt.path, tt.ext)
			if err != nil {
				t.Fatalf("ReplaceExt: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReplaceExt(%q, %q) = %q, want %q", tt.path, tt.ext, got, tt.want)
			}
		})
	}

	if _, err := fileutil.ReplaceExt("a.md", ""); !errors.Is(err, fileutil.ErrExtensionEmpty) {
		t.Errorf("ReplaceExt with empty extension = %v, want ErrExtensionEmpty", err)
	}
}

func TestStem(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"documents/simple.md":                     "simple",
		"A document with no metadata.md":          "A document with no metadata",
		"/abs/path/archive.tar.gz":                "archive.tar",
		"noext":                                   "noext",
		filepath.Join("documents", "toc", "x.md"): "x",
	}

	for in, want := range tests {
		if got := fileutil.Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestSafeFileName - Title to file stem
// ---------------------------------------------------------------------------

func TestSafeFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		title   string
		want    string
		wantErr error
	}{
		{
			name:  "plain title unchanged",
			title: "Table of contents test",
			want:  "Table of contents test",
		},
		{
			name:  "separators replaced",
			title: "Input/Output and C:\\paths",
			want:  "Input Output and C paths",
		},
		{
			name:  "whitespace collapsed",
			title: "  Spaced \t out\ntitle ",
			want:  "Spaced out title",
		},
		{
			name:  "leading dots trimmed",
			title: "..hidden",
			want:  "hidden",
		},
		{
			name:    "nothing left",
			title:   " / ",
			wantErr: fileutil.ErrEmptyFileName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := fileutil.SafeFileName(tt.title)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SafeFileName(%q) error = %v, want %v", tt.title, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SafeFileName(%q): %v", tt.title, err)
			}
			if got != tt.want {
				t.Errorf("SafeFileName(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteFileAtomic - Overwrite semantics
// ---------------------------------------------------------------------------

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.html")

	if err := fileutil.WriteFileAtomic(path, "first version, longer content", 0o644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := fileutil.WriteFileAtomic(path, "second", 0o644); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want %q (file must be replaced, not appended)", got, "second")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want 1 (temp files must not leak)", len(entries))
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "out.html")
	if err := fileutil.WriteFileAtomic(path, "x", 0o644); err == nil {
		t.Fatal("expected error for missing parent directory")
	}
}

// ---------------------------------------------------------------------------
// TestFileExists / TestDirExists / TestIsFilePath
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "simple.md")
	if err := os.WriteFile(file, []byte("# x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !fileutil.FileExists(file) {
		t.Error("FileExists(file) = false, want true")
	}
	if fileutil.FileExists(dir) {
		t.Error("FileExists(dir) = true, want false")
	}
	if fileutil.FileExists(filepath.Join(dir, "nope.md")) {
		t.Error("FileExists(missing) = true, want false")
	}
	if !fileutil.DirExists(dir) {
		t.Error("DirExists(dir) = false, want true")
	}
	if fileutil.DirExists(file) {
		t.Error("DirExists(file) = true, want false")
	}
}

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"pandoc", false},
		{"builtin", false},
		{"./convert.sh", true},
		{"../tools/convert", true},
		{"/usr/local/bin/convert", true},
		{"C:\\tools\\convert.exe", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.IsFilePath(tt.input); got != tt.want {
				t.Errorf("IsFilePath(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
