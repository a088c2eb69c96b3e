package archive

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/hpungsan/satchel/internal/config"
	"github.com/hpungsan/satchel/internal/errors"
)

func testExtractor(mutate func(*config.Config)) *Extractor {
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestExtract_Filters(t *testing.T) {
	data := buildZip(t, map[string]string{
		"main.go":               "package main",
		"README.md":             "# readme",
		"assets/logo.png":       "binary",
		"node_modules/x/y.js":   "module.exports = 1",
		"__MACOSX/._main.go":    "resource fork",
		".git/config":           "[core]",
		"src/app.py":            "print('hi')",
		"docs/":                 "",
		"project/pkg/handler.ts": "export {}",
	})

	result, err := testExtractor(nil).Extract(data)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	got := make(map[string]bool)
	for _, f := range result.Files {
		got[f.Path] = true
	}

	for _, want := range []string{"main.go", "README.md", "src/app.py", "project/pkg/handler.ts"} {
		if !got[want] {
			t.Errorf("missing %s in %v", want, got)
		}
	}
	for _, reject := range []string{"assets/logo.png", "node_modules/x/y.js", "__MACOSX/._main.go", ".git/config"} {
		if got[reject] {
			t.Errorf("should have filtered out %s", reject)
		}
	}
	if result.TotalFiles != 4 {
		t.Errorf("TotalFiles = %d, want 4", result.TotalFiles)
	}
}

func TestExtract_MalformedArchive(t *testing.T) {
	_, err := testExtractor(nil).Extract([]byte("this is not a zip file"))
	if !errors.Is(err, errors.ErrMalformedArchive) {
		t.Errorf("want malformed-archive, got: %v", err)
	}
}

func TestExtract_EmptyArchive(t *testing.T) {
	data := buildZip(t, map[string]string{})

	result, err := testExtractor(nil).Extract(data)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.TotalFiles != 0 {
		t.Errorf("TotalFiles = %d, want 0", result.TotalFiles)
	}
}

func TestExtract_NoMatchingEntries(t *testing.T) {
	data := buildZip(t, map[string]string{
		"photo.jpg": "jpeg",
		"video.mp4": "mpeg",
	})

	result, err := testExtractor(nil).Extract(data)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.TotalFiles != 0 {
		t.Errorf("TotalFiles = %d, want 0", result.TotalFiles)
	}
}

func TestExtract_TraversalEntriesSkipped(t *testing.T) {
	data := buildZip(t, map[string]string{
		"../../evil.sh": "#!/bin/sh",
		"/etc/crontab":  "* * * * *",
		"safe.go":       "package safe",
	})

	result, err := testExtractor(nil).Extract(data)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.TotalFiles != 1 || result.Files[0].Path != "safe.go" {
		t.Errorf("files = %+v, want only safe.go", result.Files)
	}
}

func TestExtract_NoFileCountCutoff(t *testing.T) {
	entries := make(map[string]string)
	for _, prefix := range []string{"a", "b", "c", "d", "e"} {
		entries[prefix+".go"] = "package " + prefix
	}

	// MaxFiles only applies to repository ingestion; archives keep every
	// qualifying entry.
	result, err := testExtractor(func(cfg *config.Config) {
		cfg.MaxFiles = 2
	}).Extract(buildZip(t, entries))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.TotalFiles != 5 {
		t.Errorf("TotalFiles = %d, want 5", result.TotalFiles)
	}
}

func TestExtract_OversizedEntrySkipped(t *testing.T) {
	data := buildZip(t, map[string]string{
		"small.go": "package x",
		"big.go":   strings.Repeat("x", 200),
	})

	result, err := testExtractor(func(cfg *config.Config) {
		cfg.MaxFileBytes = 100
	}).Extract(data)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.TotalFiles != 1 || result.Files[0].Path != "small.go" {
		t.Errorf("files = %+v, want only small.go", result.Files)
	}
}

func TestExtract_TotalSizeCap(t *testing.T) {
	data := buildZip(t, map[string]string{
		"a.txt": strings.Repeat("a", 60),
		"b.txt": strings.Repeat("b", 60),
	})

	_, err := testExtractor(func(cfg *config.Config) {
		cfg.MaxArchiveTotalBytes = 100
	}).Extract(data)
	if !errors.Is(err, errors.ErrIngestionFailed) {
		t.Errorf("want ingestion-failed, got: %v", err)
	}
}

func TestExtract_NestedDirectories(t *testing.T) {
	data := buildZip(t, map[string]string{
		"a/b/c/deep.py": "x = 1",
	})

	result, err := testExtractor(nil).Extract(data)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.TotalFiles != 1 {
		t.Fatalf("TotalFiles = %d, want 1", result.TotalFiles)
	}
	if result.Files[0].Path != "a/b/c/deep.py" {
		t.Errorf("Path = %q", result.Files[0].Path)
	}
	if result.Files[0].Size != 5 {
		t.Errorf("Size = %d, want 5", result.Files[0].Size)
	}
}
