package archive

import (
	"bytes"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/config"
	"github.com/hpungsan/satchel/internal/errors"
	"github.com/hpungsan/satchel/internal/repofetch"
)

// Result is the outcome of extracting one uploaded archive.
type Result struct {
	Files      []artifact.FileEntry
	TotalFiles int
}

// Extractor pulls code files out of uploaded zip archives, applying the same
// extension and directory filters as repository ingestion. Unlike the
// repository fetcher there is no file-count cutoff; the cumulative
// uncompressed-size cap bounds the extraction instead.
type Extractor struct {
	maxFileBytes  int64
	maxTotalBytes int64
	logger        *slog.Logger
}

// New builds an Extractor with the limits from cfg.
func New(cfg *config.Config, logger *slog.Logger) *Extractor {
	return &Extractor{
		maxFileBytes:  cfg.MaxFileBytes,
		maxTotalBytes: cfg.MaxArchiveTotalBytes,
		logger:        logger,
	}
}

// Extract parses data as a zip archive and returns its filtered entries.
// An unreadable archive is a malformed-archive error. Crossing the
// cumulative uncompressed-size cap aborts the extraction; declared entry
// sizes are not trusted, actual bytes read are counted. An archive with
// zero matching entries is a valid, empty result.
func (e *Extractor) Extract(data []byte) (*Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.NewMalformedArchive()
	}

	result := &Result{Files: make([]artifact.FileEntry, 0)}
	var totalBytes int64

	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		name, ok := normalizeEntryPath(entry.Name)
		if !ok {
			e.logger.Warn("skipping unsafe archive entry", "entry", entry.Name)
			continue
		}
		if skippedDir(name) {
			continue
		}
		if !repofetch.IncludeFile(path.Base(name)) {
			continue
		}
		if entry.UncompressedSize64 > uint64(e.maxFileBytes) {
			e.logger.Debug("skipping oversized archive entry", "entry", name, "size", entry.UncompressedSize64)
			continue
		}

		content, size, err := e.readEntry(entry)
		if err != nil {
			return nil, err
		}
		if size < 0 {
			// Actual size exceeded the declared size and the per-file cap.
			e.logger.Warn("archive entry larger than declared, skipping", "entry", name)
			continue
		}

		totalBytes += size
		if totalBytes > e.maxTotalBytes {
			return nil, errors.NewIngestionFailed("archive exceeds total extracted size limit")
		}

		result.Files = append(result.Files, artifact.FileEntry{
			Path:    name,
			Content: strings.ToValidUTF8(content, ""),
			Size:    size,
		})
	}

	result.TotalFiles = len(result.Files)
	return result, nil
}

// readEntry decompresses one entry, bounded by the per-file cap. Returns
// size -1 when the entry's real size exceeds the cap despite its header.
func (e *Extractor) readEntry(entry *zip.File) (string, int64, error) {
	rc, err := entry.Open()
	if err != nil {
		return "", 0, errors.NewMalformedArchive()
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, e.maxFileBytes+1))
	if err != nil {
		return "", 0, errors.NewMalformedArchive()
	}
	if int64(len(data)) > e.maxFileBytes {
		return "", -1, nil
	}
	return string(data), int64(len(data)), nil
}

// normalizeEntryPath cleans an archive entry name into a safe slash-relative
// path. Absolute paths and traversal components make the entry unsafe.
func normalizeEntryPath(name string) (string, bool) {
	cleaned := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if cleaned == "." || cleaned == "" {
		return "", false
	}
	if strings.HasPrefix(cleaned, "/") || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}

// skippedDir reports whether any path segment is an ignored directory or
// archive packaging junk.
func skippedDir(name string) bool {
	for _, part := range strings.Split(path.Dir(name), "/") {
		if part == "__MACOSX" || repofetch.SkipDir(part) {
			return true
		}
	}
	return false
}
