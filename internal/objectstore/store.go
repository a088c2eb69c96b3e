package objectstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/errors"
)

// Namespaces under the store's base directory. Each artifact owns one
// subtree keyed by its ID, so concurrent ingestions never contend on a path.
const (
	repositoriesDir = "repositories"
	uploadsDir      = "uploads"
	sidecarName     = "metadata.json"
)

// Store is the filesystem-backed object store for bulk file sets and
// binary uploads.
type Store struct {
	base string
}

// New creates a Store rooted at baseDir, initializing both namespaces.
func New(baseDir string) (*Store, error) {
	for _, ns := range []string{repositoriesDir, uploadsDir} {
		if err := os.MkdirAll(filepath.Join(baseDir, ns), 0700); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	return &Store{base: baseDir}, nil
}

// Base returns the store's base directory.
func (s *Store) Base() string {
	return s.base
}

// Sidecar is the metadata.json index describing a stored file set without
// duplicating content.
type Sidecar struct {
	ArtifactID string              `json:"artifact_id"`
	Type       string              `json:"type"`
	FileCount  int                 `json:"file_count,omitempty"`
	Filename   string              `json:"filename,omitempty"`
	Size       int64               `json:"size,omitempty"`
	CreatedAt  string              `json:"created_at"`
	Files      []artifact.FileStat `json:"files,omitempty"`
}

// SaveResult reports what a save operation wrote.
type SaveResult struct {
	FilesSaved  int
	TotalBytes  int64
	StoragePath string // relative to the store base
}

// SaveFileSet writes each file to <repositories>/<id>/<relative_path> and a
// sidecar listing {path, size} per file. Concurrent calls for the same id
// are not coordinated; the caller guarantees at most one writer per id
// (IDs are freshly minted per ingestion).
func (s *Store) SaveFileSet(id string, files []artifact.FileEntry) (*SaveResult, error) {
	dir := filepath.Join(s.base, repositoriesDir, id)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(err)
	}

	sidecar := Sidecar{
		ArtifactID: id,
		Type:       "repository",
		FileCount:  len(files),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Files:      make([]artifact.FileStat, 0, len(files)),
	}

	var totalBytes int64
	for _, f := range files {
		if !safeRelPath(f.Path) {
			return nil, errors.NewInvalidRequest("unsafe file path: " + f.Path)
		}
		fullPath := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0700); err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := os.WriteFile(fullPath, []byte(f.Content), 0600); err != nil {
			return nil, errors.NewInternal(err)
		}
		totalBytes += f.Size
		sidecar.Files = append(sidecar.Files, artifact.FileStat{Path: f.Path, Size: f.Size})
	}

	if err := s.writeSidecar(dir, &sidecar); err != nil {
		return nil, err
	}

	return &SaveResult{
		FilesSaved:  len(files),
		TotalBytes:  totalBytes,
		StoragePath: filepath.ToSlash(filepath.Join(repositoriesDir, id)),
	}, nil
}

// SaveUpload writes one binary blob under <uploads>/<id>/<filename> plus its
// sidecar. Used for documents that are not filtered or extracted.
func (s *Store) SaveUpload(id, filename string, data []byte) (*SaveResult, error) {
	if !safeRelPath(filename) || strings.ContainsRune(filename, '/') {
		return nil, errors.NewInvalidRequest("unsafe filename: " + filename)
	}

	dir := filepath.Join(s.base, uploadsDir, id)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0600); err != nil {
		return nil, errors.NewInternal(err)
	}

	sidecar := Sidecar{
		ArtifactID: id,
		Type:       "upload",
		Filename:   filename,
		Size:       int64(len(data)),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.writeSidecar(dir, &sidecar); err != nil {
		return nil, err
	}

	return &SaveResult{
		FilesSaved:  1,
		TotalBytes:  int64(len(data)),
		StoragePath: filepath.ToSlash(filepath.Join(uploadsDir, id, filename)),
	}, nil
}

// ListFiles returns one page of a file set's entries in insertion order,
// plus the total count. Fails not-found if no sidecar exists for the id.
func (s *Store) ListFiles(id string, limit, offset int) ([]artifact.FileStat, int, error) {
	sidecar, err := s.readSidecar(filepath.Join(s.base, repositoriesDir, id))
	if err != nil {
		return nil, 0, err
	}

	total := len(sidecar.Files)
	if offset >= total {
		return []artifact.FileStat{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return sidecar.Files[offset:end], total, nil
}

// ReadFile returns a stored file's content and size. Paths that resolve
// outside the artifact's own directory are rejected with a validation
// error, distinct from not-found.
func (s *Store) ReadFile(id, path string) (*artifact.FileEntry, error) {
	dir := filepath.Join(s.base, repositoriesDir, id)

	if !safeRelPath(path) {
		return nil, errors.NewInvalidRequest("invalid file path")
	}

	// The sidecar index is store metadata, not part of the file set.
	if filepath.Clean(path) == sidecarName {
		return nil, errors.NewFileNotFound(path)
	}

	fullPath := filepath.Join(dir, filepath.FromSlash(path))

	// Resolve symlinks before the containment check so a link inside the
	// artifact directory cannot point out of it.
	if resolved, err := filepath.EvalSymlinks(fullPath); err == nil {
		resolvedDir, dirErr := filepath.EvalSymlinks(dir)
		if dirErr != nil {
			return nil, errors.NewInternal(dirErr)
		}
		rel, relErr := filepath.Rel(resolvedDir, resolved)
		if relErr != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, errors.NewInvalidRequest("invalid file path")
		}
	}

	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		return nil, errors.NewFileNotFound(path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return &artifact.FileEntry{
		Path:    path,
		Content: string(data),
		Size:    info.Size(),
	}, nil
}

// Upload is a stored single-blob upload.
type Upload struct {
	Filename string
	Data     []byte
	Size     int64
}

// ReadUpload returns the single stored blob for an id.
func (s *Store) ReadUpload(id string) (*Upload, error) {
	dir := filepath.Join(s.base, uploadsDir, id)
	sidecar, err := s.readSidecar(dir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, sidecar.Filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(sidecar.Filename)
		}
		return nil, errors.NewInternal(err)
	}

	return &Upload{
		Filename: sidecar.Filename,
		Data:     data,
		Size:     int64(len(data)),
	}, nil
}

// Delete removes the entire directory tree for an id under whichever
// namespace holds it. Returns whether anything was deleted; deleting a
// nonexistent id is not an error, so deletion is always safe to retry.
func (s *Store) Delete(id string) (bool, error) {
	deleted := false
	for _, ns := range []string{repositoriesDir, uploadsDir} {
		dir := filepath.Join(s.base, ns, id)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return deleted, errors.NewInternal(err)
		}
		deleted = true
	}
	return deleted, nil
}

// IDs returns every artifact id that has a directory in either namespace.
// Used by storage garbage collection.
func (s *Store) IDs() ([]string, error) {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, ns := range []string{repositoriesDir, uploadsDir} {
		entries, err := os.ReadDir(filepath.Join(s.base, ns))
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		for _, e := range entries {
			if e.IsDir() && !seen[e.Name()] {
				seen[e.Name()] = true
				ids = append(ids, e.Name())
			}
		}
	}
	return ids, nil
}

// Stats summarizes store contents per namespace.
type Stats struct {
	Repositories int   `json:"repositories"`
	Uploads      int   `json:"uploads"`
	TotalBytes   int64 `json:"total_bytes"`
}

// ComputeStats walks both namespaces concurrently and sums artifact counts
// and byte totals.
func (s *Store) ComputeStats() (*Stats, error) {
	var (
		stats     Stats
		repoBytes int64
		upBytes   int64
	)

	var g errgroup.Group
	g.Go(func() error {
		n, b, err := scanNamespace(filepath.Join(s.base, repositoriesDir))
		stats.Repositories, repoBytes = n, b
		return err
	})
	g.Go(func() error {
		n, b, err := scanNamespace(filepath.Join(s.base, uploadsDir))
		stats.Uploads, upBytes = n, b
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.NewInternal(err)
	}

	stats.TotalBytes = repoBytes + upBytes
	return &stats, nil
}

// scanNamespace counts top-level artifact directories and total file bytes.
func scanNamespace(dir string) (int, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	count := 0
	var bytes int64
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		count++
		err := filepath.WalkDir(filepath.Join(dir, e.Name()), func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			bytes += info.Size()
			return nil
		})
		if err != nil {
			return count, bytes, err
		}
	}
	return count, bytes, nil
}

// writeSidecar persists the metadata.json index for a directory.
func (s *Store) writeSidecar(dir string, sc *Sidecar) error {
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, sidecarName), data, 0600); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// readSidecar loads the metadata.json index; missing sidecar means the
// artifact has no stored files.
func (s *Store) readSidecar(dir string) (*Sidecar, error) {
	data, err := os.ReadFile(filepath.Join(dir, sidecarName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("files", filepath.Base(dir))
		}
		return nil, errors.NewInternal(err)
	}

	var sc Sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &sc, nil
}

// safeRelPath reports whether p is a clean relative path with no traversal
// components. Paths use forward slashes at this layer.
func safeRelPath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return false
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." || part == "" {
			return false
		}
	}
	return true
}
