package ops

import (
	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/errors"
	"github.com/hpungsan/satchel/internal/objectstore"
)

// fileSource abstracts where an artifact's file set lives so the list and
// read operations behave identically for inline and object storage.
type fileSource interface {
	list(limit, offset int) ([]artifact.FileStat, int, error)
	read(path string) (*artifact.FileEntry, error)
}

// sourceFor resolves the file source for an artifact, or reports that the
// artifact carries no file set at all.
func sourceFor(store *objectstore.Store, a *artifact.Artifact) (fileSource, error) {
	if a.ObjectStored() {
		return &objectSource{store: store, id: a.ID}, nil
	}
	if a.Files != nil {
		return &inlineSource{files: a.Files}, nil
	}
	return nil, errors.NewUnsupportedType("artifact has no file listing")
}

// inlineSource serves files stored directly on the artifact record.
type inlineSource struct {
	files []artifact.FileEntry
}

func (s *inlineSource) list(limit, offset int) ([]artifact.FileStat, int, error) {
	total := len(s.files)
	if offset >= total {
		return []artifact.FileStat{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]artifact.FileStat, 0, end-offset)
	for _, f := range s.files[offset:end] {
		page = append(page, artifact.FileStat{Path: f.Path, Size: f.Size})
	}
	return page, total, nil
}

func (s *inlineSource) read(path string) (*artifact.FileEntry, error) {
	for i := range s.files {
		if s.files[i].Path == path {
			return &s.files[i], nil
		}
	}
	return nil, errors.NewFileNotFound(path)
}

// objectSource serves files from the object store's per-artifact directory.
type objectSource struct {
	store *objectstore.Store
	id    string
}

func (s *objectSource) list(limit, offset int) ([]artifact.FileStat, int, error) {
	return s.store.ListFiles(s.id, limit, offset)
}

func (s *objectSource) read(path string) (*artifact.FileEntry, error) {
	return s.store.ReadFile(s.id, path)
}
