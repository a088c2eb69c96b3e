package ops

import (
	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/db"
)

// ListFilesInput contains parameters for the ListFiles operation.
type ListFilesInput struct {
	ID     string
	UserID string
	Limit  int
	Offset int
}

// ListFilesOutput contains the result of the ListFiles operation.
type ListFilesOutput struct {
	Files      []artifact.FileStat `json:"files"`
	Pagination Pagination          `json:"pagination"`
}

// ListFiles returns one page of an artifact's file listing, in insertion
// order, regardless of whether the files live inline or in the object store.
func ListFiles(env *Env, input ListFilesInput) (*ListFilesOutput, error) {
	if err := validateID("artifact", input.ID); err != nil {
		return nil, err
	}

	a, err := db.GetArtifact(env.DB, input.ID, input.UserID, false)
	if err != nil {
		return nil, err
	}
	source, err := sourceFor(env.Store, a)
	if err != nil {
		return nil, err
	}

	limit := clampLimit(input.Limit, DefaultFileListLimit, MaxFileListLimit)
	offset := clampOffset(input.Offset)

	files, total, err := source.list(limit, offset)
	if err != nil {
		return nil, err
	}

	return &ListFilesOutput{
		Files: files,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(files) < total,
			Total:   total,
		},
	}, nil
}
