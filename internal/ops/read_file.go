package ops

import (
	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/db"
	"github.com/hpungsan/satchel/internal/errors"
)

// ReadFileInput contains parameters for the ReadFile operation.
type ReadFileInput struct {
	ID     string
	UserID string
	Path   string
}

// ReadFileOutput contains the result of the ReadFile operation.
type ReadFileOutput struct {
	File *artifact.FileEntry `json:"file"`
}

// ReadFile returns one file's content from an artifact's file set.
func ReadFile(env *Env, input ReadFileInput) (*ReadFileOutput, error) {
	if err := validateID("artifact", input.ID); err != nil {
		return nil, err
	}
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("file path is required")
	}

	a, err := db.GetArtifact(env.DB, input.ID, input.UserID, false)
	if err != nil {
		return nil, err
	}
	source, err := sourceFor(env.Store, a)
	if err != nil {
		return nil, err
	}

	f, err := source.read(input.Path)
	if err != nil {
		return nil, err
	}
	return &ReadFileOutput{File: f}, nil
}
