package ops

import (
	"strings"

	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/db"
	"github.com/hpungsan/satchel/internal/errors"
)

// UpdateArtifactInput contains parameters for the UpdateArtifact operation.
type UpdateArtifactInput struct {
	ID     string
	UserID string
	Name   string
}

// UpdateArtifactOutput contains the result of the UpdateArtifact operation.
type UpdateArtifactOutput struct {
	Artifact *artifact.Artifact `json:"artifact"`
}

// UpdateArtifact renames an artifact. Name is the only mutable field;
// the session and owner bindings never change after creation.
func UpdateArtifact(env *Env, input UpdateArtifactInput) (*UpdateArtifactOutput, error) {
	if err := validateID("artifact", input.ID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name must not be empty")
	}

	if err := db.UpdateArtifactName(env.DB, input.ID, input.UserID, name); err != nil {
		return nil, err
	}

	a, err := db.GetArtifact(env.DB, input.ID, input.UserID, false)
	if err != nil {
		return nil, err
	}
	return &UpdateArtifactOutput{Artifact: a}, nil
}
