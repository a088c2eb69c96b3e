package ops

import (
	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/db"
)

// GetArtifactInput contains parameters for the GetArtifact operation.
type GetArtifactInput struct {
	ID             string
	UserID         string
	IncludeDeleted bool
}

// GetArtifactOutput contains the result of the GetArtifact operation.
type GetArtifactOutput struct {
	Artifact *artifact.Artifact `json:"artifact"`
}

// GetArtifact retrieves one artifact, scoped to its owner.
func GetArtifact(env *Env, input GetArtifactInput) (*GetArtifactOutput, error) {
	if err := validateID("artifact", input.ID); err != nil {
		return nil, err
	}

	a, err := db.GetArtifact(env.DB, input.ID, input.UserID, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	return &GetArtifactOutput{Artifact: a}, nil
}
