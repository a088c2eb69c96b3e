package ops

import (
	"github.com/hpungsan/satchel/internal/db"
)

// DeleteArtifactInput contains parameters for the DeleteArtifact operation.
type DeleteArtifactInput struct {
	ID     string
	UserID string
	Hard   bool
}

// DeleteArtifactOutput contains the result of the DeleteArtifact operation.
type DeleteArtifactOutput struct {
	Deleted bool `json:"deleted"`
	Hard    bool `json:"hard,omitempty"`
}

// DeleteArtifact removes an artifact. The default is a soft delete that
// keeps the record and its stored data; a hard delete removes the record
// and the artifact's object-store directory. Storage cleanup is
// best-effort: a failure is logged, never surfaced, and never rolls back
// the record deletion.
func DeleteArtifact(env *Env, input DeleteArtifactInput) (*DeleteArtifactOutput, error) {
	if err := validateID("artifact", input.ID); err != nil {
		return nil, err
	}

	if !input.Hard {
		if err := db.SoftDeleteArtifact(env.DB, input.ID, input.UserID); err != nil {
			return nil, err
		}
		return &DeleteArtifactOutput{Deleted: true}, nil
	}

	// Ownership check happens in the delete itself; a zero-row delete is
	// the same not-found as a missing record.
	if err := db.HardDeleteArtifact(env.DB, input.ID, input.UserID); err != nil {
		return nil, err
	}
	if _, err := env.Store.Delete(input.ID); err != nil {
		env.Logger.Error("failed to remove artifact storage", "artifact_id", input.ID, "error", err)
	}

	return &DeleteArtifactOutput{Deleted: true, Hard: true}, nil
}
