package ops

import (
	"strings"
	"time"

	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/db"
	"github.com/hpungsan/satchel/internal/errors"
)

// UploadArchiveInput contains parameters for the UploadArchive operation.
type UploadArchiveInput struct {
	SessionID string
	UserID    string
	Filename  string
	Name      string // optional display-name override
	Data      []byte
}

// UploadArchiveOutput contains the result of the UploadArchive operation.
type UploadArchiveOutput struct {
	Artifact *artifact.Artifact `json:"artifact"`
}

// UploadArchive ingests a zip upload into a new artifact whose extracted
// file set is persisted to the object store, like a repository clone. An
// archive with zero matching entries completes with total_files=0 and an
// empty inline listing instead of an object-store directory; uploading it
// was a deliberate act, unlike a network fetch that may have silently
// failed.
func UploadArchive(env *Env, input UploadArchiveInput) (*UploadArchiveOutput, error) {
	if len(input.Data) == 0 {
		return nil, errors.NewInvalidRequest("archive data is required")
	}
	if err := validateID("session", input.SessionID); err != nil {
		return nil, err
	}
	if _, err := db.GetSession(env.DB, input.SessionID, input.UserID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = input.Filename
	}
	if name == "" {
		name = "Archive"
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()

	a := &artifact.Artifact{
		ID:        id,
		SessionID: input.SessionID,
		UserID:    input.UserID,
		Type:      artifact.TypeZip,
		Name:      name,
		Status:    artifact.StatusExtracting,
		Filename:  &input.Filename,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.InsertArtifact(env.DB, a); err != nil {
		return nil, err
	}

	result, err := env.Extractor.Extract(input.Data)
	if err != nil {
		recordFailure(env, id, err)
		return nil, err
	}

	var totalBytes int64
	if result.TotalFiles == 0 {
		if err := db.CompleteArtifactInline(env.DB, id, []artifact.FileEntry{}, 0); err != nil {
			return nil, err
		}
	} else {
		save, err := env.Store.SaveFileSet(id, result.Files)
		if err != nil {
			// A partial write may have happened; remove it so a failed
			// record never leaves data in the object store.
			if _, cleanupErr := env.Store.Delete(id); cleanupErr != nil {
				env.Logger.Error("failed to clean up partial file set", "artifact_id", id, "error", cleanupErr)
			}
			failure := errors.NewIngestionFailed("failed to store archive files")
			recordFailure(env, id, failure)
			return nil, failure
		}
		totalBytes = save.TotalBytes

		if err := db.MarkArtifactCompleted(env.DB, id, save.TotalBytes, result.TotalFiles, save.StoragePath); err != nil {
			return nil, err
		}
	}

	stored, err := db.GetArtifact(env.DB, id, input.UserID, false)
	if err != nil {
		return nil, err
	}

	env.Logger.Info("archive ingested",
		"artifact_id", id, "filename", input.Filename, "files", result.TotalFiles, "bytes", totalBytes)
	return &UploadArchiveOutput{Artifact: stored}, nil
}
