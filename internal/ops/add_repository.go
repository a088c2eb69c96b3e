package ops

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/db"
	"github.com/hpungsan/satchel/internal/errors"
	"github.com/hpungsan/satchel/internal/repofetch"
)

// AddRepositoryInput contains parameters for the AddRepository operation.
type AddRepositoryInput struct {
	SessionID string
	UserID    string
	URL       string
	Name      string // optional display-name override
}

// AddRepositoryOutput contains the result of the AddRepository operation.
type AddRepositoryOutput struct {
	Artifact  *artifact.Artifact `json:"artifact"`
	Truncated bool               `json:"truncated,omitempty"`
}

// AddRepository ingests a git repository into a new artifact. The record is
// inserted in cloning status before any fetch work starts; clone failures
// and empty results transition it to failed, keeping the record queryable
// so the user can see why. No file data reaches the object store unless
// ingestion completes.
func AddRepository(ctx context.Context, env *Env, input AddRepositoryInput) (*AddRepositoryOutput, error) {
	url := strings.TrimSpace(input.URL)
	if !repofetch.ValidateURL(url) {
		return nil, errors.NewInvalidRequest("invalid repository URL")
	}
	if err := validateID("session", input.SessionID); err != nil {
		return nil, err
	}
	if _, err := db.GetSession(env.DB, input.SessionID, input.UserID); err != nil {
		return nil, err
	}

	info := repofetch.Info(url)
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = info.Name
	}
	if name == "" {
		name = "Repository"
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()

	a := &artifact.Artifact{
		ID:          id,
		SessionID:   input.SessionID,
		UserID:      input.UserID,
		Type:        artifact.TypeRepository,
		Name:        name,
		Source:      &url,
		Status:      artifact.StatusCloning,
		StorageType: artifact.StorageObject,
		Host:        &info.Host,
		Owner:       &info.Owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.InsertArtifact(env.DB, a); err != nil {
		return nil, err
	}

	result, err := env.Fetcher.CloneAndExtract(ctx, url)
	if err != nil {
		recordFailure(env, id, err)
		return nil, err
	}
	if result.TotalFiles == 0 {
		err := errors.NewIngestionFailed("repository contains no matching files")
		recordFailure(env, id, err)
		return nil, err
	}

	save, err := env.Store.SaveFileSet(id, result.Files)
	if err != nil {
		// A partial write may have happened; remove it so a failed record
		// never leaves data in the object store.
		if _, cleanupErr := env.Store.Delete(id); cleanupErr != nil {
			env.Logger.Error("failed to clean up partial file set", "artifact_id", id, "error", cleanupErr)
		}
		failure := errors.NewIngestionFailed("failed to store repository files")
		recordFailure(env, id, failure)
		return nil, failure
	}

	if err := db.MarkArtifactCompleted(env.DB, id, save.TotalBytes, result.TotalFiles, save.StoragePath); err != nil {
		return nil, err
	}

	stored, err := db.GetArtifact(env.DB, id, input.UserID, false)
	if err != nil {
		return nil, err
	}

	env.Logger.Info("repository ingested",
		"artifact_id", id, "repo", result.RepoName, "files", result.TotalFiles, "bytes", save.TotalBytes)
	return &AddRepositoryOutput{Artifact: stored, Truncated: result.Truncated}, nil
}

// recordFailure persists a terminal failed status onto the artifact record.
// The record itself is the durable diagnostic, so persistence errors here
// are logged rather than layered on top of the original failure.
func recordFailure(env *Env, id string, cause error) {
	detail := cause.Error()
	if sErr, ok := cause.(*errors.SatchelError); ok {
		detail = sErr.Message
	}
	if err := db.MarkArtifactFailed(env.DB, id, detail); err != nil {
		env.Logger.Error("failed to record ingestion failure", "artifact_id", id, "error", err)
	}
}
