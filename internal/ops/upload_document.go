package ops

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/db"
	"github.com/hpungsan/satchel/internal/errors"
)

// UploadDocumentInput contains parameters for the UploadDocument operation.
type UploadDocumentInput struct {
	SessionID   string
	UserID      string
	Filename    string
	Name        string // optional display-name override
	ContentType string
	Data        []byte
}

// UploadDocumentOutput contains the result of the UploadDocument operation.
type UploadDocumentOutput struct {
	Artifact *artifact.Artifact `json:"artifact"`
}

// UploadDocument ingests a non-archive upload synchronously; there is no
// intermediate status. Text files are stored inline on the record; pdf,
// doc, and unrecognized binary files go to the object store's upload
// namespace. Zip uploads belong to UploadArchive.
func UploadDocument(env *Env, input UploadDocumentInput) (*UploadDocumentOutput, error) {
	if len(input.Data) == 0 {
		return nil, errors.NewInvalidRequest("file data is required")
	}
	if strings.TrimSpace(input.Filename) == "" {
		return nil, errors.NewInvalidRequest("filename is required")
	}
	if err := validateID("session", input.SessionID); err != nil {
		return nil, err
	}
	if _, err := db.GetSession(env.DB, input.SessionID, input.UserID); err != nil {
		return nil, err
	}

	typ := artifact.TypeForFilename(strings.ToLower(filepath.Ext(input.Filename)))
	if typ == artifact.TypeZip {
		return nil, errors.NewInvalidRequest("zip files must use the archive upload")
	}
	if int64(len(input.Data)) > env.Config.MaxFileBytes {
		return nil, errors.NewInvalidRequest("file exceeds maximum size")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = input.Filename
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()
	size := int64(len(input.Data))

	a := &artifact.Artifact{
		ID:          id,
		SessionID:   input.SessionID,
		UserID:      input.UserID,
		Type:        typ,
		Name:        name,
		Filename:    &input.Filename,
		ContentType: optional(input.ContentType),
		Size:        &size,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if typ == artifact.TypeText {
		content := strings.ToValidUTF8(string(input.Data), "")
		a.Content = &content
		if err := db.InsertArtifact(env.DB, a); err != nil {
			return nil, err
		}
		return &UploadDocumentOutput{Artifact: a}, nil
	}

	save, err := env.Store.SaveUpload(id, input.Filename, input.Data)
	if err != nil {
		return nil, err
	}

	a.StorageType = artifact.StorageObject
	a.StoragePath = &save.StoragePath
	if err := db.InsertArtifact(env.DB, a); err != nil {
		// The record is the source of truth; without it the stored blob is
		// an orphan, so remove it.
		if _, cleanupErr := env.Store.Delete(id); cleanupErr != nil {
			env.Logger.Error("failed to clean up orphaned upload", "artifact_id", id, "error", cleanupErr)
		}
		return nil, err
	}

	env.Logger.Info("document ingested",
		"artifact_id", id, "filename", input.Filename, "type", string(typ), "bytes", size)
	return &UploadDocumentOutput{Artifact: a}, nil
}

// optional converts an empty string to a nil pointer.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
