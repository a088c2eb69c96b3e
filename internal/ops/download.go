package ops

import (
	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/db"
	"github.com/hpungsan/satchel/internal/errors"
)

// DownloadInput contains parameters for the Download operation.
type DownloadInput struct {
	ID     string
	UserID string
}

// DownloadOutput contains the result of the Download operation.
type DownloadOutput struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Download returns the raw stored blob for a pdf or doc artifact held in
// the object store. Any other type/storage combination is a usage error,
// not a not-found.
func Download(env *Env, input DownloadInput) (*DownloadOutput, error) {
	if err := validateID("artifact", input.ID); err != nil {
		return nil, err
	}

	a, err := db.GetArtifact(env.DB, input.ID, input.UserID, false)
	if err != nil {
		return nil, err
	}
	if (a.Type != artifact.TypePDF && a.Type != artifact.TypeDoc) || !a.ObjectStored() {
		return nil, errors.NewUnsupportedType("download is only available for stored pdf and doc artifacts")
	}

	upload, err := env.Store.ReadUpload(a.ID)
	if err != nil {
		return nil, err
	}

	contentType := "application/octet-stream"
	if a.ContentType != nil {
		contentType = *a.ContentType
	}

	return &DownloadOutput{
		Filename:    upload.Filename,
		ContentType: contentType,
		Data:        upload.Data,
	}, nil
}
