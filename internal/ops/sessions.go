package ops

import (
	"strings"
	"time"

	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/db"
	"github.com/hpungsan/satchel/internal/errors"
)

// CreateSessionInput contains parameters for the CreateSession operation.
type CreateSessionInput struct {
	UserID string
	Title  string
}

// CreateSessionOutput contains the result of the CreateSession operation.
type CreateSessionOutput struct {
	Session *artifact.Session `json:"session"`
}

// CreateSession opens a new chat session owned by the caller.
func CreateSession(env *Env, input CreateSessionInput) (*CreateSessionOutput, error) {
	if input.UserID == "" {
		return nil, errors.NewInvalidRequest("user id is required")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Untitled"
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()

	s := &artifact.Session{
		ID:        id,
		UserID:    input.UserID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.InsertSession(env.DB, s); err != nil {
		return nil, err
	}

	return &CreateSessionOutput{Session: s}, nil
}

// DeleteSessionInput contains parameters for the DeleteSession operation.
type DeleteSessionInput struct {
	SessionID string
	UserID    string
}

// DeleteSessionOutput contains the result of the DeleteSession operation.
type DeleteSessionOutput struct {
	ArtifactsDisabled int `json:"artifacts_disabled"`
}

// DeleteSession soft-deletes a session and cascades to its active
// artifacts, reporting how many were disabled. Object-store data is
// retained; only a hard artifact delete removes it.
func DeleteSession(env *Env, input DeleteSessionInput) (*DeleteSessionOutput, error) {
	if err := validateID("session", input.SessionID); err != nil {
		return nil, err
	}

	if err := db.SoftDeleteSession(env.DB, input.SessionID, input.UserID); err != nil {
		return nil, err
	}

	n, err := db.DisableSessionArtifacts(env.DB, input.SessionID)
	if err != nil {
		return nil, err
	}

	env.Logger.Info("session deleted", "session_id", input.SessionID, "artifacts_disabled", n)
	return &DeleteSessionOutput{ArtifactsDisabled: n}, nil
}
