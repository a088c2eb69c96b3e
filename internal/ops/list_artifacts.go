package ops

import (
	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/db"
)

// ListArtifactsInput contains parameters for the ListArtifacts operation.
type ListArtifactsInput struct {
	SessionID      string
	UserID         string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// ListArtifactsOutput contains the result of the ListArtifacts operation.
type ListArtifactsOutput struct {
	Artifacts  []*artifact.Artifact `json:"artifacts"`
	Pagination Pagination           `json:"pagination"`
}

// ListArtifacts returns one page of a session's artifacts, newest first.
func ListArtifacts(env *Env, input ListArtifactsInput) (*ListArtifactsOutput, error) {
	if err := validateID("session", input.SessionID); err != nil {
		return nil, err
	}

	limit := clampLimit(input.Limit, DefaultListLimit, MaxListLimit)
	offset := clampOffset(input.Offset)

	total, err := db.CountSessionArtifacts(env.DB, input.SessionID, input.UserID, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	artifacts, err := db.ListArtifactsBySession(env.DB, input.SessionID, input.UserID, input.IncludeDeleted, limit, offset)
	if err != nil {
		return nil, err
	}

	return &ListArtifactsOutput{
		Artifacts: artifacts,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(artifacts) < total,
			Total:   total,
		},
	}, nil
}
