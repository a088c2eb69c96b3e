package db

import (
	"database/sql"
	"time"

	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/errors"
)

// InsertSession stores a new chat session.
func InsertSession(db *sql.DB, s *artifact.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, title, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, NULL)
	`
	_, err := db.Exec(query, s.ID, s.UserID, s.Title, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetSession retrieves an active session by ID, scoped to its owner.
// Another user's session is indistinguishable from a nonexistent one.
func GetSession(db *sql.DB, id, userID string) (*artifact.Session, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at, deleted_at
		FROM sessions
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL
	`

	var (
		s         artifact.Session
		deletedAt sql.NullInt64
	)
	err := db.QueryRow(query, id, userID).Scan(
		&s.ID, &s.UserID, &s.Title, &s.CreatedAt, &s.UpdatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("session", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if deletedAt.Valid {
		s.DeletedAt = &deletedAt.Int64
	}

	return &s, nil
}

// SoftDeleteSession marks a session as deleted.
func SoftDeleteSession(db *sql.DB, id, userID string) error {
	now := time.Now().Unix()
	query := `
		UPDATE sessions
		SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL
	`
	result, err := db.Exec(query, now, now, id, userID)
	if err != nil {
		return errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound("session", id)
	}
	return nil
}
