package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/errors"
)

const artifactColumns = `
	id, session_id, user_id, type, name, source, files_json, content,
	status, error, storage_type, storage_path, total_files,
	host, owner, filename, content_type, size,
	created_at, updated_at, deleted_at`

// InsertArtifact stores a new artifact record.
func InsertArtifact(db *sql.DB, a *artifact.Artifact) error {
	if !artifact.ValidType(a.Type) {
		return errors.NewInvalidRequest("unknown artifact type: " + string(a.Type))
	}

	var filesJSON sql.NullString
	if a.Files != nil {
		data, err := json.Marshal(a.Files)
		if err != nil {
			return errors.NewInternal(err)
		}
		filesJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO artifacts (
			id, session_id, user_id, type, name, source, files_json, content,
			status, error, storage_type, storage_path, total_files,
			host, owner, filename, content_type, size,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err := db.Exec(query,
		a.ID, a.SessionID, a.UserID, string(a.Type), a.Name,
		toNullString(a.Source), filesJSON, toNullString(a.Content),
		statusToNull(a.Status), toNullString(a.Error),
		emptyToNull(a.StorageType), toNullString(a.StoragePath), toNullInt(a.TotalFiles),
		toNullString(a.Host), toNullString(a.Owner),
		toNullString(a.Filename), toNullString(a.ContentType), toNullInt64(a.Size),
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// GetArtifact retrieves an artifact by ID, scoped to its owner.
// A record belonging to another user yields the same not-found error as
// a record that does not exist.
func GetArtifact(db *sql.DB, id, userID string, includeDeleted bool) (*artifact.Artifact, error) {
	query := `SELECT` + artifactColumns + `
		FROM artifacts
		WHERE id = ? AND user_id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	row := db.QueryRow(query, id, userID)
	a, err := scanArtifact(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("artifact", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return a, nil
}

// ListArtifactsBySession returns one page of a session's artifacts,
// newest first.
func ListArtifactsBySession(db *sql.DB, sessionID, userID string, includeDeleted bool, limit, offset int) ([]*artifact.Artifact, error) {
	query := `SELECT` + artifactColumns + `
		FROM artifacts
		WHERE session_id = ? AND user_id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"

	rows, err := db.Query(query, sessionID, userID, limit, offset)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	artifacts := make([]*artifact.Artifact, 0)
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return artifacts, nil
}

// CountSessionArtifacts returns how many artifacts a session has.
func CountSessionArtifacts(db *sql.DB, sessionID, userID string, includeDeleted bool) (int, error) {
	query := `SELECT COUNT(*) FROM artifacts WHERE session_id = ? AND user_id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	var n int
	if err := db.QueryRow(query, sessionID, userID).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// MarkArtifactCompleted transitions an ingesting artifact to completed,
// recording total size, file count, and object-store location in one atomic
// update. Callers use this only after a successful SaveFileSet, so the
// storage type is always object here.
func MarkArtifactCompleted(db *sql.DB, id string, size int64, totalFiles int, storagePath string) error {
	now := time.Now().Unix()
	query := `
		UPDATE artifacts
		SET status = ?, size = ?, total_files = ?, storage_type = ?, storage_path = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := db.Exec(query, string(artifact.StatusCompleted), size, totalFiles, artifact.StorageObject, storagePath, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// MarkArtifactFailed transitions an ingesting artifact to failed, persisting
// the error detail. A failed record is terminal and remains queryable so the
// user can see why ingestion failed.
func MarkArtifactFailed(db *sql.DB, id, detail string) error {
	now := time.Now().Unix()
	query := `
		UPDATE artifacts
		SET status = ?, error = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := db.Exec(query, string(artifact.StatusFailed), detail, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// CompleteArtifactInline transitions an extracting artifact to completed with
// its file set stored inline on the record.
func CompleteArtifactInline(db *sql.DB, id string, files []artifact.FileEntry, size int64) error {
	data, err := json.Marshal(files)
	if err != nil {
		return errors.NewInternal(err)
	}
	now := time.Now().Unix()
	query := `
		UPDATE artifacts
		SET status = ?, files_json = ?, total_files = ?, size = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = db.Exec(query, string(artifact.StatusCompleted), string(data), len(files), size, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// UpdateArtifactName renames an artifact, scoped to its owner.
func UpdateArtifactName(db *sql.DB, id, userID, name string) error {
	now := time.Now().Unix()
	query := `
		UPDATE artifacts
		SET name = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL
	`
	result, err := db.Exec(query, name, now, id, userID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireMatch(result, id)
}

// SoftDeleteArtifact marks an artifact as deleted by setting deleted_at.
func SoftDeleteArtifact(db *sql.DB, id, userID string) error {
	now := time.Now().Unix()
	query := `
		UPDATE artifacts
		SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL
	`
	result, err := db.Exec(query, now, now, id, userID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireMatch(result, id)
}

// HardDeleteArtifact permanently removes an artifact record.
func HardDeleteArtifact(db *sql.DB, id, userID string) error {
	result, err := db.Exec(`DELETE FROM artifacts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireMatch(result, id)
}

// DisableSessionArtifacts soft-deletes all active artifacts under a session
// and returns how many were affected (cascade delete).
func DisableSessionArtifacts(db *sql.DB, sessionID string) (int, error) {
	now := time.Now().Unix()
	query := `
		UPDATE artifacts
		SET deleted_at = ?, updated_at = ?
		WHERE session_id = ? AND deleted_at IS NULL
	`
	result, err := db.Exec(query, now, now, sessionID)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// ArtifactIDExists reports whether any record (active or deleted) has the id.
// Used by storage garbage collection to find orphaned directories.
func ArtifactIDExists(db *sql.DB, id string) (bool, error) {
	var one int
	err := db.QueryRow(`SELECT 1 FROM artifacts WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// requireMatch converts a zero-row update into a not-found error.
func requireMatch(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound("artifact", id)
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanArtifact.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanArtifact scans a single row into an Artifact struct.
func scanArtifact(row rowScanner) (*artifact.Artifact, error) {
	var (
		a           artifact.Artifact
		typ         string
		source      sql.NullString
		filesJSON   sql.NullString
		content     sql.NullString
		status      sql.NullString
		errText     sql.NullString
		storageType sql.NullString
		storagePath sql.NullString
		totalFiles  sql.NullInt64
		host        sql.NullString
		owner       sql.NullString
		filename    sql.NullString
		contentType sql.NullString
		size        sql.NullInt64
		deletedAt   sql.NullInt64
	)

	err := row.Scan(
		&a.ID, &a.SessionID, &a.UserID, &typ, &a.Name, &source, &filesJSON, &content,
		&status, &errText, &storageType, &storagePath, &totalFiles,
		&host, &owner, &filename, &contentType, &size,
		&a.CreatedAt, &a.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Type = artifact.Type(typ)
	a.Source = fromNullString(source)
	a.Content = fromNullString(content)
	a.Error = fromNullString(errText)
	a.StoragePath = fromNullString(storagePath)
	a.Host = fromNullString(host)
	a.Owner = fromNullString(owner)
	a.Filename = fromNullString(filename)
	a.ContentType = fromNullString(contentType)

	if status.Valid {
		a.Status = artifact.Status(status.String)
	}
	if storageType.Valid {
		a.StorageType = storageType.String
	}
	if totalFiles.Valid {
		n := int(totalFiles.Int64)
		a.TotalFiles = &n
	}
	if size.Valid {
		a.Size = &size.Int64
	}
	if deletedAt.Valid {
		a.DeletedAt = &deletedAt.Int64
	}

	if filesJSON.Valid && filesJSON.String != "" {
		if err := json.Unmarshal([]byte(filesJSON.String), &a.Files); err != nil {
			return nil, err
		}
	}

	return &a, nil
}

// statusToNull converts an artifact status to a nullable column value.
func statusToNull(s artifact.Status) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(s), Valid: true}
}

// emptyToNull converts an empty string to NULL.
func emptyToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// toNullInt converts a *int to sql.NullInt64.
func toNullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

// toNullInt64 converts a *int64 to sql.NullInt64.
func toNullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}
