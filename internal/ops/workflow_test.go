package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/errors"
)

// TestWorkflow_RepositoryLifecycle walks one repository artifact from
// ingestion through querying, renaming, and deletion.
func TestWorkflow_RepositoryLifecycle(t *testing.T) {
	env := testEnv(t, stubCloner{files: map[string]string{
		"main.go":       "package main",
		"pkg/util.go":   "package pkg",
		"docs/guide.md": "# guide",
	}})
	sessionID := newSession(t, env, "user-a")

	added, err := AddRepository(context.Background(), env, AddRepositoryInput{
		SessionID: sessionID,
		UserID:    "user-a",
		URL:       "https://github.com/acme/widget.git",
	})
	require.NoError(t, err)
	id := added.Artifact.ID

	// Get
	got, err := GetArtifact(env, GetArtifactInput{ID: id, UserID: "user-a"})
	require.NoError(t, err)
	require.Equal(t, artifact.StatusCompleted, got.Artifact.Status)

	// List files
	files, err := ListFiles(env, ListFilesInput{ID: id, UserID: "user-a", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 3, files.Pagination.Total)
	require.False(t, files.Pagination.HasMore)

	// Read a nested file
	read, err := ReadFile(env, ReadFileInput{ID: id, UserID: "user-a", Path: "pkg/util.go"})
	require.NoError(t, err)
	require.Equal(t, "package pkg", read.File.Content)

	// Rename
	renamed, err := UpdateArtifact(env, UpdateArtifactInput{ID: id, UserID: "user-a", Name: "widget v2"})
	require.NoError(t, err)
	require.Equal(t, "widget v2", renamed.Artifact.Name)

	// Soft delete hides the record but keeps storage
	_, err = DeleteArtifact(env, DeleteArtifactInput{ID: id, UserID: "user-a"})
	require.NoError(t, err)
	_, err = GetArtifact(env, GetArtifactInput{ID: id, UserID: "user-a"})
	require.True(t, errors.Is(err, errors.ErrNotFound))
	_, err = os.Stat(filepath.Join(env.Store.Base(), "repositories", id))
	require.NoError(t, err, "soft delete keeps object-store data")

	// But remains visible with includeDeleted
	deleted, err := GetArtifact(env, GetArtifactInput{ID: id, UserID: "user-a", IncludeDeleted: true})
	require.NoError(t, err)
	require.True(t, deleted.Artifact.Deleted())
}

// TestWorkflow_OwnershipIsolation checks that user B can never observe
// user A's artifact through any read or write operation.
func TestWorkflow_OwnershipIsolation(t *testing.T) {
	env := testEnv(t, stubCloner{files: map[string]string{"a.go": "package a"}})
	sessionID := newSession(t, env, "user-a")

	added, err := AddRepository(context.Background(), env, AddRepositoryInput{
		SessionID: sessionID,
		UserID:    "user-a",
		URL:       "https://github.com/acme/widget.git",
	})
	require.NoError(t, err)
	id := added.Artifact.ID

	_, err = GetArtifact(env, GetArtifactInput{ID: id, UserID: "user-b"})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = ListFiles(env, ListFilesInput{ID: id, UserID: "user-b"})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = ReadFile(env, ReadFileInput{ID: id, UserID: "user-b", Path: "a.go"})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = Download(env, DownloadInput{ID: id, UserID: "user-b"})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = UpdateArtifact(env, UpdateArtifactInput{ID: id, UserID: "user-b", Name: "stolen"})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = DeleteArtifact(env, DeleteArtifactInput{ID: id, UserID: "user-b"})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	// Still intact for its owner
	got, err := GetArtifact(env, GetArtifactInput{ID: id, UserID: "user-a"})
	require.NoError(t, err)
	require.Equal(t, "widget", got.Artifact.Name)
}

// TestWorkflow_PaginationBoundary checks out-of-range file pages are empty,
// not errors.
func TestWorkflow_PaginationBoundary(t *testing.T) {
	env := testEnv(t, stubCloner{})
	sessionID := newSession(t, env, "user-a")

	added, err := UploadArchive(env, UploadArchiveInput{
		SessionID: sessionID,
		UserID:    "user-a",
		Filename:  "bundle.zip",
		Data: buildZip(t, map[string]string{
			"a.go": "package a", "b.go": "package b", "c.go": "package c",
			"d.go": "package d", "e.go": "package e",
		}),
	})
	require.NoError(t, err)

	page, err := ListFiles(env, ListFilesInput{
		ID: added.Artifact.ID, UserID: "user-a", Limit: 10, Offset: 1000,
	})
	require.NoError(t, err)
	require.Empty(t, page.Files)
	require.Equal(t, 5, page.Pagination.Total)
	require.False(t, page.Pagination.HasMore)
}

// TestWorkflow_CascadingSessionDelete checks deleting a session disables
// all of its active artifacts.
func TestWorkflow_CascadingSessionDelete(t *testing.T) {
	env := testEnv(t, stubCloner{})
	sessionID := newSession(t, env, "user-a")

	var ids []string
	for _, name := range []string{"one.md", "two.md", "three.md"} {
		out, err := UploadDocument(env, UploadDocumentInput{
			SessionID: sessionID,
			UserID:    "user-a",
			Filename:  name,
			Data:      []byte("# " + name),
		})
		require.NoError(t, err)
		ids = append(ids, out.Artifact.ID)
	}

	out, err := DeleteSession(env, DeleteSessionInput{SessionID: sessionID, UserID: "user-a"})
	require.NoError(t, err)
	require.Equal(t, 3, out.ArtifactsDisabled)

	for _, id := range ids {
		got, err := GetArtifact(env, GetArtifactInput{ID: id, UserID: "user-a", IncludeDeleted: true})
		require.NoError(t, err)
		require.True(t, got.Artifact.Deleted())
		require.NotNil(t, got.Artifact.DeletedAt)
	}

	// Second delete of the same session is a not-found
	_, err = DeleteSession(env, DeleteSessionInput{SessionID: sessionID, UserID: "user-a"})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

// TestWorkflow_HardDeleteAndGC checks hard delete removes storage and gc
// sweeps orphaned directories.
func TestWorkflow_HardDeleteAndGC(t *testing.T) {
	env := testEnv(t, stubCloner{files: map[string]string{"a.go": "package a"}})
	sessionID := newSession(t, env, "user-a")

	added, err := AddRepository(context.Background(), env, AddRepositoryInput{
		SessionID: sessionID,
		UserID:    "user-a",
		URL:       "https://github.com/acme/widget.git",
	})
	require.NoError(t, err)
	id := added.Artifact.ID

	out, err := DeleteArtifact(env, DeleteArtifactInput{ID: id, UserID: "user-a", Hard: true})
	require.NoError(t, err)
	require.True(t, out.Hard)

	_, err = os.Stat(filepath.Join(env.Store.Base(), "repositories", id))
	require.True(t, os.IsNotExist(err), "hard delete removes object-store data")

	// Plant an orphaned directory and let gc sweep it
	orphan := filepath.Join(env.Store.Base(), "uploads", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.NoError(t, os.MkdirAll(orphan, 0700))

	gc, err := CollectGarbage(env)
	require.NoError(t, err)
	require.Equal(t, []string{"01ARZ3NDEKTSV4RRFFQ69G5FAV"}, gc.Removed)
	_, err = os.Stat(orphan)
	require.True(t, os.IsNotExist(err))
}

// TestWorkflow_DownloadUnsupported checks the download type guard.
func TestWorkflow_DownloadUnsupported(t *testing.T) {
	env := testEnv(t, stubCloner{files: map[string]string{"a.go": "package a"}})
	sessionID := newSession(t, env, "user-a")

	// Repository artifacts are file sets, not single blobs
	repo, err := AddRepository(context.Background(), env, AddRepositoryInput{
		SessionID: sessionID,
		UserID:    "user-a",
		URL:       "https://github.com/acme/widget.git",
	})
	require.NoError(t, err)
	_, err = Download(env, DownloadInput{ID: repo.Artifact.ID, UserID: "user-a"})
	require.True(t, errors.Is(err, errors.ErrUnsupportedType))

	// Inline text artifacts are not downloadable either
	text, err := UploadDocument(env, UploadDocumentInput{
		SessionID: sessionID,
		UserID:    "user-a",
		Filename:  "notes.txt",
		Data:      []byte("hello"),
	})
	require.NoError(t, err)
	_, err = Download(env, DownloadInput{ID: text.Artifact.ID, UserID: "user-a"})
	require.True(t, errors.Is(err, errors.ErrUnsupportedType))
}
