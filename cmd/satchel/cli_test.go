package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/satchel/internal/archive"
	"github.com/hpungsan/satchel/internal/config"
	"github.com/hpungsan/satchel/internal/db"
	"github.com/hpungsan/satchel/internal/objectstore"
	"github.com/hpungsan/satchel/internal/ops"
)

// testApp builds a CLI app over a temp environment. Commands under test
// never clone, so no fetcher is wired.
func testApp(t *testing.T) (*cli.App, *ops.Env, string) {
	t.Helper()

	baseDir := t.TempDir()
	database, err := db.Init(baseDir)
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store, err := objectstore.New(filepath.Join(baseDir, "storage"))
	if err != nil {
		t.Fatalf("objectstore.New failed: %v", err)
	}

	cfg := config.DefaultConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &ops.Env{
		DB:        database,
		Store:     store,
		Extractor: archive.New(cfg, logger),
		Config:    cfg,
		Logger:    logger,
	}
	return newCLIApp(env), env, baseDir
}

// captureStdout runs fn with os.Stdout redirected to a pipe.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe failed: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w

	runErr := fn()

	os.Stdout = orig
	w.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading captured stdout failed: %v", err)
	}
	return string(data), runErr
}

func TestSessionCreateCommand(t *testing.T) {
	app, _, _ := testApp(t)

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"satchel", "session", "create", "--user", "u1", "--title", "Planning"})
	})
	if err != nil {
		t.Fatalf("session create failed: %v", err)
	}

	var result struct {
		Session struct {
			ID     string `json:"id"`
			UserID string `json:"user_id"`
			Title  string `json:"title"`
		} `json:"session"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if result.Session.Title != "Planning" || result.Session.UserID != "u1" {
		t.Errorf("unexpected session: %+v", result.Session)
	}
	if result.Session.ID == "" {
		t.Error("session id missing")
	}
}

func TestSessionDeleteCommand(t *testing.T) {
	app, env, _ := testApp(t)

	created, err := ops.CreateSession(env, ops.CreateSessionInput{UserID: "u1", Title: "old"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"satchel", "session", "delete", "--user", "u1", created.Session.ID})
	})
	if err != nil {
		t.Fatalf("session delete failed: %v", err)
	}
	if !strings.Contains(out, `"artifacts_disabled": 0`) {
		t.Errorf("unexpected output: %s", out)
	}

	// Missing id argument is a usage error.
	_, err = captureStdout(t, func() error {
		return app.Run([]string{"satchel", "session", "delete", "--user", "u1"})
	})
	if err == nil {
		t.Error("expected error without session id argument")
	}
}

func TestSessionDeleteWrongOwner(t *testing.T) {
	app, env, _ := testApp(t)

	created, err := ops.CreateSession(env, ops.CreateSessionInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	_, err = captureStdout(t, func() error {
		return app.Run([]string{"satchel", "session", "delete", "--user", "u2", created.Session.ID})
	})
	if err == nil || !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("foreign session should read as absent, got: %v", err)
	}
}

func TestStatsCommand(t *testing.T) {
	app, env, _ := testApp(t)

	created, err := ops.CreateSession(env, ops.CreateSessionInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := ops.UploadDocument(env, ops.UploadDocumentInput{
		SessionID: created.Session.ID,
		UserID:    "u1",
		Filename:  "report.pdf",
		Data:      []byte("%PDF-1.4 fake"),
	}); err != nil {
		t.Fatalf("UploadDocument failed: %v", err)
	}

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"satchel", "stats"})
	})
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	var stats struct {
		Repositories int   `json:"repositories"`
		Uploads      int   `json:"uploads"`
		TotalBytes   int64 `json:"total_bytes"`
	}
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if stats.Uploads != 1 || stats.Repositories != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalBytes == 0 {
		t.Error("total_bytes should count the stored upload")
	}
}

func TestGCCommand(t *testing.T) {
	app, _, baseDir := testApp(t)

	// A storage directory with no artifact record is an orphan.
	orphan := filepath.Join(baseDir, "storage", "uploads", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	if err := os.MkdirAll(orphan, 0700); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(orphan, "stale.bin"), []byte("x"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"satchel", "gc"})
	})
	if err != nil {
		t.Fatalf("gc failed: %v", err)
	}

	var result struct {
		Scanned int      `json:"scanned"`
		Removed []string `json:"removed"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if result.Scanned != 1 || len(result.Removed) != 1 {
		t.Errorf("gc result = %+v", result)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Error("orphaned directory should be removed")
	}
}

func TestServeRequiresTokens(t *testing.T) {
	app, _, _ := testApp(t)

	_, err := captureStdout(t, func() error {
		return app.Run([]string{"satchel", "serve"})
	})
	if err == nil || !strings.Contains(err.Error(), "auth_tokens") {
		t.Errorf("serve without tokens should fail, got: %v", err)
	}
}
