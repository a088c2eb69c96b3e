package ops

import (
	"crypto/rand"
	"database/sql"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/satchel/internal/archive"
	"github.com/hpungsan/satchel/internal/config"
	"github.com/hpungsan/satchel/internal/errors"
	"github.com/hpungsan/satchel/internal/objectstore"
	"github.com/hpungsan/satchel/internal/repofetch"
)

// Pagination limits
const (
	DefaultListLimit     = 20
	MaxListLimit         = 100
	DefaultFileListLimit = 100
	MaxFileListLimit     = 500
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Env bundles the dependencies every operation draws on. The HTTP, MCP,
// and CLI surfaces each build one Env at startup and share it.
type Env struct {
	DB        *sql.DB
	Store     *objectstore.Store
	Fetcher   *repofetch.Fetcher
	Extractor *archive.Extractor
	Config    *config.Config
	Logger    *slog.Logger
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// validateID rejects ids that cannot be ULIDs before touching the database.
func validateID(kind, id string) error {
	if _, err := ulid.Parse(id); err != nil {
		return errors.NewInvalidRequest("invalid " + kind + " id")
	}
	return nil
}

// clampLimit normalizes a requested page size into [1, max], applying the
// default when unset.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// clampOffset floors a requested offset at zero.
func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
