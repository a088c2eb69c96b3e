package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Ingestion limits shared by the repository fetcher and archive extractor.
const (
	DefaultMaxFiles             = 500
	DefaultMaxFileBytes         = 5 * 1024 * 1024
	DefaultMaxArchiveTotalBytes = 256 * 1024 * 1024
	DefaultCloneTimeoutSec      = 120
)

// Config holds application configuration.
type Config struct {
	// MaxFiles caps how many qualifying files a repository ingestion keeps.
	MaxFiles int `json:"max_files,omitempty"`

	// MaxFileBytes caps the size of a single ingested file. Larger files
	// are skipped, not failed.
	MaxFileBytes int64 `json:"max_file_bytes,omitempty"`

	// MaxArchiveTotalBytes caps the summed uncompressed size of accepted
	// archive entries. Extraction fails once the cap is crossed.
	MaxArchiveTotalBytes int64 `json:"max_archive_total_bytes,omitempty"`

	// CloneTimeoutSec bounds the shallow clone; expiry is reported as a
	// clone failure on the artifact record.
	CloneTimeoutSec int `json:"clone_timeout_sec,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// MCPUser is the user identity the MCP tool surface acts as.
	// MCP runs over stdio for a single local user; HTTP requests carry
	// their own verified identity instead.
	MCPUser string `json:"mcp_user,omitempty"`

	// AuthTokens maps bearer tokens to user IDs for the static
	// authenticator. Production deployments supply their own Authenticator.
	AuthTokens map[string]string `json:"auth_tokens,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxFiles:             DefaultMaxFiles,
		MaxFileBytes:         DefaultMaxFileBytes,
		MaxArchiveTotalBytes: DefaultMaxArchiveTotalBytes,
		CloneTimeoutSec:      DefaultCloneTimeoutSec,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.satchel.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; maps are merged with the
// overlay winning on key collisions.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.MaxFiles = overlay.MaxFiles
	if result.MaxFiles == 0 {
		result.MaxFiles = base.MaxFiles
	}

	result.MaxFileBytes = overlay.MaxFileBytes
	if result.MaxFileBytes == 0 {
		result.MaxFileBytes = base.MaxFileBytes
	}

	result.MaxArchiveTotalBytes = overlay.MaxArchiveTotalBytes
	if result.MaxArchiveTotalBytes == 0 {
		result.MaxArchiveTotalBytes = base.MaxArchiveTotalBytes
	}

	result.CloneTimeoutSec = overlay.CloneTimeoutSec
	if result.CloneTimeoutSec == 0 {
		result.CloneTimeoutSec = base.CloneTimeoutSec
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.MCPUser = overlay.MCPUser
	if result.MCPUser == "" {
		result.MCPUser = base.MCPUser
	}

	result.AuthTokens = mergeStringMap(base.AuthTokens, overlay.AuthTokens)

	return result
}

// mergeStringMap combines two maps; overlay entries win.
func mergeStringMap(a, b map[string]string) map[string]string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	result := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		result[k] = v
	}
	for k, v := range b {
		result[k] = v
	}
	return result
}
