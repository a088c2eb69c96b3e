package repofetch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/config"
	"github.com/hpungsan/satchel/internal/errors"
)

// knownHosts are git hosting services a URL can be recognized by even
// without a .git suffix or an explicit scheme.
var knownHosts = []string{
	"github.com",
	"gitlab.com",
	"bitbucket.org",
	"git.sr.ht",
	"codeberg.org",
	"gitea.io",
}

// ValidateURL reports whether a string plausibly names a git repository:
// a known host, a .git suffix, or a recognized protocol scheme.
func ValidateURL(url string) bool {
	if url == "" {
		return false
	}

	lower := strings.ToLower(url)
	for _, host := range knownHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	if strings.HasSuffix(lower, ".git") {
		return true
	}
	for _, prefix := range []string{"http://", "https://", "git://", "ssh://", "git@"} {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

// RepoInfo is what can be read off a repository URL without contacting it.
type RepoInfo struct {
	Name  string
	Host  string
	Owner string
}

// Info extracts the repository name, host label, and owner segment from a URL.
func Info(url string) RepoInfo {
	info := RepoInfo{Host: "Git"}

	trimmed := strings.TrimRight(url, "/")
	parts := strings.Split(trimmed, "/")

	name := parts[len(parts)-1]
	info.Name = strings.TrimSuffix(name, ".git")
	if len(parts) >= 2 {
		info.Owner = parts[len(parts)-2]
	}

	switch {
	case strings.Contains(trimmed, "github.com"):
		info.Host = "GitHub"
	case strings.Contains(trimmed, "gitlab.com"):
		info.Host = "GitLab"
	case strings.Contains(trimmed, "bitbucket.org"):
		info.Host = "Bitbucket"
	}
	return info
}

// Result is the outcome of cloning and filtering one repository.
type Result struct {
	Files      []artifact.FileEntry
	TotalFiles int
	RepoName   string
	Truncated  bool
}

// Fetcher clones repositories into a temp workspace and extracts the code
// files that pass the filters.
type Fetcher struct {
	cloner       Cloner
	maxFiles     int
	maxFileBytes int64
	timeout      time.Duration
	logger       *slog.Logger
}

// New builds a Fetcher with the limits from cfg.
func New(cloner Cloner, cfg *config.Config, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		cloner:       cloner,
		maxFiles:     cfg.MaxFiles,
		maxFileBytes: cfg.MaxFileBytes,
		timeout:      time.Duration(cfg.CloneTimeoutSec) * time.Second,
		logger:       logger,
	}
}

// CloneAndExtract shallow-clones the repository and returns its filtered
// files. The temp workspace is always removed before returning. A repository
// with zero matching files is not an error here; the caller decides how to
// record it.
func (f *Fetcher) CloneAndExtract(ctx context.Context, url string) (*Result, error) {
	tempDir, err := os.MkdirTemp("", "repofetch-")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			f.logger.Error("failed to clean clone workspace", "dir", tempDir, "error", err)
		}
	}()

	cloneCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	f.logger.Info("cloning repository", "url", url)
	if err := f.cloner.Clone(cloneCtx, url, tempDir); err != nil {
		return nil, err
	}

	result := &Result{RepoName: Info(url).Name}
	result.Files, result.Truncated, err = f.collect(tempDir)
	if err != nil {
		return nil, err
	}
	result.TotalFiles = len(result.Files)

	f.logger.Info("extracted repository files",
		"repo", result.RepoName, "files", result.TotalFiles, "truncated", result.Truncated)
	return result, nil
}

// collect walks the clone, pruning ignored directories and keeping files
// that pass the extension and size filters, up to the max-files cutoff.
func (f *Fetcher) collect(root string) ([]artifact.FileEntry, bool, error) {
	files := make([]artifact.FileEntry, 0)
	truncated := false

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && SkipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !IncludeFile(d.Name()) {
			return nil
		}
		if len(files) >= f.maxFiles {
			truncated = true
			return fs.SkipAll
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > f.maxFileBytes {
			f.logger.Debug("skipping oversized file", "path", path, "size", info.Size())
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			f.logger.Warn("failed to read file", "path", path, "error", err)
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		files = append(files, artifact.FileEntry{
			Path:    filepath.ToSlash(rel),
			Content: strings.ToValidUTF8(string(data), ""),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}
	return files, truncated, nil
}
