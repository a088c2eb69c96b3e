package repofetch

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/hpungsan/satchel/internal/errors"
)

// Cloner materializes a repository URL into a local directory.
type Cloner interface {
	Clone(ctx context.Context, url, dir string) error
}

// GitCloner shells out to the git binary for a shallow single-branch clone.
type GitCloner struct{}

func (GitCloner) Clone(ctx context.Context, url, dir string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", "--single-branch", url, dir)
	// Never let git block on an interactive credential prompt.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.NewCloneFailed("clone timed out")
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return errors.NewCloneFailed(detail)
	}
	return nil
}
