package scaffold

import (
	"context"
	"fmt"
	"os"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	apperrors "github.com/appfx/appfx/pkg/errors"
)

// Default template source used when the caller does not pick one.
const (
	DefaultTemplateURL = "https://github.com/appfx/templates"
	DefaultTemplateRef = "main"
)

// FetchTemplate shallow-clones a template repository into a fresh temporary
// directory and returns its path. The caller owns cleanup of the returned
// directory. A non-empty ref is tried as a tag first, then as a branch, since
// released templates are pinned by tag.
func FetchTemplate(ctx context.Context, url, ref string) (string, error) {
	dir, err := os.MkdirTemp("", "appfx-template-")
	if err != nil {
		return "", fmt.Errorf("failed to create template staging directory: %w", err)
	}

	refNames := []plumbing.ReferenceName{""}
	if ref != "" {
		refNames = []plumbing.ReferenceName{
			plumbing.NewTagReferenceName(ref),
			plumbing.NewBranchReferenceName(ref),
		}
	}

	var lastErr error
	for _, refName := range refNames {
		opts := &git.CloneOptions{URL: url}
		// Shallow clones save real time against remote template hosts.
		// The in-process transport behind plain paths does not support
		// them, so local sources clone full.
		if remoteURL(url) {
			opts.Depth = 1
		}
		if refName != "" {
			opts.ReferenceName = refName
			opts.SingleBranch = true
		}

		if _, lastErr = git.PlainCloneContext(ctx, dir, false, opts); lastErr == nil {
			return dir, nil
		}
		if ctx.Err() != nil {
			break
		}

		// A failed clone can leave partial content; start the next
		// attempt from an empty directory.
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("failed to reset template staging directory: %w", err)
		}
		if err := os.Mkdir(dir, 0o700); err != nil {
			return "", fmt.Errorf("failed to reset template staging directory: %w", err)
		}
	}

	_ = os.RemoveAll(dir)
	return "", apperrors.NewFetchTemplateError(url, ref, lastErr)
}

func remoteURL(u string) bool {
	for _, scheme := range []string{"http://", "https://", "ssh://", "git://"} {
		if strings.HasPrefix(u, scheme) {
			return true
		}
	}
	return strings.HasPrefix(u, "git@")
}
