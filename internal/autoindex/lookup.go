package autoindex

import (
	"context"
	"fmt"

	"github.com/starford/autoindex/internal/apperr"
	"github.com/starford/autoindex/internal/models"
)

// LookupPage resolves a normalized path to its page reference. The match is
// by exact path equality; the first matching entry wins.
func LookupPage(ctx context.Context, src Source, path string) (models.PageRef, error) {
	entries, err := src.Tree(ctx, models.TreeByPath(path))
	if err != nil {
		return models.PageRef{}, fmt.Errorf("autoindex: lookup %q: %w", path, err)
	}
	for _, e := range entries {
		if e.Path == path {
			return models.PageRef{ID: e.ID, Path: e.Path}, nil
		}
	}
	return models.PageRef{}, fmt.Errorf("autoindex: lookup %q: %w", path, apperr.ErrNotFound)
}
