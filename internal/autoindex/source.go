// Package autoindex resolves a page path, fetches its descendant tree, and
// composes it into a render-ready index structure.
package autoindex

import (
	"context"

	"github.com/starford/autoindex/internal/models"
)

// Source is the content-tree API the pipeline reads from.
type Source interface {
	// Tree returns one level of tree entries matching q, in API order.
	Tree(ctx context.Context, q models.TreeQuery) ([]models.TreeNode, error)
	// Single returns the detail record for a page id, or nil when the API has no match.
	Single(ctx context.Context, id int) (*models.PageDetail, error)
}

// countingSource counts the requests made through it during one render pass.
type countingSource struct {
	Source
	trees   int
	singles int
}

func (c *countingSource) Tree(ctx context.Context, q models.TreeQuery) ([]models.TreeNode, error) {
	c.trees++
	fetchesTotal.WithLabelValues("tree").Inc()
	return c.Source.Tree(ctx, q)
}

func (c *countingSource) Single(ctx context.Context, id int) (*models.PageDetail, error) {
	c.singles++
	fetchesTotal.WithLabelValues("single").Inc()
	return c.Source.Single(ctx, id)
}

func (c *countingSource) total() int {
	return c.trees + c.singles
}
