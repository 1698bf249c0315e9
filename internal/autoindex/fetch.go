package autoindex

import (
	"context"
	"fmt"

	"github.com/starford/autoindex/internal/apperr"
	"github.com/starford/autoindex/internal/models"
)

// FetchTree returns the descendants of parentID, expanding every node while
// level < maxDepth. Expansion is depth-first and sequential: each node's
// subtree is complete before its next sibling is fetched. Any failure aborts
// the whole fetch and no partial tree is returned.
func FetchTree(ctx context.Context, src Source, parentID, level, maxDepth int) ([]models.TreeNode, error) {
	nodes, err := src.Tree(ctx, models.TreeByParent(parentID))
	if err != nil {
		if level > 0 {
			return nil, fmt.Errorf("autoindex: fetch parent %d at level %d: %w: %w",
				parentID, level, apperr.ErrRecursionAborted, err)
		}
		return nil, fmt.Errorf("autoindex: fetch parent %d: %w", parentID, err)
	}
	if level >= maxDepth {
		return nodes, nil
	}
	for i := range nodes {
		children, err := FetchTree(ctx, src, nodes[i].ID, level+1, maxDepth)
		if err != nil {
			return nil, err
		}
		if children == nil {
			children = []models.TreeNode{}
		}
		nodes[i].Children = children
		nodes[i].Expanded = true
	}
	return nodes, nil
}
