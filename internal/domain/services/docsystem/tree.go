package docsystem

import (
	"context"

	"nodestore/internal/domain/models/docsystem"
)

// TreeWalker resolves a node's ancestor chain
type TreeWalker interface {
	// BreadcrumbPath returns node names from the root down to node.
	// A dangling parent reference truncates the path; a cycle is a ConsistencyError.
	BreadcrumbPath(ctx context.Context, node *docsystem.Node) ([]string, error)
}
