package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nodestore/internal/domain"
	models "nodestore/internal/domain/models/docsystem"
	docsysRepo "nodestore/internal/domain/repositories/docsystem"
	docsysSvc "nodestore/internal/domain/services/docsystem"
)

type treeWalker struct {
	nodeRepo docsysRepo.NodeRepository
	logger   *slog.Logger
}

// NewTreeWalker creates a breadcrumb resolver backed by parent lookups
func NewTreeWalker(nodeRepo docsysRepo.NodeRepository, logger *slog.Logger) docsysSvc.TreeWalker {
	return &treeWalker{
		nodeRepo: nodeRepo,
		logger:   logger,
	}
}

// BreadcrumbPath walks parent_id links one lookup per level
func (w *treeWalker) BreadcrumbPath(ctx context.Context, node *models.Node) ([]string, error) {
	names := []string{node.Name}
	visited := map[string]bool{node.ID: true}

	parentID := node.ParentID
	for parentID != nil {
		if visited[*parentID] {
			return nil, &domain.ConsistencyError{
				Message: fmt.Sprintf("parent cycle detected at node %s", *parentID),
			}
		}
		visited[*parentID] = true

		parent, err := w.nodeRepo.GetByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				w.logger.Warn("dangling parent reference, truncating path",
					"node_id", node.ID,
					"missing_parent_id", *parentID,
				)
				break
			}
			return nil, &domain.PersistenceError{Op: "load parent node", Err: err}
		}

		names = append(names, parent.Name)
		parentID = parent.ParentID
	}

	// collected leaf -> root
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names, nil
}
