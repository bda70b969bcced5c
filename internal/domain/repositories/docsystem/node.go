package docsystem

import (
	"context"

	"nodestore/internal/domain/models/docsystem"
)

// NodeRepository defines data access operations for tree nodes
type NodeRepository interface {
	// Create inserts a node and fills in its generated ID and created_at
	Create(ctx context.Context, node *docsystem.Node) error

	// GetByID retrieves a node by ID. Returns domain.ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*docsystem.Node, error)

	// FindFile looks up a file node by (project, parent, name).
	// A nil parentID matches root-level nodes only.
	FindFile(ctx context.Context, projectID string, parentID *string, name string) (*docsystem.Node, error)

	// FindOrCreateFile returns the file node at (project, parent, name), creating it if needed.
	// created is true only when this call inserted the row.
	FindOrCreateFile(ctx context.Context, node *docsystem.Node) (result *docsystem.Node, created bool, err error)

	// ListByProject returns every node in a project, folders first then by name
	ListByProject(ctx context.Context, projectID string) ([]docsystem.Node, error)

	// Delete hard-deletes a node. Only used for compensating rollbacks.
	Delete(ctx context.Context, id string) error
}

// FileContentRepository defines data access operations for file content rows
type FileContentRepository interface {
	// Get returns the content row for a node. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, nodeID string) (*docsystem.FileContent, error)

	// Upsert writes the content row, replacing any prior row for the same node
	Upsert(ctx context.Context, content *docsystem.FileContent) error
}
