package docsystem

import (
	"context"

	"nodestore/internal/domain/models/docsystem"
)

// ProjectRepository defines data access operations for projects
type ProjectRepository interface {
	// Create creates a new project and returns it with generated ID and timestamps
	Create(ctx context.Context, project *docsystem.Project) error

	// GetByID retrieves a project by ID without ownership scoping.
	// Visibility is decided by the access gate, not the query.
	GetByID(ctx context.Context, id string) (*docsystem.Project, error)

	// Delete removes a project and, by cascade, its members, nodes and contents.
	// Used by seeding only.
	Delete(ctx context.Context, id string) error
}

// MembershipRepository reads project membership
type MembershipRepository interface {
	// IsMember reports whether userID belongs to projectID
	IsMember(ctx context.Context, projectID, userID string) (bool, error)

	// Add inserts or updates a membership (used by seeding only)
	Add(ctx context.Context, membership *docsystem.Membership) error
}
