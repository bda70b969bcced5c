package docsystem

import (
	"context"
	"fmt"

	"nodestore/internal/domain"
	models "nodestore/internal/domain/models/docsystem"
	docsysRepo "nodestore/internal/domain/repositories/docsystem"
	"nodestore/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresMembershipRepository implements the MembershipRepository interface
type PostgresMembershipRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(config *postgres.RepositoryConfig) docsysRepo.MembershipRepository {
	return &PostgresMembershipRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// IsMember reports whether userID owns projectID or has a membership row in it
func (r *PostgresMembershipRepository) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	if !postgres.AllUUIDs(&projectID, &userID) {
		return false, nil
	}

	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s WHERE project_id = $1 AND user_id = $2
		) OR EXISTS (
			SELECT 1 FROM %s WHERE id = $1 AND owner_id = $2
		)
	`, r.tables.ProjectMembers, r.tables.Projects)

	var member bool
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, projectID, userID).Scan(&member); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return member, nil
}

// Add inserts a membership or updates the role of an existing one
func (r *PostgresMembershipRepository) Add(ctx context.Context, membership *models.Membership) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, user_id) DO UPDATE SET role = EXCLUDED.role
		RETURNING created_at
	`, r.tables.ProjectMembers)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		membership.ProjectID,
		membership.UserID,
		membership.Role,
	).Scan(&membership.CreatedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("project %s: %w", membership.ProjectID, domain.ErrNotFound)
		}
		return fmt.Errorf("add membership: %w", err)
	}
	return nil
}
