package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nodestore/internal/domain"
	models "nodestore/internal/domain/models/docsystem"
	docsysRepo "nodestore/internal/domain/repositories/docsystem"
	"nodestore/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const nodeColumns = `id, project_id, parent_id, name, type, is_public, public_access_role, created_at`

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *postgres.RepositoryConfig) docsysRepo.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// scanNode reads one row selected with nodeColumns.
// The public access role is resolved here and nowhere else.
func scanNode(row pgx.Row) (*models.Node, error) {
	var node models.Node
	var role *string
	err := row.Scan(
		&node.ID,
		&node.ProjectID,
		&node.ParentID,
		&node.Name,
		&node.Type,
		&node.IsPublic,
		&role,
		&node.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	node.PublicAccessRole, node.SchemaVersion = models.ResolveAccessRole(role)
	return &node, nil
}

// Create inserts a node. An empty ID is generated by the database.
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.Node) error {
	err := r.insert(ctx, node)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("%w: %s %q already exists here", domain.ErrValidation, node.Type, node.Name)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("project or parent of %q: %w", node.Name, domain.ErrNotFound)
		}
		return fmt.Errorf("create node: %w", err)
	}
	return nil
}

func (r *PostgresNodeRepository) insert(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, parent_id, name, type, is_public, public_access_role)
		VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		nullIfEmpty(node.ID),
		node.ProjectID,
		node.ParentID,
		node.Name,
		node.Type,
		node.IsPublic,
		nullIfEmpty(string(node.PublicAccessRole)),
	).Scan(&node.ID, &node.CreatedAt)
	if err != nil {
		return err
	}

	role := nullIfEmpty(string(node.PublicAccessRole))
	node.PublicAccessRole, node.SchemaVersion = models.ResolveAccessRole(role)
	return nil
}

// GetByID retrieves a node by ID
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	if !postgres.IsUUID(id) {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, nodeColumns, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	node, err := scanNode(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return node, nil
}

// FindFile looks up a file by name under parentID, treating NULL parents as equal
func (r *PostgresNodeRepository) FindFile(ctx context.Context, projectID string, parentID *string, name string) (*models.Node, error) {
	if !postgres.AllUUIDs(&projectID, parentID) {
		return nil, fmt.Errorf("file %q: %w", name, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1
		  AND parent_id IS NOT DISTINCT FROM $2::uuid
		  AND name = $3
		  AND type = 'file'
	`, nodeColumns, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	node, err := scanNode(executor.QueryRow(ctx, query, projectID, parentID, name))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("file %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find file: %w", err)
	}
	return node, nil
}

// FindOrCreateFile returns the existing file or inserts it.
// Two concurrent callers both miss the lookup; the unique index
// (project_id, parent_id, name, type) rejects the second insert, which then
// re-reads the winner's row instead of failing.
func (r *PostgresNodeRepository) FindOrCreateFile(ctx context.Context, node *models.Node) (*models.Node, bool, error) {
	existing, err := r.FindFile(ctx, node.ProjectID, node.ParentID, node.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	node.Type = models.NodeTypeFile
	err = r.insert(ctx, node)
	if err == nil {
		return node, true, nil
	}
	if !postgres.IsPgDuplicateError(err) {
		if postgres.IsPgForeignKeyError(err) {
			return nil, false, fmt.Errorf("project or parent of %q: %w", node.Name, domain.ErrNotFound)
		}
		return nil, false, fmt.Errorf("create file node: %w", err)
	}

	r.logger.Debug("concurrent create lost the race, reusing existing node",
		"project_id", node.ProjectID,
		"name", node.Name,
	)
	existing, err = r.FindFile(ctx, node.ProjectID, node.ParentID, node.Name)
	if err != nil {
		return nil, false, fmt.Errorf("re-read file after conflict: %w", err)
	}
	return existing, false, nil
}

// ListByProject returns every node in a project, folders first then by name
func (r *PostgresNodeRepository) ListByProject(ctx context.Context, projectID string) ([]models.Node, error) {
	if !postgres.IsUUID(projectID) {
		return []models.Node{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1
		ORDER BY (type = 'folder') DESC, name ASC
	`, nodeColumns, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, *node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}

// Delete hard-deletes a node; content rows and children cascade
func (r *PostgresNodeRepository) Delete(ctx context.Context, id string) error {
	if !postgres.IsUUID(id) {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
