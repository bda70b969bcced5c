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

// PostgresFileContentRepository implements the FileContentRepository interface
type PostgresFileContentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewFileContentRepository creates a new file content repository
func NewFileContentRepository(config *postgres.RepositoryConfig) docsysRepo.FileContentRepository {
	return &PostgresFileContentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Get returns the content row for nodeID
func (r *PostgresFileContentRepository) Get(ctx context.Context, nodeID string) (*models.FileContent, error) {
	if !postgres.IsUUID(nodeID) {
		return nil, fmt.Errorf("content for node %s: %w", nodeID, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		SELECT node_id, text, updated_at
		FROM %s
		WHERE node_id = $1
	`, r.tables.FileContents)

	var content models.FileContent
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, nodeID).Scan(
		&content.NodeID,
		&content.Text,
		&content.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("content for node %s: %w", nodeID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file content: %w", err)
	}
	return &content, nil
}

// Upsert writes the row keyed by node_id, replacing any previous text
func (r *PostgresFileContentRepository) Upsert(ctx context.Context, content *models.FileContent) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (node_id, text, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (node_id) DO UPDATE
		SET text = EXCLUDED.text, updated_at = now()
		RETURNING updated_at
	`, r.tables.FileContents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, content.NodeID, content.Text).Scan(&content.UpdatedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("node %s: %w", content.NodeID, domain.ErrNotFound)
		}
		return fmt.Errorf("upsert file content: %w", err)
	}
	return nil
}
