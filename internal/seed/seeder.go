package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nodestore/internal/domain"
	models "nodestore/internal/domain/models/docsystem"
	"nodestore/internal/domain/repositories"
	docsysRepo "nodestore/internal/domain/repositories/docsystem"
	serviceDocsys "nodestore/internal/service/docsystem"
)

// ObjectWriter stores seed objects. *s3store.Store satisfies it.
type ObjectWriter interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

// Seeder writes a Fixture in one transaction
type Seeder struct {
	tx       repositories.TransactionManager
	projects docsysRepo.ProjectRepository
	members  docsysRepo.MembershipRepository
	nodes    docsysRepo.NodeRepository
	contents docsysRepo.FileContentRepository
	objects  ObjectWriter
	logger   *slog.Logger
}

// NewSeeder creates a seeder. objects may be nil when the fixture has no objects.
func NewSeeder(
	tx repositories.TransactionManager,
	projects docsysRepo.ProjectRepository,
	members docsysRepo.MembershipRepository,
	nodes docsysRepo.NodeRepository,
	contents docsysRepo.FileContentRepository,
	objects ObjectWriter,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{
		tx:       tx,
		projects: projects,
		members:  members,
		nodes:    nodes,
		contents: contents,
		objects:  objects,
		logger:   logger,
	}
}

// Result summarizes a completed load
type Result struct {
	ProjectID string
	Nodes     int
	Objects   int
}

// Options controls a load
type Options struct {
	// OwnerID overrides the fixture's owner_id
	OwnerID string
	// Reset deletes an existing project with the fixture's id first
	Reset bool
}

// Load writes f. Objects are uploaded inside the transaction, so a failed load
// may leave objects behind but never half a tree.
func (s *Seeder) Load(ctx context.Context, f *Fixture, opts Options) (*Result, error) {
	ownerID := opts.OwnerID
	if ownerID == "" {
		ownerID = f.Project.OwnerID
	}
	if ownerID == "" {
		return nil, errors.New("project owner is required: set owner_id or pass an owner")
	}

	result := &Result{}
	err := s.tx.ExecTx(ctx, func(ctx context.Context) error {
		if opts.Reset && f.Project.ID != "" {
			err := s.projects.Delete(ctx, f.Project.ID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("reset project: %w", err)
			}
		}

		project := &models.Project{
			ID:       f.Project.ID,
			OwnerID:  ownerID,
			Name:     f.Project.Name,
			IsPublic: f.Project.Public,
		}
		if err := s.projects.Create(ctx, project); err != nil {
			return err
		}
		result.ProjectID = project.ID

		for _, m := range f.Members {
			err := s.members.Add(ctx, &models.Membership{
				ProjectID: project.ID,
				UserID:    m.UserID,
				Role:      m.Role,
			})
			if err != nil {
				return fmt.Errorf("add member %s: %w", m.UserID, err)
			}
		}

		return s.createNodes(ctx, project.ID, nil, f.Nodes, result)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("fixture loaded",
		"project_id", result.ProjectID,
		"nodes", result.Nodes,
		"objects", result.Objects,
	)
	return result, nil
}

func (s *Seeder) createNodes(ctx context.Context, projectID string, parentID *string, fixtures []NodeFixture, result *Result) error {
	for _, nf := range fixtures {
		node := &models.Node{
			ID:               nf.ID,
			ProjectID:        projectID,
			ParentID:         parentID,
			Name:             nf.Name,
			Type:             nf.Type,
			IsPublic:         nf.Public,
			PublicAccessRole: models.AccessRole(nf.AccessRole),
		}
		if err := s.nodes.Create(ctx, node); err != nil {
			return fmt.Errorf("create %s: %w", nf.Name, err)
		}
		result.Nodes++

		if node.IsFile() {
			if err := s.writeContent(ctx, node, nf); err != nil {
				return err
			}
			if nf.Object != nil {
				result.Objects++
			}
			continue
		}

		id := node.ID
		if err := s.createNodes(ctx, projectID, &id, nf.Children, result); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) writeContent(ctx context.Context, node *models.Node, nf NodeFixture) error {
	text := nf.Text

	if obj := nf.Object; obj != nil {
		if s.objects == nil {
			return fmt.Errorf("%s: fixture has objects but no object store is configured", nf.Name)
		}

		key := serviceDocsys.CanonicalPath(node.ProjectID, node.ID)
		if obj.Legacy {
			key = serviceDocsys.LegacyPath(node.ProjectID, node.ID, node.Name)
		}
		if err := s.objects.Put(ctx, key, obj.ContentType, []byte(obj.Body)); err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
		s.logger.Debug("seed object stored", "node_id", node.ID, "key", key)

		if obj.Legacy {
			// legacy rows never recorded the key
			text = ""
		} else {
			text = serviceDocsys.StorageRef(key)
		}
	}

	if text == "" && nf.Object == nil {
		// folders-only trees and empty files get no content row
		return nil
	}
	return s.contents.Upsert(ctx, &models.FileContent{NodeID: node.ID, Text: text})
}
