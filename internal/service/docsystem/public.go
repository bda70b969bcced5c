package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"

	"nodestore/internal/domain"
	models "nodestore/internal/domain/models/docsystem"
	docsysRepo "nodestore/internal/domain/repositories/docsystem"
	docsysSvc "nodestore/internal/domain/services/docsystem"
)

// publicService implements the PublicService interface
type publicService struct {
	nodeRepo    docsysRepo.NodeRepository
	contentRepo docsysRepo.FileContentRepository
	projectRepo docsysRepo.ProjectRepository
	gate        docsysSvc.AccessGate
	resolver    docsysSvc.ContentResolver
	walker      docsysSvc.TreeWalker
	logger      *slog.Logger
}

// NewPublicService creates the read side used by shared links
func NewPublicService(
	nodeRepo docsysRepo.NodeRepository,
	contentRepo docsysRepo.FileContentRepository,
	projectRepo docsysRepo.ProjectRepository,
	gate docsysSvc.AccessGate,
	resolver docsysSvc.ContentResolver,
	walker docsysSvc.TreeWalker,
	logger *slog.Logger,
) docsysSvc.PublicService {
	return &publicService{
		nodeRepo:    nodeRepo,
		contentRepo: contentRepo,
		projectRepo: projectRepo,
		gate:        gate,
		resolver:    resolver,
		walker:      walker,
		logger:      logger,
	}
}

// GetPublicNode gates on the node's visibility, then returns its breadcrumb and content
func (s *publicService) GetPublicNode(ctx context.Context, userID, nodeID string) (*docsysSvc.PublicNodeResponse, error) {
	if nodeID == "" {
		return nil, domain.NewValidationError("nodeId is required")
	}

	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError("node not found")
		}
		return nil, &domain.PersistenceError{Op: "load node", Err: err}
	}

	decision, err := s.gate.Evaluate(ctx, docsysSvc.AccessTarget{
		ProjectID: node.ProjectID,
		IsPublic:  node.IsPublic,
	}, userID)
	if err != nil {
		return nil, err
	}
	if decision.Outcome == docsysSvc.OutcomeRedirect {
		return &docsysSvc.PublicNodeResponse{
			RedirectTo:      nodeAppPath(node),
			IsAuthenticated: decision.IsAuthenticated,
		}, nil
	}

	path, err := s.walker.BreadcrumbPath(ctx, node)
	if err != nil {
		return nil, err
	}

	pub := docsysSvc.ToPublicNode(node)
	resp := &docsysSvc.PublicNodeResponse{
		Node:            &pub,
		Path:            path,
		IsAuthenticated: decision.IsAuthenticated,
	}

	if !node.IsFile() {
		return resp, nil
	}

	text, err := s.storedText(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	resolved := s.resolver.Resolve(ctx, node, text)
	resp.Content = resolved.Content
	resp.SignedURL = resolved.SignedURL
	return resp, nil
}

// GetPublicWorkspace gates on the project's visibility, then lists every node in it
func (s *publicService) GetPublicWorkspace(ctx context.Context, userID, workspaceID string) (*docsysSvc.PublicWorkspaceResponse, error) {
	if workspaceID == "" {
		return nil, domain.NewValidationError("workspaceId is required")
	}

	project, err := s.projectRepo.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError("workspace not found")
		}
		return nil, &domain.PersistenceError{Op: "load workspace", Err: err}
	}

	decision, err := s.gate.Evaluate(ctx, docsysSvc.AccessTarget{
		ProjectID: project.ID,
		IsPublic:  project.IsPublic,
	}, userID)
	if err != nil {
		return nil, err
	}
	if decision.Outcome == docsysSvc.OutcomeRedirect {
		return &docsysSvc.PublicWorkspaceResponse{
			RedirectTo:      "/app/" + url.PathEscape(project.ID),
			IsAuthenticated: decision.IsAuthenticated,
		}, nil
	}

	nodes, err := s.nodeRepo.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list workspace nodes", Err: err}
	}
	sortFoldersFirst(nodes)

	out := make([]docsysSvc.PublicNode, 0, len(nodes))
	for i := range nodes {
		out = append(out, docsysSvc.ToPublicNode(&nodes[i]))
	}

	s.logger.Debug("public workspace served",
		"workspace_id", project.ID,
		"node_count", len(out),
		"authenticated", decision.IsAuthenticated,
	)

	return &docsysSvc.PublicWorkspaceResponse{
		Workspace: &docsysSvc.PublicWorkspace{
			ID:        project.ID,
			Name:      project.Name,
			IsPublic:  project.IsPublic,
			CreatedAt: project.CreatedAt,
		},
		Nodes:           out,
		IsAuthenticated: decision.IsAuthenticated,
	}, nil
}

// storedText returns the node's file_contents text, or "" when there is no row
func (s *publicService) storedText(ctx context.Context, nodeID string) (string, error) {
	row, err := s.contentRepo.Get(ctx, nodeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", &domain.PersistenceError{Op: "load file content", Err: err}
	}
	return row.Text, nil
}

func nodeAppPath(node *models.Node) string {
	return fmt.Sprintf("/app/%s?node=%s", url.PathEscape(node.ProjectID), url.QueryEscape(node.ID))
}

// sortFoldersFirst orders folders before files, then by name
func sortFoldersFirst(nodes []models.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		fi, fj := nodes[i].Type == models.NodeTypeFolder, nodes[j].Type == models.NodeTypeFolder
		if fi != fj {
			return fi
		}
		return nodes[i].Name < nodes[j].Name
	})
}
