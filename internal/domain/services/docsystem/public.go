package docsystem

import (
	"context"
	"time"

	"nodestore/internal/domain/models/docsystem"
)

// PublicService serves nodes and workspaces to anonymous or authenticated readers
type PublicService interface {
	// GetPublicNode returns a node with its breadcrumb and content, or a redirect for members
	GetPublicNode(ctx context.Context, userID, nodeID string) (*PublicNodeResponse, error)

	// GetPublicWorkspace returns a workspace and its node listing, or a redirect for members
	GetPublicWorkspace(ctx context.Context, userID, workspaceID string) (*PublicWorkspaceResponse, error)
}

// PublicNode is the externally visible projection of a node
type PublicNode struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	Type             docsystem.NodeType   `json:"type"`
	ParentID         *string              `json:"parentId"`
	IsPublic         bool                 `json:"isPublic"`
	PublicAccessRole docsystem.AccessRole `json:"publicAccessRole"`
	CreatedAt        time.Time            `json:"createdAt"`
}

// PublicWorkspace is the externally visible projection of a project
type PublicWorkspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicNodeResponse is either a served node or a redirect
type PublicNodeResponse struct {
	Node            *PublicNode `json:"node,omitempty"`
	Path            []string    `json:"path,omitempty"`
	Content         *string     `json:"content"`
	SignedURL       *string     `json:"signedUrl"`
	RedirectTo      string      `json:"redirectTo,omitempty"`
	IsAuthenticated bool        `json:"isAuthenticated"`
}

// PublicWorkspaceResponse is either a served workspace listing or a redirect.
// A served workspace always carries a non-nil Nodes, so an empty one encodes as [].
type PublicWorkspaceResponse struct {
	Workspace       *PublicWorkspace `json:"workspace,omitempty"`
	Nodes           []PublicNode     `json:"nodes"`
	RedirectTo      string           `json:"redirectTo,omitempty"`
	IsAuthenticated bool             `json:"isAuthenticated"`
}

// ToPublicNode projects a stored node for public output
func ToPublicNode(n *docsystem.Node) PublicNode {
	return PublicNode{
		ID:               n.ID,
		Name:             n.Name,
		Type:             n.Type,
		ParentID:         n.ParentID,
		IsPublic:         n.IsPublic,
		PublicAccessRole: n.PublicAccessRole,
		CreatedAt:        n.CreatedAt,
	}
}
