package docsystem

import (
	"time"
)

// NodeType distinguishes files from folders
type NodeType string

const (
	NodeTypeFile   NodeType = "file"
	NodeTypeFolder NodeType = "folder"
)

// Valid reports whether t is a known node type
func (t NodeType) Valid() bool {
	return t == NodeTypeFile || t == NodeTypeFolder
}

// AccessRole is the role granted to anonymous viewers of a public node
type AccessRole string

const (
	AccessRoleViewer AccessRole = "viewer"
	AccessRoleEditor AccessRole = "editor"
)

// DefaultPublicAccessRole applies to rows written before public_access_role existed.
// Matches the historical behavior; change here, not at call sites.
const DefaultPublicAccessRole = AccessRoleEditor

// NodeSchemaVersion records which generation of the nodes row a Node was loaded from
type NodeSchemaVersion int

const (
	// NodeSchemaLegacy rows have no public_access_role; the default was applied on load
	NodeSchemaLegacy NodeSchemaVersion = 1
	// NodeSchemaCurrent rows carry an explicit public_access_role
	NodeSchemaCurrent NodeSchemaVersion = 2
)

// ResolveAccessRole maps the nullable column to an effective role and schema version.
// Unknown values are treated like NULL.
func ResolveAccessRole(raw *string) (AccessRole, NodeSchemaVersion) {
	if raw == nil {
		return DefaultPublicAccessRole, NodeSchemaLegacy
	}
	switch AccessRole(*raw) {
	case AccessRoleViewer, AccessRoleEditor:
		return AccessRole(*raw), NodeSchemaCurrent
	default:
		return DefaultPublicAccessRole, NodeSchemaLegacy
	}
}

// Node is a file or folder in a project's tree
type Node struct {
	ID               string            `json:"id" db:"id"`
	ProjectID        string            `json:"projectId" db:"project_id"`
	ParentID         *string           `json:"parentId" db:"parent_id"` // NULL = root level
	Name             string            `json:"name" db:"name"`
	Type             NodeType          `json:"type" db:"type"`
	IsPublic         bool              `json:"isPublic" db:"is_public"`
	PublicAccessRole AccessRole        `json:"publicAccessRole" db:"public_access_role"`
	SchemaVersion    NodeSchemaVersion `json:"-"`
	CreatedAt        time.Time         `json:"createdAt" db:"created_at"`
}

// IsFile reports whether the node holds content
func (n *Node) IsFile() bool {
	return n.Type == NodeTypeFile
}

// FileContent is the single content row of a file node.
// Text is either literal content or a "storage:<key>" reference.
type FileContent struct {
	NodeID    string    `json:"nodeId" db:"node_id"`
	Text      string    `json:"text" db:"text"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
