package docsystem

import (
	"time"
)

// Project is the collection owning a node tree. Exposed publicly as a "workspace".
type Project struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"ownerId" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	IsPublic  bool      `json:"isPublic" db:"is_public"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// MemberRole is a user's role within a project
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleEditor MemberRole = "editor"
	MemberRoleViewer MemberRole = "viewer"
)

// Membership grants a user access to a private project's nodes
type Membership struct {
	ProjectID string     `json:"projectId" db:"project_id"`
	UserID    string     `json:"userId" db:"user_id"`
	Role      MemberRole `json:"role" db:"role"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}
