package docsystem

import (
	"context"
	"errors"
	"fmt"

	"nodestore/internal/domain"
	models "nodestore/internal/domain/models/docsystem"
	docsysRepo "nodestore/internal/domain/repositories/docsystem"
)

// ResourceValidator checks that the caller may write into a project
// and that referenced parent nodes are usable
type ResourceValidator struct {
	members  docsysRepo.MembershipRepository
	nodeRepo docsysRepo.NodeRepository
}

// NewResourceValidator creates a new resource validator
func NewResourceValidator(
	members docsysRepo.MembershipRepository,
	nodeRepo docsysRepo.NodeRepository,
) *ResourceValidator {
	return &ResourceValidator{
		members:  members,
		nodeRepo: nodeRepo,
	}
}

// ValidateMembership ensures userID belongs to projectID.
// Returns an AccessDeniedError for non-members.
func (v *ResourceValidator) ValidateMembership(ctx context.Context, projectID, userID string) error {
	if userID == "" {
		return &domain.UnauthorizedError{Message: "authentication required"}
	}

	ok, err := v.members.IsMember(ctx, projectID, userID)
	if err != nil {
		return &domain.PersistenceError{Op: "check project membership", Err: err}
	}
	if !ok {
		return domain.NewAccessDenied("not a member of this project")
	}
	return nil
}

// ValidateParentFolder ensures parentID names a folder inside projectID.
// A nil parent is the project root and always valid.
func (v *ResourceValidator) ValidateParentFolder(ctx context.Context, parentID *string, projectID string) error {
	if parentID == nil {
		return nil
	}

	parent, err := v.nodeRepo.GetByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewNotFoundError(fmt.Sprintf("parent folder %s not found", *parentID))
		}
		return &domain.PersistenceError{Op: "load parent folder", Err: err}
	}
	if parent.ProjectID != projectID {
		return domain.NewValidationError("parent folder belongs to a different project")
	}
	if parent.Type != models.NodeTypeFolder {
		return domain.NewValidationError("parent must be a folder")
	}
	return nil
}
