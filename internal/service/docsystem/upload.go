package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"nodestore/internal/config"
	"nodestore/internal/domain"
	models "nodestore/internal/domain/models/docsystem"
	docsysRepo "nodestore/internal/domain/repositories/docsystem"
	"nodestore/internal/domain/services"
	docsysSvc "nodestore/internal/domain/services/docsystem"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

var fileNamePattern = regexp.MustCompile(`^[^/]+$`)

// uploadCoordinator implements the UploadCoordinator interface
type uploadCoordinator struct {
	nodeRepo    docsysRepo.NodeRepository
	contentRepo docsysRepo.FileContentRepository
	store       services.ObjectStore
	tickets     services.UploadTicketSigner
	validator   *ResourceValidator
	uploadTTL   time.Duration
	logger      *slog.Logger
}

// NewUploadCoordinator creates a new upload coordinator.
// store must be built with services.CapabilityElevated so compensations can delete objects.
func NewUploadCoordinator(
	nodeRepo docsysRepo.NodeRepository,
	contentRepo docsysRepo.FileContentRepository,
	store services.ObjectStore,
	tickets services.UploadTicketSigner,
	validator *ResourceValidator,
	uploadTTL time.Duration,
	logger *slog.Logger,
) docsysSvc.UploadCoordinator {
	return &uploadCoordinator{
		nodeRepo:    nodeRepo,
		contentRepo: contentRepo,
		store:       store,
		tickets:     tickets,
		validator:   validator,
		uploadTTL:   uploadTTL,
		logger:      logger,
	}
}

// IssueUploadSlot finds or creates the file node, then presigns a PUT to its canonical key
func (s *uploadCoordinator) IssueUploadSlot(ctx context.Context, userID string, req *docsysSvc.IssueUploadSlotRequest) (*docsysSvc.UploadSlot, error) {
	// Normalize empty string parent to nil for root-level files
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	if err := s.validateIssueRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := s.validator.ValidateMembership(ctx, req.ProjectID, userID); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateParentFolder(ctx, req.ParentID, req.ProjectID); err != nil {
		return nil, err
	}

	node, created, err := s.nodeRepo.FindOrCreateFile(ctx, &models.Node{
		ProjectID: req.ProjectID,
		ParentID:  req.ParentID,
		Name:      req.FileName,
		Type:      models.NodeTypeFile,
	})
	if err != nil {
		return nil, &domain.PersistenceError{Op: "find or create file node", Err: err}
	}

	s.logger.Debug("upload slot node resolved",
		"node_id", node.ID,
		"project_id", node.ProjectID,
		"created", created,
	)

	key := CanonicalPath(node.ProjectID, node.ID)

	upload, err := s.store.SignedUploadURL(ctx, key, req.ContentType, s.uploadTTL)
	if err != nil {
		primary := &domain.UpstreamStorageError{Op: "issue signed upload url", Err: err}
		s.discardNode(ctx, node, created, primary)
		return nil, primary
	}

	uploadID := uuid.NewString()
	token, err := s.tickets.Sign(&services.UploadTicket{
		UploadID:   uploadID,
		NodeID:     node.ID,
		StorageKey: key,
		UserID:     userID,
		ExpiresAt:  upload.ExpiresAt,
	})
	if err != nil {
		primary := &domain.PersistenceError{Op: "sign upload ticket", Err: err}
		s.discardNode(ctx, node, created, primary)
		return nil, primary
	}

	s.logger.Info("upload slot issued",
		"node_id", node.ID,
		"upload_id", uploadID,
		"key", key,
		"reused", !created,
		"expires_at", upload.ExpiresAt,
	)

	return &docsysSvc.UploadSlot{
		NodeID:      node.ID,
		StorageKey:  key,
		UploadURL:   upload.URL,
		UploadToken: token,
		Reused:      !created,
	}, nil
}

// ConfirmUpload checks the object landed and records a storage reference for it
func (s *uploadCoordinator) ConfirmUpload(ctx context.Context, userID string, req *docsysSvc.ConfirmUploadRequest) (*docsysSvc.ConfirmUploadResult, error) {
	if err := s.validateConfirmRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	node, err := s.nodeRepo.GetByID(ctx, req.NodeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError(fmt.Sprintf("node %s not found", req.NodeID))
		}
		return nil, &domain.PersistenceError{Op: "load node", Err: err}
	}
	if !node.IsFile() {
		return nil, domain.NewValidationError("uploads can only be confirmed for file nodes")
	}
	if err := s.validator.ValidateMembership(ctx, node.ProjectID, userID); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(req.StorageKey, StoragePrefix(node.ProjectID, node.ID)+"/") {
		return nil, domain.NewValidationError("storagePath does not belong to this node")
	}
	if req.Token != "" {
		if err := s.checkTicket(req, userID); err != nil {
			return nil, err
		}
	}

	found, err := s.objectExists(ctx, req.StorageKey)
	if err != nil {
		return nil, &domain.UpstreamStorageError{Op: "list uploaded object", Err: err}
	}
	if !found {
		primary := &domain.UploadMissingError{Message: "file not found in storage"}
		s.compensate(ctx, "delete node with missing upload", primary, func(ctx context.Context) error {
			return s.nodeRepo.Delete(ctx, node.ID)
		})
		return nil, primary
	}

	err = s.contentRepo.Upsert(ctx, &models.FileContent{
		NodeID: node.ID,
		Text:   StorageRef(req.StorageKey),
	})
	if err != nil {
		primary := &domain.PersistenceError{Op: "save file content reference", Err: err}
		s.compensate(ctx, "delete orphaned object", primary, func(ctx context.Context) error {
			return s.store.Delete(ctx, req.StorageKey)
		})
		return nil, primary
	}

	s.logger.Info("upload confirmed",
		"node_id", node.ID,
		"key", req.StorageKey,
	)

	return &docsysSvc.ConfirmUploadResult{
		Success: true,
		NodeID:  node.ID,
	}, nil
}

// objectExists lists the key's directory. The store surface has no HEAD-style probe.
func (s *uploadCoordinator) objectExists(ctx context.Context, key string) (bool, error) {
	entries, err := s.store.List(ctx, path.Dir(key))
	if err != nil {
		return false, err
	}
	name := path.Base(key)
	for _, e := range entries {
		if e.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *uploadCoordinator) checkTicket(req *docsysSvc.ConfirmUploadRequest, userID string) error {
	ticket, err := s.tickets.Verify(req.Token)
	if err != nil {
		return fmt.Errorf("%w: invalid upload token", domain.ErrValidation)
	}
	if ticket.NodeID != req.NodeID || ticket.StorageKey != req.StorageKey || ticket.UserID != userID {
		s.logger.Warn("upload token does not match confirm request",
			"upload_id", ticket.UploadID,
			"node_id", req.NodeID,
		)
		return domain.NewValidationError("upload token does not match this upload")
	}
	return nil
}

// discardNode undoes node creation. Reused nodes are left untouched.
func (s *uploadCoordinator) discardNode(ctx context.Context, node *models.Node, created bool, cause error) {
	if !created {
		return
	}
	s.compensate(ctx, "delete newly created node", cause, func(ctx context.Context) error {
		return s.nodeRepo.Delete(ctx, node.ID)
	})
}

// compensate runs undo best effort on a context that outlives client cancellation.
// A failed undo is logged; the caller still returns its original error.
func (s *uploadCoordinator) compensate(ctx context.Context, action string, cause error, undo func(context.Context) error) {
	if err := undo(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error("compensation failed, inconsistent state left behind",
			"action", action,
			"error", err,
			"cause", cause,
		)
		return
	}
	s.logger.Warn("compensation applied",
		"action", action,
		"cause", cause,
	)
}

// validateIssueRequest validates an upload slot request
func (s *uploadCoordinator) validateIssueRequest(req *docsysSvc.IssueUploadSlotRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.FileName,
			validation.Required,
			validation.Length(1, config.MaxNodeNameLength),
			validation.Match(fileNamePattern).Error("file name cannot contain slashes"),
		),
		validation.Field(&req.ContentType, validation.Length(0, config.MaxContentTypeLength)),
	)
}

// validateConfirmRequest validates a confirm request
func (s *uploadCoordinator) validateConfirmRequest(req *docsysSvc.ConfirmUploadRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.NodeID, validation.Required),
		validation.Field(&req.StorageKey,
			validation.Required,
			validation.Length(1, config.MaxStorageKeyLength),
		),
	)
}
