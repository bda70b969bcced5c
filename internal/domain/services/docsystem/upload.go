package docsystem

import (
	"context"
)

// UploadCoordinator runs the two-step upload saga across the database and the object store
type UploadCoordinator interface {
	// IssueUploadSlot finds or creates the file node and returns a signed upload target for it.
	// A newly created node is removed again if the upload target cannot be issued.
	IssueUploadSlot(ctx context.Context, userID string, req *IssueUploadSlotRequest) (*UploadSlot, error)

	// ConfirmUpload verifies the uploaded object exists and points the node's content at it.
	// A missing object removes the node; a failed content write removes the object.
	ConfirmUpload(ctx context.Context, userID string, req *ConfirmUploadRequest) (*ConfirmUploadResult, error)
}

// IssueUploadSlotRequest represents an upload-url request
type IssueUploadSlotRequest struct {
	ProjectID   string  `json:"projectId"`
	ParentID    *string `json:"parentId,omitempty"` // null or "" = root
	FileName    string  `json:"fileName"`
	ContentType string  `json:"contentType,omitempty"`
}

// UploadSlot is where the client should PUT the file bytes
type UploadSlot struct {
	NodeID      string `json:"nodeId"`
	StorageKey  string `json:"storagePath"`
	UploadURL   string `json:"uploadUrl"`
	UploadToken string `json:"token"`
	Reused      bool   `json:"-"`
}

// ConfirmUploadRequest represents a confirm-upload request
type ConfirmUploadRequest struct {
	NodeID     string `json:"nodeId"`
	StorageKey string `json:"storagePath"`
	Token      string `json:"token,omitempty"` // optional echo of UploadSlot.UploadToken
}

// ConfirmUploadResult is returned once the content row points at the object
type ConfirmUploadResult struct {
	Success bool   `json:"success"`
	NodeID  string `json:"nodeId"`
}
