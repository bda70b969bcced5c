package handler

import (
	"log/slog"
	"net/http"

	docsysSvc "nodestore/internal/domain/services/docsystem"
	"nodestore/internal/httputil"
)

// UploadHandler handles the two-step file upload
type UploadHandler struct {
	uploads docsysSvc.UploadCoordinator
	logger  *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploads docsysSvc.UploadCoordinator, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		uploads: uploads,
		logger:  logger,
	}
}

type uploadURLResponse struct {
	Success bool `json:"success"`
	*docsysSvc.UploadSlot
}

// CreateUploadURL reserves a file node and returns a signed upload target
// POST /api/files/upload-url
func (h *UploadHandler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.IssueUploadSlotRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	slot, err := h.uploads.IssueUploadSlot(r.Context(), httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, uploadURLResponse{Success: true, UploadSlot: slot})
}

// ConfirmUpload links an uploaded object to its node
// POST /api/files/confirm-upload
func (h *UploadHandler) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.ConfirmUploadRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.uploads.ConfirmUpload(r.Context(), httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
