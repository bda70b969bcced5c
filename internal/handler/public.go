package handler

import (
	"log/slog"
	"net/http"

	docsysSvc "nodestore/internal/domain/services/docsystem"
	"nodestore/internal/httputil"
)

// PublicHandler serves the shareable read endpoints
type PublicHandler struct {
	publicService docsysSvc.PublicService
	logger        *slog.Logger
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(publicService docsysSvc.PublicService, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		publicService: publicService,
		logger:        logger,
	}
}

// GetNode returns a node with its breadcrumb and content, or a redirect for members
// GET /api/public/node?nodeId=
func (h *PublicHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	nodeID := r.URL.Query().Get("nodeId")
	if nodeID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "nodeId is required")
		return
	}

	resp, err := h.publicService.GetPublicNode(r.Context(), httputil.GetUserID(r), nodeID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// GetWorkspace returns a workspace and its nodes, or a redirect for members
// GET /api/public/workspace?workspaceId=
func (h *PublicHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspaceId")
	if workspaceID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "workspaceId is required")
		return
	}

	resp, err := h.publicService.GetPublicWorkspace(r.Context(), httputil.GetUserID(r), workspaceID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}
