package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"nodestore/internal/domain"
	"nodestore/internal/httputil"
)

// handleError converts domain errors to HTTP responses.
// Server-side failures are logged with their cause and reported generically.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var missing *domain.UploadMissingError

	switch {
	// checked before ErrNotFound: a vanished upload is the client's fault
	case errors.As(err, &missing):
		httputil.RespondError(w, http.StatusBadRequest, missing.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	default:
		logger.Error("request failed", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
