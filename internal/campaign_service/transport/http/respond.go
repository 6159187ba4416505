package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/quillworks/campaign-service/internal/campaign_service/domain"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponseDTO{Error: message})
}

// respondDomainError maps domain errors to client statuses; anything else is
// logged with context and surfaced as a generic internal error so internals
// don't leak.
func respondDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, operation, resourceID string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "campaign not found")
	case errors.Is(err, domain.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		logger.ErrorContext(r.Context(), fmt.Sprintf("%s failed", operation),
			"error", err, "resource_id", resourceID)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
