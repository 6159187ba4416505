package http

import (
	"log/slog"
	"net/http"

	"github.com/quillworks/campaign-service/internal/campaign_service/app"
)

// SchedulerHandler exposes the manual scheduler trigger and its status.
type SchedulerHandler struct {
	runner *app.SchedulerRunner
	logger *slog.Logger
}

func NewSchedulerHandler(runner *app.SchedulerRunner, logger *slog.Logger) *SchedulerHandler {
	return &SchedulerHandler{runner: runner, logger: logger}
}

// RunScheduler triggers one scheduler pass. Safe to call while the periodic
// ticker is also running; due campaigns are claimed at most once.
func (h *SchedulerHandler) RunScheduler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.Run(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Manual scheduler run failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*app.RunSummary
	}{Success: true, RunSummary: summary})
}

func (h *SchedulerHandler) GetSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.runner.Status())
}
