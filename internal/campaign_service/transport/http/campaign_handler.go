package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/quillworks/campaign-service/internal/campaign_service/app"
	"github.com/quillworks/campaign-service/internal/campaign_service/domain"
	"github.com/quillworks/campaign-service/internal/campaign_service/middleware"
)

// CampaignHandler exposes the campaign lifecycle over HTTP.
type CampaignHandler struct {
	lifecycle *app.LifecycleService
	retry     *app.RetryCoordinator
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewCampaignHandler(
	lifecycle *app.LifecycleService,
	retry *app.RetryCoordinator,
	logger *slog.Logger,
	validate *validator.Validate,
) *CampaignHandler {
	return &CampaignHandler{
		lifecycle: lifecycle,
		retry:     retry,
		logger:    logger,
		validate:  validate,
	}
}

func (h *CampaignHandler) campaignID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "campaignID"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid campaign ID in path", "error", err)
		respondError(w, http.StatusBadRequest, "invalid campaign id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *CampaignHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dto any) bool {
	if err := json.NewDecoder(r.Body).Decode(dto); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", "error", err)
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.StructCtx(r.Context(), dto); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", "error", err)
		respondError(w, http.StatusBadRequest, fmt.Sprintf("validation error: %s", err.Error()))
		return false
	}
	return true
}

func actor(r *http.Request) string {
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		if u.Email != "" {
			return u.Email
		}
		return u.ID
	}
	return ""
}

// respondOperation writes the structured lifecycle result: illegal transitions
// are a 409 with {success:false, message}, success is a 200 envelope.
func respondOperation(w http.ResponseWriter, result *app.OperationResult) {
	status := http.StatusOK
	if !result.Success {
		status = http.StatusConflict
	}
	respondJSON(w, status, OperationResponseDTO{Success: result.Success, Message: result.Message})
}

func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequestDTO
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	campaign, err := h.lifecycle.CreateCampaign(r.Context(), req.Title, req.Recipients, actor(r))
	if err != nil {
		respondDomainError(w, r, h.logger, err, "CreateCampaign", "")
		return
	}
	respondJSON(w, http.StatusCreated, campaign)
}

func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	campaign, err := h.lifecycle.GetCampaign(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "GetCampaign", id.String())
		return
	}
	respondJSON(w, http.StatusOK, campaign)
}

func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := domain.CampaignStatus(r.URL.Query().Get("status"))

	campaigns, total, err := h.lifecycle.ListCampaigns(r.Context(), status, page, pageSize)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "ListCampaigns", "")
		return
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	respondJSON(w, http.StatusOK, CampaignListResponseDTO{
		Campaigns:  campaigns,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}

func (h *CampaignHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	stats, err := h.lifecycle.GetStatistics(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "GetStatistics", id.String())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *CampaignHandler) ScheduleCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	var req ScheduleCampaignRequestDTO
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.lifecycle.Schedule(r.Context(), id, req.ScheduledAt, actor(r))
	if err != nil {
		respondDomainError(w, r, h.logger, err, "ScheduleCampaign", id.String())
		return
	}
	respondOperation(w, result)
}

func (h *CampaignHandler) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	var req PauseCampaignRequestDTO
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.lifecycle.Pause(r.Context(), id, req.Reason, actor(r))
	if err != nil {
		respondDomainError(w, r, h.logger, err, "PauseCampaign", id.String())
		return
	}
	respondOperation(w, result)
}

func (h *CampaignHandler) ResumeCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	result, err := h.lifecycle.Resume(r.Context(), id, actor(r))
	if err != nil {
		respondDomainError(w, r, h.logger, err, "ResumeCampaign", id.String())
		return
	}
	respondOperation(w, result)
}

func (h *CampaignHandler) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	result, err := h.lifecycle.Cancel(r.Context(), id, actor(r))
	if err != nil {
		respondDomainError(w, r, h.logger, err, "CancelCampaign", id.String())
		return
	}
	respondOperation(w, result)
}

func (h *CampaignHandler) FailCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	var req FailCampaignRequestDTO
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.lifecycle.MarkFailed(r.Context(), id, req.Reason, actor(r))
	if err != nil {
		respondDomainError(w, r, h.logger, err, "FailCampaign", id.String())
		return
	}
	respondOperation(w, result)
}

func (h *CampaignHandler) RetryDeliveries(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	var req RetryDeliveriesRequestDTO
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.retry.RetryFailedDeliveries(r.Context(), id, req.MaxRetries)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "RetryDeliveries", id.String())
		return
	}
	respondJSON(w, http.StatusOK, RetryResponseDTO{
		Success:      result.Success,
		Message:      result.Message,
		RetriedCount: result.RetriedCount,
	})
}
