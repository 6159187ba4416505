package http

import (
	"time"

	"github.com/quillworks/campaign-service/internal/campaign_service/domain"
)

// --- Request DTOs ---

type CreateCampaignRequestDTO struct {
	Title      string   `json:"title" validate:"required,max=200"`
	Recipients []string `json:"recipients" validate:"required,min=1,dive,email"`
}

type ScheduleCampaignRequestDTO struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

type PauseCampaignRequestDTO struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type FailCampaignRequestDTO struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type RetryDeliveriesRequestDTO struct {
	// MaxRetries 0 means "use the configured default".
	MaxRetries int `json:"max_retries" validate:"omitempty,min=1,max=10"`
}

// --- Response DTOs ---

// OperationResponseDTO is the {success, message} envelope for lifecycle ops.
type OperationResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type RetryResponseDTO struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	RetriedCount int    `json:"retried_count"`
}

type CampaignListResponseDTO struct {
	Campaigns  []*domain.Campaign `json:"campaigns"`
	TotalCount int                `json:"total_count"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
}

// ErrorResponseDTO is the {error} envelope for failures.
type ErrorResponseDTO struct {
	Error string `json:"error"`
}
